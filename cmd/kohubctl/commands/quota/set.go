package quota

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kohakuhub/kohakuhub/cmd/kohubctl/cmdutil"
)

var (
	setPrivate int64
	setPublic  int64
)

var setCmd = &cobra.Command{
	Use:   "set <namespace>",
	Short: "Set a namespace's limits",
	Long: `Set a namespace's private and public byte limits. Requires site
admin rights. A limit of -1 means unlimited; an omitted flag leaves the
limit unchanged.

Examples:
  # Cap private storage at 10 GiB
  kohubctl quota set alice --private 10737418240

  # Remove the public limit
  kohubctl quota set alice --public -1`,
	Args: cobra.ExactArgs(1),
	RunE: runSet,
}

func init() {
	setCmd.Flags().Int64Var(&setPrivate, "private", 0, "Private byte limit (-1 = unlimited)")
	setCmd.Flags().Int64Var(&setPublic, "public", 0, "Public byte limit (-1 = unlimited)")
}

func runSet(cmd *cobra.Command, args []string) error {
	client, err := cmdutil.GetAuthenticatedClient()
	if err != nil {
		return err
	}

	if !cmd.Flags().Changed("private") && !cmd.Flags().Changed("public") {
		return fmt.Errorf("nothing to change: pass --private and/or --public")
	}

	var private, public *int64
	if cmd.Flags().Changed("private") && setPrivate >= 0 {
		private = &setPrivate
	}
	if cmd.Flags().Changed("public") && setPublic >= 0 {
		public = &setPublic
	}

	quota, err := client.UpdateQuota(args[0], private, public)
	if err != nil {
		return fmt.Errorf("failed to update quota: %w", err)
	}

	return cmdutil.PrintResourceWithSuccess(os.Stdout, quota,
		fmt.Sprintf("Quota updated for '%s'", quota.Name))
}
