package source

import (
	"github.com/spf13/cobra"

	"github.com/kohakuhub/kohakuhub/cmd/kohubctl/cmdutil"
)

var deleteForce bool

var deleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Remove a source",
	Long: `Remove a fallback source. Cached upstream entries expire on their
own schedule.

Examples:
  # Remove with confirmation
  kohubctl source delete hf

  # Remove without confirmation
  kohubctl source delete hf --force`,
	Args: cobra.ExactArgs(1),
	RunE: runDelete,
}

func init() {
	deleteCmd.Flags().BoolVarP(&deleteForce, "force", "f", false, "Skip confirmation prompt")
}

func runDelete(cmd *cobra.Command, args []string) error {
	client, err := cmdutil.GetAuthenticatedClient()
	if err != nil {
		return err
	}

	return cmdutil.RunDeleteWithConfirmation("source", args[0], deleteForce, func() error {
		return client.DeleteFallbackSource(args[0])
	})
}
