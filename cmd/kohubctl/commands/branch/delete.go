package branch

import (
	"github.com/spf13/cobra"

	"github.com/kohakuhub/kohakuhub/cmd/kohubctl/cmdutil"
)

var deleteForce bool

var deleteCmd = &cobra.Command{
	Use:   "delete <namespace/name> <branch>",
	Short: "Delete a branch",
	Long: `Delete a branch. The default branch cannot be deleted.

Examples:
  # Delete with confirmation
  kohubctl branch delete alice/bert-finetune dev

  # Delete without confirmation
  kohubctl branch delete alice/bert-finetune dev --force`,
	Args: cobra.ExactArgs(2),
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

	if _, _, err := cmdutil.SplitRepoID(args[0]); err != nil {
		return err
	}

	return cmdutil.RunDeleteWithConfirmation("branch", args[1], deleteForce, func() error {
		return client.DeleteBranch(repoType, args[0], args[1])
	})
}
