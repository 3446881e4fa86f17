package branch

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kohakuhub/kohakuhub/cmd/kohubctl/cmdutil"
)

var revertCmd = &cobra.Command{
	Use:   "revert <namespace/name> <branch> <revision>",
	Short: "Revert a branch to an earlier commit",
	Long: `Move a branch head back to an earlier commit, discarding later
history.

Examples:
  # Revert main to a commit
  kohubctl branch revert alice/bert-finetune main 3f2a91c0`,
	Args: cobra.ExactArgs(3),
	RunE: runRevert,
}

func runRevert(cmd *cobra.Command, args []string) error {
	client, err := cmdutil.GetAuthenticatedClient()
	if err != nil {
		return err
	}

	if _, _, err := cmdutil.SplitRepoID(args[0]); err != nil {
		return err
	}

	if err := client.RevertBranch(repoType, args[0], args[1], args[2]); err != nil {
		return fmt.Errorf("failed to revert branch: %w", err)
	}

	cmdutil.PrintSuccess(fmt.Sprintf("Branch '%s' reverted to %s", args[1], args[2]))
	return nil
}
