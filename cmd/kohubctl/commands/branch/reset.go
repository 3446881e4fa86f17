package branch

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kohakuhub/kohakuhub/cmd/kohubctl/cmdutil"
)

var resetCmd = &cobra.Command{
	Use:   "reset <namespace/name> <branch>",
	Short: "Discard uncommitted staging changes",
	Long: `Discard any staged but uncommitted changes on a branch, restoring
it to its last commit.

Examples:
  # Reset a branch's staging area
  kohubctl branch reset alice/bert-finetune main`,
	Args: cobra.ExactArgs(2),
	RunE: runReset,
}

func runReset(cmd *cobra.Command, args []string) error {
	client, err := cmdutil.GetAuthenticatedClient()
	if err != nil {
		return err
	}

	if _, _, err := cmdutil.SplitRepoID(args[0]); err != nil {
		return err
	}

	if err := client.ResetBranch(repoType, args[0], args[1]); err != nil {
		return fmt.Errorf("failed to reset branch: %w", err)
	}

	cmdutil.PrintSuccess(fmt.Sprintf("Branch '%s' reset", args[1]))
	return nil
}
