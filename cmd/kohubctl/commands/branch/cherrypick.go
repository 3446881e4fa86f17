package branch

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kohakuhub/kohakuhub/cmd/kohubctl/cmdutil"
)

var cherryPickCmd = &cobra.Command{
	Use:   "cherry-pick <namespace/name> <branch> <revision>",
	Short: "Apply one commit's changes onto a branch",
	Long: `Apply the changes introduced by a single commit onto a branch as a
new commit.

Examples:
  # Apply a dev commit onto main
  kohubctl branch cherry-pick alice/bert-finetune main 3f2a91c0`,
	Args: cobra.ExactArgs(3),
	RunE: runCherryPick,
}

func runCherryPick(cmd *cobra.Command, args []string) error {
	client, err := cmdutil.GetAuthenticatedClient()
	if err != nil {
		return err
	}

	if _, _, err := cmdutil.SplitRepoID(args[0]); err != nil {
		return err
	}

	result, err := client.CherryPickBranch(repoType, args[0], args[1], args[2])
	if err != nil {
		return fmt.Errorf("cherry-pick failed: %w", err)
	}

	return cmdutil.PrintResourceWithSuccess(os.Stdout, result,
		fmt.Sprintf("Commit %s applied onto '%s'", args[2], args[1]))
}
