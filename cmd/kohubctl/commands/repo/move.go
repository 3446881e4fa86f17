package repo

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kohakuhub/kohakuhub/cmd/kohubctl/cmdutil"
)

var moveCmd = &cobra.Command{
	Use:   "move <from-namespace/name> <to-namespace/name>",
	Short: "Rename a repository",
	Long: `Rename a repository, optionally moving it to another namespace
you administer.

Examples:
  # Rename within a namespace
  kohubctl repo move alice/old-name alice/new-name

  # Move to an organization
  kohubctl repo move alice/bert-finetune myorg/bert-finetune`,
	Args: cobra.ExactArgs(2),
	RunE: runMove,
}

func runMove(cmd *cobra.Command, args []string) error {
	client, err := cmdutil.GetAuthenticatedClient()
	if err != nil {
		return err
	}

	// Validate both ids before hitting the server
	for _, id := range args {
		if _, _, err := cmdutil.SplitRepoID(id); err != nil {
			return err
		}
	}

	repo, err := client.MoveRepo(repoType, args[0], args[1])
	if err != nil {
		return fmt.Errorf("failed to move repository: %w", err)
	}

	return cmdutil.PrintResourceWithSuccess(os.Stdout, repo,
		fmt.Sprintf("Repository moved to '%s'", repo.RepoID))
}
