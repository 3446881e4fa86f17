package branch

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kohakuhub/kohakuhub/cmd/kohubctl/cmdutil"
)

var createSource string

var createCmd = &cobra.Command{
	Use:   "create <namespace/name> <branch>",
	Short: "Create a branch",
	Long: `Create a branch from an existing revision.

Examples:
  # Branch from main
  kohubctl branch create alice/bert-finetune dev

  # Branch from another branch
  kohubctl branch create alice/bert-finetune experiment --source dev`,
	Args: cobra.ExactArgs(2),
	RunE: runCreate,
}

func init() {
	createCmd.Flags().StringVar(&createSource, "source", "main", "Revision to branch from")
}

func runCreate(cmd *cobra.Command, args []string) error {
	client, err := cmdutil.GetAuthenticatedClient()
	if err != nil {
		return err
	}

	if _, _, err := cmdutil.SplitRepoID(args[0]); err != nil {
		return err
	}

	if err := client.CreateBranch(repoType, args[0], args[1], createSource); err != nil {
		return fmt.Errorf("failed to create branch: %w", err)
	}

	cmdutil.PrintSuccess(fmt.Sprintf("Branch '%s' created from '%s'", args[1], createSource))
	return nil
}
