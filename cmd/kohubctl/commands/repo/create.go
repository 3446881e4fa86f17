package repo

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kohakuhub/kohakuhub/cmd/kohubctl/cmdutil"
	"github.com/kohakuhub/kohakuhub/pkg/apiclient"
)

var createPrivate bool

var createCmd = &cobra.Command{
	Use:   "create <namespace/name>",
	Short: "Create a repository",
	Long: `Create a new repository under a user or organization namespace.

Examples:
  # Create a public model repository
  kohubctl repo create alice/bert-finetune

  # Create a private dataset
  kohubctl repo create --type dataset --private alice/training-data`,
	Args: cobra.ExactArgs(1),
	RunE: runCreate,
}

func init() {
	createCmd.Flags().BoolVar(&createPrivate, "private", false, "Make the repository private")
}

func runCreate(cmd *cobra.Command, args []string) error {
	client, err := cmdutil.GetAuthenticatedClient()
	if err != nil {
		return err
	}

	namespace, name, err := cmdutil.SplitRepoID(args[0])
	if err != nil {
		return err
	}

	repo, err := client.CreateRepo(&apiclient.CreateRepoRequest{
		Type:      strings.TrimSuffix(repoType, "s"),
		Namespace: namespace,
		Name:      name,
		Private:   createPrivate,
	})
	if err != nil {
		return fmt.Errorf("failed to create repository: %w", err)
	}

	return cmdutil.PrintResourceWithSuccess(os.Stdout, repo,
		fmt.Sprintf("Repository '%s' created at %s", repo.RepoID, repo.URL))
}
