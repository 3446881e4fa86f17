package repo

import (
	"github.com/spf13/cobra"

	"github.com/kohakuhub/kohakuhub/cmd/kohubctl/cmdutil"
)

var deleteForce bool

var deleteCmd = &cobra.Command{
	Use:   "delete <namespace/name>",
	Short: "Delete a repository",
	Long: `Delete a repository and all its content. This cannot be undone.

Examples:
  # Delete with confirmation
  kohubctl repo delete alice/old-model

  # Delete without confirmation
  kohubctl repo delete alice/old-model --force`,
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

	namespace, name, err := cmdutil.SplitRepoID(args[0])
	if err != nil {
		return err
	}

	return cmdutil.RunDeleteWithConfirmation("repository", args[0], deleteForce, func() error {
		return client.DeleteRepo(repoType, namespace, name)
	})
}
