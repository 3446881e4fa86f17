package token

import (
	"github.com/spf13/cobra"

	"github.com/kohakuhub/kohakuhub/cmd/kohubctl/cmdutil"
)

var deleteForce bool

var deleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Revoke a token",
	Long: `Revoke an API token by ID. Revoked tokens stop working immediately.

Examples:
  # Revoke with confirmation
  kohubctl token delete 42

  # Revoke without confirmation
  kohubctl token delete 42 --force`,
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

	return cmdutil.RunDeleteWithConfirmation("token", args[0], deleteForce, func() error {
		return client.DeleteAPIToken(args[0])
	})
}
