package invitation

import (
	"github.com/spf13/cobra"

	"github.com/kohakuhub/kohakuhub/cmd/kohubctl/cmdutil"
)

var deleteForce bool

var deleteCmd = &cobra.Command{
	Use:   "delete <token>",
	Short: "Revoke an invitation",
	Long: `Revoke an invitation so it can no longer be used.

Examples:
  # Revoke with confirmation
  kohubctl invitation delete <token>

  # Revoke without confirmation
  kohubctl invitation delete <token> --force`,
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

	return cmdutil.RunDeleteWithConfirmation("invitation", args[0], deleteForce, func() error {
		return client.DeleteInvitation(args[0])
	})
}
