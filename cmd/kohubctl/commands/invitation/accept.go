package invitation

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kohakuhub/kohakuhub/cmd/kohubctl/cmdutil"
)

var acceptCmd = &cobra.Command{
	Use:   "accept <token>",
	Short: "Accept a join invitation",
	Long: `Accept a join_org invitation, adding you to the organization with
the invitation's role.

Examples:
  # Accept an invitation
  kohubctl invitation accept <token>`,
	Args: cobra.ExactArgs(1),
	RunE: runAccept,
}

func runAccept(cmd *cobra.Command, args []string) error {
	client, err := cmdutil.GetAuthenticatedClient()
	if err != nil {
		return err
	}

	result, err := client.AcceptInvitation(args[0])
	if err != nil {
		return fmt.Errorf("failed to accept invitation: %w", err)
	}

	return cmdutil.PrintResourceWithSuccess(os.Stdout, result,
		fmt.Sprintf("Joined '%s' as %s", result.Org, result.Role))
}
