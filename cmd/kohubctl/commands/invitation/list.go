package invitation

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/kohakuhub/kohakuhub/cmd/kohubctl/cmdutil"
	"github.com/kohakuhub/kohakuhub/pkg/apiclient"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List invitations",
	Long: `List all invitations (site admin only).

Examples:
  # List invitations
  kohubctl invitation list

  # List as JSON
  kohubctl invitation list -o json`,
	RunE: runList,
}

// InvitationList renders invitations as a table.
type InvitationList []apiclient.Invitation

// Headers implements TableRenderer.
func (il InvitationList) Headers() []string {
	return []string{"TOKEN", "ACTION", "ORG", "USES", "EXPIRES", "CREATED BY"}
}

// Rows implements TableRenderer.
func (il InvitationList) Rows() [][]string {
	rows := make([][]string, 0, len(il))
	for _, inv := range il {
		expires := "-"
		if inv.ExpiresAt != nil {
			expires = inv.ExpiresAt.Format(time.RFC3339)
		}
		uses := fmt.Sprintf("%d/%d", inv.UsedCount, inv.MaxUses)
		if inv.MaxUses < 0 {
			uses = fmt.Sprintf("%d/unlimited", inv.UsedCount)
		}
		rows = append(rows, []string{
			inv.Token,
			inv.Action,
			cmdutil.EmptyOr(inv.OrgName, "-"),
			uses,
			expires,
			inv.CreatedBy,
		})
	}
	return rows
}

func runList(cmd *cobra.Command, args []string) error {
	client, err := cmdutil.GetAuthenticatedClient()
	if err != nil {
		return err
	}

	invitations, err := client.ListInvitations()
	if err != nil {
		return fmt.Errorf("failed to list invitations: %w", err)
	}

	return cmdutil.PrintOutput(os.Stdout, invitations, len(invitations) == 0, "No invitations found.", InvitationList(invitations))
}
