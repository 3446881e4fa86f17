package invitation

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/kohakuhub/kohakuhub/cmd/kohubctl/cmdutil"
	"github.com/kohakuhub/kohakuhub/internal/cli/output"
	"github.com/kohakuhub/kohakuhub/pkg/apiclient"
)

var (
	createAction  string
	createOrg     string
	createRole    string
	createMaxUses int
	createExpires time.Duration
)

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Mint an invitation",
	Long: `Mint an invitation token.

Register invitations require site admin rights; join_org invitations
require admin rights on the organization.

Examples:
  # Registration invitation, single use
  kohubctl invitation create --action register

  # Organization join invitation valid for a week
  kohubctl invitation create --action join_org --org myteam --role member --expires 168h`,
	RunE: runCreate,
}

func init() {
	createCmd.Flags().StringVar(&createAction, "action", "register", "Invitation action (register|join_org)")
	createCmd.Flags().StringVar(&createOrg, "org", "", "Organization (join_org only)")
	createCmd.Flags().StringVar(&createRole, "role", "", "Role granted on join (join_org only)")
	createCmd.Flags().IntVar(&createMaxUses, "max-uses", 1, "Maximum number of uses (-1 = unlimited)")
	createCmd.Flags().DurationVar(&createExpires, "expires", 0, "Validity window (0 = no expiry)")
}

func runCreate(cmd *cobra.Command, args []string) error {
	client, err := cmdutil.GetAuthenticatedClient()
	if err != nil {
		return err
	}

	req := &apiclient.CreateInvitationRequest{
		Action:  createAction,
		OrgName: createOrg,
		Role:    createRole,
		MaxUses: createMaxUses,
	}
	if createExpires > 0 {
		expiresAt := time.Now().Add(createExpires)
		req.ExpiresAt = &expiresAt
	}

	inv, err := client.CreateInvitation(req)
	if err != nil {
		return fmt.Errorf("failed to create invitation: %w", err)
	}

	format, err := cmdutil.GetOutputFormatParsed()
	if err != nil {
		return err
	}

	switch format {
	case output.FormatJSON:
		return output.PrintJSON(os.Stdout, inv)
	case output.FormatYAML:
		return output.PrintYAML(os.Stdout, inv)
	default:
		cmdutil.PrintSuccess("Invitation created")
		fmt.Println()
		fmt.Printf("  Token: %s\n", inv.Token)
		if inv.ExpiresAt != nil {
			fmt.Printf("  Expires: %s\n", inv.ExpiresAt.Format(time.RFC3339))
		}
		fmt.Println()
	}

	return nil
}
