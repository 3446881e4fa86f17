package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kohakuhub/kohakuhub/cmd/kohubctl/cmdutil"
	"github.com/kohakuhub/kohakuhub/internal/cli/output"
	"github.com/kohakuhub/kohakuhub/pkg/apiclient"
)

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the authenticated identity",
	Long: `Display the identity the server associates with your credentials,
including organization memberships and roles.

Examples:
  # Show identity
  kohubctl whoami

  # Output as JSON
  kohubctl whoami -o json`,
	RunE: runWhoami,
}

func runWhoami(cmd *cobra.Command, args []string) error {
	client, err := cmdutil.GetAuthenticatedClient()
	if err != nil {
		return err
	}

	identity, err := client.Whoami()
	if err != nil {
		return fmt.Errorf("failed to fetch identity: %w", err)
	}

	format, err := cmdutil.GetOutputFormatParsed()
	if err != nil {
		return err
	}

	switch format {
	case output.FormatJSON:
		return output.PrintJSON(os.Stdout, identity)
	case output.FormatYAML:
		return output.PrintYAML(os.Stdout, identity)
	default:
		printIdentity(identity)
	}

	return nil
}

func printIdentity(id *apiclient.Identity) {
	fmt.Printf("Username:  %s\n", id.Name)
	if id.Fullname != "" {
		fmt.Printf("Fullname:  %s\n", id.Fullname)
	}
	if id.Email != "" {
		fmt.Printf("Email:     %s (verified: %s)\n", id.Email, cmdutil.BoolToYesNo(id.EmailVerified))
	}
	fmt.Printf("Admin:     %s\n", cmdutil.BoolToYesNo(id.IsAdmin))

	if len(id.Orgs) > 0 {
		fmt.Println("Organizations:")
		for _, org := range id.Orgs {
			fmt.Printf("  %s (%s)\n", org.Name, org.RoleInOrg)
		}
	}
}
