package user

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/kohakuhub/kohakuhub/cmd/kohubctl/cmdutil"
	"github.com/kohakuhub/kohakuhub/internal/cli/output"
	"github.com/kohakuhub/kohakuhub/pkg/apiclient"
)

var profileCmd = &cobra.Command{
	Use:   "profile <username>",
	Short: "Show a user's profile",
	Long: `Display a user's public profile. Contact and usage fields are only
shown for your own profile and to site admins.

Examples:
  # Show a profile
  kohubctl user profile alice

  # Output as JSON
  kohubctl user profile alice -o json`,
	Args: cobra.ExactArgs(1),
	RunE: runProfile,
}

func runProfile(cmd *cobra.Command, args []string) error {
	client, err := cmdutil.GetAuthenticatedClient()
	if err != nil {
		return err
	}

	profile, err := client.GetUserProfile(args[0])
	if err != nil {
		return fmt.Errorf("failed to fetch profile: %w", err)
	}

	format, err := cmdutil.GetOutputFormatParsed()
	if err != nil {
		return err
	}

	switch format {
	case output.FormatJSON:
		return output.PrintJSON(os.Stdout, profile)
	case output.FormatYAML:
		return output.PrintYAML(os.Stdout, profile)
	default:
		printProfile(profile)
	}

	return nil
}

func printProfile(p *apiclient.UserProfile) {
	fmt.Printf("Username:     %s\n", p.Username)
	if p.DisplayName != "" {
		fmt.Printf("Display name: %s\n", p.DisplayName)
	}
	fmt.Printf("Created:      %s\n", p.CreatedAt.Format(time.DateOnly))
	if p.Email != "" {
		verified := ""
		if p.EmailVerified != nil {
			verified = fmt.Sprintf(" (verified: %s)", cmdutil.BoolToYesNo(*p.EmailVerified))
		}
		fmt.Printf("Email:        %s%s\n", p.Email, verified)
	}
	if p.PrivateUsedBytes != nil {
		fmt.Printf("Private used: %s\n", cmdutil.FormatBytes(*p.PrivateUsedBytes))
	}
	if p.PublicUsedBytes != nil {
		fmt.Printf("Public used:  %s\n", cmdutil.FormatBytes(*p.PublicUsedBytes))
	}
}
