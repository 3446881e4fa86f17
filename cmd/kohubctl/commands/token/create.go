package token

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kohakuhub/kohakuhub/cmd/kohubctl/cmdutil"
	"github.com/kohakuhub/kohakuhub/internal/cli/output"
)

var createCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a token",
	Long: `Create a long-lived API token.

The secret is printed once. Store it somewhere safe; it cannot be
recovered afterwards.

Examples:
  # Create a token for CI
  kohubctl token create ci-deploy`,
	Args: cobra.ExactArgs(1),
	RunE: runCreate,
}

func runCreate(cmd *cobra.Command, args []string) error {
	client, err := cmdutil.GetAuthenticatedClient()
	if err != nil {
		return err
	}

	token, err := client.CreateAPIToken(args[0])
	if err != nil {
		return fmt.Errorf("failed to create token: %w", err)
	}

	format, err := cmdutil.GetOutputFormatParsed()
	if err != nil {
		return err
	}

	switch format {
	case output.FormatJSON:
		return output.PrintJSON(os.Stdout, token)
	case output.FormatYAML:
		return output.PrintYAML(os.Stdout, token)
	default:
		cmdutil.PrintSuccess(fmt.Sprintf("Token '%s' created", token.Name))
		fmt.Println()
		fmt.Printf("  %s\n", token.Token)
		fmt.Println()
		fmt.Println("Store this secret now. It will not be shown again.")
	}

	return nil
}
