package org

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/kohakuhub/kohakuhub/cmd/kohubctl/cmdutil"
	"github.com/kohakuhub/kohakuhub/internal/cli/output"
	"github.com/kohakuhub/kohakuhub/pkg/apiclient"
)

var getCmd = &cobra.Command{
	Use:   "get <name>",
	Short: "Show an organization and its members",
	Long: `Display an organization's details and member roster.

Examples:
  # Show an organization
  kohubctl org get myteam

  # Output as JSON
  kohubctl org get myteam -o json`,
	Args: cobra.ExactArgs(1),
	RunE: runGet,
}

func runGet(cmd *cobra.Command, args []string) error {
	client, err := cmdutil.GetAuthenticatedClient()
	if err != nil {
		return err
	}

	org, err := client.GetOrg(args[0])
	if err != nil {
		return fmt.Errorf("failed to fetch organization: %w", err)
	}

	format, err := cmdutil.GetOutputFormatParsed()
	if err != nil {
		return err
	}

	switch format {
	case output.FormatJSON:
		return output.PrintJSON(os.Stdout, org)
	case output.FormatYAML:
		return output.PrintYAML(os.Stdout, org)
	default:
		printOrg(org)
	}

	return nil
}

func printOrg(org *apiclient.Org) {
	fmt.Printf("Name:        %s\n", org.Name)
	if org.Description != "" {
		fmt.Printf("Description: %s\n", org.Description)
	}
	fmt.Printf("Created:     %s\n", org.CreatedAt.Format(time.RFC3339))
	if len(org.Members) > 0 {
		fmt.Printf("Members (%d):\n", len(org.Members))
		for _, m := range org.Members {
			fmt.Printf("  %-20s %s\n", m.Username, m.Role)
		}
	}
}
