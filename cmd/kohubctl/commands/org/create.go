package org

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kohakuhub/kohakuhub/cmd/kohubctl/cmdutil"
)

var createDescription string

var createCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create an organization",
	Long: `Create an organization. You become its super-admin.

Examples:
  # Create an organization
  kohubctl org create myteam

  # Create with a description
  kohubctl org create myteam --description "ML research team"`,
	Args: cobra.ExactArgs(1),
	RunE: runCreate,
}

func init() {
	createCmd.Flags().StringVarP(&createDescription, "description", "d", "", "Organization description")
}

func runCreate(cmd *cobra.Command, args []string) error {
	client, err := cmdutil.GetAuthenticatedClient()
	if err != nil {
		return err
	}

	if err := client.CreateOrg(args[0], createDescription); err != nil {
		return fmt.Errorf("failed to create organization: %w", err)
	}

	cmdutil.PrintSuccess(fmt.Sprintf("Organization '%s' created", args[0]))
	return nil
}
