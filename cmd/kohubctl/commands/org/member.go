package org

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kohakuhub/kohakuhub/cmd/kohubctl/cmdutil"
)

var (
	memberAddRole string
	memberForce   bool
)

var memberCmd = &cobra.Command{
	Use:   "member",
	Short: "Manage organization members",
	Long: `Add, remove and change the role of organization members.

Roles: visitor, member, admin, super-admin.

Subcommands:
  add     Add a member
  role    Change a member's role
  remove  Remove a member`,
}

var memberAddCmd = &cobra.Command{
	Use:   "add <org> <username>",
	Short: "Add a member",
	Long: `Add a user to an organization.

Examples:
  # Add a regular member
  kohubctl org member add myteam alice

  # Add an admin
  kohubctl org member add myteam alice --role admin`,
	Args: cobra.ExactArgs(2),
	RunE: runMemberAdd,
}

var memberRoleCmd = &cobra.Command{
	Use:   "role <org> <username> <role>",
	Short: "Change a member's role",
	Long: `Change an existing member's role.

Examples:
  # Promote to admin
  kohubctl org member role myteam alice admin`,
	Args: cobra.ExactArgs(3),
	RunE: runMemberRole,
}

var memberRemoveCmd = &cobra.Command{
	Use:   "remove <org> <username>",
	Short: "Remove a member",
	Long: `Remove a user from an organization.

Examples:
  # Remove with confirmation
  kohubctl org member remove myteam alice

  # Remove without confirmation
  kohubctl org member remove myteam alice --force`,
	Args: cobra.ExactArgs(2),
	RunE: runMemberRemove,
}

func init() {
	memberAddCmd.Flags().StringVar(&memberAddRole, "role", "member", "Role for the new member")
	memberRemoveCmd.Flags().BoolVarP(&memberForce, "force", "f", false, "Skip confirmation prompt")

	memberCmd.AddCommand(memberAddCmd)
	memberCmd.AddCommand(memberRoleCmd)
	memberCmd.AddCommand(memberRemoveCmd)
}

func runMemberAdd(cmd *cobra.Command, args []string) error {
	client, err := cmdutil.GetAuthenticatedClient()
	if err != nil {
		return err
	}

	if err := client.AddOrgMember(args[0], args[1], memberAddRole); err != nil {
		return fmt.Errorf("failed to add member: %w", err)
	}

	cmdutil.PrintSuccess(fmt.Sprintf("Added '%s' to '%s' as %s", args[1], args[0], memberAddRole))
	return nil
}

func runMemberRole(cmd *cobra.Command, args []string) error {
	client, err := cmdutil.GetAuthenticatedClient()
	if err != nil {
		return err
	}

	if err := client.UpdateOrgMemberRole(args[0], args[1], args[2]); err != nil {
		return fmt.Errorf("failed to update role: %w", err)
	}

	cmdutil.PrintSuccess(fmt.Sprintf("'%s' is now %s in '%s'", args[1], args[2], args[0]))
	return nil
}

func runMemberRemove(cmd *cobra.Command, args []string) error {
	client, err := cmdutil.GetAuthenticatedClient()
	if err != nil {
		return err
	}

	return cmdutil.RunDeleteWithConfirmation("member", args[1], memberForce, func() error {
		return client.RemoveOrgMember(args[0], args[1])
	})
}
