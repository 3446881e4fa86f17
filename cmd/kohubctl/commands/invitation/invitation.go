// Package invitation implements invitation subcommands for kohubctl.
package invitation

import (
	"github.com/spf13/cobra"
)

// Cmd is the invitation subcommand.
var Cmd = &cobra.Command{
	Use:   "invitation",
	Short: "Manage invitations",
	Long: `Manage registration and organization-join invitations.

Register invitations gate account creation on invitation-only servers.
Join invitations add the accepting user to an organization with a
preset role.

Subcommands:
  create  Mint an invitation
  list    List invitations
  accept  Accept a join invitation
  delete  Revoke an invitation`,
}

func init() {
	Cmd.AddCommand(createCmd)
	Cmd.AddCommand(listCmd)
	Cmd.AddCommand(acceptCmd)
	Cmd.AddCommand(deleteCmd)
}
