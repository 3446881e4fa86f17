// Package user implements user subcommands for kohubctl.
package user

import (
	"github.com/spf13/cobra"
)

// Cmd is the user subcommand.
var Cmd = &cobra.Command{
	Use:   "user",
	Short: "Manage user accounts",
	Long: `Register accounts and view user profiles.

Subcommands:
  register  Register a new account
  profile   Show a user's profile`,
}

func init() {
	Cmd.AddCommand(registerCmd)
	Cmd.AddCommand(profileCmd)
}
