// Package token implements API token subcommands for kohubctl.
package token

import (
	"github.com/spf13/cobra"
)

// Cmd is the token subcommand.
var Cmd = &cobra.Command{
	Use:   "token",
	Short: "Manage API tokens",
	Long: `Manage long-lived API tokens for scripts and CI.

The token secret is shown once at creation and never stored server-side.

Subcommands:
  create  Create a token
  list    List your tokens
  delete  Revoke a token`,
}

func init() {
	Cmd.AddCommand(createCmd)
	Cmd.AddCommand(listCmd)
	Cmd.AddCommand(deleteCmd)
}
