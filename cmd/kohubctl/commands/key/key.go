// Package key implements SSH key subcommands for kohubctl.
package key

import (
	"github.com/spf13/cobra"
)

// Cmd is the key subcommand.
var Cmd = &cobra.Command{
	Use:   "key",
	Short: "Manage SSH keys",
	Long: `Manage the SSH public keys used for git access over SSH.

Subcommands:
  add     Register a public key
  list    List your keys
  delete  Remove a key`,
}

func init() {
	Cmd.AddCommand(addCmd)
	Cmd.AddCommand(listCmd)
	Cmd.AddCommand(deleteCmd)
}
