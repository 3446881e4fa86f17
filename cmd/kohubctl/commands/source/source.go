// Package source implements fallback source subcommands for kohubctl.
package source

import (
	"github.com/spf13/cobra"
)

// Cmd is the source subcommand.
var Cmd = &cobra.Command{
	Use:   "source",
	Short: "Manage fallback sources",
	Long: `Manage upstream hubs consulted for repositories this server does
not host. All subcommands require site admin rights.

Subcommands:
  create  Register an upstream source
  list    List configured sources
  update  Update a source
  delete  Remove a source`,
}

func init() {
	Cmd.AddCommand(createCmd)
	Cmd.AddCommand(listCmd)
	Cmd.AddCommand(updateCmd)
	Cmd.AddCommand(deleteCmd)
}
