// Package org implements organization management subcommands for kohubctl.
package org

import (
	"github.com/spf13/cobra"
)

// Cmd is the org subcommand.
var Cmd = &cobra.Command{
	Use:   "org",
	Short: "Manage organizations",
	Long: `Manage organizations and their members.

Subcommands:
  create  Create an organization
  get     Show an organization and its members
  member  Manage organization members`,
}

func init() {
	Cmd.AddCommand(createCmd)
	Cmd.AddCommand(getCmd)
	Cmd.AddCommand(memberCmd)
}
