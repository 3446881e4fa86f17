// Package branch implements branch management subcommands for kohubctl.
package branch

import (
	"github.com/spf13/cobra"
)

// repoType is shared by all branch subcommands via the persistent --type flag.
var repoType string

// Cmd is the branch subcommand.
var Cmd = &cobra.Command{
	Use:   "branch",
	Short: "Manage repository branches",
	Long: `Create, delete and rewrite repository branches.

Subcommands:
  create       Create a branch
  delete       Delete a branch
  revert       Revert a branch to an earlier commit
  reset        Discard uncommitted staging changes
  cherry-pick  Apply one commit's changes onto a branch`,
}

func init() {
	Cmd.PersistentFlags().StringVarP(&repoType, "type", "t", "model", "Repository type (model|dataset|space)")

	Cmd.AddCommand(createCmd)
	Cmd.AddCommand(deleteCmd)
	Cmd.AddCommand(revertCmd)
	Cmd.AddCommand(resetCmd)
	Cmd.AddCommand(cherryPickCmd)
}
