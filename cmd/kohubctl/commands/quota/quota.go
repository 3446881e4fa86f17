// Package quota implements storage quota subcommands for kohubctl.
package quota

import (
	"github.com/spf13/cobra"
)

// Cmd is the quota subcommand.
var Cmd = &cobra.Command{
	Use:   "quota",
	Short: "Manage storage quotas",
	Long: `View and manage per-namespace storage quotas.

Quotas track private and public bytes separately. A missing limit means
unlimited. Setting limits requires site admin rights.

Subcommands:
  get     Show a namespace's quota and usage
  set     Set a namespace's limits
  recalc  Recompute usage from actual repository contents`,
}

func init() {
	Cmd.AddCommand(getCmd)
	Cmd.AddCommand(setCmd)
	Cmd.AddCommand(recalcCmd)
}
