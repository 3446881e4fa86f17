package quota

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kohakuhub/kohakuhub/cmd/kohubctl/cmdutil"
)

var recalcCmd = &cobra.Command{
	Use:   "recalc <namespace>",
	Short: "Recompute usage from actual repository contents",
	Long: `Recompute a namespace's usage counters by scanning its
repositories, repairing any drift from the tracked totals.

Examples:
  # Recompute usage
  kohubctl quota recalc alice`,
	Args: cobra.ExactArgs(1),
	RunE: runRecalc,
}

func runRecalc(cmd *cobra.Command, args []string) error {
	client, err := cmdutil.GetAuthenticatedClient()
	if err != nil {
		return err
	}

	usage, err := client.RecalculateQuota(args[0])
	if err != nil {
		return fmt.Errorf("failed to recalculate quota: %w", err)
	}

	return cmdutil.PrintResourceWithSuccess(os.Stdout, usage,
		fmt.Sprintf("Usage for '%s': private %s, public %s",
			usage.Namespace,
			cmdutil.FormatBytes(usage.PrivateUsedBytes),
			cmdutil.FormatBytes(usage.PublicUsedBytes)))
}
