package repo

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kohakuhub/kohakuhub/cmd/kohubctl/cmdutil"
)

var gcDryRun bool

var gcCmd = &cobra.Command{
	Use:   "gc <namespace/name>",
	Short: "Run LFS garbage collection",
	Long: `Delete superseded LFS object versions of a repository, keeping the
configured number of historical versions per file.

Examples:
  # Report what would be deleted
  kohubctl repo gc alice/bert-finetune --dry-run

  # Actually delete
  kohubctl repo gc alice/bert-finetune`,
	Args: cobra.ExactArgs(1),
	RunE: runGC,
}

func init() {
	gcCmd.Flags().BoolVar(&gcDryRun, "dry-run", false, "Only report what would be deleted")
}

func runGC(cmd *cobra.Command, args []string) error {
	client, err := cmdutil.GetAuthenticatedClient()
	if err != nil {
		return err
	}

	namespace, name, err := cmdutil.SplitRepoID(args[0])
	if err != nil {
		return err
	}

	result, err := client.LFSGC(repoType, namespace, name, gcDryRun)
	if err != nil {
		return fmt.Errorf("garbage collection failed: %w", err)
	}

	verb := "deleted"
	if gcDryRun {
		verb = "would delete"
	}
	return cmdutil.PrintResourceWithSuccess(os.Stdout, result,
		fmt.Sprintf("Scanned %d objects, %s %d (%s)",
			result.Scanned, verb, result.Deleted, cmdutil.FormatBytes(result.BytesFreed)))
}
