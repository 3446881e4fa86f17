package repo

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kohakuhub/kohakuhub/cmd/kohubctl/cmdutil"
	"github.com/kohakuhub/kohakuhub/pkg/apiclient"
)

var refsCmd = &cobra.Command{
	Use:   "refs <namespace/name>",
	Short: "List branches",
	Long: `List a repository's branches and their head commits.

Examples:
  # List branches
  kohubctl repo refs alice/bert-finetune`,
	Args: cobra.ExactArgs(1),
	RunE: runRefs,
}

// RefList renders branches as a table.
type RefList []apiclient.Ref

// Headers implements TableRenderer.
func (rl RefList) Headers() []string {
	return []string{"NAME", "REF", "TARGET COMMIT"}
}

// Rows implements TableRenderer.
func (rl RefList) Rows() [][]string {
	rows := make([][]string, 0, len(rl))
	for _, r := range rl {
		rows = append(rows, []string{r.Name, r.Ref, r.TargetCommit})
	}
	return rows
}

func runRefs(cmd *cobra.Command, args []string) error {
	client, err := cmdutil.GetAuthenticatedClient()
	if err != nil {
		return err
	}

	namespace, name, err := cmdutil.SplitRepoID(args[0])
	if err != nil {
		return err
	}

	refs, err := client.ListRefs(repoType, namespace, name)
	if err != nil {
		return fmt.Errorf("failed to list refs: %w", err)
	}

	return cmdutil.PrintOutput(os.Stdout, refs, len(refs) == 0, "No branches.", RefList(refs))
}
