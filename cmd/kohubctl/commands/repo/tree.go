package repo

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kohakuhub/kohakuhub/cmd/kohubctl/cmdutil"
	"github.com/kohakuhub/kohakuhub/pkg/apiclient"
)

var (
	treeRevision  string
	treePath      string
	treeRecursive bool
)

var treeCmd = &cobra.Command{
	Use:   "tree <namespace/name>",
	Short: "List files at a revision",
	Long: `List the files and directories of a repository at a revision.

Examples:
  # List the root of the default branch
  kohubctl repo tree alice/bert-finetune

  # List a subdirectory recursively
  kohubctl repo tree alice/bert-finetune --path checkpoints --recursive`,
	Args: cobra.ExactArgs(1),
	RunE: runTree,
}

func init() {
	treeCmd.Flags().StringVar(&treeRevision, "revision", "main", "Branch or commit")
	treeCmd.Flags().StringVar(&treePath, "path", "", "Subdirectory to list")
	treeCmd.Flags().BoolVarP(&treeRecursive, "recursive", "r", false, "Expand directories")
}

// TreeList renders tree entries as a table.
type TreeList []apiclient.TreeEntry

// Headers implements TableRenderer.
func (tl TreeList) Headers() []string {
	return []string{"TYPE", "PATH", "SIZE", "LFS"}
}

// Rows implements TableRenderer.
func (tl TreeList) Rows() [][]string {
	rows := make([][]string, 0, len(tl))
	for _, e := range tl {
		size := "-"
		if e.Type == "file" {
			size = cmdutil.FormatBytes(e.Size)
		}
		lfs := ""
		if e.LFS != nil {
			lfs = "yes"
		}
		rows = append(rows, []string{e.Type, e.Path, size, cmdutil.EmptyOr(lfs, "-")})
	}
	return rows
}

func runTree(cmd *cobra.Command, args []string) error {
	client, err := cmdutil.GetAuthenticatedClient()
	if err != nil {
		return err
	}

	namespace, name, err := cmdutil.SplitRepoID(args[0])
	if err != nil {
		return err
	}

	entries, err := client.ListTree(repoType, namespace, name, treeRevision, treePath, treeRecursive)
	if err != nil {
		return fmt.Errorf("failed to list tree: %w", err)
	}

	return cmdutil.PrintOutput(os.Stdout, entries, len(entries) == 0, "Empty tree.", TreeList(entries))
}
