package repo

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/kohakuhub/kohakuhub/cmd/kohubctl/cmdutil"
	"github.com/kohakuhub/kohakuhub/pkg/apiclient"
)

var (
	commitsRevision string
	commitsAfter    string
	commitsLimit    int
)

var commitsCmd = &cobra.Command{
	Use:   "commits <namespace/name>",
	Short: "Show commit history",
	Long: `Show the commit log of a repository branch.

Examples:
  # Show the main branch history
  kohubctl repo commits alice/bert-finetune

  # Page through history
  kohubctl repo commits alice/bert-finetune --limit 20 --after <commit-id>`,
	Args: cobra.ExactArgs(1),
	RunE: runCommits,
}

func init() {
	commitsCmd.Flags().StringVar(&commitsRevision, "revision", "main", "Branch or commit to log from")
	commitsCmd.Flags().StringVar(&commitsAfter, "after", "", "Pagination cursor from a previous page")
	commitsCmd.Flags().IntVar(&commitsLimit, "limit", 0, "Page size (0 = server default)")
}

// CommitList renders commits as a table.
type CommitList []apiclient.Commit

// Headers implements TableRenderer.
func (cl CommitList) Headers() []string {
	return []string{"ID", "DATE", "AUTHOR", "TITLE"}
}

// Rows implements TableRenderer.
func (cl CommitList) Rows() [][]string {
	rows := make([][]string, 0, len(cl))
	for _, c := range cl {
		author := "-"
		if len(c.Authors) > 0 {
			author = c.Authors[0].User
		}
		id := c.ID
		if len(id) > 12 {
			id = id[:12]
		}
		rows = append(rows, []string{id, c.Date.Format(time.RFC3339), author, c.Title})
	}
	return rows
}

func runCommits(cmd *cobra.Command, args []string) error {
	client, err := cmdutil.GetAuthenticatedClient()
	if err != nil {
		return err
	}

	namespace, name, err := cmdutil.SplitRepoID(args[0])
	if err != nil {
		return err
	}

	page, err := client.ListCommits(repoType, namespace, name, commitsRevision, commitsAfter, commitsLimit)
	if err != nil {
		return fmt.Errorf("failed to list commits: %w", err)
	}

	if err := cmdutil.PrintOutput(os.Stdout, page, len(page.Commits) == 0, "No commits.", CommitList(page.Commits)); err != nil {
		return err
	}

	if page.HasMore && cmdutil.GetOutputFormat() == "table" {
		fmt.Printf("\nMore commits available. Continue with --after %s\n", page.Next)
	}
	return nil
}
