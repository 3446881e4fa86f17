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
	listAuthor string
	listLimit  int
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List repositories",
	Long: `List repositories of one type visible to you.

Examples:
  # List all visible models
  kohubctl repo list

  # List datasets under one namespace
  kohubctl repo list --type dataset --author alice

  # List as JSON
  kohubctl repo list -o json`,
	RunE: runList,
}

func init() {
	listCmd.Flags().StringVar(&listAuthor, "author", "", "Restrict to one namespace")
	listCmd.Flags().IntVar(&listLimit, "limit", 0, "Maximum number of results (0 = server default)")
}

// RepoList renders repositories as a table.
type RepoList []apiclient.RepoSummary

// Headers implements TableRenderer.
func (rl RepoList) Headers() []string {
	return []string{"ID", "AUTHOR", "PRIVATE", "CREATED", "LAST MODIFIED"}
}

// Rows implements TableRenderer.
func (rl RepoList) Rows() [][]string {
	rows := make([][]string, 0, len(rl))
	for _, r := range rl {
		rows = append(rows, []string{
			r.ID,
			r.Author,
			cmdutil.BoolToYesNo(r.Private),
			r.CreatedAt.Format(time.DateOnly),
			r.LastModified.Format(time.RFC3339),
		})
	}
	return rows
}

func runList(cmd *cobra.Command, args []string) error {
	client, err := cmdutil.GetAuthenticatedClient()
	if err != nil {
		return err
	}

	repos, err := client.ListRepos(repoType, apiclient.ListReposOptions{
		Author: listAuthor,
		Limit:  listLimit,
	})
	if err != nil {
		return fmt.Errorf("failed to list repositories: %w", err)
	}

	return cmdutil.PrintOutput(os.Stdout, repos, len(repos) == 0, "No repositories found.", RepoList(repos))
}
