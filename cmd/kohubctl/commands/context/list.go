package context

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/kohakuhub/kohakuhub/cmd/kohubctl/cmdutil"
	"github.com/kohakuhub/kohakuhub/internal/cli/credentials"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all configured contexts",
	Long: `List all saved server contexts.

The current context is marked with an asterisk.

Examples:
  # List contexts as table
  kohubctl context list

  # List as JSON
  kohubctl context list -o json`,
	RunE: runList,
}

// contextRow is one context in the listing.
type contextRow struct {
	Name     string `json:"name" yaml:"name"`
	Server   string `json:"server" yaml:"server"`
	Username string `json:"username,omitempty" yaml:"username,omitempty"`
	Current  bool   `json:"current" yaml:"current"`
	LoggedIn bool   `json:"logged_in" yaml:"logged_in"`
}

// ContextList renders contexts as a table.
type ContextList []contextRow

// Headers implements TableRenderer.
func (cl ContextList) Headers() []string {
	return []string{"CURRENT", "NAME", "SERVER", "USERNAME", "LOGGED IN"}
}

// Rows implements TableRenderer.
func (cl ContextList) Rows() [][]string {
	rows := make([][]string, 0, len(cl))
	for _, c := range cl {
		current := ""
		if c.Current {
			current = "*"
		}
		rows = append(rows, []string{
			current,
			c.Name,
			c.Server,
			cmdutil.EmptyOr(c.Username, "-"),
			cmdutil.BoolToYesNo(c.LoggedIn),
		})
	}
	return rows
}

func runList(cmd *cobra.Command, args []string) error {
	store, err := credentials.NewStore()
	if err != nil {
		return fmt.Errorf("failed to initialize credential store: %w", err)
	}

	names := store.ListContexts()
	sort.Strings(names)

	current := store.GetCurrentContextName()
	rows := make(ContextList, 0, len(names))
	for _, name := range names {
		ctx, err := store.GetContext(name)
		if err != nil {
			continue
		}
		rows = append(rows, contextRow{
			Name:     name,
			Server:   ctx.ServerURL,
			Username: ctx.Username,
			Current:  name == current,
			LoggedIn: ctx.AccessToken != "",
		})
	}

	return cmdutil.PrintOutput(os.Stdout, rows, len(rows) == 0, "No contexts configured. Run 'kohubctl login' first.", rows)
}
