package token

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/kohakuhub/kohakuhub/cmd/kohubctl/cmdutil"
	"github.com/kohakuhub/kohakuhub/internal/cli/timeutil"
	"github.com/kohakuhub/kohakuhub/pkg/apiclient"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List your tokens",
	Long: `List your API token records. Secrets are never included.

Examples:
  # List tokens
  kohubctl token list

  # List as JSON
  kohubctl token list -o json`,
	RunE: runList,
}

// TokenList renders tokens as a table.
type TokenList []apiclient.APIToken

// Headers implements TableRenderer.
func (tl TokenList) Headers() []string {
	return []string{"ID", "NAME", "CREATED", "LAST USED"}
}

// Rows implements TableRenderer.
func (tl TokenList) Rows() [][]string {
	rows := make([][]string, 0, len(tl))
	for _, t := range tl {
		lastUsed := "-"
		if t.LastUsed != nil {
			lastUsed = timeutil.Ago(*t.LastUsed)
		}
		rows = append(rows, []string{t.ID, t.Name, t.CreatedAt.Format(time.DateOnly), lastUsed})
	}
	return rows
}

func runList(cmd *cobra.Command, args []string) error {
	client, err := cmdutil.GetAuthenticatedClient()
	if err != nil {
		return err
	}

	tokens, err := client.ListAPITokens()
	if err != nil {
		return fmt.Errorf("failed to list tokens: %w", err)
	}

	return cmdutil.PrintOutput(os.Stdout, tokens, len(tokens) == 0, "No tokens found.", TokenList(tokens))
}
