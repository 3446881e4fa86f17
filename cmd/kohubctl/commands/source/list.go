package source

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/kohakuhub/kohakuhub/cmd/kohubctl/cmdutil"
	"github.com/kohakuhub/kohakuhub/pkg/apiclient"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List configured sources",
	Long: `List all fallback sources in consultation order.

Examples:
  # List sources
  kohubctl source list

  # List as JSON
  kohubctl source list -o json`,
	RunE: runList,
}

// SourceList renders sources as a table.
type SourceList []apiclient.FallbackSource

// Headers implements TableRenderer.
func (sl SourceList) Headers() []string {
	return []string{"NAME", "ENDPOINT", "TYPE", "NAMESPACE", "PRIORITY", "ENABLED", "TOKEN"}
}

// Rows implements TableRenderer.
func (sl SourceList) Rows() [][]string {
	rows := make([][]string, 0, len(sl))
	for _, s := range sl {
		rows = append(rows, []string{
			s.Name,
			s.Endpoint,
			s.SourceType,
			cmdutil.EmptyOr(s.Namespace, "-"),
			strconv.Itoa(s.Priority),
			cmdutil.BoolToYesNo(s.Enabled),
			cmdutil.BoolToYesNo(s.HasToken),
		})
	}
	return rows
}

func runList(cmd *cobra.Command, args []string) error {
	client, err := cmdutil.GetAuthenticatedClient()
	if err != nil {
		return err
	}

	sources, err := client.ListFallbackSources()
	if err != nil {
		return fmt.Errorf("failed to list sources: %w", err)
	}

	return cmdutil.PrintOutput(os.Stdout, sources, len(sources) == 0, "No fallback sources configured.", SourceList(sources))
}
