package key

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
	Short: "List your keys",
	Long: `List your registered SSH public keys.

Examples:
  # List keys
  kohubctl key list

  # List as JSON
  kohubctl key list -o json`,
	RunE: runList,
}

// KeyList renders SSH keys as a table.
type KeyList []apiclient.SSHKey

// Headers implements TableRenderer.
func (kl KeyList) Headers() []string {
	return []string{"ID", "TITLE", "TYPE", "FINGERPRINT", "CREATED", "LAST USED"}
}

// Rows implements TableRenderer.
func (kl KeyList) Rows() [][]string {
	rows := make([][]string, 0, len(kl))
	for _, k := range kl {
		lastUsed := "-"
		if k.LastUsed != nil {
			lastUsed = timeutil.Ago(*k.LastUsed)
		}
		rows = append(rows, []string{
			k.ID,
			k.Title,
			k.KeyType,
			k.Fingerprint,
			k.CreatedAt.Format(time.DateOnly),
			lastUsed,
		})
	}
	return rows
}

func runList(cmd *cobra.Command, args []string) error {
	client, err := cmdutil.GetAuthenticatedClient()
	if err != nil {
		return err
	}

	keys, err := client.ListSSHKeys()
	if err != nil {
		return fmt.Errorf("failed to list keys: %w", err)
	}

	return cmdutil.PrintOutput(os.Stdout, keys, len(keys) == 0, "No keys registered.", KeyList(keys))
}
