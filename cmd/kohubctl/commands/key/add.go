package key

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kohakuhub/kohakuhub/cmd/kohubctl/cmdutil"
)

var addTitle string

var addCmd = &cobra.Command{
	Use:   "add <key-file>",
	Short: "Register a public key",
	Long: `Register an SSH public key from a file in authorized_keys format.
Use "-" to read the key from stdin.

Examples:
  # Register a key from a file
  kohubctl key add ~/.ssh/id_ed25519.pub

  # Register with a custom title
  kohubctl key add ~/.ssh/id_ed25519.pub --title laptop`,
	Args: cobra.ExactArgs(1),
	RunE: runAdd,
}

func init() {
	addCmd.Flags().StringVar(&addTitle, "title", "", "Key title (defaults to the key comment)")
}

func runAdd(cmd *cobra.Command, args []string) error {
	client, err := cmdutil.GetAuthenticatedClient()
	if err != nil {
		return err
	}

	var keyData []byte
	if args[0] == "-" {
		keyData, err = io.ReadAll(os.Stdin)
	} else {
		keyData, err = os.ReadFile(args[0])
	}
	if err != nil {
		return fmt.Errorf("failed to read key file: %w", err)
	}

	key, err := client.AddSSHKey(strings.TrimSpace(string(keyData)), addTitle)
	if err != nil {
		return fmt.Errorf("failed to add key: %w", err)
	}

	return cmdutil.PrintResourceWithSuccess(os.Stdout, key,
		fmt.Sprintf("Key '%s' added (%s)", key.Title, key.Fingerprint))
}
