package context

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kohakuhub/kohakuhub/cmd/kohubctl/cmdutil"
	"github.com/kohakuhub/kohakuhub/internal/cli/credentials"
)

var deleteForce bool

var deleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a context",
	Long: `Delete a saved context and its credentials.

Examples:
  # Delete a context (with confirmation)
  kohubctl context delete staging

  # Delete without confirmation
  kohubctl context delete staging --force`,
	Args: cobra.ExactArgs(1),
	RunE: runDelete,
}

func init() {
	deleteCmd.Flags().BoolVarP(&deleteForce, "force", "f", false, "Skip confirmation prompt")
}

func runDelete(cmd *cobra.Command, args []string) error {
	store, err := credentials.NewStore()
	if err != nil {
		return fmt.Errorf("failed to initialize credential store: %w", err)
	}

	name := args[0]
	return cmdutil.RunDeleteWithConfirmation("context", name, deleteForce, func() error {
		return store.DeleteContext(name)
	})
}
