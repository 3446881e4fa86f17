package context

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kohakuhub/kohakuhub/internal/cli/credentials"
)

var currentCmd = &cobra.Command{
	Use:   "current",
	Short: "Show current context",
	Long: `Display the name and server of the current context.

Examples:
  # Show current context
  kohubctl context current`,
	RunE: runCurrent,
}

func runCurrent(cmd *cobra.Command, args []string) error {
	store, err := credentials.NewStore()
	if err != nil {
		return fmt.Errorf("failed to initialize credential store: %w", err)
	}

	name := store.GetCurrentContextName()
	if name == "" {
		return fmt.Errorf("no current context set. Run 'kohubctl login' first")
	}

	ctx, err := store.GetCurrentContext()
	if err != nil {
		return err
	}

	fmt.Printf("Context: %s\n", name)
	fmt.Printf("Server:  %s\n", ctx.ServerURL)
	if ctx.Username != "" {
		fmt.Printf("User:    %s\n", ctx.Username)
	}
	return nil
}
