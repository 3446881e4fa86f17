// Package config implements configuration management commands for kohakuhub.
package config

import (
	"github.com/spf13/cobra"
)

// Cmd is the parent command for configuration management.
var Cmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration management",
	Long: `Manage the KohakuHub configuration file.

Examples:
  # Validate the configuration
  kohakuhub config validate

  # Open the configuration in your editor
  kohakuhub config edit

  # Generate a JSON schema for IDE completion
  kohakuhub config schema`,
}

func init() {
	Cmd.AddCommand(validateCmd)
	Cmd.AddCommand(editCmd)
	Cmd.AddCommand(schemaCmd)
}
