package config

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kohakuhub/kohakuhub/pkg/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration file",
	Long: `Validate the KohakuHub configuration file.

Checks for syntax errors, missing required fields, and invalid values.

Examples:
  # Validate default config
  kohakuhub config validate

  # Validate specific config file
  kohakuhub config validate --config /etc/kohakuhub/config.yaml`,
	RunE: runConfigValidate,
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	// Get config path from parent's persistent flag
	configPath, _ := cmd.Flags().GetString("config")

	// Load and validate configuration
	cfg, err := config.MustLoad(configPath)
	if err != nil {
		return err
	}

	// Determine path for display
	displayPath := configPath
	if displayPath == "" {
		displayPath = config.GetDefaultConfigPath()
	}

	// Additional validation checks
	var warnings []string

	if cfg.Auth.SessionSecret == "" {
		warnings = append(warnings, "auth.session_secret not configured - sessions will not survive restarts")
	}
	if cfg.S3.AccessKey == "" || cfg.S3.SecretKey == "" {
		warnings = append(warnings, "S3 credentials not configured - falling back to the default AWS credential chain")
	}
	if cfg.Admin.Enabled && cfg.Admin.SecretToken == "" {
		warnings = append(warnings, "admin surface enabled without admin.secret_token")
	}
	if cfg.LFS.KeepVersions < 2 {
		warnings = append(warnings, "lfs.keep_versions below 2 - revert may not find the previous version")
	}

	// Print results
	fmt.Printf("Configuration file: %s\n", displayPath)
	fmt.Println("Validation: OK")

	if len(warnings) > 0 {
		fmt.Println("\nWarnings:")
		for _, w := range warnings {
			fmt.Printf("  - %s\n", w)
		}
	}

	fmt.Printf("\nConfiguration summary:\n")
	fmt.Printf("  Database type:   %s\n", cfg.Database.Type)
	fmt.Printf("  Server port:     %d\n", cfg.Server.Port)
	fmt.Printf("  External URL:    %s\n", cfg.Server.ExternalURL)
	fmt.Printf("  S3 endpoint:     %s\n", cfg.S3.Endpoint)
	fmt.Printf("  LakeFS endpoint: %s\n", cfg.LakeFS.Endpoint)
	fmt.Printf("  Log level:       %s\n", cfg.Logging.Level)

	return nil
}
