package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kohakuhub/kohakuhub/pkg/config"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a sample configuration file",
	Long: `Initialize a sample KohakuHub configuration file.

By default, the configuration file is created at $XDG_CONFIG_HOME/kohakuhub/config.yaml.
Use --config to specify a custom path.

Examples:
  # Initialize with default location
  kohakuhub init

  # Initialize with custom path
  kohakuhub init --config /etc/kohakuhub/config.yaml

  # Force overwrite existing config
  kohakuhub init --force`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Force overwrite existing config file")
}

func runInit(cmd *cobra.Command, args []string) error {
	configFile := GetConfigFile()

	var configPath string
	var err error

	if configFile != "" {
		// Use custom path
		err = config.InitConfigToPath(configFile, initForce)
		configPath = configFile
	} else {
		// Use default path
		configPath, err = config.InitConfig(initForce)
	}

	if err != nil {
		return fmt.Errorf("failed to initialize config: %w", err)
	}

	fmt.Printf("Configuration file created at: %s\n", configPath)
	fmt.Println("\nNext steps:")
	fmt.Println("  1. Edit the configuration file to point at your S3 and LakeFS endpoints")
	fmt.Println("  2. Create the first admin account: kohakuhub user add --admin")
	fmt.Println("  3. Start the server with: kohakuhub start")
	fmt.Printf("  4. Or specify custom config: kohakuhub start --config %s\n", configPath)
	fmt.Println("\nSecurity note:")
	fmt.Println("  A random session secret has been generated for development use.")
	fmt.Println("  For production, generate a secure secret and use an environment variable:")
	fmt.Println("    # Generates a 64-character hex string (32 bytes of entropy)")
	fmt.Println("    export KOHAKUHUB_AUTH_SESSION_SECRET=$(openssl rand -hex 32)")

	return nil
}
