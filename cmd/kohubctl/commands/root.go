// Package commands implements the CLI commands for the kohubctl client.
package commands

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/kohakuhub/kohakuhub/cmd/kohubctl/cmdutil"
	branchcmd "github.com/kohakuhub/kohakuhub/cmd/kohubctl/commands/branch"
	ctxcmd "github.com/kohakuhub/kohakuhub/cmd/kohubctl/commands/context"
	invitationcmd "github.com/kohakuhub/kohakuhub/cmd/kohubctl/commands/invitation"
	keycmd "github.com/kohakuhub/kohakuhub/cmd/kohubctl/commands/key"
	orgcmd "github.com/kohakuhub/kohakuhub/cmd/kohubctl/commands/org"
	quotacmd "github.com/kohakuhub/kohakuhub/cmd/kohubctl/commands/quota"
	repocmd "github.com/kohakuhub/kohakuhub/cmd/kohubctl/commands/repo"
	sourcecmd "github.com/kohakuhub/kohakuhub/cmd/kohubctl/commands/source"
	tokencmd "github.com/kohakuhub/kohakuhub/cmd/kohubctl/commands/token"
	usercmd "github.com/kohakuhub/kohakuhub/cmd/kohubctl/commands/user"
)

var (
	// Version information injected at build time.
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "kohubctl",
	Short: "KohakuHub Control - Remote management client",
	Long: `kohubctl is the command-line client for managing KohakuHub servers remotely.

Use this tool to manage repositories, branches, organizations, quotas,
tokens and fallback sources through the KohakuHub REST API.

Use "kohubctl [command] --help" for more information about a command.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Sync flags to cmdutil.Flags for subcommands
		cmdutil.Flags.ServerURL, _ = cmd.Flags().GetString("server")
		cmdutil.Flags.Token, _ = cmd.Flags().GetString("token")
		cmdutil.Flags.Output, _ = cmd.Flags().GetString("output")
		cmdutil.Flags.NoColor, _ = cmd.Flags().GetBool("no-color")
		cmdutil.Flags.Verbose, _ = cmd.Flags().GetBool("verbose")
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

// GetRootCmd returns the root command for testing purposes.
func GetRootCmd() *cobra.Command {
	return rootCmd
}

func init() {
	// Global persistent flags
	rootCmd.PersistentFlags().String("server", "", "Server URL (overrides stored credential)")
	rootCmd.PersistentFlags().String("token", "", "Bearer token (overrides stored credential)")
	rootCmd.PersistentFlags().StringP("output", "o", "table", "Output format (table|json|yaml)")
	rootCmd.PersistentFlags().Bool("no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output")

	// Add subcommands
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)
	rootCmd.AddCommand(ctxcmd.Cmd)
	rootCmd.AddCommand(repocmd.Cmd)
	rootCmd.AddCommand(branchcmd.Cmd)
	rootCmd.AddCommand(orgcmd.Cmd)
	rootCmd.AddCommand(usercmd.Cmd)
	rootCmd.AddCommand(tokencmd.Cmd)
	rootCmd.AddCommand(quotacmd.Cmd)
	rootCmd.AddCommand(invitationcmd.Cmd)
	rootCmd.AddCommand(sourcecmd.Cmd)
	rootCmd.AddCommand(keycmd.Cmd)
	rootCmd.AddCommand(completionCmd)

	// Hide the default completion command (we provide our own)
	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// PrintErr prints an error message to stderr.
func PrintErr(format string, args ...any) {
	rootCmd.PrintErrf(format+"\n", args...)
}

// Exit prints an error and exits with code 1.
func Exit(format string, args ...any) {
	PrintErr(format, args...)
	os.Exit(1)
}
