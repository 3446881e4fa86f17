package repo

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/kohakuhub/kohakuhub/cmd/kohubctl/cmdutil"
	"github.com/kohakuhub/kohakuhub/internal/cli/output"
	"github.com/kohakuhub/kohakuhub/pkg/apiclient"
)

var (
	settingsPrivate      string
	settingsLFSThreshold int64
	settingsKeepVersions int
	settingsSuffixRules  string
)

var settingsCmd = &cobra.Command{
	Use:   "settings <namespace/name>",
	Short: "Show or change repository settings",
	Long: `Show a repository's settings, or change them with flags.

Without flags the current settings are printed. With flags, only the
named settings are changed.

Examples:
  # Show settings
  kohubctl repo settings alice/bert-finetune

  # Make a repository private
  kohubctl repo settings alice/bert-finetune --private true

  # Raise the LFS threshold to 10 MiB
  kohubctl repo settings alice/bert-finetune --lfs-threshold 10485760`,
	Args: cobra.ExactArgs(1),
	RunE: runSettings,
}

func init() {
	settingsCmd.Flags().StringVar(&settingsPrivate, "private", "", "Set visibility (true|false)")
	settingsCmd.Flags().Int64Var(&settingsLFSThreshold, "lfs-threshold", 0, "LFS threshold in bytes")
	settingsCmd.Flags().IntVar(&settingsKeepVersions, "lfs-keep-versions", 0, "Historical LFS versions to keep")
	settingsCmd.Flags().StringVar(&settingsSuffixRules, "lfs-suffix-rules", "", "Comma-separated suffixes always stored as LFS")
}

func runSettings(cmd *cobra.Command, args []string) error {
	client, err := cmdutil.GetAuthenticatedClient()
	if err != nil {
		return err
	}

	namespace, name, err := cmdutil.SplitRepoID(args[0])
	if err != nil {
		return err
	}

	update := &apiclient.RepoSettings{}
	changed := false

	if cmd.Flags().Changed("private") {
		private, err := strconv.ParseBool(settingsPrivate)
		if err != nil {
			return fmt.Errorf("invalid --private value %q: expected true or false", settingsPrivate)
		}
		update.Private = &private
		changed = true
	}
	if cmd.Flags().Changed("lfs-threshold") {
		update.LFSThresholdBytes = &settingsLFSThreshold
		changed = true
	}
	if cmd.Flags().Changed("lfs-keep-versions") {
		update.LFSKeepVersions = &settingsKeepVersions
		changed = true
	}
	if cmd.Flags().Changed("lfs-suffix-rules") {
		update.LFSSuffixRules = &settingsSuffixRules
		changed = true
	}

	if !changed {
		settings, err := client.GetRepoSettings(repoType, namespace, name)
		if err != nil {
			return fmt.Errorf("failed to fetch settings: %w", err)
		}
		return printSettings(settings)
	}

	result, err := client.UpdateRepoSettings(repoType, namespace, name, update)
	if err != nil {
		return fmt.Errorf("failed to update settings: %w", err)
	}

	if result.Warning != "" {
		printer := output.NewPrinter(os.Stdout, !cmdutil.IsColorDisabled())
		printer.Warning(result.Warning)
	}

	return cmdutil.PrintResourceWithSuccess(os.Stdout, result,
		fmt.Sprintf("Settings updated for '%s'", result.RepoID))
}

func printSettings(s *apiclient.RepoSettings) error {
	format, err := cmdutil.GetOutputFormatParsed()
	if err != nil {
		return err
	}

	switch format {
	case output.FormatJSON:
		return output.PrintJSON(os.Stdout, s)
	case output.FormatYAML:
		return output.PrintYAML(os.Stdout, s)
	default:
		if s.Private != nil {
			fmt.Printf("Private:            %s\n", cmdutil.BoolToYesNo(*s.Private))
		}
		if s.LFSThresholdBytes != nil {
			fmt.Printf("LFS threshold:      %s\n", cmdutil.FormatBytes(*s.LFSThresholdBytes))
		}
		if s.LFSKeepVersions != nil {
			fmt.Printf("LFS keep versions:  %d\n", *s.LFSKeepVersions)
		}
		if s.LFSSuffixRules != nil && *s.LFSSuffixRules != "" {
			fmt.Printf("LFS suffix rules:   %s\n", *s.LFSSuffixRules)
		}
		return nil
	}
}
