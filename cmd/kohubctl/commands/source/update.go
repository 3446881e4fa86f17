package source

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kohakuhub/kohakuhub/cmd/kohubctl/cmdutil"
	"github.com/kohakuhub/kohakuhub/pkg/apiclient"
)

var (
	updateEndpoint   string
	updateSourceType string
	updateNamespace  string
	updateToken      string
	updatePriority   int
	updateEnabled    string
)

var updateCmd = &cobra.Command{
	Use:   "update <name>",
	Short: "Update a source",
	Long: `Update a fallback source. Only the flags you pass are changed.

Examples:
  # Disable a source
  kohubctl source update hf --enabled false

  # Rotate the upstream token
  kohubctl source update corp --token <new-token>`,
	Args: cobra.ExactArgs(1),
	RunE: runUpdate,
}

func init() {
	updateCmd.Flags().StringVar(&updateEndpoint, "endpoint", "", "Upstream base URL")
	updateCmd.Flags().StringVar(&updateSourceType, "source-type", "", "Upstream API dialect (huggingface|kohakuhub)")
	updateCmd.Flags().StringVar(&updateNamespace, "namespace", "", "Only consult this source for one namespace")
	updateCmd.Flags().StringVar(&updateToken, "token", "", "Upstream access token")
	updateCmd.Flags().IntVar(&updatePriority, "priority", 0, "Consultation order (lower first)")
	updateCmd.Flags().StringVar(&updateEnabled, "enabled", "", "Enable or disable (true|false)")
}

func runUpdate(cmd *cobra.Command, args []string) error {
	client, err := cmdutil.GetAuthenticatedClient()
	if err != nil {
		return err
	}

	// Fetch current state so unchanged fields survive the update
	sources, err := client.ListFallbackSources()
	if err != nil {
		return fmt.Errorf("failed to fetch sources: %w", err)
	}
	var current *apiclient.FallbackSource
	for i := range sources {
		if sources[i].Name == args[0] {
			current = &sources[i]
			break
		}
	}
	if current == nil {
		return fmt.Errorf("source %q not found", args[0])
	}

	req := &apiclient.FallbackSourceRequest{
		Name:       current.Name,
		Endpoint:   current.Endpoint,
		SourceType: current.SourceType,
		Namespace:  current.Namespace,
		Priority:   current.Priority,
	}

	if cmd.Flags().Changed("endpoint") {
		req.Endpoint = updateEndpoint
	}
	if cmd.Flags().Changed("source-type") {
		req.SourceType = updateSourceType
	}
	if cmd.Flags().Changed("namespace") {
		req.Namespace = updateNamespace
	}
	if cmd.Flags().Changed("token") {
		req.Token = updateToken
	}
	if cmd.Flags().Changed("priority") {
		req.Priority = updatePriority
	}
	if cmd.Flags().Changed("enabled") {
		enabled := updateEnabled == "true"
		req.Enabled = &enabled
	}

	source, err := client.UpdateFallbackSource(args[0], req)
	if err != nil {
		return fmt.Errorf("failed to update source: %w", err)
	}

	return cmdutil.PrintResourceWithSuccess(os.Stdout, source,
		fmt.Sprintf("Source '%s' updated", source.Name))
}
