package source

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kohakuhub/kohakuhub/cmd/kohubctl/cmdutil"
	"github.com/kohakuhub/kohakuhub/pkg/apiclient"
)

var (
	createEndpoint   string
	createSourceType string
	createNamespace  string
	createToken      string
	createPriority   int
	createDisabled   bool
)

var createCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Register an upstream source",
	Long: `Register an upstream hub as a fallback source.

Examples:
  # Mirror the public HuggingFace hub
  kohubctl source create hf --endpoint https://huggingface.co

  # Private upstream with an access token, limited to one namespace
  kohubctl source create corp --endpoint https://hub.corp.example \
    --source-type kohakuhub --namespace corp --token <token> --priority 10`,
	Args: cobra.ExactArgs(1),
	RunE: runCreate,
}

func init() {
	createCmd.Flags().StringVar(&createEndpoint, "endpoint", "", "Upstream base URL (required)")
	createCmd.Flags().StringVar(&createSourceType, "source-type", "huggingface", "Upstream API dialect (huggingface|kohakuhub)")
	createCmd.Flags().StringVar(&createNamespace, "namespace", "", "Only consult this source for one namespace")
	createCmd.Flags().StringVar(&createToken, "token", "", "Upstream access token")
	createCmd.Flags().IntVar(&createPriority, "priority", 0, "Consultation order (lower first)")
	createCmd.Flags().BoolVar(&createDisabled, "disabled", false, "Register but do not enable")
	_ = createCmd.MarkFlagRequired("endpoint")
}

func runCreate(cmd *cobra.Command, args []string) error {
	client, err := cmdutil.GetAuthenticatedClient()
	if err != nil {
		return err
	}

	enabled := !createDisabled
	source, err := client.CreateFallbackSource(&apiclient.FallbackSourceRequest{
		Name:       args[0],
		Endpoint:   createEndpoint,
		SourceType: createSourceType,
		Namespace:  createNamespace,
		Token:      createToken,
		Priority:   createPriority,
		Enabled:    &enabled,
	})
	if err != nil {
		return fmt.Errorf("failed to create source: %w", err)
	}

	return cmdutil.PrintResourceWithSuccess(os.Stdout, source,
		fmt.Sprintf("Source '%s' registered", source.Name))
}
