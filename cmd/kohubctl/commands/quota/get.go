package quota

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kohakuhub/kohakuhub/cmd/kohubctl/cmdutil"
	"github.com/kohakuhub/kohakuhub/internal/cli/output"
	"github.com/kohakuhub/kohakuhub/pkg/apiclient"
)

var getCmd = &cobra.Command{
	Use:   "get <namespace>",
	Short: "Show a namespace's quota and usage",
	Long: `Display the storage quota and current usage of a user or
organization namespace.

Examples:
  # Show quota
  kohubctl quota get alice

  # Output as JSON
  kohubctl quota get alice -o json`,
	Args: cobra.ExactArgs(1),
	RunE: runGet,
}

func runGet(cmd *cobra.Command, args []string) error {
	client, err := cmdutil.GetAuthenticatedClient()
	if err != nil {
		return err
	}

	quota, err := client.GetQuota(args[0])
	if err != nil {
		return fmt.Errorf("failed to fetch quota: %w", err)
	}

	format, err := cmdutil.GetOutputFormatParsed()
	if err != nil {
		return err
	}

	switch format {
	case output.FormatJSON:
		return output.PrintJSON(os.Stdout, quota)
	case output.FormatYAML:
		return output.PrintYAML(os.Stdout, quota)
	default:
		printQuota(quota)
	}

	return nil
}

func printQuota(q *apiclient.NamespaceQuota) {
	kind := "user"
	if q.IsOrg {
		kind = "organization"
	}
	fmt.Printf("Namespace:     %s (%s)\n", q.Name, kind)
	fmt.Printf("Private used:  %s%s\n", cmdutil.FormatBytes(q.PrivateUsedBytes), limitSuffix(q.PrivateQuotaBytes))
	fmt.Printf("Public used:   %s%s\n", cmdutil.FormatBytes(q.PublicUsedBytes), limitSuffix(q.PublicQuotaBytes))
}

func limitSuffix(limit *int64) string {
	if limit == nil {
		return " (unlimited)"
	}
	return fmt.Sprintf(" of %s", cmdutil.FormatBytes(*limit))
}
