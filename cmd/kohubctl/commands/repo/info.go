package repo

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/kohakuhub/kohakuhub/cmd/kohubctl/cmdutil"
	"github.com/kohakuhub/kohakuhub/internal/cli/output"
	"github.com/kohakuhub/kohakuhub/pkg/apiclient"
)

var infoRevision string

var infoCmd = &cobra.Command{
	Use:   "info <namespace/name>",
	Short: "Show repository info",
	Long: `Display a repository's card view: head commit, visibility, tags
and file listing.

Examples:
  # Show a model's info at its default branch
  kohubctl repo info alice/bert-finetune

  # Show a dataset at a specific revision
  kohubctl repo info --type dataset --revision dev alice/training-data`,
	Args: cobra.ExactArgs(1),
	RunE: runInfo,
}

func init() {
	infoCmd.Flags().StringVar(&infoRevision, "revision", "", "Branch or commit (default: main)")
}

func runInfo(cmd *cobra.Command, args []string) error {
	client, err := cmdutil.GetAuthenticatedClient()
	if err != nil {
		return err
	}

	namespace, name, err := cmdutil.SplitRepoID(args[0])
	if err != nil {
		return err
	}

	var info *apiclient.RepoInfo
	if infoRevision != "" {
		info, err = client.GetRepoRevision(repoType, namespace, name, infoRevision)
	} else {
		info, err = client.GetRepoInfo(repoType, namespace, name)
	}
	if err != nil {
		return fmt.Errorf("failed to fetch repository info: %w", err)
	}

	format, err := cmdutil.GetOutputFormatParsed()
	if err != nil {
		return err
	}

	switch format {
	case output.FormatJSON:
		return output.PrintJSON(os.Stdout, info)
	case output.FormatYAML:
		return output.PrintYAML(os.Stdout, info)
	default:
		printRepoInfo(info)
	}

	return nil
}

func printRepoInfo(info *apiclient.RepoInfo) {
	fmt.Printf("ID:            %s\n", info.ID)
	fmt.Printf("Author:        %s\n", info.Author)
	fmt.Printf("Revision:      %s\n", info.SHA)
	fmt.Printf("Private:       %s\n", cmdutil.BoolToYesNo(info.Private))
	fmt.Printf("Created:       %s\n", info.CreatedAt.Format(time.RFC3339))
	fmt.Printf("Last modified: %s\n", info.LastModified.Format(time.RFC3339))
	if len(info.Tags) > 0 {
		fmt.Printf("Tags:          %s\n", strings.Join(info.Tags, ", "))
	}
	if len(info.Siblings) > 0 {
		fmt.Printf("Files (%d):\n", len(info.Siblings))
		for _, s := range info.Siblings {
			fmt.Printf("  %s\n", s.Rfilename)
		}
	}
}
