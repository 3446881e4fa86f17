// Package repo implements repository management subcommands for kohubctl.
package repo

import (
	"github.com/spf13/cobra"
)

// repoType is shared by all repo subcommands via the persistent --type flag.
var repoType string

// Cmd is the repo subcommand.
var Cmd = &cobra.Command{
	Use:   "repo",
	Short: "Manage repositories",
	Long: `Manage model, dataset and space repositories.

All subcommands take a --type flag selecting the repository kind
(model, dataset or space). The default is model.

Subcommands:
  create    Create a repository
  list      List repositories
  info      Show repository info
  tree      List files at a revision
  commits   Show commit history
  refs      List branches
  settings  Show or change repository settings
  move      Rename a repository
  delete    Delete a repository
  gc        Run LFS garbage collection`,
}

func init() {
	Cmd.PersistentFlags().StringVarP(&repoType, "type", "t", "model", "Repository type (model|dataset|space)")

	Cmd.AddCommand(createCmd)
	Cmd.AddCommand(listCmd)
	Cmd.AddCommand(infoCmd)
	Cmd.AddCommand(treeCmd)
	Cmd.AddCommand(commitsCmd)
	Cmd.AddCommand(refsCmd)
	Cmd.AddCommand(settingsCmd)
	Cmd.AddCommand(moveCmd)
	Cmd.AddCommand(deleteCmd)
	Cmd.AddCommand(gcCmd)
}
