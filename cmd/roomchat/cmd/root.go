package cmd

import (
	"os"

	"github.com/nfrund/roomchat/internal/config"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

// fs is where room registry files are read from. Tests swap in a memory filesystem.
var fs afero.Fs = config.OSFs()

var rootCmd = &cobra.Command{
	Use:   "roomchat",
	Short: "Passcode-gated chat rooms with AI summaries",
	Long: `roomchat serves a small set of passcode-protected chat rooms backed by
SurrealDB, with on-demand conversation summaries.

Available commands:
  serve      Start the web server
  rooms      Inspect and validate room registry files
  version    Print the version

Use "roomchat [command] --help" for more information about a specific command.`,
	SilenceUsage: true,
}

// Execute executes the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
