package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var version = "dev" // set at build time with -ldflags "-X github.com/nfrund/roomchat/cmd/roomchat/cmd.version=..."

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of roomchat",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "roomchat %s\n", version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
