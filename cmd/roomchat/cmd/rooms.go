package cmd

import (
	"fmt"
	"os"

	"github.com/nfrund/roomchat/cmd/roomchat/internal/display"
	"github.com/nfrund/roomchat/internal/config"
	"github.com/spf13/cobra"
)

var (
	roomsFile         string
	roomsOutputFormat string
)

var roomsCmd = &cobra.Command{
	Use:   "rooms",
	Short: "Inspect and validate room registry files",
}

var roomsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the rooms in the registry",
	Long: `List the rooms defined in the room registry file. Passcodes are never printed.

Examples:
  roomchat rooms list                      # Rooms from ROOMS_FILE or rooms.toml
  roomchat rooms list --file rooms.yaml    # Rooms from a YAML registry
  roomchat rooms list --format json        # Machine-readable output`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		rooms, err := config.LoadRooms(fs, roomsFile)
		if err != nil {
			return err
		}
		switch roomsOutputFormat {
		case "table":
			return display.RoomsTable(cmd.OutOrStdout(), rooms)
		case "json":
			return display.RoomsJSON(cmd.OutOrStdout(), rooms)
		default:
			return fmt.Errorf("invalid format %q: valid formats are table, json", roomsOutputFormat)
		}
	},
}

var roomsCheckCmd = &cobra.Command{
	Use:   "check <file>",
	Short: "Validate a room registry file",
	Long: `Validate a room registry file without starting the server. The format is
chosen from the extension: .toml, .yaml or .yml.

Every room needs an id, a name and a passcode, and ids must be unique.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rooms, err := config.LoadRooms(fs, args[0])
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "❌ %s is invalid: %v\n", args[0], err)
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✅ %s is valid (%d rooms)\n", args[0], len(rooms))
		return nil
	},
}

func init() {
	defaultFile := os.Getenv("ROOMS_FILE")
	if defaultFile == "" {
		defaultFile = "rooms.toml"
	}
	roomsListCmd.Flags().StringVar(&roomsFile, "file", defaultFile, "room registry file")
	roomsListCmd.Flags().StringVar(&roomsOutputFormat, "format", "table", "output format: table or json")

	roomsCmd.AddCommand(roomsListCmd, roomsCheckCmd)
	rootCmd.AddCommand(roomsCmd)
}
