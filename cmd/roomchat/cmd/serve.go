package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/nfrund/roomchat/internal/app"
	"github.com/nfrund/roomchat/internal/config"
	"github.com/nfrund/roomchat/internal/logging"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web server",
	Long: `Start the roomchat web server.

Configuration is read from the environment, after loading a .env file from
the working directory when one exists. SURREAL_URL, SURREAL_NS and SURREAL_DB
are required; ROOMS_FILE names the room registry (default rooms.toml).

The server stops gracefully on SIGINT or SIGTERM.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		logging.New()

		cfg, err := config.New()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := app.New(ctx, cfg)
		if err != nil {
			return err
		}
		return a.Run(ctx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
