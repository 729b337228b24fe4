package main

import (
	"context"

	"github.com/aretw0/slicer/internal/cli"
	"github.com/aretw0/slicer/internal/presentation/tui"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Starts the slicer as an HTTP server. Runs are started with POST /slice and
followed through server-sent events on /runs/{id}/events.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		port, _ := cmd.Flags().GetString("port")
		quiet, _ := cmd.Flags().GetBool("quiet")
		if !quiet {
			tui.PrintBanner(cmd.ErrOrStderr())
		}

		cfg := loadConfig(cmd)
		if cfg.LogLevel == "" {
			cfg.LogLevel = "info"
		}

		return cli.RunWithSignals(context.Background(), func(ctx context.Context) error {
			return cli.Serve(ctx, cfg, ":"+port)
		})
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("port", "p", "8080", "Port to listen on")
	serveCmd.Flags().BoolP("quiet", "q", false, "Do not print the banner")
}
