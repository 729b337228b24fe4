package main

import (
	"context"
	"os"

	"github.com/aretw0/slicer/internal/cli"
	"github.com/spf13/cobra"
)

var bridgeCmd = &cobra.Command{
	Use:   "bridge",
	Short: "Run the JSON-lines bridge on stdin/stdout",
	Long: `Reads one JSON command per line from stdin (SLICE or CANCEL) and writes
STATUS, PROGRESS, COMPLETE, ERROR and CANCELLED messages to stdout, one per line.
Logs go to stderr.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cli.RunWithSignals(context.Background(), func(ctx context.Context) error {
			return cli.Bridge(ctx, loadConfig(cmd), os.Stdin, os.Stdout)
		})
	},
}

func init() {
	rootCmd.AddCommand(bridgeCmd)
}
