package main

import (
	"context"

	"github.com/aretw0/slicer/internal/cli"
	"github.com/spf13/cobra"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <file.stl>",
	Short: "Show the bounding box and triangle count of an STL model",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")

		return cli.RunWithSignals(context.Background(), func(ctx context.Context) error {
			return cli.Inspect(ctx, loadConfig(cmd), args[0], asJSON, cmd.OutOrStdout())
		})
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
	inspectCmd.Flags().Bool("json", false, "Print JSON instead of a report")
}
