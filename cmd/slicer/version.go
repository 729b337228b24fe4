package main

import (
	"fmt"

	"github.com/aretw0/slicer"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of slicer",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "slicer version %s\n", slicer.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
