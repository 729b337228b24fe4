package main

import (
	"github.com/aretw0/slicer/internal/cli"
	"github.com/spf13/cobra"
)

var profilesCmd = &cobra.Command{
	Use:   "profiles",
	Short: "List the available print profiles",
	RunE: func(cmd *cobra.Command, args []string) error {
		asYAML, _ := cmd.Flags().GetBool("yaml")
		return cli.ListProfiles(loadConfig(cmd), asYAML, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(profilesCmd)
	profilesCmd.Flags().Bool("yaml", false, "Print the profiles as a YAML document")
}
