package main

import (
	"context"

	"github.com/aretw0/slicer/internal/cli"
	"github.com/spf13/cobra"
)

// settingFlags maps slice flags to the wire names of the settings.
var settingFlags = map[string]string{
	"layer-height": "layerHeight",
	"infill":       "infill",
	"bed-temp":     "bedTemp",
	"nozzle-temp":  "nozzleTemp",
	"supports":     "useSupports",
}

var sliceCmd = &cobra.Command{
	Use:   "slice <file.stl>",
	Short: "Convert an STL model into G-code",
	Long: `Converts a binary STL model into a G-code program.
Settings start from the selected profile (or the defaults) and are overridden by explicit flags.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig(cmd)
		flags := cmd.Flags()

		opts := cli.SliceOptions{
			Input:     args[0],
			Overrides: map[string]any{},
		}
		opts.Output, _ = flags.GetString("output")
		opts.Profile, _ = flags.GetString("profile")
		opts.Quiet, _ = flags.GetBool("quiet")
		for flag, key := range settingFlags {
			if flags.Changed(flag) {
				opts.Overrides[key] = flags.Lookup(flag).Value.String()
			}
		}

		return cli.RunWithSignals(context.Background(), func(ctx context.Context) error {
			return cli.Slice(ctx, cfg, opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
		})
	},
}

func init() {
	rootCmd.AddCommand(sliceCmd)

	sliceCmd.Flags().StringP("output", "o", "", "Write the program to this file instead of stdout")
	sliceCmd.Flags().StringP("profile", "p", "", "Print profile to start from")
	sliceCmd.Flags().Float64("layer-height", 0.2, "Layer height in mm")
	sliceCmd.Flags().Int("infill", 15, "Infill percentage")
	sliceCmd.Flags().Int("bed-temp", 60, "Bed temperature in Celsius")
	sliceCmd.Flags().Int("nozzle-temp", 200, "Nozzle temperature in Celsius")
	sliceCmd.Flags().Bool("supports", false, "Generate supports")
	sliceCmd.Flags().BoolP("quiet", "q", false, "Do not draw progress")
}
