package main

import (
	"fmt"
	"os"

	"github.com/aretw0/slicer/internal/cli"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "slicer",
	Short: "Slicer converts binary STL models into G-code",
	Long: `Slicer turns a binary STL model into a G-code program for an FDM printer.
It runs from the command line, as a JSON-lines bridge, an HTTP server or an MCP server.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	flags := rootCmd.PersistentFlags()
	flags.String("log-level", "", "Log level: debug, info, warn or error (env SLICER_LOG_LEVEL)")
	flags.String("log-format", "text", "Log format: text or json (env SLICER_LOG_FORMAT)")
	flags.Bool("debug", false, "Enable debug logging with stage tracing")
	flags.String("store", cli.StoreMemory, "Run store: memory, file, redis or sqlite")
	flags.String("store-dir", "", "Directory of the file or sqlite store")
	flags.String("redis-url", "", "Redis URL of the redis store (env SLICER_REDIS_URL)")
	flags.String("profiles", "", "YAML file with extra print profiles (env SLICER_PROFILES)")
	flags.String("store-key", "", "Hex or base64 AES-256 key encrypting stored runs (env SLICER_STORE_KEY)")
	flags.Duration("timeout", 0, "Abort a conversion after this duration (0 disables)")
}

// loadConfig reads the persistent flags, then applies the environment.
func loadConfig(cmd *cobra.Command) cli.Config {
	flags := cmd.Flags()
	var cfg cli.Config
	cfg.LogLevel, _ = flags.GetString("log-level")
	cfg.LogFormat, _ = flags.GetString("log-format")
	cfg.Debug, _ = flags.GetBool("debug")
	cfg.Store, _ = flags.GetString("store")
	cfg.StoreDir, _ = flags.GetString("store-dir")
	cfg.RedisURL, _ = flags.GetString("redis-url")
	cfg.Profiles, _ = flags.GetString("profiles")
	cfg.StoreKey, _ = flags.GetString("store-key")
	cfg.Timeout, _ = flags.GetDuration("timeout")
	cfg.ApplyEnv(flags.Changed)
	return cfg
}
