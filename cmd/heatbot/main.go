// Package main provides the heatbot CLI entry point.
package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/smartheat/heatbot/internal/config"
)

// Version is set at build time via ldflags
var Version = "dev"

// humanOutput controls whether to use human-readable output
var humanOutput bool

func main() {
	// Local .env overrides are optional.
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		os.Exit(ExitError)
	}
}

var rootCmd = &cobra.Command{
	Use:   "heatbot",
	Short: "SmartHeat Pro support assistant",
	Long: `heatbot answers questions about the SmartHeat Pro thermostat by
retrieving relevant passages from the product documentation and handing
them to a Claude model on AWS Bedrock.

The documentation corpus is ingested offline into a local embedding
index ('heatbot ingest'); queries search that index exactly, by cosine
similarity. Retrieval commands output JSON by default for easy
integration with other tools.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&humanOutput, "human", false, "Use human-readable output instead of JSON")
	rootCmd.Version = Version
}

// loadConfig loads the application config or exits with a config error.
func loadConfig() *config.Config {
	cfg, err := config.LoadDefault()
	if err != nil {
		exitWithError(ExitConfigError, "loading config: %v", err)
	}
	return cfg
}
