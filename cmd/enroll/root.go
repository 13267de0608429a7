package main

import (
	"fmt"
	"os"

	"github.com/aretw0/enroll/internal/cli"
	"github.com/aretw0/enroll/internal/config"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "enroll",
	Short: "Enroll orchestrates product eligibility, quoting and enrollment",
	Long: `Enroll loads a product catalog and a set of carrier integrations, and runs
consumers through eligibility, quoting, cross-sell and enrollment.

Settings come from ENROLL_* environment variables; flags override them.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("catalog", "", "Product file or directory (overrides ENROLL_CATALOG)")
	rootCmd.PersistentFlags().String("providers", "", "Provider configuration file (overrides ENROLL_PROVIDERS)")
	rootCmd.PersistentFlags().String("log-level", "", "debug, info, warn or error (overrides ENROLL_LOG_LEVEL)")
	rootCmd.PersistentFlags().String("log-format", "", "text or json (overrides ENROLL_LOG_FORMAT)")
}

// loadConfig reads the environment and applies the flags the user set.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return cfg, err
	}

	flags := cmd.Flags()
	override := func(name string, target *string) {
		if flags.Changed(name) {
			*target, _ = flags.GetString(name)
		}
	}
	override("catalog", &cfg.CatalogPath)
	override("providers", &cfg.ProvidersPath)
	override("log-level", &cfg.LogLevel)
	override("log-format", &cfg.LogFormat)

	return cfg, cfg.Validate()
}

// buildStack loads the configuration and creates the engine. Rejected definitions
// are logged and do not stop the engine.
func buildStack(cfg config.Config) (*cli.Stack, error) {
	logger, err := cfg.Logger()
	if err != nil {
		return nil, err
	}

	stack, err := cli.Build(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize engine: %w", err)
	}
	if stack.Problems != nil {
		logger.Warn("some definitions were rejected", "err", stack.Problems)
	}
	return stack, nil
}
