// Package cmd contains all CLI commands for engagesim
package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/vjranagit/engagesim/internal/config"
	"github.com/vjranagit/engagesim/internal/logging"
	"github.com/vjranagit/engagesim/pkg/forecast"
	"github.com/vjranagit/engagesim/pkg/simulator"
	"github.com/vjranagit/engagesim/pkg/storage"
	"github.com/vjranagit/engagesim/pkg/variant"
)

var (
	cfgFile string
	verbose bool
	cfg     *config.Config
	logger  *slog.Logger
	version = "dev"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "engagesim",
	Short: "Synthetic engagement series generator and forecast evaluator",
	Long: `engagesim generates multi-day hourly likes/comments/shares series under
configurable lifecycle, daily-cycle and noise models, and scores forecasting
models against held-out windows of that data.

Example usage:
  engagesim variants                       # List dataset variants
  engagesim generate --seed 42             # Generate and store every variant
  engagesim evaluate noisy daily-cycle     # Score the forecaster on two variants
  engagesim serve                          # Start the HTTP API
  engagesim history                        # Show journaled evaluation runs`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initConfig()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion sets the version string for the CLI
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./engagesim.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// initConfig reads in config file and ENV variables if set.
func initConfig() error {
	var err error

	cfg, err = config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	level := cfg.Logging.Level
	if verbose {
		level = "debug"
	}
	logger = logging.New(level, cfg.Logging.Format, os.Stderr)
	slog.SetDefault(logger)

	logger.Debug("configuration loaded",
		"storage_backend", cfg.Storage.Backend,
		"forecaster", cfg.Evaluation.Forecaster,
		"seed", cfg.Generation.Seed,
	)

	return nil
}

// loadRegistry returns the built-in variants plus any from the variants file
func loadRegistry() (*variant.Registry, error) {
	registry := variant.Default()
	if cfg.Generation.VariantsFile != "" {
		if err := registry.RegisterFile(cfg.Generation.VariantsFile); err != nil {
			return nil, fmt.Errorf("loading variants file: %w", err)
		}
		logger.Debug("variants file loaded", "path", cfg.Generation.VariantsFile)
	}
	return registry, nil
}

func newForecaster() forecast.Forecaster {
	if cfg.Evaluation.Forecaster == config.ForecasterRemote {
		return forecast.NewRemote(cfg.Evaluation.ForecasterURL, cfg.Evaluation.Timeout)
	}
	return &forecast.SeasonalTrend{TrendHours: cfg.Evaluation.TrendHours}
}

func openStore(ctx context.Context) (storage.SeriesStore, error) {
	store, err := storage.Open(ctx, cfg.ToStorageConfig())
	if err != nil {
		return nil, fmt.Errorf("opening %s store: %w", cfg.Storage.Backend, err)
	}
	return store, nil
}

// sourceFor returns reproducible noise for a non-zero seed
func sourceFor(seed uint64) simulator.SourceFunc {
	if seed == 0 {
		return simulator.Unseeded()
	}
	return simulator.Seeded(seed)
}

func printSuccess(w io.Writer, format string, args ...any) {
	color.New(color.FgGreen).Fprintf(w, "✓ "+format+"\n", args...)
}

func printWarning(w io.Writer, format string, args ...any) {
	color.New(color.FgYellow).Fprintf(w, "⚠ "+format+"\n", args...)
}

func printError(w io.Writer, format string, args ...any) {
	color.New(color.FgRed).Fprintf(w, "✗ "+format+"\n", args...)
}
