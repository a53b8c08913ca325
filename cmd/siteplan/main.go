package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gekko3d/siteplan"
	"github.com/gekko3d/siteplan/internal/observability"
	"github.com/gekko3d/siteplan/layout/core"
)

var (
	configPath string
	debug      bool
	trace      bool
)

var rootCmd = &cobra.Command{
	Use:   "siteplan",
	Short: "Lay out equipment models on a facility ground map",
	Long: `siteplan places glTF equipment models on a to-scale ground map.
Models are converted from their authored size to real-world meters and
stood on the ground plane.`,
	Version:       "0.1.0",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (yaml, json or toml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&trace, "trace", false, "print placement spans to stderr")
}

// session loads the config and sets up logging and tracing for one command.
func session(ctx context.Context) (siteplan.Config, core.Logger, func(), error) {
	cfg, err := siteplan.LoadConfig(configPath)
	if err != nil {
		return siteplan.Config{}, nil, nil, err
	}
	if debug {
		cfg.Log.Debug = true
	}
	if trace {
		cfg.Tracing.Enabled = true
		cfg.Tracing.Writer = os.Stderr
	}
	logger := core.NewDefaultLogger(cfg.Log.Prefix, cfg.Log.Debug)

	shutdown, err := observability.InitTracing(ctx, cfg.Tracing, logger)
	if err != nil {
		return siteplan.Config{}, nil, nil, err
	}
	return cfg, logger, func() { observability.ShutdownWithTimeout(context.Background(), shutdown, logger) }, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
