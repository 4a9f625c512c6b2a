package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/constanza1110101/tetra-analyzer/cmd/tetra/app"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:           "tetra",
	Short:         "TETRA band spectrum analyzer.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to the configuration file")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "scan",
		Short: "Sweep a frequency range and record detected signals",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(app.RunScan)
		},
	})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "monitor",
		Short: "Watch a fixed frequency for TDMA framing",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(app.RunMonitor)
		},
	})
}

func run(fn func(context.Context, *app.Config, *slog.Logger) error) error {
	if configPath == "" {
		return fmt.Errorf("no configuration file provided")
	}

	config, err := app.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("loading configuration %q: %w", configPath, err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: config.Settings.Level()}))

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	return fn(ctx, config, logger)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		slog.Error(err.Error())
		os.Exit(1)
	}
}
