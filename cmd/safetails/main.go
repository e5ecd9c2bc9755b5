// cmd/safetails/main.go

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"safetails/internal/config"
	"safetails/internal/logging"
)

const (
	Version = "0.1.0"
	appName = "safetails"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// app is the state shared by every subcommand once configuration is loaded
type app struct {
	cfg    config.Config
	logger *zap.Logger
}

func rootCmd() *cobra.Command {
	var (
		logLevel string
		a        = &app{}
	)

	cmd := &cobra.Command{
		Use:   appName,
		Short: "Proximity query service for pet safety records",
		Long: `SafeTails answers "what is near me" for lost and found pet alerts,
community posts and veterinary clinics.

Queries are served over HTTP, NATS request/reply and a WebSocket feed
of newly created alerts near a subscriber.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			if logLevel != "" {
				cfg.Log.Level = logLevel
			}

			logger, err := logging.New(cfg.Log)
			if err != nil {
				return fmt.Errorf("failed to create logger: %w", err)
			}

			a.cfg = cfg
			a.logger = logger
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level override (debug, info, warn, error)")

	cmd.AddCommand(
		serveCmd(a),
		nearCmd(a),
		indexesCmd(a),
		announceCmd(a),
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
				return nil
			},
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Printf("%s version %s\n", appName, Version)
			},
		},
	)

	return cmd
}
