// nexbot: Nexio community Discord bot
//
// Runs the project and task workflow slash commands for the Nexio developer
// guild, and exposes a read-only MCP console over the same records.
//
// Usage:
//
//	nexbot serve      # Connect to Discord and serve the keep-alive endpoint
//	nexbot console    # Start the MCP console (stdio transport)
//	nexbot version    # Print the version
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nexio-dev/nexbot/internal/config"
	"github.com/nexio-dev/nexbot/internal/console"
	"github.com/nexio-dev/nexbot/internal/logging"
	nexserver "github.com/nexio-dev/nexbot/internal/server"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var envFile string

	root := &cobra.Command{
		Use:           "nexbot",
		Short:         "Nexio community Discord bot",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file to load before reading the environment")

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Connect to Discord and serve the keep-alive endpoint",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return runServe(cmd.Context(), envFile)
			},
		},
		&cobra.Command{
			Use:   "console",
			Short: "Start the read-only MCP console on stdio",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return runConsole(cmd.Context(), envFile)
			},
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print the version",
			Args:  cobra.NoArgs,
			Run: func(cmd *cobra.Command, _ []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "nexbot v%s\n", nexserver.Version)
			},
		},
	)
	return root
}

// setup loads config and builds the logger shared by every subcommand.
func setup(envFile string) (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(envFile)
	if err != nil {
		return nil, nil, err
	}
	logger, err := logging.New(cfg.Environment, cfg.IsDevelopment(), cfg.LogLevel)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

func runServe(parent context.Context, envFile string) error {
	cfg, logger, err := setup(envFile)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	// Graceful shutdown on interrupt.
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, cleanup, err := nexserver.NewApp(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("creating bot: %w", err)
	}
	defer cleanup()

	err = app.Run(ctx)
	logger.Info("nexbot stopped")
	return err
}

func runConsole(parent context.Context, envFile string) error {
	cfg, logger, err := setup(envFile)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, cleanup, err := nexserver.NewConsole(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("creating console: %w", err)
	}
	defer cleanup()

	return console.Serve(ctx, s, os.Stdin, os.Stdout)
}
