// Package cmd provides the shopmind CLI commands.
//
// Commands:
//   - serve: HTTP API server (agents, sessions, chat pipeline)
//   - migrate: apply database migrations and exit
//   - version: print build information
package cmd

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/shopmind/shopmind/internal/config"
	"github.com/shopmind/shopmind/internal/log"
)

var rootCmd = &cobra.Command{
	Use:           "shopmind",
	Short:         "Shopmind - AI shopping assistant backend",
	Long:          "Shopmind serves a REST API for managing agents and sessions and runs\nthe knowledge-grounded chat pipeline behind them.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newMigrateCmd())
	rootCmd.AddCommand(newVersionCmd())
}

// newLogger builds the process logger from configuration.
func newLogger(cfg *config.Config) log.Logger {
	return log.New(log.Config{
		Level: parseLevel(cfg.LogLevel),
		JSON:  cfg.LogJSON,
	})
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
