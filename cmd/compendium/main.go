// Package main is the entry point for the compendium CLI
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/KirkDiggler/rpg-compendium/internal/config"
	"github.com/KirkDiggler/rpg-compendium/internal/errors"
	"github.com/KirkDiggler/rpg-compendium/internal/logging"
)

var (
	configPath string
	logLevel   string
	logFormat  string

	// cfg is loaded once per invocation by the root command
	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "compendium",
	Short: "Tabletop reference compendium importer",
	Long: `compendium parses spell, race and item compendium exports, detects the
roll tables embedded in their prose and stores the result idempotently in
SQLite, PostgreSQL or Redis.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: loadConfig,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "YAML config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format (text, json)")

	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(tablesCmd)
	rootCmd.AddCommand(versionCmd)
}

func loadConfig(cmd *cobra.Command, _ []string) error {
	loaded, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if logLevel != "" {
		loaded.Logging.Level = logLevel
	}
	if logFormat != "" {
		loaded.Logging.Format = logFormat
	}

	if _, err := logging.Setup(logging.Config{
		Level:  loaded.Logging.Level,
		Format: loaded.Logging.Format,
		Output: cmd.ErrOrStderr(),
	}); err != nil {
		return err
	}

	cfg = loaded
	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitCode(err))
	}
}

// exitCode maps an error onto the process exit status
func exitCode(err error) int {
	if err == nil {
		return 0
	}
	code := errors.GetCode(err).ExitCode()
	if code == 0 {
		return 1
	}
	return code
}
