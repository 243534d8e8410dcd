package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/gamemaster/internal/config"
	"github.com/aretw0/gamemaster/internal/logging"
	"github.com/spf13/cobra"
)

var (
	cfg    config.Config
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "gamemaster",
	Short: "Gamemaster is a rules engine for tabletop role-playing sessions",
	Long: `Gamemaster rolls dice, resolves checks and combat, and drives session
lifecycles. It runs as a CLI, an HTTP service or an MCP server.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("config")

		var err error
		cfg, err = config.Load(path)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("log-level") {
			cfg.Log.Level, _ = cmd.Flags().GetString("log-level")
		}
		if cmd.Flags().Changed("log-format") {
			cfg.Log.Format, _ = cmd.Flags().GetString("log-format")
		}

		level, err := logging.ParseLevel(cfg.Log.Level)
		if err != nil {
			return err
		}
		logger = logging.NewWith(os.Stderr, level, logging.Format(cfg.Log.Format))
		slog.SetDefault(logger)
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("config", "", "Path to a YAML or JSON config file")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level: debug, info, warn or error")
	rootCmd.PersistentFlags().String("log-format", "text", "Log format: text or json")
}
