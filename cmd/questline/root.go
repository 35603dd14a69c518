package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/nathoo/questline/config"
	"github.com/nathoo/questline/logging"
)

// Global flags available to all subcommands.
var configFile string

// NewRootCmd creates the root command for the questline CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "questline",
		Short: "questline - NPC dialogue, pickups and inventory in a text harness",
		Long: `questline plays authored scenes of NPCs, chests and pickups in the
terminal. Content is written in Lua or YAML.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path")
	config.RegisterFlags(cmd.PersistentFlags())

	cmd.AddCommand(NewPlayCmd())
	cmd.AddCommand(NewValidateCmd())
	cmd.AddCommand(NewSchemaCmd())

	return cmd
}

// loadConfig reads the config for cmd. A positional content directory
// overrides content_dir.
func loadConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg, err := config.Load(configFile, cmd.Flags())
	if err != nil {
		return nil, err
	}
	if len(args) > 0 {
		cfg.ContentDir = args[0]
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) *slog.Logger {
	return logging.Setup("questline", version, cfg.Log.Format, logging.ParseLevel(cfg.Log.Level), nil)
}
