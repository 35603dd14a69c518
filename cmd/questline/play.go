package main

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/nathoo/questline/cli"
	"github.com/nathoo/questline/config"
	"github.com/nathoo/questline/engine"
	"github.com/nathoo/questline/errutil"
	"github.com/nathoo/questline/loader"
	"github.com/nathoo/questline/metrics"
	"github.com/nathoo/questline/tui"
)

// NewPlayCmd creates the play subcommand.
func NewPlayCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "play [content-dir]",
		Short: "Play a scene",
		Long: `Load the content directory and play it, in the full-screen TUI when
stdout is a terminal and in line mode otherwise. --script plays a file of
commands and exits.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, args)
			if err != nil {
				return err
			}
			return runPlay(cmd, cfg)
		},
	}
}

func runPlay(cmd *cobra.Command, cfg *config.Config) error {
	logger := newLogger(cfg)

	defs, err := loader.Load(cfg.ContentDir,
		loader.WithInclude(cfg.Include),
		loader.WithEngineVersion(version),
		loader.WithLogger(logger),
	)
	if err != nil {
		errutil.LogError(logger, "content failed to load", err)
		return err
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	opts := []engine.Option{
		engine.WithSeed(seed),
		engine.WithCapacity(cfg.Capacity),
		engine.WithToastSteps(cfg.ToastSteps),
		engine.WithLogger(logger),
	}
	if cfg.HasInteract() {
		opts = append(opts, engine.WithInteractAction(cfg.Interact))
	}

	if cfg.MetricsAddr != "" {
		server := metrics.NewServer(cfg.MetricsAddr, logger)
		if _, err := server.Start(); err != nil {
			return oops.With("metrics_addr", cfg.MetricsAddr).Wrapf(err, "starting metrics server")
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := server.Stop(ctx); err != nil {
				errutil.LogWarn(logger, "metrics server stop failed", err)
			}
		}()
		opts = append(opts,
			engine.WithDialogueObserver(server.Metrics()),
			engine.WithInventoryObserver(server.Metrics()),
		)
	}

	eng, err := engine.New(defs, opts...)
	if err != nil {
		errutil.LogError(logger, "engine failed to start", err)
		return err
	}
	logger.Info("game started", "title", defs.Game.Title, "seed", seed)

	if loaded, err := eng.LoadInventory(cfg.SavePath); err != nil {
		errutil.LogWarn(logger, "saved inventory ignored", err)
	} else if loaded {
		logger.Info("inventory restored", "path", cfg.SavePath)
	}

	// Script mode: read commands from the file, echo them, stay in line mode.
	if cfg.Script != "" {
		f, err := os.Open(cfg.Script)
		if err != nil {
			return oops.With("script", cfg.Script).Wrapf(err, "opening script")
		}
		defer f.Close()
		c := newCLI(cmd, eng, cfg)
		c.In = f
		c.EchoInput = true
		c.Logger = logger
		c.Run()
		return nil
	}

	if cfg.Plain || !isTerminal() {
		c := newCLI(cmd, eng, cfg)
		c.In = cmd.InOrStdin()
		c.Logger = logger
		c.Run()
		return nil
	}

	return tui.Run(eng, tui.Options{
		SavePath:    cfg.SavePath,
		HistoryFile: historyFile(),
		Trace:       cfg.Trace,
		Logger:      logger,
	})
}

func newCLI(cmd *cobra.Command, eng *engine.Engine, cfg *config.Config) *cli.CLI {
	c := cli.New(eng)
	c.Out = cmd.OutOrStdout()
	c.SavePath = cfg.SavePath
	c.Trace = cfg.Trace
	return c
}

// historyFile returns the TUI history path, or "" when there is no home.
func historyFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".questline", "history")
}

// isTerminal returns true if stdout is a terminal (not piped/redirected).
func isTerminal() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}
