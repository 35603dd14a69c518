package main

import (
	"fmt"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/nathoo/questline/loader"
	"github.com/nathoo/questline/logging"
)

// NewValidateCmd creates the validate subcommand.
func NewValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [content-dir]",
		Short: "Check content for errors without playing it",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, args)
			if err != nil {
				return err
			}

			// Warnings are printed below, not logged.
			defs, report, err := loader.LoadWithReport(cfg.ContentDir,
				loader.WithInclude(cfg.Include),
				loader.WithEngineVersion(version),
				loader.WithLogger(logging.Discard()),
			)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, w := range report.Warnings {
				fmt.Fprintf(out, "warning: %s\n", w)
			}
			for _, e := range report.Errors {
				fmt.Fprintf(out, "error: %s\n", e)
			}
			if len(report.Errors) > 0 {
				return oops.Code(loader.CodeInvalid).With("dir", cfg.ContentDir).Wrap(report)
			}

			fmt.Fprintf(out, "%s: %d dialogue(s), %d item(s), %d interactable(s), %d warning(s)\n",
				defs.Game.Title, defs.Dialogues.Len(), len(defs.Items.IDs()), len(defs.Scene), len(report.Warnings))
			return nil
		},
	}
}
