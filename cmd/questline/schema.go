package main

import (
	"os"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/nathoo/questline/engine/save"
)

// NewSchemaCmd creates the schema subcommand.
func NewSchemaCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON Schema of the inventory save file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := save.GenerateSchema()
			if err != nil {
				return err
			}
			data = append(data, '\n')

			if output == "" {
				_, err := cmd.OutOrStdout().Write(data)
				return err
			}
			if err := os.WriteFile(output, data, 0o644); err != nil {
				return oops.With("path", output).Wrapf(err, "writing schema")
			}
			cmd.Printf("Schema written to %s\n", output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "write the schema to a file instead of stdout")
	return cmd
}
