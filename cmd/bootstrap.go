// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"github.com/pterm/pterm"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"pgshim/cli/internal/schema"
)

var bootstrapDir string

// bootstrapCmd creates the application schema in one transaction.
var bootstrapCmd = &cobra.Command{
	Use:   "bootstrap",
	Short: "Create the application schema",
	Long: `The bootstrap command runs the schema DDL (enum types, tables, indexes) against
the configured database in a single transaction. Every statement is written to
be re-runnable. --dir replaces the built-in scripts with the *.sql files of a
directory, run in file name order.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		pool, err := openPool(ctx)
		if err != nil {
			return err
		}
		defer pool.Close()

		b := schema.NewBootstrapper(pool)
		if bootstrapDir != "" {
			steps, err := schema.LoadSteps(afero.NewIOFS(afero.NewBasePathFs(afero.NewOsFs(), bootstrapDir)), ".")
			if err != nil {
				return err
			}
			b = schema.NewBootstrapperWithSteps(pool, steps)
		}

		stop := startInlineSpinner(cmd.ErrOrStderr(), "creating schema", spinnerFrames, spinnerInterval)
		err = b.Ensure(ctx)
		stop()
		if err != nil {
			return err
		}
		pterm.Success.Printfln("Schema ready (%d scripts)", len(b.Steps()))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(bootstrapCmd)
	bootstrapCmd.Flags().StringVar(&bootstrapDir, "dir", "", "Directory of *.sql scripts to run instead of the built-in schema")
}
