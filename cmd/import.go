// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"pgshim/cli/internal/importer"
)

var noResync bool

// importCmd replays a MySQL script against PostgreSQL.
var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import a MySQL script such as mysqldump output",
	Long: `The import command splits a MySQL script into statements, translates each one
and runs them all in a single transaction. The first failing statement aborts
the import and nothing is committed. MySQL session statements (SET NAMES,
LOCK TABLES, ...) are skipped with a warning.

After the last statement the sequences behind serial primary keys of every
table written to are moved past the imported ids, unless --no-resync is set.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		pool, err := openPool(ctx)
		if err != nil {
			return err
		}
		defer pool.Close()

		timeout, err := cfg.DB.Timeout()
		if err != nil {
			return err
		}
		im := importer.New(pool,
			importer.WithTranslator(newTranslator()),
			importer.WithReporter(reporter),
			importer.WithScanOptions(cfg.Translate.ScanOptions()),
			importer.WithStatementTimeout(timeout),
			importer.WithSequenceResync(!noResync),
		)

		stop := startInlineSpinner(cmd.ErrOrStderr(), "importing "+args[0], spinnerFrames, spinnerInterval)
		sum, err := im.ImportFile(ctx, args[0])
		stop()
		if err != nil {
			return err
		}

		pterm.Success.Printfln("Imported %d statements (%d rows) from %s", sum.Statements, sum.RowsAffected, args[0])
		if sum.Skipped > 0 {
			pterm.Warning.Printfln("%d MySQL session statements skipped", sum.Skipped)
		}
		if len(sum.Tables) > 0 {
			pterm.Info.Printfln("Sequences resynced for: %s", strings.Join(sum.Tables, ", "))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(importCmd)
	importCmd.Flags().BoolVar(&noResync, "no-resync", false, "Leave serial sequences untouched after the import")
}
