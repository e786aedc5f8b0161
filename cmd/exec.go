// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"pgshim/cli/internal/sqlexec"
	"pgshim/cli/internal/terminal"
	"pgshim/cli/internal/translate"
)

var execParams []string

// execCmd translates a query, runs it once and prints the result.
var execCmd = &cobra.Command{
	Use:   "exec [query]",
	Short: "Translate and run a MySQL-style query",
	Long: `The exec command translates a query, sends it to the configured PostgreSQL
database in a single round-trip and prints the rows as a table. db.driver
picks the client library: pgx (default) or pq.

Each --param binds the next ? placeholder, in order. Use \N for NULL.

Example: pgshim exec "SELECT IFNULL(name, '?') FROM users WHERE id = ?" --param 7`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		query, err := queryFrom(args, cmd.InOrStdin(), terminal.Interactive(os.Stdin))
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		driver, closeDriver, err := openDriver(ctx)
		if err != nil {
			return err
		}
		defer closeDriver()

		ctx, cancel, err := statementContext(ctx)
		if err != nil {
			return err
		}
		defer cancel()

		ex := sqlexec.New(driver,
			sqlexec.WithTranslator(newTranslator()),
			sqlexec.WithReporter(reporter),
		)
		res, err := ex.Run(ctx, translate.Request{Query: query, Params: bindParams(execParams)})
		if err != nil {
			return err
		}
		return renderResult(cmd.OutOrStdout(), res)
	},
}

// bindParams maps flag values to parameters; \N is NULL as in mysqldump.
func bindParams(values []string) []any {
	params := make([]any, len(values))
	for i, v := range values {
		if v == `\N` {
			continue
		}
		params[i] = v
	}
	return params
}

func init() {
	rootCmd.AddCommand(execCmd)
	execCmd.Flags().StringArrayVarP(&execParams, "param", "p", nil, "Positional parameter value (repeatable)")
}
