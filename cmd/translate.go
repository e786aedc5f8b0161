// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"pgshim/cli/internal/terminal"
	"pgshim/cli/internal/translate"
)

var showNotes bool

// translateCmd prints the PostgreSQL form of a query without running it.
var translateCmd = &cobra.Command{
	Use:   "translate [query]",
	Short: "Print the PostgreSQL form of a MySQL-style query",
	Long: `The translate command rewrites a query the way exec would and prints it.
With no argument the query is read from stdin. Notes about text that could
not be translated are logged; --notes appends them as SQL comments instead.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		query, err := queryFrom(args, cmd.InOrStdin(), terminal.Interactive(os.Stdin))
		if err != nil {
			return err
		}

		res := newTranslator().Translate(translate.Request{Query: query})
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, res.Query)
		if showNotes {
			for _, n := range res.Notes {
				fmt.Fprintf(out, "-- %s\n", n)
			}
		} else if len(res.Notes) > 0 {
			reporter.Notes(query, res.Notes)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(translateCmd)
	translateCmd.Flags().BoolVar(&showNotes, "notes", false, "Print translation notes as SQL comments after the query")
}
