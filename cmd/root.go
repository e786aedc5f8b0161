// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package cmd provides the command-line interface for pgshim.
// It implements subcommands to translate MySQL-style queries, run them against
// PostgreSQL, bootstrap the schema and import MySQL dumps, using the Cobra CLI
// framework with pterm for output.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"pgshim/cli/internal/config"
	"pgshim/cli/internal/errors"
	"pgshim/cli/internal/logging"
)

var (
	showVersion bool
	logLevel    string
	logJSON     bool

	// cfg and reporter are set before any subcommand runs.
	cfg      config.Config
	reporter *logging.Reporter
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "pgshim",
	Short: "Run MySQL-style queries against PostgreSQL",
	Long: `pgshim translates queries written for MySQL (? placeholders, IFNULL, NOW(),
YEAR(), IF(), SUM over comparisons, ...) into PostgreSQL and runs them.
Literals and comments are never rewritten.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("log-level") {
			c.LogLevel = logLevel
		}
		if logJSON {
			c.LogJSON = true
		}
		cfg = c
		reporter = logging.NewReporter(logging.ReporterOptions{Level: c.LogLevel, JSON: c.LogJSON})
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if showVersion {
			fmt.Fprintf(cmd.OutOrStdout(), "pgshim %s\n", Version)
			return nil
		}
		return cmd.Help()
	},
}

// Execute runs the CLI application and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		if errors.KindOf(err) != "" {
			logging.PresentFailure(err)
		} else {
			fmt.Fprintln(os.Stderr, logging.PresentError("pgshim", err))
		}
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().BoolVar(&showVersion, "version", false, "Show version information")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Diagnostic log level (trace, debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "Write diagnostics as JSON lines")
}
