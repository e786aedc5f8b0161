// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"sort"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"pgshim/cli/internal/config"
	"pgshim/cli/internal/dsn"
	"pgshim/cli/internal/logging"
	"pgshim/cli/internal/schema"
)

var showEnums bool

// dbinfoCmd shows the configured connection with the password masked.
var dbinfoCmd = &cobra.Command{
	Use:   "dbinfo",
	Short: "Show current database connection string",
	Long: `The dbinfo command displays the configured database connection string (DSN)
with the password masked, and where it was found: PGSHIM_DSN, DATABASE_URL,
the OS keychain or the config file. --enums also connects and lists the enum
types the schema defines.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, source, err := config.ResolveDSN(cfg, keychainStore{})
		if err != nil {
			pterm.Warning.Println("No database connection configured")
			pterm.Println("   Please run: pgshim connect")
			return nil
		}

		masked := logging.Mask(raw)
		if info, err := dsn.ParseInfo(raw); err == nil {
			masked = info.Redacted()
		}
		pterm.DefaultBox.
			WithTitle(pterm.NewStyle(pterm.FgCyan, pterm.Bold).Sprint("Database Connection")).
			WithPadding(1).
			Println(masked)
		pterm.Println()
		pterm.Printfln("Using DSN from %s", source)
		pterm.Println("To update this connection, run: pgshim connect")
		pterm.Println()

		if !showEnums {
			return nil
		}
		ctx := cmd.Context()
		pool, err := openPool(ctx)
		if err != nil {
			return err
		}
		defer pool.Close()

		enums, err := schema.NewInspector(pool).Enums(ctx)
		if err != nil {
			return err
		}
		names := make([]string, 0, len(enums))
		for name := range enums {
			names = append(names, name)
		}
		sort.Strings(names)
		data := pterm.TableData{{"Enum", "Labels"}}
		for _, name := range names {
			data = append(data, []string{name, strings.Join(enums[name], ", ")})
		}
		return pterm.DefaultTable.WithHasHeader().WithData(data).Render()
	},
}

func init() {
	rootCmd.AddCommand(dbinfoCmd)
	dbinfoCmd.Flags().BoolVar(&showEnums, "enums", false, "Connect and list enum types")
}
