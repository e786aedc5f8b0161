// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package dsn parses and normalises PostgreSQL connection strings. MySQL
// DSNs are recognised so users pointing pgshim at the old database get a
// hint instead of a confusing connection error.
package dsn

import (
	"strings"
)

// DetectDBType detects the engine from a DSN string.
func DetectDBType(dsn string) DBType {
	lower := strings.ToLower(strings.TrimSpace(dsn))

	switch {
	case strings.HasPrefix(lower, "postgres://"), strings.HasPrefix(lower, "postgresql://"), isKeywordDSN(dsn):
		return DBTypePostgreSQL
	case strings.HasPrefix(lower, "mysql://"), isMySQLDSN(dsn):
		return DBTypeMySQL
	}
	return DBTypeUnknown
}

// Parse returns the normalised form of a PostgreSQL DSN.
func Parse(dsn string) (string, error) {
	info, err := ParseInfo(dsn)
	if err != nil {
		return "", err
	}
	return NewPostgreSQLResolver().Normalize(info)
}

// Validate checks a DSN without normalising it.
func Validate(dsn string) error {
	if err := check(dsn); err != nil {
		return err
	}
	return NewPostgreSQLResolver().Validate(dsn)
}

// ParseInfo parses a PostgreSQL DSN into its parts.
func ParseInfo(dsn string) (*Info, error) {
	if err := check(dsn); err != nil {
		return nil, err
	}
	return NewPostgreSQLResolver().Parse(dsn)
}

func check(dsn string) error {
	if dsn == "" {
		return NewParseError(dsn, "empty DSN", "provide a valid database connection string")
	}
	switch DetectDBType(dsn) {
	case DBTypePostgreSQL:
		return nil
	case DBTypeMySQL:
		hint := "pgshim runs MySQL-style queries against PostgreSQL; point it at the PostgreSQL database"
		if suggested, err := SuggestPostgres(dsn); err == nil {
			hint += ", e.g. " + suggested
		}
		return NewParseError(dsn, "this is a MySQL DSN", hint)
	default:
		return NewParseError(dsn, "unknown database type", "use postgres:// or postgresql://")
	}
}
