// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package dsn

import (
	"net"
	"net/url"
	"strings"

	"github.com/go-sql-driver/mysql"
)

// isMySQLDSN reports whether s parses as a go-sql-driver DSN with an explicit
// network, such as user:pass@tcp(host:3306)/db.
func isMySQLDSN(s string) bool {
	if !strings.Contains(s, "@tcp(") && !strings.Contains(s, "@unix(") {
		return false
	}
	_, err := mysql.ParseDSN(s)
	return err == nil
}

// SuggestPostgres builds a PostgreSQL DSN for the same user, host and
// database as a MySQL DSN. The password is left out.
func SuggestPostgres(mysqlDSN string) (string, error) {
	info := &Info{Type: DBTypePostgreSQL, Port: "5432"}

	if strings.HasPrefix(strings.ToLower(mysqlDSN), "mysql://") {
		u, err := url.Parse(mysqlDSN)
		if err != nil {
			return "", NewParseError(mysqlDSN, err.Error(), "")
		}
		info.User = u.User.Username()
		info.Host = u.Hostname()
		info.Database = strings.TrimPrefix(u.Path, "/")
	} else {
		cfg, err := mysql.ParseDSN(mysqlDSN)
		if err != nil {
			return "", NewParseError(mysqlDSN, err.Error(), "")
		}
		info.User = cfg.User
		info.Database = cfg.DBName
		info.Host = cfg.Addr
		if h, _, err := net.SplitHostPort(cfg.Addr); err == nil {
			info.Host = h
		}
		if cfg.Net == "unix" {
			info.Host = "localhost"
		}
	}

	if info.Host == "" {
		info.Host = "localhost"
	}
	return NewPostgreSQLResolver().Normalize(info)
}
