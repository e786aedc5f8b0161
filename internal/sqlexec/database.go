// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package sqlexec

import (
	"context"
	"database/sql"
	"net/url"
	"strings"

	_ "github.com/lib/pq"
)

// OpenPostgres opens a database/sql handle through lib/pq. No connection is
// made until first use.
func OpenPostgres(dsn string) (*sql.DB, error) {
	return sql.Open("postgres", withSSLMode(dsn))
}

// withSSLMode sets sslmode=disable on URLs that carry none. lib/pq would
// otherwise require TLS, while normalised DSNs only omit sslmode for local
// hosts.
func withSSLMode(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil || (u.Scheme != "postgres" && u.Scheme != "postgresql") {
		return dsn
	}
	q := u.Query()
	if q.Get("sslmode") != "" {
		return dsn
	}
	q.Set("sslmode", "disable")
	u.RawQuery = q.Encode()
	return u.String()
}

// DBDriver runs statements through database/sql. Statements that return
// rows go through QueryContext, everything else through ExecContext so the
// affected row count is available.
type DBDriver struct {
	db *sql.DB
}

func NewDBDriver(db *sql.DB) *DBDriver {
	return &DBDriver{db: db}
}

func (d *DBDriver) Run(ctx context.Context, query string, args []any) (*Result, error) {
	if !returnsRows(query) {
		r, err := d.db.ExecContext(ctx, query, args...)
		if err != nil {
			return nil, err
		}
		n, err := r.RowsAffected()
		if err != nil {
			n = 0
		}
		return &Result{Rows: []Row{}, Fields: []Field{}, RowsAffected: n}, nil
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	types, err := rows.ColumnTypes()
	if err != nil {
		return nil, err
	}
	fields := make([]Field, len(types))
	for i, ct := range types {
		fields[i] = Field{Name: ct.Name(), TypeName: strings.ToLower(ct.DatabaseTypeName())}
	}

	res := &Result{Rows: []Row{}, Fields: fields}
	vals := make([]any, len(fields))
	ptrs := make([]any, len(fields))
	for i := range vals {
		ptrs[i] = &vals[i]
	}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := make(Row, len(fields))
		for i, v := range vals {
			row[fields[i].Name] = v
		}
		res.Rows = append(res.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	res.RowsAffected = int64(len(res.Rows))
	return res, nil
}

// returnsRows looks at the leading keyword and a RETURNING clause.
func returnsRows(query string) bool {
	q := strings.TrimLeft(query, " \t\r\n(")
	end := strings.IndexAny(q, " \t\r\n(")
	if end < 0 {
		end = len(q)
	}
	switch strings.ToUpper(q[:end]) {
	case "SELECT", "WITH", "VALUES", "SHOW", "TABLE", "EXPLAIN":
		return true
	}
	return strings.Contains(strings.ToUpper(q), "RETURNING")
}
