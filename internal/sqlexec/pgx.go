// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package sqlexec

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
)

// PgxQuerier is satisfied by *pgxpool.Pool, *pgx.Conn and pgx.Tx.
type PgxQuerier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PgxDriver runs statements through pgx. Every statement goes through Query
// so rows and the command tag come back from a single round-trip.
type PgxDriver struct {
	q PgxQuerier
}

func NewPgxDriver(q PgxQuerier) *PgxDriver {
	return &PgxDriver{q: q}
}

// typeNames resolves OIDs of built-in types. It is only read after init.
var typeNames = pgtype.NewMap()

func (d *PgxDriver) Run(ctx context.Context, query string, args []any) (*Result, error) {
	rows, err := d.q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	fields := pgxFields(rows.FieldDescriptions())
	res := &Result{Rows: []Row{}, Fields: fields}
	for rows.Next() {
		vals, err := rows.Values()
		if err != nil {
			return nil, err
		}
		row := make(Row, len(fields))
		for i, v := range vals {
			row[fields[i].Name] = normalize(v)
		}
		res.Rows = append(res.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	res.RowsAffected = rows.CommandTag().RowsAffected()
	return res, nil
}

func pgxFields(fds []pgconn.FieldDescription) []Field {
	fields := make([]Field, len(fds))
	for i, fd := range fds {
		fields[i] = Field{
			Name:     fd.Name,
			Table:    fd.TableOID,
			TypeOID:  fd.DataTypeOID,
			TypeName: typeName(fd.DataTypeOID),
		}
	}
	return fields
}

func typeName(oid uint32) string {
	if t, ok := typeNames.TypeForOID(oid); ok {
		return t.Name
	}
	return ""
}
