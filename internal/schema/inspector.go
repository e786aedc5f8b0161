// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package schema

import (
	"context"
	"strings"
	"sync"

	"github.com/jackc/pgx/v5"
)

// TableInfo holds the key structure of a table.
type TableInfo struct {
	// Schema and Table are the unquoted name parts
	Schema string
	Table  string
	// PrimaryKey lists primary key column names in order
	PrimaryKey []string
	// Serial maps primary key columns to whether their default draws from a sequence
	Serial map[string]bool
}

// Querier is satisfied by *pgxpool.Pool, *pgx.Conn and pgx.Tx.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Inspector reads catalog metadata and caches it per table.
type Inspector struct {
	q     Querier
	cache map[string]*TableInfo
	mu    sync.RWMutex
}

func NewInspector(q Querier) *Inspector {
	return &Inspector{q: q, cache: make(map[string]*TableInfo)}
}

// Table returns cached or freshly loaded metadata. name may be "table" or
// "schema.table".
func (si *Inspector) Table(ctx context.Context, name string) (*TableInfo, error) {
	si.mu.RLock()
	if info, ok := si.cache[name]; ok {
		si.mu.RUnlock()
		return info, nil
	}
	si.mu.RUnlock()

	schemaName, table := parseTableName(name)
	info := &TableInfo{Schema: schemaName, Table: table, Serial: make(map[string]bool)}
	if err := si.loadPrimaryKey(ctx, info); err != nil {
		return nil, err
	}

	si.mu.Lock()
	si.cache[name] = info
	si.mu.Unlock()
	return info, nil
}

// ClearCache drops all cached metadata.
func (si *Inspector) ClearCache() {
	si.mu.Lock()
	defer si.mu.Unlock()
	si.cache = make(map[string]*TableInfo)
}

func parseTableName(name string) (string, string) {
	name = strings.ReplaceAll(name, `"`, "")
	if i := strings.IndexByte(name, '.'); i >= 0 {
		return name[:i], name[i+1:]
	}
	return "public", name
}

func (si *Inspector) loadPrimaryKey(ctx context.Context, info *TableInfo) error {
	const pkQuery = `
		SELECT kc.column_name, COALESCE(c.column_default LIKE 'nextval(%', false) OR c.is_identity = 'YES'
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kc
		  ON tc.constraint_name = kc.constraint_name AND tc.table_schema = kc.table_schema
		JOIN information_schema.columns c
		  ON c.table_schema = kc.table_schema AND c.table_name = kc.table_name AND c.column_name = kc.column_name
		WHERE tc.table_schema = $1 AND tc.table_name = $2 AND tc.constraint_type = 'PRIMARY KEY'
		ORDER BY kc.ordinal_position`

	rows, err := si.q.Query(ctx, pkQuery, info.Schema, info.Table)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var col string
		var serial bool
		if err := rows.Scan(&col, &serial); err != nil {
			return err
		}
		info.PrimaryKey = append(info.PrimaryKey, col)
		info.Serial[col] = serial
	}
	return rows.Err()
}

// Enums returns every enum type in the current database with its labels in
// sort order.
func (si *Inspector) Enums(ctx context.Context) (map[string][]string, error) {
	const enumQuery = `
		SELECT t.typname, e.enumlabel
		FROM pg_type t
		JOIN pg_enum e ON e.enumtypid = t.oid
		JOIN pg_namespace n ON n.oid = t.typnamespace
		WHERE n.nspname = current_schema()
		ORDER BY t.typname, e.enumsortorder`

	rows, err := si.q.Query(ctx, enumQuery)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	enums := make(map[string][]string)
	for rows.Next() {
		var typ, label string
		if err := rows.Scan(&typ, &label); err != nil {
			return nil, err
		}
		enums[typ] = append(enums[typ], label)
	}
	return enums, rows.Err()
}

// ResyncSequences moves the sequence behind each serial primary key column
// of table past the largest stored value. Rows inserted with explicit ids,
// as MySQL dumps do, otherwise leave the sequence behind.
func (si *Inspector) ResyncSequences(ctx context.Context, table string) error {
	info, err := si.Table(ctx, table)
	if err != nil {
		return err
	}
	qualified := pgx.Identifier{info.Schema, info.Table}.Sanitize()
	for _, col := range info.PrimaryKey {
		if !info.Serial[col] {
			continue
		}
		column := pgx.Identifier{col}.Sanitize()
		q := "SELECT setval(pg_get_serial_sequence($1, $2), COALESCE(MAX(" + column + "), 0) + 1, false) FROM " + qualified
		rows, err := si.q.Query(ctx, q, qualified, col)
		if err != nil {
			return err
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return err
		}
	}
	return nil
}
