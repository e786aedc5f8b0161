// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package schema

import (
	"context"
	stderrors "errors"
	"sync"
	"testing"
	"testing/fstest"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pgshim/cli/internal/errors"
	"pgshim/cli/internal/scanner"
)

type fakeTx struct {
	pgx.Tx
	db *fakeDB
}

func (tx *fakeTx) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	tx.db.mu.Lock()
	defer tx.db.mu.Unlock()
	tx.db.executed = append(tx.db.executed, sql)
	if tx.db.failOn == sql {
		return pgconn.CommandTag{}, stderrors.New("relation already exists")
	}
	return pgconn.NewCommandTag("CREATE"), nil
}

func (tx *fakeTx) Commit(ctx context.Context) error {
	tx.db.mu.Lock()
	defer tx.db.mu.Unlock()
	tx.db.commits++
	return nil
}

func (tx *fakeTx) Rollback(ctx context.Context) error {
	tx.db.mu.Lock()
	defer tx.db.mu.Unlock()
	tx.db.rollbacks++
	return nil
}

type fakeDB struct {
	mu        sync.Mutex
	begins    int
	commits   int
	rollbacks int
	executed  []string
	failOn    string
}

func (db *fakeDB) Begin(ctx context.Context) (pgx.Tx, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.begins++
	return &fakeTx{db: db}, nil
}

func TestEmbeddedSteps(t *testing.T) {
	b := NewBootstrapper(&fakeDB{})
	var names []string
	for _, s := range b.Steps() {
		names = append(names, s.Name)
	}
	assert.Equal(t, []string{"001_types", "002_tables", "003_indexes"}, names)

	// the DO blocks hide their inner semicolons
	types := scanner.Split(b.Steps()[0].SQL, scanner.Postgres())
	assert.Len(t, types, 6)
	tables := scanner.Split(b.Steps()[1].SQL, scanner.Postgres())
	assert.Len(t, tables, 23)
}

func TestEnsureRunsOnce(t *testing.T) {
	db := &fakeDB{}
	b := NewBootstrapperWithSteps(db, []Step{{"a", "CREATE A"}, {"b", "CREATE B"}})
	ctx := context.Background()

	require.NoError(t, b.Ensure(ctx))
	require.NoError(t, b.Ensure(ctx))

	assert.True(t, b.Done())
	assert.Equal(t, 1, db.begins)
	assert.Equal(t, 1, db.commits)
	assert.Equal(t, []string{"CREATE A", "CREATE B"}, db.executed)
}

func TestEnsureConcurrent(t *testing.T) {
	db := &fakeDB{}
	b := NewBootstrapperWithSteps(db, []Step{{"a", "CREATE A"}})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, b.Ensure(context.Background()))
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, db.begins)
}

func TestEnsureFailureAllowsRetry(t *testing.T) {
	db := &fakeDB{failOn: "CREATE B"}
	b := NewBootstrapperWithSteps(db, []Step{{"a", "CREATE A"}, {"b", "CREATE B"}, {"c", "CREATE C"}})
	ctx := context.Background()

	err := b.Ensure(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ExecutionFailure))
	assert.False(t, b.Done())
	assert.Equal(t, 0, db.commits)
	assert.Equal(t, 1, db.rollbacks)
	assert.Equal(t, []string{"CREATE A", "CREATE B"}, db.executed)

	db.failOn = ""
	require.NoError(t, b.Ensure(ctx))
	assert.True(t, b.Done())
	assert.Equal(t, 2, db.begins)
}

func TestLoadSteps(t *testing.T) {
	fsys := fstest.MapFS{
		"ddl/02_tables.sql": {Data: []byte("CREATE TABLE t (id int);")},
		"ddl/01_types.sql":  {Data: []byte("CREATE TYPE r AS ENUM ('a');")},
		"ddl/03_empty.sql":  {Data: []byte("  \n")},
		"ddl/readme.txt":    {Data: []byte("ignored")},
	}
	steps, err := LoadSteps(fsys, "ddl")
	require.NoError(t, err)
	require.Len(t, steps, 2)
	assert.Equal(t, "01_types", steps[0].Name)
	assert.Equal(t, "02_tables", steps[1].Name)

	_, err = LoadSteps(fstest.MapFS{}, "ddl")
	assert.Error(t, err)
}

func TestParseTableName(t *testing.T) {
	tests := []struct {
		in, schema, table string
	}{
		{"users", "public", "users"},
		{"app.users", "app", "users"},
		{`"app"."users"`, "app", "users"},
	}
	for _, tt := range tests {
		s, tbl := parseTableName(tt.in)
		assert.Equal(t, tt.schema, s, tt.in)
		assert.Equal(t, tt.table, tbl, tt.in)
	}
}
