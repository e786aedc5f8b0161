// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package schema creates the application schema on PostgreSQL and inspects
// it afterwards.
package schema

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/jackc/pgx/v5"

	"pgshim/cli/internal/errors"
)

//go:embed sql/*.sql
var defaultDDL embed.FS

// Step is one DDL script, run as a single simple-protocol Exec.
type Step struct {
	Name string
	SQL  string
}

// Beginner is satisfied by *pgxpool.Pool and *pgx.Conn.
type Beginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Bootstrapper runs the schema DDL once per process. A failed attempt rolls
// back and leaves it ready to try again.
type Bootstrapper struct {
	db    Beginner
	steps []Step

	mu   sync.Mutex
	done atomic.Bool
}

// NewBootstrapper uses the embedded application schema.
func NewBootstrapper(db Beginner) *Bootstrapper {
	steps, err := LoadSteps(defaultDDL, "sql")
	if err != nil {
		panic(fmt.Sprintf("schema: embedded ddl: %v", err))
	}
	return &Bootstrapper{db: db, steps: steps}
}

// NewBootstrapperWithSteps uses caller-supplied steps.
func NewBootstrapperWithSteps(db Beginner, steps []Step) *Bootstrapper {
	return &Bootstrapper{db: db, steps: steps}
}

// LoadSteps reads every *.sql file in dir, ordered by file name.
func LoadSteps(fsys fs.FS, dir string) ([]Step, error) {
	matches, err := fs.Glob(fsys, path.Join(dir, "*.sql"))
	if err != nil {
		return nil, err
	}
	sort.Strings(matches)

	steps := make([]Step, 0, len(matches))
	for _, m := range matches {
		b, err := fs.ReadFile(fsys, m)
		if err != nil {
			return nil, err
		}
		if strings.TrimSpace(string(b)) == "" {
			continue
		}
		steps = append(steps, Step{Name: strings.TrimSuffix(path.Base(m), ".sql"), SQL: string(b)})
	}
	if len(steps) == 0 {
		return nil, fmt.Errorf("no .sql files in %s", dir)
	}
	return steps, nil
}

// Steps returns the scripts in run order.
func (b *Bootstrapper) Steps() []Step { return b.steps }

// Done reports whether Ensure has succeeded.
func (b *Bootstrapper) Done() bool { return b.done.Load() }

// Ensure runs all steps in one transaction unless a previous call succeeded.
// Concurrent callers wait for the first attempt.
func (b *Bootstrapper) Ensure(ctx context.Context) error {
	if b.done.Load() {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.done.Load() {
		return nil
	}

	tx, err := b.db.Begin(ctx)
	if err != nil {
		return errors.Wrap(errors.ConnectFailed, "begin schema transaction", err)
	}
	defer tx.Rollback(ctx) // no-op after commit

	for _, s := range b.steps {
		if _, err := tx.Exec(ctx, s.SQL); err != nil {
			return errors.Wrap(errors.ExecutionFailure, "schema step "+s.Name, err).WithQueries(s.SQL, s.SQL)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return errors.Wrap(errors.ExecutionFailure, "commit schema", err)
	}
	b.done.Store(true)
	return nil
}
