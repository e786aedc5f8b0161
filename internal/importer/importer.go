// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package importer replays MySQL scripts, such as mysqldump output, against
// PostgreSQL. Statements are split outside literals, translated one by one
// and executed inside a single transaction. The first failing statement
// aborts the import and nothing is committed.
package importer

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/spf13/afero"

	"pgshim/cli/internal/errors"
	"pgshim/cli/internal/scanner"
	"pgshim/cli/internal/schema"
	"pgshim/cli/internal/sqlexec"
	"pgshim/cli/internal/translate"
)

var (
	// sessionRe matches MySQL session statements that have no PostgreSQL
	// counterpart in a dump.
	sessionRe = regexp.MustCompile(`(?is)^(SET\s+(NAMES|FOREIGN_KEY_CHECKS|UNIQUE_CHECKS|SQL_MODE|TIME_ZONE|CHARACTER_SET_CLIENT|CHARACTER_SET_RESULTS|COLLATION_CONNECTION|SQL_NOTES|@)|LOCK\s+TABLES?\b|UNLOCK\s+TABLES?\b|USE\s)`)
	insertRe  = regexp.MustCompile("(?is)^INSERT\\s+INTO\\s+([`\"\\w.]+)")
)

// Beginner is satisfied by *pgxpool.Pool and *pgx.Conn.
type Beginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Summary describes a finished import.
type Summary struct {
	// Statements is the number of statements executed.
	Statements   int
	RowsAffected int64
	// Skipped counts MySQL session statements that were reported and left out.
	Skipped int
	// Tables lists INSERT targets whose sequences were resynced.
	Tables []string
}

// Importer is safe for concurrent use; each Import runs its own transaction.
type Importer struct {
	db         Beginner
	fs         afero.Fs
	translator *translate.Translator
	reporter   sqlexec.Reporter
	scan       scanner.Options
	timeout    time.Duration
	resync     bool
}

type Option func(*Importer)

func WithTranslator(t *translate.Translator) Option {
	return func(im *Importer) { im.translator = t }
}

func WithReporter(r sqlexec.Reporter) Option {
	return func(im *Importer) { im.reporter = r }
}

// WithFs sets the filesystem ImportFile reads from. Default afero.NewOsFs().
func WithFs(fs afero.Fs) Option {
	return func(im *Importer) { im.fs = fs }
}

// WithScanOptions sets how the script is split. It should match the
// translator's scanner settings. Default scanner.MySQL().
func WithScanOptions(opts scanner.Options) Option {
	return func(im *Importer) { im.scan = opts }
}

// WithStatementTimeout bounds each statement. Zero means no bound.
func WithStatementTimeout(d time.Duration) Option {
	return func(im *Importer) { im.timeout = d }
}

// WithSequenceResync controls whether serial sequences of INSERT targets are
// moved past the imported ids before commit. Default true.
func WithSequenceResync(on bool) Option {
	return func(im *Importer) { im.resync = on }
}

func New(db Beginner, opts ...Option) *Importer {
	im := &Importer{
		db:         db,
		fs:         afero.NewOsFs(),
		translator: translate.New(),
		scan:       scanner.MySQL(),
		resync:     true,
	}
	for _, o := range opts {
		o(im)
	}
	return im
}

// ImportFile reads path and imports it.
func (im *Importer) ImportFile(ctx context.Context, path string) (*Summary, error) {
	data, err := afero.ReadFile(im.fs, path)
	if err != nil {
		return nil, errors.Wrap(errors.ConfigInvalid, "cannot read "+path, err)
	}
	return im.Import(ctx, string(data))
}

// Import runs script in one transaction. A failing statement is returned
// wrapped with its position; the error still carries the kind and both query
// forms.
func (im *Importer) Import(ctx context.Context, script string) (*Summary, error) {
	sum := &Summary{}
	var stmts, code []string
	for _, s := range scanner.Split(script, im.scan) {
		if c := stripComments(s, im.scan); c != "" {
			stmts = append(stmts, s)
			code = append(code, c)
		}
	}
	if len(stmts) == 0 {
		return sum, nil
	}

	tx, err := im.db.Begin(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.ConnectFailed, "begin import transaction", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var execOpts []sqlexec.Option
	execOpts = append(execOpts, sqlexec.WithTranslator(im.translator))
	if im.reporter != nil {
		execOpts = append(execOpts, sqlexec.WithReporter(im.reporter))
	}
	exec := sqlexec.New(sqlexec.NewPgxDriver(tx), execOpts...)

	tables := make(map[string]bool)
	for i, stmt := range stmts {
		if sessionRe.MatchString(code[i]) {
			sum.Skipped++
			im.note(stmt, "MySQL session statement has no PostgreSQL equivalent; skipped")
			continue
		}

		res, err := im.run(ctx, exec, stmt)
		if err != nil {
			return sum, fmt.Errorf("statement %d of %d: %w", i+1, len(stmts), err)
		}
		sum.Statements++
		sum.RowsAffected += res.RowsAffected
		if t := insertTarget(code[i]); t != "" {
			tables[t] = true
		}
	}

	if im.resync && len(tables) > 0 {
		inspector := schema.NewInspector(tx)
		for t := range tables {
			sum.Tables = append(sum.Tables, t)
		}
		sort.Strings(sum.Tables)
		for _, t := range sum.Tables {
			if err := inspector.ResyncSequences(ctx, t); err != nil {
				return sum, errors.Wrap(errors.ExecutionFailure, "resync sequences of "+t, err)
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return sum, errors.Wrap(errors.ExecutionFailure, "commit import", err)
	}
	return sum, nil
}

func (im *Importer) run(ctx context.Context, exec *sqlexec.Executor, stmt string) (*sqlexec.Result, error) {
	if im.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, im.timeout)
		defer cancel()
	}
	return exec.Run(ctx, translate.Request{Query: stmt})
}

func (im *Importer) note(stmt, msg string) {
	if im.reporter == nil {
		return
	}
	im.reporter.Notes(stmt, []translate.Note{{Kind: errors.UnsupportedConstruct, Message: msg}})
}

// stripComments blanks out comments and trims the result. A dump header or
// a MySQL /*!40101 ... */ version comment leaves nothing behind.
func stripComments(stmt string, opts scanner.Options) string {
	var b strings.Builder
	prev := 0
	for _, s := range scanner.Scan(stmt, opts) {
		if s.Kind != scanner.LineComment && s.Kind != scanner.BlockComment {
			continue
		}
		b.WriteString(stmt[prev:s.Start])
		b.WriteByte(' ')
		prev = s.End
	}
	b.WriteString(stmt[prev:])
	return strings.TrimSpace(b.String())
}

// insertTarget returns the table an INSERT writes to, without quotes.
func insertTarget(stmt string) string {
	m := insertRe.FindStringSubmatch(stmt)
	if m == nil {
		return ""
	}
	return strings.NewReplacer("`", "", `"`, "").Replace(m[1])
}
