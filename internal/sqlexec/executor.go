// Package sqlexec runs translated queries and hands results back in the shape
// MySQL-oriented callers expect: a list of rows keyed by column name plus the
// field descriptions.
//
// Key features include:
//   - One driver round-trip per call, no retries
//   - Drivers for pgx (pool, conn or tx) and database/sql
//   - Value normalisation for UUIDs, NUMERIC, TIME and INTERVAL columns
//   - Failures classified by kind and carrying both query forms
package sqlexec

import (
	"context"

	"pgshim/cli/internal/translate"
)

// Row is one result row keyed by column name.
type Row = map[string]any

// Field describes a result column.
type Field struct {
	Name string
	// Table is the OID of the source table, 0 when unknown.
	Table    uint32
	TypeOID  uint32
	TypeName string
}

// Result is the outcome of one statement.
type Result struct {
	Rows         []Row
	Fields       []Field
	RowsAffected int64
}

// Driver performs exactly one round-trip per Run.
type Driver interface {
	Run(ctx context.Context, query string, args []any) (*Result, error)
}

// Reporter receives diagnostics. It must not block or fail.
type Reporter interface {
	Failure(source, target string, err error)
	Notes(source string, notes []translate.Note)
	Translated(source, target string)
}

type nopReporter struct{}

func (nopReporter) Failure(string, string, error)  {}
func (nopReporter) Notes(string, []translate.Note) {}
func (nopReporter) Translated(string, string)      {}

// Executor translates and runs queries through a Driver.
type Executor struct {
	driver     Driver
	translator *translate.Translator
	reporter   Reporter
}

type Option func(*Executor)

// WithTranslator replaces the default translator.
func WithTranslator(t *translate.Translator) Option {
	return func(e *Executor) { e.translator = t }
}

// WithReporter sets where failures and translation notes are reported.
func WithReporter(r Reporter) Option {
	return func(e *Executor) { e.reporter = r }
}

// New creates an Executor over driver.
func New(driver Driver, opts ...Option) *Executor {
	e := &Executor{
		driver:     driver,
		translator: translate.New(),
		reporter:   nopReporter{},
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Execute runs a MySQL-style query and returns rows and fields.
func (e *Executor) Execute(ctx context.Context, query string, params ...any) ([]Row, []Field, error) {
	res, err := e.Run(ctx, translate.Request{Query: query, Params: params})
	if err != nil {
		return nil, nil, err
	}
	return res.Rows, res.Fields, nil
}

// Run translates req, sends it to the driver once and returns the full
// result. Errors are *errors.E values carrying the source and target query.
func (e *Executor) Run(ctx context.Context, req translate.Request) (*Result, error) {
	tr := e.translator.Translate(req)
	if len(tr.Notes) > 0 {
		e.reporter.Notes(req.Query, tr.Notes)
	}

	res, err := e.driver.Run(ctx, tr.Query, tr.Params)
	if err != nil {
		classified := classify(ctx, err).WithQueries(req.Query, tr.Query)
		e.reporter.Failure(req.Query, tr.Query, classified)
		return nil, classified
	}
	e.reporter.Translated(req.Query, tr.Query)
	return res, nil
}
