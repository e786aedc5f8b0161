// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package translate rewrites MySQL-flavoured SQL into PostgreSQL.
//
// A translation scans the query once for quoted literals and comments,
// numbers the positional placeholders, then walks the text remapping MySQL
// functions through an ordered rule table. Everything inside a literal or
// comment is copied byte for byte. Parameters are never touched: the result
// carries the caller's slice unchanged.
package translate

import (
	"fmt"

	"pgshim/cli/internal/errors"
	"pgshim/cli/internal/scanner"
)

// Request is a source-dialect query and its positional parameters.
type Request struct {
	Query  string
	Params []any
}

// Result is the target-dialect query. Params is the request's slice.
type Result struct {
	Query  string
	Params []any
	// Placeholders is the number of $n markers written.
	Placeholders int
	Notes        []Note
}

// Note is a non-fatal observation made while translating.
type Note struct {
	Kind    errors.Kind
	Message string
}

func (n Note) String() string { return string(n.Kind) + ": " + n.Message }

// Translator is safe for concurrent use.
type Translator struct {
	marker  byte
	scan    scanner.Options
	index   map[string][]Rule
	requote bool
	cache   *cache
}

type Option func(*Translator)

// WithRules replaces the default function table.
func WithRules(rules ...Rule) Option {
	return func(t *Translator) { t.index = indexRules(rules) }
}

// WithPlaceholder sets the source placeholder character. Default '?'.
func WithPlaceholder(marker byte) Option {
	return func(t *Translator) { t.marker = marker }
}

// WithScanOptions overrides the literal scanner settings. Default scanner.MySQL().
func WithScanOptions(opts scanner.Options) Option {
	return func(t *Translator) { t.scan = opts }
}

// WithBacktickIdentifiers re-delimits `ident` as "ident".
func WithBacktickIdentifiers() Option {
	return func(t *Translator) { t.requote = true }
}

// WithCache memoises up to size distinct queries. Zero disables caching.
func WithCache(size int) Option {
	return func(t *Translator) {
		if size > 0 {
			t.cache = newCache(size)
		} else {
			t.cache = nil
		}
	}
}

func New(opts ...Option) *Translator {
	t := &Translator{
		marker: '?',
		scan:   scanner.MySQL(),
		index:  indexRules(DefaultRules()),
	}
	for _, o := range opts {
		o(t)
	}
	return t
}

// Translate converts req into the target dialect. It never fails; problems
// with the input are reported as notes and the affected text is passed
// through.
func (t *Translator) Translate(req Request) Result {
	e := t.translate(req.Query)
	return Result{
		Query:        e.query,
		Params:       req.Params,
		Placeholders: e.placeholders,
		Notes:        append([]Note(nil), e.notes...),
	}
}

// Query translates a query without parameters.
func (t *Translator) Query(query string) (string, []Note) {
	r := t.Translate(Request{Query: query})
	return r.Query, r.Notes
}

func (t *Translator) translate(query string) cached {
	if t.cache != nil {
		if e, ok := t.cache.get(query); ok {
			return e
		}
	}

	spans := scanner.Scan(query, t.scan)
	var notes []Note
	if s, ok := spans.Malformed(); ok {
		notes = append(notes, Note{
			Kind:    errors.MalformedLiteral,
			Message: fmt.Sprintf("%s text opened at byte %d is never closed; rest of query left as written", s.Kind, s.Start),
		})
	}

	out, shifted, n := rewritePlaceholders(query, spans, t.marker)
	m := &remapper{src: out, spans: shifted, index: t.index, requote: t.requote}
	e := cached{query: m.run(), placeholders: n, notes: append(notes, m.notes...)}

	if t.cache != nil {
		t.cache.put(query, e)
	}
	return e
}
