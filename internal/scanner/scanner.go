// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package scanner classifies the byte ranges of a SQL query that must never be
// rewritten: quoted literals, quoted identifiers, comments and dollar-quoted
// bodies. Later stages use the resulting spans purely as an exclusion mask.
//
// Scanning is a single forward pass and never fails. An unterminated literal
// is reported as a span running to the end of the input with Unterminated set.
package scanner

// Kind identifies what opened a span.
type Kind int

const (
	SingleQuoted Kind = iota
	DoubleQuoted
	Backtick
	DollarQuoted
	LineComment
	BlockComment
)

func (k Kind) String() string {
	switch k {
	case SingleQuoted:
		return "single-quoted"
	case DoubleQuoted:
		return "double-quoted"
	case Backtick:
		return "backtick"
	case DollarQuoted:
		return "dollar-quoted"
	case LineComment:
		return "line comment"
	case BlockComment:
		return "block comment"
	default:
		return "unknown"
	}
}

// Span is a half-open byte range [Start, End) including its delimiters.
type Span struct {
	Start        int
	End          int
	Kind         Kind
	Unterminated bool
}

// Len returns the length of the span in bytes.
func (s Span) Len() int { return s.End - s.Start }

// Options controls dialect-dependent lexing rules.
type Options struct {
	// BackslashEscapes makes a backslash escape the next byte inside quoted
	// literals, as MySQL does by default.
	BackslashEscapes bool
	// HashComments treats '#' as the start of a line comment.
	HashComments bool
	// SpacedDashComments requires whitespace or a control byte after "--"
	// for it to open a comment. Otherwise 1--1 is a subtraction.
	SpacedDashComments bool
}

// MySQL returns the lexing rules of the MySQL source dialect.
func MySQL() Options {
	return Options{BackslashEscapes: true, HashComments: true, SpacedDashComments: true}
}

// Postgres returns the lexing rules of PostgreSQL with
// standard_conforming_strings on.
func Postgres() Options {
	return Options{}
}

// Scan walks query once and returns its spans in order.
func Scan(query string, opts Options) Spans {
	s := &lexer{input: query, opts: opts}
	return s.run()
}

type lexer struct {
	input string
	opts  Options
	pos   int
	spans Spans
}

func (l *lexer) run() Spans {
	for l.pos < len(l.input) {
		start := l.pos
		switch c := l.input[l.pos]; {
		case c == '\'':
			l.skipQuoted('\'', SingleQuoted, l.opts.BackslashEscapes)
		case c == '"':
			l.skipQuoted('"', DoubleQuoted, l.opts.BackslashEscapes)
		case c == '`':
			l.skipQuoted('`', Backtick, false)
		case c == '-' && l.peek(1) == '-' && l.dashComment():
			l.skipLine(LineComment)
		case c == '#' && l.opts.HashComments:
			l.skipLine(LineComment)
		case c == '/' && l.peek(1) == '*':
			l.skipBlockComment()
		case c == '$':
			if !l.skipDollarQuoted() {
				l.pos++
			}
		default:
			l.pos++
		}
		if l.pos == start {
			// Every branch must make progress.
			l.pos++
		}
	}
	return l.spans
}

func (l *lexer) peek(n int) byte {
	if l.pos+n < len(l.input) {
		return l.input[l.pos+n]
	}
	return 0
}

// dashComment reports whether the "--" at pos opens a comment.
func (l *lexer) dashComment() bool {
	if !l.opts.SpacedDashComments || l.pos+2 >= len(l.input) {
		return true
	}
	return l.input[l.pos+2] <= ' '
}

func (l *lexer) add(start int, kind Kind, unterminated bool) {
	l.spans = append(l.spans, Span{Start: start, End: l.pos, Kind: kind, Unterminated: unterminated})
}

// skipQuoted consumes a literal opened by quote. A doubled quote is an
// escaped quote and does not close the literal.
func (l *lexer) skipQuoted(quote byte, kind Kind, backslash bool) {
	start := l.pos
	l.pos++
	for l.pos < len(l.input) {
		c := l.input[l.pos]
		if backslash && c == '\\' {
			l.pos += 2
			continue
		}
		if c == quote {
			if l.peek(1) == quote {
				l.pos += 2
				continue
			}
			l.pos++
			l.add(start, kind, false)
			return
		}
		l.pos++
	}
	l.pos = len(l.input)
	l.add(start, kind, true)
}

// skipLine consumes a comment up to, but not including, the newline.
func (l *lexer) skipLine(kind Kind) {
	start := l.pos
	for l.pos < len(l.input) && l.input[l.pos] != '\n' {
		l.pos++
	}
	l.add(start, kind, false)
}

func (l *lexer) skipBlockComment() {
	start := l.pos
	l.pos += 2
	for l.pos < len(l.input) {
		if l.input[l.pos] == '*' && l.peek(1) == '/' {
			l.pos += 2
			l.add(start, BlockComment, false)
			return
		}
		l.pos++
	}
	l.add(start, BlockComment, true)
}

// skipDollarQuoted consumes $tag$ ... $tag$. It returns false, leaving the
// position untouched, when the '$' does not open a dollar quote (for example
// a $1 placeholder).
func (l *lexer) skipDollarQuoted() bool {
	start := l.pos
	i := l.pos + 1
	for i < len(l.input) && isTagChar(l.input[i], i == l.pos+1) {
		i++
	}
	if i >= len(l.input) || l.input[i] != '$' {
		return false
	}
	if start > 0 && isIdentChar(l.input[start-1]) {
		return false
	}
	tag := l.input[start : i+1]
	l.pos = i + 1
	for l.pos < len(l.input) {
		if l.input[l.pos] == '$' && len(l.input)-l.pos >= len(tag) && l.input[l.pos:l.pos+len(tag)] == tag {
			l.pos += len(tag)
			l.add(start, DollarQuoted, false)
			return true
		}
		l.pos++
	}
	l.add(start, DollarQuoted, true)
	return true
}

func isTagChar(c byte, first bool) bool {
	if c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c >= 0x80 {
		return true
	}
	return !first && c >= '0' && c <= '9'
}

func isIdentChar(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c >= 0x80
}
