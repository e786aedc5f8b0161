// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package scanner

import (
	"sort"
	"strings"
)

// Spans is an ordered, non-overlapping list of spans.
type Spans []Span

// At returns the span containing offset, if any.
func (ss Spans) At(offset int) (Span, bool) {
	i := sort.Search(len(ss), func(i int) bool { return ss[i].End > offset })
	if i < len(ss) && ss[i].Start <= offset {
		return ss[i], true
	}
	return Span{}, false
}

// Masked reports whether offset lies inside a span.
func (ss Spans) Masked(offset int) bool {
	_, ok := ss.At(offset)
	return ok
}

// Malformed returns the first unterminated span.
func (ss Spans) Malformed() (Span, bool) {
	for _, s := range ss {
		if s.Unterminated {
			return s, true
		}
	}
	return Span{}, false
}

// Split breaks a script into statements on ';' outside spans. Empty
// statements are dropped and surrounding whitespace is trimmed.
func Split(script string, opts Options) []string {
	spans := Scan(script, opts)
	var stmts []string
	start := 0
	next := 0
	for i := 0; i < len(script); i++ {
		if next < len(spans) && i == spans[next].Start {
			i = spans[next].End - 1
			next++
			continue
		}
		if script[i] == ';' {
			stmts = appendStatement(stmts, script[start:i])
			start = i + 1
		}
	}
	return appendStatement(stmts, script[start:])
}

func appendStatement(stmts []string, s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return stmts
	}
	return append(stmts, s)
}
