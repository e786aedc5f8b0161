// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package translate

import (
	"fmt"
	"sort"
	"strings"

	"pgshim/cli/internal/errors"
	"pgshim/cli/internal/scanner"
)

// remapper walks a query once, copying masked spans verbatim and handing
// every recognised function call to the rule table. Arguments are rewritten
// before the rule sees them, so nested calls are translated inside-out and
// rule output is never scanned again.
type remapper struct {
	src     string
	spans   scanner.Spans
	index   map[string][]Rule
	requote bool
	notes   []Note
}

func (m *remapper) run() string {
	return m.rewrite(0, len(m.src))
}

// spanFrom returns the index of the first span ending after offset.
func (m *remapper) spanFrom(offset int) int {
	return sort.Search(len(m.spans), func(i int) bool { return m.spans[i].End > offset })
}

// rewrite returns the translation of src[start:end].
func (m *remapper) rewrite(start, end int) string {
	var b strings.Builder
	b.Grow(end - start)
	next := m.spanFrom(start)
	i := start
	for i < end {
		if next < len(m.spans) && m.spans[next].Start <= i {
			s := m.spans[next]
			stop := s.End
			if stop > end {
				stop = end
			}
			m.copySpan(&b, s, i, stop)
			i = stop
			next++
			continue
		}

		c := m.src[i]
		if isIdentStart(c) && m.atWordBoundary(i) {
			j := i + 1
			for j < end && isIdentPart(m.src[j]) {
				j++
			}
			word := m.src[i:j]
			if rules := m.index[strings.ToUpper(word)]; len(rules) > 0 {
				if out, stop, ok := m.call(word, i, j, end, rules); ok {
					b.WriteString(out)
					i = stop
					next = m.spanFrom(i)
					continue
				}
			}
			b.WriteString(word)
			i = j
			continue
		}

		b.WriteByte(c)
		i++
	}
	return b.String()
}

func (m *remapper) copySpan(b *strings.Builder, s scanner.Span, from, to int) {
	if m.requote && s.Kind == scanner.Backtick && !s.Unterminated && from == s.Start && to == s.End {
		ident := strings.ReplaceAll(m.src[s.Start+1:s.End-1], "``", "`")
		b.WriteByte('"')
		b.WriteString(strings.ReplaceAll(ident, `"`, `""`))
		b.WriteByte('"')
		return
	}
	b.WriteString(m.src[from:to])
}

// atWordBoundary reports whether an identifier starting at i is a bare name,
// not the tail of another identifier, a qualified member or a $n marker.
func (m *remapper) atWordBoundary(i int) bool {
	if i == 0 {
		return true
	}
	p := m.src[i-1]
	return !isIdentPart(p) && p != '.' && p != '$'
}

// call tries the rules registered for name against the call starting at
// nameStart. It returns the replacement and the offset just past the closing
// parenthesis.
func (m *remapper) call(name string, nameStart, nameEnd, limit int, rules []Rule) (string, int, bool) {
	open := nameEnd
	for open < limit && isSpace(m.src[open]) {
		open++
	}
	if open >= limit || m.src[open] != '(' {
		return "", 0, false
	}

	args, closing, ok := m.arguments(open, limit)
	if !ok {
		m.note(errors.UnsupportedConstruct, "unbalanced parentheses after %s at byte %d; left as written", name, nameStart)
		return "", 0, false
	}

	c := &Call{Name: name, m: m, open: open, close: closing, args: args}
	arityMatched := false
	for _, r := range rules {
		if r.Arity >= 0 && r.Arity != len(args) {
			continue
		}
		arityMatched = true
		if out, ok := r.Apply(c); ok {
			return out, closing + 1, true
		}
	}
	if !arityMatched {
		m.note(errors.UnsupportedConstruct, "%s with %d argument(s) has no translation; left as written", strings.ToUpper(name), len(args))
	}
	return "", 0, false
}

// arguments splits the parenthesised list opening at open into top-level
// argument ranges, skipping masked spans and nested parentheses.
func (m *remapper) arguments(open, limit int) ([]argRange, int, bool) {
	var args []argRange
	depth := 0
	argStart := open + 1
	next := m.spanFrom(open)
	for i := open + 1; i < limit; i++ {
		if next < len(m.spans) && m.spans[next].Start <= i {
			i = m.spans[next].End - 1
			next++
			continue
		}
		switch m.src[i] {
		case '(':
			depth++
		case ')':
			if depth > 0 {
				depth--
				continue
			}
			if len(args) > 0 || strings.TrimSpace(m.src[argStart:i]) != "" {
				args = append(args, argRange{argStart, i})
			}
			return args, i, true
		case ',':
			if depth == 0 {
				args = append(args, argRange{argStart, i})
				argStart = i + 1
			}
		}
	}
	return nil, 0, false
}

func (m *remapper) note(kind errors.Kind, format string, args ...any) {
	m.notes = append(m.notes, Note{Kind: kind, Message: fmt.Sprintf(format, args...)})
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c >= 0x80
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f'
}
