// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package translate

import (
	"strings"

	"pgshim/cli/internal/errors"
)

type argRange struct {
	start, end int
}

// Call is a function call found by the remapper. Its argument accessors
// return already translated text, so a rule only assembles the replacement.
type Call struct {
	// Name is the function name as written.
	Name string

	m           *remapper
	open, close int
	args        []argRange
	rendered    []string
}

// NumArgs returns the number of top-level arguments.
func (c *Call) NumArgs() int { return len(c.args) }

// Arg returns the i-th argument, translated and trimmed.
func (c *Call) Arg(i int) string {
	if c.rendered == nil {
		c.rendered = make([]string, len(c.args))
		for j, a := range c.args {
			c.rendered[j] = strings.TrimSpace(c.m.rewrite(a.start, a.end))
		}
	}
	return c.rendered[i]
}

// Args returns all arguments joined the way they are usually written.
func (c *Call) Args() string {
	parts := make([]string, len(c.args))
	for i := range c.args {
		parts[i] = c.Arg(i)
	}
	return strings.Join(parts, ", ")
}

// Compares reports whether argument i holds a comparison operator outside
// any nested parentheses and masked spans. Shifts and the null-safe <=>
// do not count.
func (c *Call) Compares(i int) bool {
	cmp, _ := c.operators(i)
	return cmp
}

// NullSafeEquals reports whether argument i holds a top-level <=>.
func (c *Call) NullSafeEquals(i int) bool {
	_, ns := c.operators(i)
	return ns
}

// Note records a translation note against the query being rewritten.
func (c *Call) Note(kind errors.Kind, format string, args ...any) {
	c.m.note(kind, format, args...)
}

func (c *Call) operators(i int) (cmp, nullSafe bool) {
	a := c.args[i]
	src := c.m.src
	depth := 0
	next := c.m.spanFrom(a.start)
	at := func(k int) byte {
		if k < a.end {
			return src[k]
		}
		return 0
	}
	for k := a.start; k < a.end; k++ {
		if next < len(c.m.spans) && c.m.spans[next].Start <= k {
			k = c.m.spans[next].End - 1
			next++
			continue
		}
		switch ch := src[k]; ch {
		case '(':
			depth++
		case ')':
			depth--
		case '=':
			// := is assignment
			if depth == 0 && (k == a.start || src[k-1] != ':') {
				cmp = true
			}
		case '<':
			switch {
			case at(k+1) == '<':
				k++
			case at(k+1) == '=' && at(k+2) == '>':
				if depth == 0 {
					nullSafe = true
				}
				k += 2
			case depth == 0:
				cmp = true
			}
		case '>':
			switch {
			case at(k+1) == '>':
				// >> is a shift, ->> a JSON operator
				k++
			case k > a.start && src[k-1] == '-':
				// -> is a JSON operator
			case depth == 0:
				cmp = true
			}
		case '!':
			if depth == 0 && at(k+1) == '=' {
				cmp = true
			}
		}
	}
	return cmp, nullSafe
}

// Mentions reports whether argument i contains keyword as a bare word at
// any depth, ignoring masked spans.
func (c *Call) Mentions(i int, keyword string) bool {
	a := c.args[i]
	src := c.m.src
	next := c.m.spanFrom(a.start)
	for k := a.start; k < a.end; k++ {
		if next < len(c.m.spans) && c.m.spans[next].Start <= k {
			k = c.m.spans[next].End - 1
			next++
			continue
		}
		if !isIdentStart(src[k]) || !c.m.atWordBoundary(k) {
			continue
		}
		j := k + 1
		for j < a.end && isIdentPart(src[j]) {
			j++
		}
		if strings.EqualFold(src[k:j], keyword) {
			return true
		}
		k = j - 1
	}
	return false
}
