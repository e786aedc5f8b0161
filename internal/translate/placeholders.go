// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package translate

import (
	"strconv"
	"strings"

	"pgshim/cli/internal/scanner"
)

// rewritePlaceholders replaces every marker outside spans with $1..$n in
// text order. It returns the new query, the spans moved into the new
// coordinates and the number of placeholders written.
func rewritePlaceholders(query string, spans scanner.Spans, marker byte) (string, scanner.Spans, int) {
	if strings.IndexByte(query, marker) < 0 {
		return query, spans, 0
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	shifted := make(scanner.Spans, 0, len(spans))
	n := 0
	next := 0
	for i := 0; i < len(query); i++ {
		if next < len(spans) && i == spans[next].Start {
			s := spans[next]
			delta := b.Len() - s.Start
			b.WriteString(query[s.Start:s.End])
			s.Start += delta
			s.End += delta
			shifted = append(shifted, s)
			i = spans[next].End - 1
			next++
			continue
		}
		if query[i] == marker {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			// $1AND is a syntax error in PostgreSQL
			if i+1 < len(query) && isIdentPart(query[i+1]) {
				b.WriteByte(' ')
			}
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String(), shifted, n
}
