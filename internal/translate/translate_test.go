// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package translate

import (
	"regexp"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pgshim/cli/internal/errors"
	"pgshim/cli/internal/scanner"
)

var translateTests = []struct {
	name  string
	query string
	want  string
}{
	{
		name:  "positional placeholders",
		query: "SELECT * FROM users WHERE email = ? AND role = ?",
		want:  "SELECT * FROM users WHERE email = $1 AND role = $2",
	},
	{
		name:  "boolean aggregate",
		query: "SELECT SUM(status = 'present') FROM attendance_records",
		want:  "SELECT SUM(CASE WHEN status = 'present' THEN 1 ELSE 0 END) FROM attendance_records",
	},
	{
		name:  "placeholders inside literal are kept",
		query: "SELECT 'What is ? for dinner?' AS q, ? AS p",
		want:  "SELECT 'What is ? for dinner?' AS q, $1 AS p",
	},
	{
		name:  "month extraction",
		query: "SELECT MONTH(class_date) FROM attendance_sessions",
		want:  "SELECT EXTRACT(MONTH FROM class_date) FROM attendance_sessions",
	},
	{
		name:  "date parts with placeholders",
		query: "SELECT * FROM t WHERE MONTH(created_at) = ? AND YEAR(created_at) = ? AND DAY(created_at) = ?",
		want:  "SELECT * FROM t WHERE EXTRACT(MONTH FROM created_at) = $1 AND EXTRACT(YEAR FROM created_at) = $2 AND EXTRACT(DAY FROM created_at) = $3",
	},
	{
		name:  "current date and time",
		query: "SELECT NOW(), CURDATE(), CURTIME(), now(3)",
		want:  "SELECT CURRENT_TIMESTAMP, CURRENT_DATE, CURRENT_TIME, now(3)",
	},
	{
		name:  "ifnull",
		query: "SELECT IFNULL(nickname, 'n/a') FROM users",
		want:  "SELECT COALESCE(nickname, 'n/a') FROM users",
	},
	{
		name:  "json extract keeps path literal",
		query: "SELECT JSON_EXTRACT(options, '$.choices[0]') FROM questions WHERE id = ?",
		want:  "SELECT JSONB_PATH_QUERY_FIRST(options, '$.choices[0]') FROM questions WHERE id = $1",
	},
	{
		name:  "three argument conditional",
		query: "SELECT IF(score >= ?, 'pass', 'fail') FROM results",
		want:  "SELECT CASE WHEN score >= $1 THEN 'pass' ELSE 'fail' END FROM results",
	},
	{
		name:  "nested calls rewrite inside out",
		query: "SELECT IFNULL(SUM(a = 1), 0) FROM t",
		want:  "SELECT COALESCE(SUM(CASE WHEN a = 1 THEN 1 ELSE 0 END), 0) FROM t",
	},
	{
		name:  "conditional with nested calls and commas in literals",
		query: "SELECT IF(MONTH(d) = ?, 'yes, really', IFNULL(x, 'n,o')) FROM t",
		want:  "SELECT CASE WHEN EXTRACT(MONTH FROM d) = $1 THEN 'yes, really' ELSE COALESCE(x, 'n,o') END FROM t",
	},
	{
		name:  "nested parentheses inside arguments",
		query: "SELECT IF((a + (b * 2)) > 3, f(x, y), 0) FROM t",
		want:  "SELECT CASE WHEN (a + (b * 2)) > 3 THEN f(x, y) ELSE 0 END FROM t",
	},
	{
		name:  "lower case names keep their spelling",
		query: "select sum(x = 1), ifnull(y, 2) from t",
		want:  "select sum(CASE WHEN x = 1 THEN 1 ELSE 0 END), COALESCE(y, 2) from t",
	},
	{
		name:  "aggregate without comparison untouched",
		query: "SELECT SUM(amount), AVG(a->'$.x') FROM t",
		want:  "SELECT SUM(amount), AVG(a->'$.x') FROM t",
	},
	{
		name:  "aggregate over shifts untouched",
		query: "SELECT SUM(flags >> 1), AVG(a << 2), SUM(b->>'$.n') FROM t",
		want:  "SELECT SUM(flags >> 1), AVG(a << 2), SUM(b->>'$.n') FROM t",
	},
	{
		name:  "aggregate over shift and comparison",
		query: "SELECT SUM(flags >> 1 = 1) FROM t",
		want:  "SELECT SUM(CASE WHEN flags >> 1 = 1 THEN 1 ELSE 0 END) FROM t",
	},
	{
		name:  "aggregate with case untouched",
		query: "SELECT SUM(CASE WHEN a = 1 THEN 1 ELSE 0 END) FROM t",
		want:  "SELECT SUM(CASE WHEN a = 1 THEN 1 ELSE 0 END) FROM t",
	},
	{
		name:  "names only match at identifier boundaries",
		query: "SELECT NULLIF(a, b), t.month(x), my_if(1, 2, 3) FROM t",
		want:  "SELECT NULLIF(a, b), t.month(x), my_if(1, 2, 3) FROM t",
	},
	{
		name:  "function names inside literals and comments",
		query: "SELECT 'IF(a, b, c)', \"NOW()\" /* IFNULL(?, 1) */ FROM t -- MONTH(?)\nWHERE x = ?",
		want:  "SELECT 'IF(a, b, c)', \"NOW()\" /* IFNULL(?, 1) */ FROM t -- MONTH(?)\nWHERE x = $1",
	},
	{
		name:  "marker followed by a keyword",
		query: "SELECT * FROM t WHERE a=?AND b=?",
		want:  "SELECT * FROM t WHERE a=$1 AND b=$2",
	},
	{
		name:  "separated marker before a literal",
		query: "SELECT IFNULL(?AS_x, 'a?') FROM t",
		want:  "SELECT COALESCE($1 AS_x, 'a?') FROM t",
	},
	{
		name:  "double dash without space is arithmetic",
		query: "SELECT 1--? FROM t -- ?",
		want:  "SELECT 1--$1 FROM t -- ?",
	},
	{
		name:  "numbered markers left alone",
		query: "SELECT $1, IFNULL($2, 0)",
		want:  "SELECT $1, COALESCE($2, 0)",
	},
	{
		name:  "escaped quotes",
		query: `SELECT 'it''s ?', 'don\'t ?', ?`,
		want:  `SELECT 'it''s ?', 'don\'t ?', $1`,
	},
	{
		name:  "dollar quoted body",
		query: "DO $$ BEGIN IF NOT EXISTS (SELECT 1) THEN PERFORM IF(a, b, c); END IF; END $$",
		want:  "DO $$ BEGIN IF NOT EXISTS (SELECT 1) THEN PERFORM IF(a, b, c); END IF; END $$",
	},
	{
		name:  "whitespace before parenthesis",
		query: "SELECT IFNULL (a, b)",
		want:  "SELECT COALESCE(a, b)",
	},
	{
		name:  "last insert id",
		query: "SELECT LAST_INSERT_ID()",
		want:  "SELECT LASTVAL()",
	},
}

func TestTranslate(t *testing.T) {
	tr := New()
	for _, tt := range translateTests {
		t.Run(tt.name, func(t *testing.T) {
			got, notes := tr.Query(tt.query)
			assert.Equal(t, tt.want, got)
			assert.Empty(t, notes)
		})
	}
}

func TestRemappingIsIdempotent(t *testing.T) {
	tr := New()
	for _, tt := range translateTests {
		t.Run(tt.name, func(t *testing.T) {
			once, _ := tr.Query(tt.query)
			twice, _ := tr.Query(once)
			assert.Equal(t, once, twice)
		})
	}
}

func TestParamsPassThrough(t *testing.T) {
	params := []any{"a@b.com", "teacher"}
	res := New().Translate(Request{
		Query:  "SELECT * FROM users WHERE email = ? AND role = ?",
		Params: params,
	})

	require.Len(t, res.Params, 2)
	assert.Same(t, &params[0], &res.Params[0])
	assert.Equal(t, []any{"a@b.com", "teacher"}, res.Params)
	assert.Equal(t, 2, res.Placeholders)
}

var markerRe = regexp.MustCompile(`\$(\d+)`)

// TestParameterOrder places bare placeholders among masked ones in every
// order and checks the $n markers come out numbered left to right.
func TestParameterOrder(t *testing.T) {
	fragments := []struct {
		text string
		bare int
	}{
		{"?", 1},
		{"'?'", 0},
		{`"a?"`, 0},
		{"/* ? */", 0},
		{"IF(?, ?, '?')", 2},
	}

	tr := New()
	permute(len(fragments), func(order []int) {
		parts := make([]string, len(order))
		want := 0
		for i, idx := range order {
			parts[i] = fragments[idx].text
			want += fragments[idx].bare
		}
		query := "SELECT " + strings.Join(parts, ", ")

		res := tr.Translate(Request{Query: query})
		require.Equal(t, want, res.Placeholders, query)

		var seen []int
		masked := scanner.Scan(res.Query, scanner.MySQL())
		for _, loc := range markerRe.FindAllStringSubmatchIndex(res.Query, -1) {
			if masked.Masked(loc[0]) {
				continue
			}
			n, err := strconv.Atoi(res.Query[loc[2]:loc[3]])
			require.NoError(t, err)
			seen = append(seen, n)
		}
		for i, n := range seen {
			assert.Equal(t, i+1, n, "marker %d in %q", i, res.Query)
		}
		assert.Len(t, seen, want, res.Query)
	})
}

func permute(n int, fn func([]int)) {
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	var walk func(k int)
	walk = func(k int) {
		if k == n {
			fn(order)
			return
		}
		for i := k; i < n; i++ {
			order[k], order[i] = order[i], order[k]
			walk(k + 1)
			order[k], order[i] = order[i], order[k]
		}
	}
	walk(0)
}

func TestLiteralsSurviveByteForByte(t *testing.T) {
	queries := []string{
		"SELECT 'IFNULL(?, ?)' AS a, IFNULL(?, 'MONTH(x)') FROM t WHERE b = 'SUM(a = 1)'",
		"SELECT `IF(?)`, \"CURDATE()\", 'it''s ? ok' FROM t WHERE c = ?",
		"INSERT INTO q (body) VALUES ('What is ? for dinner?'), (?)",
		"SELECT $tag$ NOW() ? $tag$, JSON_EXTRACT(doc, '$.a') FROM t",
	}

	tr := New()
	for _, q := range queries {
		out, _ := tr.Query(q)
		assert.Equal(t, literalTexts(q), literalTexts(out), q)
	}
}

func literalTexts(q string) []string {
	var out []string
	for _, s := range scanner.Scan(q, scanner.MySQL()) {
		out = append(out, q[s.Start:s.End])
	}
	return out
}

func TestNotes(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  string
		kinds []errors.Kind
	}{
		{
			name:  "wrong arity",
			query: "SELECT IF(a, b) FROM t",
			want:  "SELECT IF(a, b) FROM t",
			kinds: []errors.Kind{errors.UnsupportedConstruct},
		},
		{
			name:  "unbalanced call",
			query: "SELECT IFNULL(a, ? FROM t",
			want:  "SELECT IFNULL(a, $1 FROM t",
			kinds: []errors.Kind{errors.UnsupportedConstruct},
		},
		{
			name:  "aggregate over null-safe equality",
			query: "SELECT SUM(a <=> b) FROM t",
			want:  "SELECT SUM(a <=> b) FROM t",
			kinds: []errors.Kind{errors.UnsupportedConstruct},
		},
		{
			name:  "unterminated literal",
			query: "SELECT * FROM t WHERE name = 'O''Brien AND id = ?",
			want:  "SELECT * FROM t WHERE name = 'O''Brien AND id = ?",
			kinds: []errors.Kind{errors.MalformedLiteral},
		},
		{
			name:  "unterminated literal after a placeholder",
			query: "SELECT IF(a = ?, 1, 2), 'oops",
			want:  "SELECT CASE WHEN a = $1 THEN 1 ELSE 2 END, 'oops",
			kinds: []errors.Kind{errors.MalformedLiteral},
		},
	}

	tr := New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, notes := tr.Query(tt.query)
			assert.Equal(t, tt.want, got)
			var kinds []errors.Kind
			for _, n := range notes {
				kinds = append(kinds, n.Kind)
				assert.NotEmpty(t, n.Message)
			}
			assert.Equal(t, tt.kinds, kinds)
		})
	}
}

func TestBacktickIdentifiers(t *testing.T) {
	tr := New(WithBacktickIdentifiers())
	got, _ := tr.Query("SELECT `order`, `a``b`, `x\"y` FROM `t` WHERE `id` = ?")
	assert.Equal(t, `SELECT "order", "a`+"`"+`b", "x""y" FROM "t" WHERE "id" = $1`, got)

	got, _ = New().Query("SELECT `order` FROM t")
	assert.Equal(t, "SELECT `order` FROM t", got)
}

func TestPostgresScanOptions(t *testing.T) {
	tr := New(WithScanOptions(scanner.Postgres()))
	got, notes := tr.Query(`SELECT 'C:\', ? FROM t`)
	assert.Equal(t, `SELECT 'C:\', $1 FROM t`, got)
	assert.Empty(t, notes)
}

func TestCustomRules(t *testing.T) {
	groupConcat := Rule{Name: "GROUP_CONCAT", Arity: 1, Apply: func(c *Call) (string, bool) {
		return "STRING_AGG(" + c.Arg(0) + ", ',')", true
	}}
	tr := New(WithRules(groupConcat), WithPlaceholder(':'))

	got, _ := tr.Query("SELECT GROUP_CONCAT(IFNULL(name, :)) FROM t WHERE id = :")
	assert.Equal(t, "SELECT STRING_AGG(IFNULL(name, $1), ',') FROM t WHERE id = $2", got)
}

func TestCache(t *testing.T) {
	tr := New(WithCache(1))
	first := tr.Translate(Request{Query: "SELECT IF(a, ?, ?)", Params: []any{1, 2}})
	second := tr.Translate(Request{Query: "SELECT IF(a, ?, ?)", Params: []any{3, 4}})

	assert.Equal(t, first.Query, second.Query)
	assert.Equal(t, []any{3, 4}, second.Params)
	assert.Equal(t, 1, tr.cache.len())

	tr.Translate(Request{Query: "SELECT NOW()"})
	assert.Equal(t, 1, tr.cache.len())
}

func TestConcurrentTranslate(t *testing.T) {
	tr := New(WithCache(16))
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tt := translateTests[i%len(translateTests)]
			got, _ := tr.Query(tt.query)
			assert.Equal(t, tt.want, got)
		}(i)
	}
	wg.Wait()
}
