package cmd

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/pterm/pterm"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pgshim/cli/internal/errors"
	"pgshim/cli/internal/sqlexec"
)

func TestQueryFrom(t *testing.T) {
	q, err := queryFrom([]string{"  SELECT 1  "}, nil, true)
	require.NoError(t, err)
	assert.Equal(t, "SELECT 1", q)

	q, err = queryFrom(nil, strings.NewReader("SELECT ?\n"), false)
	require.NoError(t, err)
	assert.Equal(t, "SELECT ?", q)

	_, err = queryFrom(nil, strings.NewReader(""), true)
	assert.True(t, errors.Is(err, errors.ConfigInvalid))

	_, err = queryFrom(nil, strings.NewReader(" \n"), false)
	assert.True(t, errors.Is(err, errors.ConfigInvalid))
}

func TestFormatValue(t *testing.T) {
	assert.Equal(t, "NULL", formatValue(nil))
	assert.Equal(t, "\\x0aff", formatValue([]byte{0x0a, 0xff}))
	assert.Equal(t, "12.50", formatValue(decimal.RequireFromString("12.50")))
	assert.Equal(t, "2024-03-01 09:30:00", formatValue(time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)))
	assert.Equal(t, "42", formatValue(int64(42)))
}

func TestRenderResult(t *testing.T) {
	pterm.DisableStyling()
	defer pterm.EnableStyling()

	var buf bytes.Buffer
	require.NoError(t, renderResult(&buf, &sqlexec.Result{RowsAffected: 3}))
	assert.Contains(t, buf.String(), "3 row(s) affected")

	buf.Reset()
	res := &sqlexec.Result{
		Fields: []sqlexec.Field{{Name: "name"}, {Name: "passed"}},
		Rows: []sqlexec.Row{
			{"name": "ann", "passed": int64(2)},
			{"name": "bob", "passed": nil},
		},
	}
	require.NoError(t, renderResult(&buf, res))
	out := buf.String()
	assert.Contains(t, out, "name")
	assert.Contains(t, out, "ann")
	assert.Contains(t, out, "NULL")
	assert.Contains(t, out, "2 row(s)")
}

func TestBindParams(t *testing.T) {
	params := bindParams([]string{"7", `\N`, "ann"})
	assert.Equal(t, []any{"7", nil, "ann"}, params)
	assert.Empty(t, bindParams(nil))
}
