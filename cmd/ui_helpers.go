package cmd

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"atomicgo.dev/cursor"
	"github.com/pterm/pterm"
	"github.com/shopspring/decimal"

	"pgshim/cli/internal/errors"
	"pgshim/cli/internal/sqlexec"
	"pgshim/cli/internal/terminal"
)

var (
	spinnerFrames   = []string{"-", "\\", "|", "/"}
	spinnerInterval = 100 * time.Millisecond
)

// startInlineSpinner draws frames followed by text on a single line until the
// returned function is called. The cursor is hidden while it runs and the
// line is cleared on stop.
func startInlineSpinner(w io.Writer, text string, frames []string, interval time.Duration) func() {
	stop := make(chan struct{})
	var wg sync.WaitGroup
	cursor.Hide()
	wg.Add(1)
	go func() {
		defer wg.Done()
		i := 0
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				line := fmt.Sprintf("%s %s", frames[i%len(frames)], text)
				fmt.Fprintf(w, "\r%*s\r", len(line), "")
				return
			case <-ticker.C:
				fmt.Fprintf(w, "\r%s %s", frames[i%len(frames)], text)
				i++
			}
		}
	}()
	var once sync.Once
	return func() {
		once.Do(func() {
			close(stop)
			wg.Wait()
			cursor.Show()
		})
	}
}

// queryFrom returns the query argument, or reads it from in when none was
// given and stdin is not a terminal.
func queryFrom(args []string, in io.Reader, interactive bool) (string, error) {
	var q string
	switch {
	case len(args) > 0:
		q = args[0]
	case interactive:
		return "", errors.New(errors.ConfigInvalid, "provide a query as an argument or pipe one on stdin")
	default:
		b, err := io.ReadAll(in)
		if err != nil {
			return "", err
		}
		q = string(b)
	}
	q = strings.TrimSpace(q)
	if q == "" {
		return "", errors.New(errors.ConfigInvalid, "empty query")
	}
	return q, nil
}

// formatValue renders a normalised column value for the table.
func formatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "NULL"
	case []byte:
		return fmt.Sprintf("\\x%x", x)
	case time.Time:
		return x.Format("2006-01-02 15:04:05.999999")
	case decimal.Decimal:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}

// renderResult prints rows as a table, or the affected row count for
// statements without columns.
func renderResult(w io.Writer, res *sqlexec.Result) error {
	if len(res.Fields) == 0 {
		pterm.Success.WithWriter(w).Printfln("%d row(s) affected", res.RowsAffected)
		return nil
	}

	cell := terminal.Width() / len(res.Fields)
	if cell < 8 {
		cell = 8
	}
	header := make([]string, len(res.Fields))
	for i, f := range res.Fields {
		header[i] = f.Name
	}
	data := pterm.TableData{header}
	for _, row := range res.Rows {
		line := make([]string, len(res.Fields))
		for i, f := range res.Fields {
			line[i] = terminal.Truncate(formatValue(row[f.Name]), cell)
		}
		data = append(data, line)
	}
	if err := pterm.DefaultTable.WithHasHeader().WithBoxed().WithData(data).WithWriter(w).Render(); err != nil {
		return err
	}
	pterm.Fprintln(w, pterm.Gray(fmt.Sprintf("%d row(s)", len(res.Rows))))
	return nil
}
