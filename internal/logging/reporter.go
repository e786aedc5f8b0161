// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package logging

import (
	"io"
	"os"

	"github.com/pterm/pterm"

	"pgshim/cli/internal/errors"
	"pgshim/cli/internal/translate"
)

// Reporter writes query diagnostics through a pterm logger. It only observes:
// nothing it does changes what the caller gets back.
type Reporter struct {
	logger *pterm.Logger
}

// ReporterOptions configures NewReporter.
type ReporterOptions struct {
	// Writer defaults to os.Stderr.
	Writer io.Writer
	// Level is one of trace, debug, info, warn, error. Default info.
	Level string
	// JSON switches to one JSON object per line.
	JSON bool
}

func NewReporter(opts ReporterOptions) *Reporter {
	w := opts.Writer
	if w == nil {
		w = os.Stderr
	}
	logger := pterm.DefaultLogger.
		WithWriter(w).
		WithLevel(ParseLevel(opts.Level)).
		WithMaxWidth(160)
	if opts.JSON {
		logger = logger.WithFormatter(pterm.LogFormatterJSON)
	}
	return &Reporter{logger: logger}
}

// ParseLevel maps a config string to a pterm level. Unknown values mean info.
func ParseLevel(level string) pterm.LogLevel {
	switch level {
	case "trace":
		return pterm.LogLevelTrace
	case "debug":
		return pterm.LogLevelDebug
	case "warn", "warning":
		return pterm.LogLevelWarn
	case "error":
		return pterm.LogLevelError
	default:
		return pterm.LogLevelInfo
	}
}

// Failure logs the source query, the query actually sent and the driver
// error, all masked.
func (r *Reporter) Failure(source, target string, err error) {
	if err == nil {
		return
	}
	kind := errors.KindOf(err)
	if kind == "" {
		kind = errors.ExecutionFailure
	}
	r.logger.Error("query failed", r.logger.Args(
		"kind", string(kind),
		"source", Mask(source),
		"target", Mask(target),
		"error", Mask(err.Error()),
	))
}

// Notes logs translation notes at warn level.
func (r *Reporter) Notes(source string, notes []translate.Note) {
	for _, n := range notes {
		r.logger.Warn("translation note", r.logger.Args(
			"kind", string(n.Kind),
			"note", n.Message,
			"source", Mask(source),
		))
	}
}

// Translated logs a statement that ran, in both forms, at debug level.
func (r *Reporter) Translated(source, target string) {
	r.logger.Debug("query translated", r.logger.Args("source", Mask(source), "target", Mask(target)))
}
