// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package sqlexec

import (
	"context"
	stderrors "errors"
	"regexp"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"

	"pgshim/cli/internal/errors"
)

// argCountRe matches the client-side count checks of pgx, database/sql,
// lib/pq and the server's bind error.
var argCountRe = regexp.MustCompile(`expected \d+ arguments?, got \d+|got \d+ parameters but the statement requires \d+|bind message supplies \d+ parameters`)

func classify(ctx context.Context, err error) *errors.E {
	return errors.Wrap(kindOf(ctx, err), "query failed", err)
}

func kindOf(ctx context.Context, err error) errors.Kind {
	if stderrors.Is(err, context.DeadlineExceeded) || pgconn.Timeout(err) || stderrors.Is(ctx.Err(), context.DeadlineExceeded) {
		return errors.Timeout
	}

	switch sqlState(err) {
	case "57014": // query_canceled, raised by statement_timeout
		return errors.Timeout
	case "08P01", "42P02":
		return errors.ParameterCountMismatch
	case "42601", "42883", "42704":
		return errors.UnsupportedConstruct
	}

	msg := err.Error()
	switch {
	case argCountRe.MatchString(msg):
		return errors.ParameterCountMismatch
	case strings.Contains(msg, "syntax error"), strings.Contains(msg, "no such function"):
		return errors.UnsupportedConstruct
	}
	return errors.ExecutionFailure
}

func sqlState(err error) string {
	var pgErr *pgconn.PgError
	if stderrors.As(err, &pgErr) {
		return pgErr.Code
	}
	var pqErr *pq.Error
	if stderrors.As(err, &pqErr) {
		return string(pqErr.Code)
	}
	return ""
}
