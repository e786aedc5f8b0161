package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"testing"
)

func TestKindOf(t *testing.T) {
	driverErr := stderrors.New("bind message supplies 1 parameters, but prepared statement requires 2")

	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{
			name: "direct",
			err:  Wrap(ParameterCountMismatch, "query failed", driverErr),
			want: ParameterCountMismatch,
		},
		{
			name: "wrapped with fmt",
			err:  fmt.Errorf("handler: %w", Wrap(Timeout, "query failed", context.DeadlineExceeded)),
			want: Timeout,
		},
		{
			name: "plain error",
			err:  driverErr,
			want: "",
		},
		{
			name: "nil",
			err:  nil,
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.want {
				t.Errorf("KindOf() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestUnwrapKeepsDriverError(t *testing.T) {
	err := Wrap(Timeout, "query failed", context.DeadlineExceeded)
	if !stderrors.Is(err, context.DeadlineExceeded) {
		t.Errorf("errors.Is(err, DeadlineExceeded) = false, want true")
	}
	if !stderrors.Is(err, New(Timeout, "")) {
		t.Errorf("errors.Is(err, Timeout) = false, want true")
	}
	if stderrors.Is(err, New(ExecutionFailure, "")) {
		t.Errorf("errors.Is(err, ExecutionFailure) = true, want false")
	}
}

func TestQueries(t *testing.T) {
	err := fmt.Errorf("outer: %w", Wrap(ExecutionFailure, "query failed", stderrors.New("boom")).
		WithQueries("SELECT ?", "SELECT $1"))

	src, tgt, ok := Queries(err)
	if !ok {
		t.Fatal("Queries() ok = false, want true")
	}
	if src != "SELECT ?" || tgt != "SELECT $1" {
		t.Errorf("Queries() = %q, %q", src, tgt)
	}

	if _, _, ok := Queries(New(ConfigInvalid, "no dsn")); ok {
		t.Error("Queries() ok = true for error without queries")
	}
}

func TestErrorString(t *testing.T) {
	err := Wrap(ExecutionFailure, "query failed", stderrors.New("duplicate key"))
	if got, want := err.Error(), "execution_failure: query failed: duplicate key"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if got, want := New(ConfigInvalid, "no dsn").Error(), "config_invalid: no dsn"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}
