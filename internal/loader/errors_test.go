package loader

import (
	"errors"
	"fmt"
	"net"
	"os"
	"syscall"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestClassifyPgErrors(t *testing.T) {
	tests := []struct {
		name           string
		code           string
		constraint     string
		wantConnection bool
		wantConstraint bool
	}{
		{name: "connection failure", code: "08006", wantConnection: true},
		{name: "connection does not exist", code: "08003", wantConnection: true},
		{name: "string truncation", code: "22001", wantConstraint: true},
		{name: "numeric out of range", code: "22003", wantConstraint: true},
		{name: "unique violation", code: "23505", constraint: "stock_ticks_pkey", wantConstraint: true},
		{name: "check violation", code: "23514", constraint: "stock_ticks_price_check", wantConstraint: true},
		{name: "not null violation", code: "23502", wantConstraint: true},
		{name: "datatype mismatch", code: "42804", wantConstraint: true},
		{name: "undefined table", code: "42P01", wantConstraint: true},
		{name: "insufficient resources passes through", code: "53300"},
		{name: "serialization failure passes through", code: "40001"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pgErr := &pgconn.PgError{Code: tt.code, ConstraintName: tt.constraint}
			got := classify("loading", fmt.Errorf("exec: %w", pgErr))

			var connErr *ConnectionError
			if errors.As(got, &connErr) != tt.wantConnection {
				t.Errorf("ConnectionError match = %v, want %v (err: %v)",
					!tt.wantConnection, tt.wantConnection, got)
			}

			var consErr *ConstraintError
			if errors.As(got, &consErr) != tt.wantConstraint {
				t.Errorf("ConstraintError match = %v, want %v (err: %v)",
					!tt.wantConstraint, tt.wantConstraint, got)
			}
			if tt.wantConstraint && consErr != nil {
				if consErr.Code != tt.code {
					t.Errorf("Code = %q, want %q", consErr.Code, tt.code)
				}
				if consErr.Constraint != tt.constraint {
					t.Errorf("Constraint = %q, want %q", consErr.Constraint, tt.constraint)
				}
			}

			// The original pg error stays reachable for callers.
			var unwrapped *pgconn.PgError
			if !errors.As(got, &unwrapped) {
				t.Errorf("classified error hides the pg error: %v", got)
			}
		})
	}
}

func TestClassifyNetworkError(t *testing.T) {
	opErr := &net.OpError{
		Op:  "dial",
		Net: "tcp",
		Err: os.NewSyscallError("connect", syscall.ECONNREFUSED),
	}

	got := classify("beginning transaction", opErr)

	var connErr *ConnectionError
	if !errors.As(got, &connErr) {
		t.Fatalf("classify(net error) = %v, want ConnectionError", got)
	}
	if connErr.Op != "beginning transaction" {
		t.Errorf("Op = %q, want %q", connErr.Op, "beginning transaction")
	}
	if !errors.Is(got, syscall.ECONNREFUSED) {
		t.Errorf("classified error hides the syscall error: %v", got)
	}
}

func TestClassifyPlainError(t *testing.T) {
	plain := errors.New("something else")
	got := classify("loading", plain)

	var connErr *ConnectionError
	var consErr *ConstraintError
	if errors.As(got, &connErr) || errors.As(got, &consErr) {
		t.Fatalf("classify(plain error) = %T, want untyped wrap", got)
	}
	if !errors.Is(got, plain) {
		t.Errorf("classified error does not wrap the original: %v", got)
	}
}
