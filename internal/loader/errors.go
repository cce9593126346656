package loader

import (
	"errors"
	"fmt"
	"net"

	"github.com/jackc/pgx/v5/pgconn"
)

// SQLSTATE classes that separate "the store is unreachable" from "the
// store rejected a row". Anything else passes through as a plain wrapped
// error.
const (
	sqlstateClassConnection = "08" // connection exceptions
	sqlstateClassData       = "22" // data exceptions (bad value, truncation)
	sqlstateClassIntegrity  = "23" // integrity constraint violations
	sqlstateClassSyntax     = "42" // syntax errors, type mismatches
)

// ConnectionError reports that the persistent store was unreachable.
// Nothing was committed; the trigger retries at its next interval.
type ConnectionError struct {
	Op  string
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("store unreachable while %s: %v", e.Op, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// ConstraintError reports that the store rejected a row. The whole
// transaction was rolled back; no partial load is visible.
type ConstraintError struct {
	Op         string
	Code       string
	Constraint string
	Err        error
}

func (e *ConstraintError) Error() string {
	if e.Constraint != "" {
		return fmt.Sprintf("store rejected row while %s (constraint %s): %v", e.Op, e.Constraint, e.Err)
	}
	return fmt.Sprintf("store rejected row while %s: %v", e.Op, e.Err)
}

func (e *ConstraintError) Unwrap() error { return e.Err }

// classify maps a database error onto the loader taxonomy: SQLSTATE
// class 08 and network failures become ConnectionError, classes 22/23/42
// become ConstraintError, everything else is wrapped untyped.
func classify(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && len(pgErr.Code) >= 2 {
		switch pgErr.Code[:2] {
		case sqlstateClassConnection:
			return &ConnectionError{Op: op, Err: err}
		case sqlstateClassData, sqlstateClassIntegrity, sqlstateClassSyntax:
			return &ConstraintError{
				Op:         op,
				Code:       pgErr.Code,
				Constraint: pgErr.ConstraintName,
				Err:        err,
			}
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return &ConnectionError{Op: op, Err: err}
	}

	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		return &ConnectionError{Op: op, Err: err}
	}

	return fmt.Errorf("%s: %w", op, err)
}
