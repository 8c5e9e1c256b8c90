package errors

import (
	"errors"

	"github.com/lib/pq"
)

// Postgres error classes worth distinguishing for callers.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
	pgNotNullViolation    = "23502"
)

// FromPostgres maps a driver-level constraint violation to a coded AppError.
// Errors that are not pq constraint violations pass through unchanged so that
// sql.ErrNoRows handling and context cancellation keep working upstream.
func FromPostgres(err error) error {
	if err == nil {
		return nil
	}

	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}

	switch string(pqErr.Code) {
	case pgUniqueViolation:
		return Wrap(ErrCodeUniqueViolation, "Value already exists", err).
			WithDetails(map[string]string{"constraint": pqErr.Constraint})
	case pgForeignKeyViolation:
		return Wrap(ErrCodeForeignKeyViolation, "Referenced row does not exist", err).
			WithDetails(map[string]string{"constraint": pqErr.Constraint})
	case pgCheckViolation:
		return Wrap(ErrCodeCheckViolation, "Value violates a check constraint", err).
			WithDetails(map[string]string{"constraint": pqErr.Constraint})
	case pgNotNullViolation:
		return Wrap(ErrCodeCheckViolation, "Required column is null", err).
			WithDetails(map[string]string{"column": pqErr.Column})
	default:
		return err
	}
}

// IsUniqueViolation reports whether err carries a unique-constraint code.
func IsUniqueViolation(err error) bool {
	return GetCode(err) == ErrCodeUniqueViolation
}

// IsCheckViolation reports whether err carries a check-constraint code.
func IsCheckViolation(err error) bool {
	return GetCode(err) == ErrCodeCheckViolation
}
