// Package repository implements the billing persistence collaborator on PostgreSQL.
package repository

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"gitlab.com/yelinaung/invoiceflow/internal/billing"
	"gitlab.com/yelinaung/invoiceflow/internal/database"
)

// PostgreSQL error codes mapped onto billing errors.
const (
	pgUniqueViolation      = "23505"
	pgForeignKeyViolation  = "23503"
	pgCheckViolation       = "23514"
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
)

// wrapErr wraps err as "failed to <op>" and maps driver errors onto the
// billing taxonomy so callers can branch with errors.Is.
func wrapErr(op string, err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("failed to %s: %w", op, billing.ErrNotFound)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			if pgErr.ConstraintName == database.InvoiceQuoteIndex {
				return fmt.Errorf("failed to %s: %w", op, billing.ErrAlreadyConverted)
			}
			return fmt.Errorf("failed to %s: %w: %w", op, billing.ErrConcurrencyConflict, err)
		case pgSerializationFailure, pgDeadlockDetected:
			return fmt.Errorf("failed to %s: %w: %w", op, billing.ErrConcurrencyConflict, err)
		case pgForeignKeyViolation:
			return fmt.Errorf("failed to %s: %w", op, billing.Invalid(pgErr.ColumnName, "references a missing or still referenced record"))
		case pgCheckViolation:
			return fmt.Errorf("failed to %s: %w", op, billing.Invalid(pgErr.ColumnName, pgErr.ConstraintName))
		}
	}

	return fmt.Errorf("failed to %s: %w", op, err)
}

// requireAffected turns an update that matched nothing into ErrNotFound.
func requireAffected(op string, tag pgconn.CommandTag) error {
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("failed to %s: %w", op, billing.ErrNotFound)
	}
	return nil
}
