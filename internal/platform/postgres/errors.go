package postgres

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// PostgreSQL error codes
const (
	checkViolationCode   = "23514"
	notNullViolationCode = "23502"
)

var (
	// ErrDestinationNotFound is returned when a tenant has no linked destination.
	ErrDestinationNotFound = errors.New("destination not found")

	// ErrInvalidDestination is returned when a tenant or chat id is rejected.
	ErrInvalidDestination = errors.New("invalid destination")
)

// MapError maps a database error to a package error, wrapping the original.
func MapError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %v", ErrDestinationNotFound, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case checkViolationCode:
			return fmt.Errorf("%w: check constraint violation (%s): %v",
				ErrInvalidDestination, pgErr.ConstraintName, err)
		case notNullViolationCode:
			return fmt.Errorf("%w: not null violation (%s): %v",
				ErrInvalidDestination, pgErr.ColumnName, err)
		}
	}

	return err
}
