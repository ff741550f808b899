package repository

import (
	"errors"
	"fmt"
	"github.com/jackc/pgx/v5/pgconn"
	"strings"
)

// translateError maps PostgreSQL constraint failures onto the repository sentinels.
// Anything else is returned wrapped so the caller can still inspect it.
func translateError(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	switch pgErr.Code {
	case "23505": // unique_violation
		return fmt.Errorf("%w: %s", ErrDuplicate, pgErr.ConstraintName)
	case "23503": // foreign_key_violation
		if strings.Contains(pgErr.ConstraintName, "owner") {
			return fmt.Errorf("%w: %s", ErrUserNotFound, pgErr.Detail)
		}
		return fmt.Errorf("referenced record does not exist (%s): %w", pgErr.ConstraintName, err)
	case "22P02": // invalid_text_representation
		return fmt.Errorf("invalid input syntax: %w", err)
	default:
		return fmt.Errorf("postgres error %s: %w", pgErr.Code, err)
	}
}
