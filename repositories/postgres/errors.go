package postgres

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/joaobarbosa/cinema-api/repositories"
	"github.com/lib/pq"
)

const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
)

// mapError translates driver errors into repository sentinels, keeping the
// original error in the chain.
func mapError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, repositories.ErrNotFound)
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case pqUniqueViolation:
			return fmt.Errorf("%s: %w (%s)", op, repositories.ErrDuplicate, pqErr.Constraint)
		case pqForeignKeyViolation:
			return fmt.Errorf("%s: %w (%s)", op, repositories.ErrReferenced, pqErr.Constraint)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

// expectAffected returns ErrNotFound when an update or delete touched no rows.
func expectAffected(op string, res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: failed to get rows affected: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, repositories.ErrNotFound)
	}
	return nil
}
