package postgres

import (
	"database/sql"

	"github.com/lib/pq"

	"greencart/pkg/errors"
)

const uniqueViolation = "23505"

// mapError translates driver errors into domain sentinels
func mapError(err error, what string) error {
	if err == nil {
		return nil
	}
	if err == sql.ErrNoRows {
		return errors.Wrapf(errors.ErrNotFound, "%s not found", what)
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return errors.Wrapf(errors.ErrAlreadyExists, "%s already exists", what)
	}
	return errors.Wrapf(err, "%s query failed", what)
}

// affectedOrNotFound returns ErrNotFound when an UPDATE/DELETE touched no rows
func affectedOrNotFound(res sql.Result, what string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return errors.Wrapf(errors.ErrNotFound, "%s not found", what)
	}
	return nil
}
