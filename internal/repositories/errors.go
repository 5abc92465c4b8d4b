package repositories

import (
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"taskhub/internal/apperrors"
)

var ErrNotFound = errors.New("record not found")

const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
)

// translate maps driver errors onto the shared taxonomy; anything it does not
// recognise is returned as is.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case pqUniqueViolation:
			return apperrors.Conflict("duplicate entry")
		case pqForeignKeyViolation:
			return &apperrors.ReferenceError{Entity: "record"}
		}
	}
	return err
}

func affectedOrNotFound(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
