package repository

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// postgres unique_violation
const uniqueViolation = "23505"

// ErrDuplicateEntry matches any write rejected by a unique constraint
var ErrDuplicateEntry = errors.New("duplicated entry")

// DuplicateEntryError carries the name of the unique constraint a write violated
type DuplicateEntryError struct {
	Constraint string
	Err        error
}

func (e *DuplicateEntryError) Error() string {
	return fmt.Sprintf("duplicated entry on %s: %v", e.Constraint, e.Err)
}

func (e *DuplicateEntryError) Unwrap() error {
	return e.Err
}

func (e *DuplicateEntryError) Is(target error) bool {
	return target == ErrDuplicateEntry
}

// IsDuplicateOn reports whether err is a unique violation of the named constraint
func IsDuplicateOn(err error, constraint string) bool {
	var dup *DuplicateEntryError
	return errors.As(err, &dup) && dup.Constraint == constraint
}

func translateError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return &DuplicateEntryError{Constraint: pgErr.ConstraintName, Err: err}
	}
	return err
}
