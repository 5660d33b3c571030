package store

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

var (
	// ErrConstraint marks writes rejected by referential or uniqueness rules.
	ErrConstraint = errors.New("constraint violation")
	// ErrConcurrentUpdate marks a row changed by another writer mid-transaction.
	ErrConcurrentUpdate = errors.New("concurrent update")
)

// ConstraintError describes which rule a write broke.
type ConstraintError struct {
	Entity string
	Field  string
	Reason string
	Err    error
}

func (e *ConstraintError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Entity, e.Reason)
	if e.Field != "" {
		msg = fmt.Sprintf("%s.%s: %s", e.Entity, e.Field, e.Reason)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ConstraintError) Is(target error) bool { return target == ErrConstraint }

func (e *ConstraintError) Unwrap() error { return e.Err }

// Violation builds a ConstraintError.
func Violation(entity, field, reason string) error {
	return &ConstraintError{Entity: entity, Field: field, Reason: reason}
}

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// Translate maps driver level integrity errors onto ConstraintError.
// Other errors are returned unchanged.
func Translate(entity string, err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return &ConstraintError{Entity: entity, Reason: "duplicate key", Err: err}
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return &ConstraintError{Entity: entity, Reason: "unknown or referenced row", Err: err}
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return &ConstraintError{Entity: entity, Field: pgErr.ColumnName, Reason: "duplicate key", Err: err}
		case pgForeignKeyViolation:
			return &ConstraintError{Entity: entity, Field: pgErr.ColumnName, Reason: "unknown or referenced row", Err: err}
		}
	}
	return err
}
