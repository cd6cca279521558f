package queries

import (
	"github.com/jackc/pgconn"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/qgatssdev/nika/model"
)

const (
	uniqueViolation      = "23505"
	serializationFailure = "40001"
	deadlockDetected     = "40P01"
)

// IsUniqueViolation reports whether the database rejected a write because of a unique constraint
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// notFound maps a missing record to the given not found error and wraps anything else
func notFound(err error, message string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.NotFound(message)
	}
	return errors.WithStack(err)
}

// conflict maps a unique violation to the given conflict error and wraps anything else
func conflict(err error, message string) error {
	if err == nil {
		return nil
	}
	if IsUniqueViolation(err) {
		return model.Conflict(message)
	}
	return errors.WithStack(err)
}

// IsLockFailure reports whether the database aborted the statement to resolve a lock conflict
func IsLockFailure(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && (pgErr.Code == deadlockDetected || pgErr.Code == serializationFailure)
}

// lockError maps an aborted lock wait to a conflict so the caller can retry the transaction
func lockError(err error) error {
	if err != nil && IsLockFailure(err) {
		return model.Conflict("concurrent update, retry")
	}
	return err
}
