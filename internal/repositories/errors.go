package repositories

import (
	"context"
	stderrors "errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
	"github.com/mroshb/moodgram/pkg/errors"
	"gorm.io/gorm"
)

// Postgres SQLSTATEs that mean "retry the whole transaction"
const (
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
)

// translateError maps driver errors onto application error codes. Errors
// that already carry a code pass through untouched.
func translateError(err error, message string) error {
	if err == nil {
		return nil
	}

	var appErr *errors.AppError
	if stderrors.As(err, &appErr) {
		return err
	}

	var pgErr *pgconn.PgError
	if stderrors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgSerializationFailure, pgDeadlockDetected:
			return errors.Wrap(err, errors.ErrCodeConflict, message)
		}
	}

	var liteErr sqlite3.Error
	if stderrors.As(err, &liteErr) {
		switch liteErr.Code {
		case sqlite3.ErrBusy, sqlite3.ErrLocked:
			return errors.Wrap(err, errors.ErrCodeConflict, message)
		}
	}

	switch {
	case stderrors.Is(err, gorm.ErrDuplicatedKey):
		return errors.Wrap(err, errors.ErrCodeAlreadyExists, message)
	case stderrors.Is(err, gorm.ErrRecordNotFound):
		return errors.Wrap(err, errors.ErrCodeNotFound, message)
	case stderrors.Is(err, context.Canceled), stderrors.Is(err, context.DeadlineExceeded):
		return errors.Wrap(err, errors.ErrCodeUnavailable, message)
	}
	return errors.Wrap(err, errors.ErrCodeUnavailable, message)
}
