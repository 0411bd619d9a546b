package errors

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
)

// MapDBError maps database errors to AppError instances.
// It handles the failures the auth-state table can produce:
// - Context timeouts/cancellations → Timeout/Canceled
// - Missing table or privileges → Unavailable (storage not provisioned)
// - Connection exceptions → Unavailable
// - Anything else from PostgreSQL → Internal
//
// If the error is not a recognized database error, it returns the original error.
func MapDBError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return &AppError{Code: ErrCodeTimeout, Message: "storage request timed out", Cause: err}
	}
	if errors.Is(err, context.Canceled) {
		return &AppError{Code: ErrCodeCanceled, Message: "storage request was canceled", Cause: err}
	}
	if errors.Is(err, sql.ErrConnDone) {
		return &AppError{Code: ErrCodeUnavailable, Message: "storage connection closed", Cause: err}
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return mapPgError(pgErr)
	}

	return err
}

func mapPgError(pgErr *pgconn.PgError) error {
	switch {
	case pgErr.Code == pgerrcode.UndefinedTable:
		return &AppError{
			Code:    ErrCodeUnavailable,
			Message: "auth state table is missing; run migrations",
			Cause:   pgErr,
		}
	case pgErr.Code == pgerrcode.InsufficientPrivilege:
		return &AppError{
			Code:    ErrCodeUnavailable,
			Message: "insufficient privileges on auth state table",
			Cause:   pgErr,
		}
	case pgerrcode.IsConnectionException(pgErr.Code):
		return &AppError{
			Code:    ErrCodeUnavailable,
			Message: "storage connection failed",
			Cause:   pgErr,
		}
	case pgErr.Code == pgerrcode.SerializationFailure, pgErr.Code == pgerrcode.DeadlockDetected:
		return &AppError{
			Code:    ErrCodeUnavailable,
			Message: "concurrent auth state update; retry",
			Cause:   pgErr,
		}
	default:
		return &AppError{
			Code:    ErrCodeInternal,
			Message: "A database error occurred. Please try again.",
			Cause:   pgErr,
		}
	}
}
