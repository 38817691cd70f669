package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrNotFound            = errors.New("not found")
	ErrDuplicate           = errors.New("duplicate")
	ErrInvalidID           = errors.New("invalid id")
	ErrForeignKeyViolation = errors.New("foreign key violation")
	ErrCheckViolation      = errors.New("check constraint violation")
	ErrTxAborted           = errors.New("transaction aborted")
)

const (
	pgUniqueViolation        = "23505"
	pgForeignKeyViolation    = "23503"
	pgCheckViolation         = "23514"
	pgInvalidTextRepr        = "22P02"
	pgInFailedSQLTransaction = "25P02"
)

func wrapDBError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return errors.Join(ErrDuplicate, err)
		case pgForeignKeyViolation:
			return errors.Join(ErrForeignKeyViolation, err)
		case pgCheckViolation:
			return errors.Join(ErrCheckViolation, err)
		case pgInvalidTextRepr:
			return errors.Join(ErrInvalidID, err)
		case pgInFailedSQLTransaction:
			return errors.Join(ErrTxAborted, err)
		}
	}

	return err
}

// IsRetryable reports whether err looks like a dropped connection rather than
// a statement the server rejected or a domain error.
func IsRetryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	if errors.Is(err, pgx.ErrNoRows) || errors.Is(err, pgx.ErrTxClosed) {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return false
	}

	for _, unretryable := range []error{
		ErrNotFound,
		ErrDuplicate,
		ErrInvalidID,
		ErrForeignKeyViolation,
		ErrCheckViolation,
		ErrTxAborted,
	} {
		if errors.Is(err, unretryable) {
			return false
		}
	}

	return true
}
