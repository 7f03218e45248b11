package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/koustreak/tablecompare/internal/errs"
)

// PostgreSQL SQLSTATE codes that change the error kind.
// Full list: https://www.postgresql.org/docs/current/errcodes-appendix.html
const (
	pgErrUndefinedTable     = "42P01"
	pgErrInvalidCatalog     = "3D000"
	pgErrInvalidSchema      = "3F000"
	pgErrInsufficientPriv   = "42501"
	pgErrQueryCanceled      = "57014"
	pgClassConnection       = "08"
	pgClassInvalidAuthority = "28"
)

// mapError translates pgx / pgconn native errors into *errs.Error.
func mapError(err error, msg string) *errs.Error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return errs.Wrap(errs.ErrKindTimeout, msg, err)
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return errs.Wrap(errs.ErrKindNotFound, msg, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return errs.Wrap(classifySQLState(pgErr.Code), fmt.Sprintf("%s: %s", msg, pgErr.Message), err)
	}

	// Fallthrough: connection-level errors (TLS, network, auth)
	return errs.Wrap(errs.ErrKindConnectionFailed, msg, err)
}

func classifySQLState(code string) errs.ErrKind {
	switch code {
	case pgErrUndefinedTable, pgErrInvalidCatalog, pgErrInvalidSchema:
		return errs.ErrKindNotFound
	case pgErrInsufficientPriv:
		return errs.ErrKindPermissionDenied
	case pgErrQueryCanceled:
		return errs.ErrKindTimeout
	}
	if len(code) >= 2 {
		switch code[:2] {
		case pgClassConnection:
			return errs.ErrKindConnectionFailed
		case pgClassInvalidAuthority:
			return errs.ErrKindPermissionDenied
		}
	}
	return errs.ErrKindQueryFailed
}
