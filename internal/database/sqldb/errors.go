package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/go-sql-driver/mysql"
	"github.com/koustreak/tablecompare/internal/errs"
	"github.com/mattn/go-sqlite3"
	"github.com/snowflakedb/gosnowflake"
)

// mapError translates native driver errors into *errs.Error. Each engine
// exposes a typed error; the first one found in the chain decides the kind.
func mapError(err error, msg string) *errs.Error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return errs.Wrap(errs.ErrKindTimeout, msg, err)
	}

	if errors.Is(err, sql.ErrNoRows) {
		return errs.Wrap(errs.ErrKindNotFound, msg, err)
	}

	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		return errs.Wrap(classifyMySQLCode(mysqlErr.Number), fmt.Sprintf("%s: %s", msg, mysqlErr.Message), err)
	}

	var sfErr *gosnowflake.SnowflakeError
	if errors.As(err, &sfErr) {
		return errs.Wrap(classifySnowflakeCode(sfErr.Number), fmt.Sprintf("%s: %s", msg, sfErr.Message), err)
	}

	var chErr *clickhouse.Exception
	if errors.As(err, &chErr) {
		return errs.Wrap(classifyClickHouseCode(chErr.Code), fmt.Sprintf("%s: %s", msg, chErr.Message), err)
	}

	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return errs.Wrap(classifySQLite(liteErr), fmt.Sprintf("%s: %s", msg, liteErr.Error()), err)
	}

	return errs.Wrap(errs.ErrKindConnectionFailed, msg, err)
}

// classifyMySQLCode maps MySQL error numbers to ErrKind.
func classifyMySQLCode(code uint16) errs.ErrKind {
	switch code {
	case 1049, 1146: // unknown database, no such table
		return errs.ErrKindNotFound
	case 1044, 1045, 1142, 1143: // access denied (db, user, table, column)
		return errs.ErrKindPermissionDenied
	case 1040, 1203: // too many connections
		return errs.ErrKindConnectionFailed
	case 3024: // max_execution_time exceeded
		return errs.ErrKindTimeout
	default:
		return errs.ErrKindQueryFailed
	}
}

// classifySnowflakeCode maps Snowflake error numbers to ErrKind.
func classifySnowflakeCode(code int) errs.ErrKind {
	switch code {
	case 2003, 2043: // object does not exist or not authorized
		return errs.ErrKindNotFound
	case 3001: // insufficient privileges
		return errs.ErrKindPermissionDenied
	case 604, 630: // statement canceled, statement timeout
		return errs.ErrKindTimeout
	case 390100, 390144, 390318: // bad credentials, invalid JWT, expired token
		return errs.ErrKindConnectionFailed
	default:
		return errs.ErrKindQueryFailed
	}
}

// classifyClickHouseCode maps ClickHouse exception codes to ErrKind.
func classifyClickHouseCode(code int32) errs.ErrKind {
	switch code {
	case 60, 81: // UNKNOWN_TABLE, UNKNOWN_DATABASE
		return errs.ErrKindNotFound
	case 497: // ACCESS_DENIED
		return errs.ErrKindPermissionDenied
	case 516: // AUTHENTICATION_FAILED
		return errs.ErrKindConnectionFailed
	case 159, 394: // TIMEOUT_EXCEEDED, QUERY_WAS_CANCELLED
		return errs.ErrKindTimeout
	default:
		return errs.ErrKindQueryFailed
	}
}

// classifySQLite maps SQLite result codes to ErrKind. Missing tables come
// back as the generic SQLITE_ERROR, so the message is inspected too.
func classifySQLite(e sqlite3.Error) errs.ErrKind {
	switch e.Code {
	case sqlite3.ErrPerm, sqlite3.ErrAuth, sqlite3.ErrReadonly:
		return errs.ErrKindPermissionDenied
	case sqlite3.ErrCantOpen, sqlite3.ErrNotADB:
		return errs.ErrKindConnectionFailed
	case sqlite3.ErrBusy, sqlite3.ErrLocked, sqlite3.ErrInterrupt:
		return errs.ErrKindTimeout
	}
	if strings.Contains(e.Error(), "no such table") {
		return errs.ErrKindNotFound
	}
	return errs.ErrKindQueryFailed
}
