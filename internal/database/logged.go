package database

import (
	"context"
	"time"

	"github.com/koustreak/tablecompare/internal/logger"
)

// Logged decorates db so that every statement is logged at debug level
// with the dialect and the time until the driver answered.
func Logged(db DB, log *logger.Logger) DB {
	if log == nil {
		return db
	}
	return &loggedDB{DB: db, log: log}
}

type loggedDB struct {
	DB
	log *logger.Logger
}

func (l *loggedDB) Query(ctx context.Context, sql string, args ...any) (Rows, error) {
	start := time.Now()
	rows, err := l.DB.Query(ctx, sql, args...)
	l.trace(sql, len(args), start, err)
	return rows, err
}

func (l *loggedDB) QueryRow(ctx context.Context, sql string, args ...any) (Row, error) {
	start := time.Now()
	row, err := l.DB.QueryRow(ctx, sql, args...)
	l.trace(sql, len(args), start, err)
	return row, err
}

func (l *loggedDB) trace(sql string, nargs int, start time.Time, err error) {
	fields := map[string]any{
		"dialect":    l.DB.Dialect().String(),
		"sql":        sql,
		"args":       nargs,
		"elapsed_ms": time.Since(start).Milliseconds(),
	}
	if err != nil {
		fields["error"] = err.Error()
	}
	l.log.DebugWith("warehouse query", fields)
}
