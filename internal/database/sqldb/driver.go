// Package sqldb implements database.DB on top of database/sql for the
// warehouses reached through a database/sql driver: MySQL, Snowflake,
// ClickHouse and SQLite.
//
// Usage:
//
//	cfg := database.DefaultConfig(database.DriverSnowflake, dsn)
//	db, err := sqldb.New(ctx, cfg)
//	if err != nil { ... }
//	defer db.Close()
package sqldb

import (
	"context"
	"database/sql"

	"github.com/koustreak/tablecompare/internal/database"
	"github.com/koustreak/tablecompare/internal/errs"
)

// Driver is a database/sql implementation of database.DB.
// It is safe for concurrent use by multiple goroutines.
type Driver struct {
	db      *sql.DB
	dialect database.Dialect
}

// New opens a connection pool for cfg.Driver and returns a Driver.
// It calls Ping to validate the connection before returning.
func New(ctx context.Context, cfg *database.Config) (*Driver, error) {
	name, err := driverName(cfg.Driver)
	if err != nil {
		return nil, err
	}

	db, err := open(name, cfg.DSN, cfg.InitStatements)
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindConnectionFailed, "invalid DSN", err)
	}

	if cfg.Driver == database.DriverSQLite {
		// ATTACH and temp objects live on one connection; keep exactly one
		// and never recycle it.
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		db.SetConnMaxLifetime(0)
		db.SetConnMaxIdleTime(0)
	} else {
		db.SetMaxOpenConns(int(cfg.MaxConns))
		db.SetMaxIdleConns(int(cfg.MinConns))
		db.SetConnMaxLifetime(cfg.MaxConnLifetime)
		db.SetConnMaxIdleTime(cfg.MaxConnIdleTime)
	}

	d := Wrap(db, cfg.Driver.Dialect())

	pingCtx := ctx
	if cfg.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		pingCtx, cancel = context.WithTimeout(ctx, cfg.ConnectTimeout)
		defer cancel()
	}

	if err := d.Ping(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return d, nil
}

// Wrap adapts an already opened *sql.DB. The caller keeps ownership of
// pool settings; Close closes db.
func Wrap(db *sql.DB, dialect database.Dialect) *Driver {
	return &Driver{db: db, dialect: dialect}
}

// --- database.DB implementation ---

func (d *Driver) Ping(ctx context.Context) error {
	if err := d.db.PingContext(ctx); err != nil {
		return mapError(err, "ping failed")
	}
	return nil
}

func (d *Driver) Close() {
	_ = d.db.Close()
}

func (d *Driver) Dialect() database.Dialect {
	return d.dialect
}

func (d *Driver) Query(ctx context.Context, query string, args ...any) (database.Rows, error) {
	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err, "query failed")
	}
	return &sqlRows{rows: rows}, nil
}

func (d *Driver) QueryRow(ctx context.Context, query string, args ...any) (database.Row, error) {
	return &sqlRow{row: d.db.QueryRowContext(ctx, query, args...)}, nil
}

// --- database/sql type wrappers ---

type sqlRows struct {
	rows *sql.Rows
}

func (r *sqlRows) Next() bool                 { return r.rows.Next() }
func (r *sqlRows) Columns() ([]string, error) { return r.rows.Columns() }
func (r *sqlRows) Close()                     { _ = r.rows.Close() }

func (r *sqlRows) Scan(dest ...any) error {
	if err := r.rows.Scan(dest...); err != nil {
		return mapError(err, "scan failed")
	}
	return nil
}

func (r *sqlRows) Err() error {
	if err := r.rows.Err(); err != nil {
		return mapError(err, "row iteration failed")
	}
	return nil
}

// sqlRow defers execution errors to Scan, like *sql.Row.
type sqlRow struct {
	row *sql.Row
}

func (r *sqlRow) Scan(dest ...any) error {
	if err := r.row.Scan(dest...); err != nil {
		return mapError(err, "query failed")
	}
	return nil
}
