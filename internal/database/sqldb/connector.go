package sqldb

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"

	"github.com/koustreak/tablecompare/internal/database"
	"github.com/koustreak/tablecompare/internal/errs"

	_ "github.com/ClickHouse/clickhouse-go/v2" // register "clickhouse"
	_ "github.com/go-sql-driver/mysql"         // register "mysql"
	_ "github.com/mattn/go-sqlite3"            // register "sqlite3"
	_ "github.com/snowflakedb/gosnowflake"     // register "snowflake"
)

// driverName maps a configured warehouse to its database/sql driver name.
func driverName(d database.Driver) (string, error) {
	switch d {
	case database.DriverMySQL:
		return "mysql", nil
	case database.DriverSnowflake:
		return "snowflake", nil
	case database.DriverClickHouse:
		return "clickhouse", nil
	case database.DriverSQLite:
		return "sqlite3", nil
	default:
		return "", errs.Newf(errs.ErrKindInvalidInput, "driver %q is not served through database/sql", d)
	}
}

// open returns a pool whose every new connection first runs stmts.
func open(name, dsn string, stmts []string) (*sql.DB, error) {
	if len(stmts) == 0 {
		return sql.Open(name, dsn)
	}

	// sql.Open does not connect; it is only used to look up the driver.
	probe, err := sql.Open(name, dsn)
	if err != nil {
		return nil, err
	}
	drv := probe.Driver()
	_ = probe.Close()

	var base driver.Connector = dsnConnector{dsn: dsn, drv: drv}
	if dc, ok := drv.(driver.DriverContext); ok {
		if base, err = dc.OpenConnector(dsn); err != nil {
			return nil, err
		}
	}
	return sql.OpenDB(&initConnector{Connector: base, stmts: stmts}), nil
}

// dsnConnector is the fallback for drivers without driver.DriverContext.
type dsnConnector struct {
	dsn string
	drv driver.Driver
}

func (c dsnConnector) Connect(context.Context) (driver.Conn, error) { return c.drv.Open(c.dsn) }
func (c dsnConnector) Driver() driver.Driver                        { return c.drv }

// initConnector runs session statements on each connection it creates.
type initConnector struct {
	driver.Connector
	stmts []string
}

func (c *initConnector) Connect(ctx context.Context) (driver.Conn, error) {
	conn, err := c.Connector.Connect(ctx)
	if err != nil {
		return nil, err
	}
	for _, stmt := range c.stmts {
		if err := execSession(ctx, conn, stmt); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("session statement %q: %w", stmt, err)
		}
	}
	return conn, nil
}

func execSession(ctx context.Context, conn driver.Conn, stmt string) error {
	if execer, ok := conn.(driver.ExecerContext); ok {
		_, err := execer.ExecContext(ctx, stmt, nil)
		if !errors.Is(err, driver.ErrSkip) {
			return err
		}
	}

	prepared, err := conn.Prepare(stmt)
	if err != nil {
		return err
	}
	defer prepared.Close()

	if sc, ok := prepared.(driver.StmtExecContext); ok {
		_, err = sc.ExecContext(ctx, nil)
		return err
	}
	_, err = prepared.Exec(nil) //nolint:staticcheck // legacy drivers only implement Exec
	return err
}
