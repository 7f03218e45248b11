// Package testutil provides warehouse fixtures for tests.
package testutil

import (
	"database/sql"
	"fmt"
	"testing"

	"github.com/koustreak/tablecompare/internal/database"
	"github.com/koustreak/tablecompare/internal/database/sqldb"
	"github.com/stretchr/testify/require"

	_ "github.com/mattn/go-sqlite3" // register "sqlite3"
)

// SQLite returns an in-memory SQLite warehouse with two attached schemas,
// src and tgt, after running setup against it. The handle is closed when
// the test ends.
func SQLite(t *testing.T, setup ...string) database.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	// Attached in-memory databases belong to a single connection.
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	stmts := append([]string{
		"ATTACH DATABASE ':memory:' AS src",
		"ATTACH DATABASE ':memory:' AS tgt",
	}, setup...)
	for _, stmt := range stmts {
		_, err := db.Exec(stmt)
		require.NoError(t, err, stmt)
	}

	d := sqldb.Wrap(db, database.DialectSQLite)
	t.Cleanup(d.Close)
	return d
}

// Sequence renders an INSERT that fills table with rows n = 1..count,
// projecting each row through values (a SQL expression list over n).
func Sequence(table string, count int, values string) string {
	return fmt.Sprintf(
		"WITH RECURSIVE seq(n) AS (SELECT 1 UNION ALL SELECT n + 1 FROM seq WHERE n < %d) INSERT INTO %s SELECT %s FROM seq",
		count, table, values,
	)
}
