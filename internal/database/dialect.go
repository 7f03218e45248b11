package database

import (
	"fmt"
	"strings"
)

// Dialect controls how identifiers, placeholders and a few
// engine-specific expressions are written.
type Dialect int

const (
	// DialectPostgres quotes with "..." and uses $1, $2, … placeholders.
	DialectPostgres Dialect = iota

	// DialectMySQL quotes with backticks and uses ? placeholders.
	// Databases and schemas are the same level.
	DialectMySQL

	// DialectSnowflake quotes with "..." and uses ? placeholders.
	DialectSnowflake

	// DialectClickHouse quotes with backticks and uses ? placeholders.
	// Databases and schemas are the same level.
	DialectClickHouse

	// DialectSQLite quotes with "..." and uses ? placeholders.
	// Schemas are the names of attached database files.
	DialectSQLite
)

func (d Dialect) String() string {
	switch d {
	case DialectMySQL:
		return "mysql"
	case DialectSnowflake:
		return "snowflake"
	case DialectClickHouse:
		return "clickhouse"
	case DialectSQLite:
		return "sqlite"
	default:
		return "postgres"
	}
}

// QuoteIdent quotes a single identifier so that reserved words, mixed case
// and embedded quote characters are all taken literally.
func (d Dialect) QuoteIdent(name string) string {
	name = strings.ReplaceAll(name, "\x00", "")
	switch d {
	case DialectMySQL, DialectClickHouse:
		return "`" + strings.ReplaceAll(name, "`", "``") + "`"
	default:
		return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
	}
}

// QuoteQualified quotes each non-empty part and joins them with dots.
func (d Dialect) QuoteQualified(parts ...string) string {
	quoted := make([]string, 0, len(parts))
	for _, p := range parts {
		if p == "" {
			continue
		}
		quoted = append(quoted, d.QuoteIdent(p))
	}
	return strings.Join(quoted, ".")
}

// Qualify builds a fully qualified table reference. Engines without a
// database level above schemas use schema.table, with the database name
// standing in for an empty schema.
func (d Dialect) Qualify(database, schema, table string) string {
	if d.Flat() {
		return d.QuoteQualified(d.Namespace(database, schema), table)
	}
	return d.QuoteQualified(database, schema, table)
}

// Flat reports whether the engine has a single namespace level above tables.
func (d Dialect) Flat() bool {
	switch d {
	case DialectMySQL, DialectClickHouse, DialectSQLite:
		return true
	default:
		return false
	}
}

// Namespace picks the name that addresses tables on flat engines.
func (d Dialect) Namespace(database, schema string) string {
	if schema != "" {
		return schema
	}
	return database
}

// Placeholder returns the bind parameter marker for the idx-th argument
// (1-based).
func (d Dialect) Placeholder(idx int) string {
	if d == DialectPostgres {
		return fmt.Sprintf("$%d", idx)
	}
	return "?"
}

// CountExpr is the row counting expression; ClickHouse's count() is
// unsigned, so it is cast to keep scans into int64 portable.
func (d Dialect) CountExpr() string {
	if d == DialectClickHouse {
		return "toInt64(count())"
	}
	return "COUNT(*)"
}

// Except is the set-difference operator with duplicate elimination.
func (d Dialect) Except() string {
	if d == DialectClickHouse {
		return "EXCEPT DISTINCT"
	}
	return "EXCEPT"
}
