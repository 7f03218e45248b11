package catalog

import (
	"github.com/koustreak/tablecompare/internal/database"
)

// statement is one metadata query plus the result column holding names.
type statement struct {
	sql    string
	args   []any
	labels []string
}

var (
	// SHOW output differs between engines and releases; these labels are
	// tried in order before falling back to the first column.
	showLabels = []string{"name", "database_name", "schema_name", "database"}

	clickhouseNonTables = []string{"View", "MaterializedView", "LiveView", "WindowView", "Dictionary"}
)

func build(b *database.SelectBuilder, labels ...string) (statement, error) {
	sql, args, err := b.Build()
	if err != nil {
		return statement{}, err
	}
	return statement{sql: sql, args: args, labels: labels}, nil
}

func databasesQuery(d database.Dialect) (statement, error) {
	switch d {
	case database.DialectMySQL, database.DialectSnowflake:
		return statement{sql: "SHOW DATABASES", labels: showLabels}, nil
	case database.DialectClickHouse:
		return build(database.Select(d, "system", "databases").Columns("name").OrderBy("name", database.Asc))
	case database.DialectSQLite:
		return statement{sql: "SELECT name FROM pragma_database_list WHERE name = 'main'"}, nil
	default:
		return statement{sql: "SELECT datname FROM pg_database WHERE datistemplate = false AND datallowconn ORDER BY datname"}, nil
	}
}

func schemasQuery(d database.Dialect, db string) (statement, error) {
	switch d {
	case database.DialectSnowflake:
		return statement{sql: "SHOW SCHEMAS IN DATABASE " + d.QuoteIdent(db), labels: showLabels}, nil
	case database.DialectMySQL:
		return build(database.Select(d, "information_schema", "schemata").
			Columns("schema_name").
			Where("schema_name", "=", db))
	case database.DialectClickHouse:
		return build(database.Select(d, "system", "databases").
			Columns("name").
			Where("name", "=", db))
	case database.DialectSQLite:
		return statement{sql: "SELECT name FROM pragma_database_list WHERE name <> 'temp' ORDER BY seq"}, nil
	default:
		return build(database.Select(d, "information_schema", "schemata").
			Columns("schema_name").
			Where("catalog_name", "=", db).
			OrderBy("schema_name", database.Asc))
	}
}

func tablesQuery(d database.Dialect, db, schema string) (statement, error) {
	switch d {
	case database.DialectSnowflake:
		return build(database.Select(d, db, "INFORMATION_SCHEMA", "TABLES").
			Columns("TABLE_NAME").
			Where("TABLE_SCHEMA", "=", schema).
			Where("TABLE_TYPE", "=", "BASE TABLE").
			OrderBy("TABLE_NAME", database.Asc))
	case database.DialectMySQL:
		return build(database.Select(d, "information_schema", "tables").
			Columns("table_name").
			Where("table_schema", "=", d.Namespace(db, schema)).
			Where("table_type", "=", "BASE TABLE").
			OrderBy("table_name", database.Asc))
	case database.DialectClickHouse:
		return build(database.Select(d, "system", "tables").
			Columns("name").
			Where("database", "=", d.Namespace(db, schema)).
			Where("engine", "NOT IN", clickhouseNonTables).
			Where("is_temporary", "=", 0).
			OrderBy("name", database.Asc))
	case database.DialectSQLite:
		return build(database.Select(d, d.Namespace(db, schema), "sqlite_master").
			Columns("name").
			Where("type", "=", "table").
			Where("name", "NOT LIKE", "sqlite_%").
			OrderBy("name", database.Asc))
	default:
		return build(database.Select(d, "information_schema", "tables").
			Columns("table_name").
			Where("table_catalog", "=", db).
			Where("table_schema", "=", schema).
			Where("table_type", "=", "BASE TABLE").
			OrderBy("table_name", database.Asc))
	}
}

func columnsQuery(d database.Dialect, db, schema, table string) (statement, error) {
	switch d {
	case database.DialectSnowflake:
		return build(database.Select(d, db, "INFORMATION_SCHEMA", "COLUMNS").
			Columns("COLUMN_NAME").
			Where("TABLE_SCHEMA", "=", schema).
			Where("TABLE_NAME", "=", table).
			OrderBy("ORDINAL_POSITION", database.Asc))
	case database.DialectMySQL:
		return build(database.Select(d, "information_schema", "columns").
			Columns("column_name").
			Where("table_schema", "=", d.Namespace(db, schema)).
			Where("table_name", "=", table).
			OrderBy("ordinal_position", database.Asc))
	case database.DialectClickHouse:
		return build(database.Select(d, "system", "columns").
			Columns("name").
			Where("database", "=", d.Namespace(db, schema)).
			Where("table", "=", table).
			OrderBy("position", database.Asc))
	case database.DialectSQLite:
		return statement{
			sql:  "SELECT name FROM pragma_table_info(?, ?) ORDER BY cid",
			args: []any{table, d.Namespace(db, schema)},
		}, nil
	default:
		return build(database.Select(d, "information_schema", "columns").
			Columns("column_name").
			Where("table_catalog", "=", db).
			Where("table_schema", "=", schema).
			Where("table_name", "=", table).
			OrderBy("ordinal_position", database.Asc))
	}
}
