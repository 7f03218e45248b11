// Package catalog reads warehouse metadata: databases, schemas, base tables
// and the ordered column list of a table.
//
// Each lookup comes in two forms. Databases, Schemas, Tables and Columns
// return errors. ListDatabases, ListSchemas, ListTables and ListColumns never
// fail: on error they return an empty slice and report a diagnostic to the
// Accessor's Notifier, so an empty result means "nothing found or failed".
package catalog

import (
	"context"
	"fmt"
	"sort"

	"github.com/koustreak/tablecompare/internal/database"
	"github.com/koustreak/tablecompare/internal/diag"
)

// Accessor runs metadata queries on one warehouse handle.
// It is stateless and safe for concurrent use when the handle is.
type Accessor struct {
	db     database.DB
	notify diag.Notifier
}

// New returns an Accessor. A nil notifier discards diagnostics.
func New(db database.DB, notify diag.Notifier) *Accessor {
	if notify == nil {
		notify = diag.Discard
	}
	return &Accessor{db: db, notify: notify}
}

// Databases lists the databases visible to the session, in the order the
// warehouse returns them.
func (a *Accessor) Databases(ctx context.Context) ([]string, error) {
	stmt, err := databasesQuery(a.db.Dialect())
	if err != nil {
		return nil, err
	}
	return a.names(ctx, stmt)
}

// Schemas lists the schemas of a database.
func (a *Accessor) Schemas(ctx context.Context, db string) ([]string, error) {
	stmt, err := schemasQuery(a.db.Dialect(), db)
	if err != nil {
		return nil, err
	}
	return a.names(ctx, stmt)
}

// Tables lists the base tables of a schema in ascending byte order.
// Views are excluded.
func (a *Accessor) Tables(ctx context.Context, db, schema string) ([]string, error) {
	stmt, err := tablesQuery(a.db.Dialect(), db, schema)
	if err != nil {
		return nil, err
	}
	tables, err := a.names(ctx, stmt)
	if err != nil {
		return nil, err
	}
	sort.Strings(tables)
	return tables, nil
}

// Columns lists a table's column names in ordinal position.
func (a *Accessor) Columns(ctx context.Context, db, schema, table string) ([]string, error) {
	stmt, err := columnsQuery(a.db.Dialect(), db, schema, table)
	if err != nil {
		return nil, err
	}
	return a.names(ctx, stmt)
}

// ListDatabases is Databases with failures turned into a diagnostic.
func (a *Accessor) ListDatabases(ctx context.Context) []string {
	out, err := a.Databases(ctx)
	return a.tolerate(out, err, "failed to list databases")
}

// ListSchemas is Schemas with failures turned into a diagnostic.
func (a *Accessor) ListSchemas(ctx context.Context, db string) []string {
	out, err := a.Schemas(ctx, db)
	return a.tolerate(out, err, fmt.Sprintf("failed to list schemas in %s", db))
}

// ListTables is Tables with failures turned into a diagnostic.
func (a *Accessor) ListTables(ctx context.Context, db, schema string) []string {
	out, err := a.Tables(ctx, db, schema)
	return a.tolerate(out, err, fmt.Sprintf("failed to list tables in %s.%s", db, schema))
}

// ListColumns is Columns with failures turned into a diagnostic.
func (a *Accessor) ListColumns(ctx context.Context, db, schema, table string) []string {
	out, err := a.Columns(ctx, db, schema, table)
	return a.tolerate(out, err, fmt.Sprintf("failed to list columns of %s.%s.%s", db, schema, table))
}

func (a *Accessor) tolerate(out []string, err error, msg string) []string {
	if err != nil {
		a.notify.Notify(diag.New(diag.KindMetadataQuery, err, "%s", msg))
		return []string{}
	}
	return out
}

func (a *Accessor) names(ctx context.Context, stmt statement) ([]string, error) {
	rows, err := a.db.Query(ctx, stmt.sql, stmt.args...)
	if err != nil {
		return nil, err
	}
	return database.ScanColumn(rows, stmt.labels...)
}
