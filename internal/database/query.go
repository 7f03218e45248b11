package database

import (
	"fmt"
	"strings"

	"github.com/koustreak/tablecompare/internal/errs"
)

// validOps is the allowlist of comparison operators for WHERE clauses.
// The operator position cannot be parameterized, so anything outside this
// list is rejected.
var validOps = map[string]bool{
	"=":        true,
	"!=":       true,
	"<>":       true,
	"<":        true,
	">":        true,
	"<=":       true,
	">=":       true,
	"LIKE":     true,
	"NOT LIKE": true,
	"IN":       true,
	"NOT IN":   true,
}

// SelectBuilder constructs a parameterized SELECT query using a fluent API.
// Identifiers go through the dialect's quoting; values are never
// interpolated into the SQL string and are always passed as args.
//
// Usage (catalog lookup on Postgres):
//
//	sql, args, err := Select(DialectPostgres, "information_schema", "tables").
//	    Columns("table_name").
//	    Where("table_schema", "=", "sales").
//	    OrderBy("table_name", Asc).
//	    Build()
type SelectBuilder struct {
	from    []string
	dialect Dialect
	columns []string
	where   []whereClause
	orderBy []orderClause
}

// SortDirection controls the ORDER BY direction.
type SortDirection bool

const (
	Asc  SortDirection = false
	Desc SortDirection = true
)

type whereClause struct {
	column string
	op     string
	value  any
}

type orderClause struct {
	column string
	dir    SortDirection
}

// Select starts a new SelectBuilder reading from the qualified relation
// named by from (e.g. "information_schema", "columns").
func Select(d Dialect, from ...string) *SelectBuilder {
	return &SelectBuilder{from: from, dialect: d}
}

// Columns restricts the SELECT to the specified columns.
// If not called, SELECT * is used.
func (b *SelectBuilder) Columns(cols ...string) *SelectBuilder {
	b.columns = cols
	return b
}

// Where adds a WHERE condition. For IN and NOT IN the value must be a
// []string. Multiple calls are combined with AND.
func (b *SelectBuilder) Where(column, op string, value any) *SelectBuilder {
	b.where = append(b.where, whereClause{column, op, value})
	return b
}

// OrderBy appends an ORDER BY clause for the given column and direction.
func (b *SelectBuilder) OrderBy(column string, dir SortDirection) *SelectBuilder {
	b.orderBy = append(b.orderBy, orderClause{column, dir})
	return b
}

// Build produces the final SQL string and argument slice.
func (b *SelectBuilder) Build() (string, []any, error) {
	if len(b.from) == 0 {
		return "", nil, errs.New(errs.ErrKindInvalidInput, "select without a relation")
	}

	cols := "*"
	if len(b.columns) > 0 {
		quoted := make([]string, len(b.columns))
		for i, c := range b.columns {
			quoted[i] = b.dialect.QuoteIdent(c)
		}
		cols = strings.Join(quoted, ", ")
	}

	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(cols)
	sb.WriteString(" FROM ")
	sb.WriteString(b.dialect.QuoteQualified(b.from...))

	var args []any
	argIdx := 1

	if len(b.where) > 0 {
		parts := make([]string, 0, len(b.where))
		for _, w := range b.where {
			op := strings.ToUpper(w.op)
			if !validOps[op] {
				return "", nil, errs.Newf(errs.ErrKindInvalidInput, "unsupported WHERE operator: %q", w.op)
			}

			if op == "IN" || op == "NOT IN" {
				values, ok := w.value.([]string)
				if !ok || len(values) == 0 {
					return "", nil, errs.Newf(errs.ErrKindInvalidInput, "%s needs a non-empty []string for %q", op, w.column)
				}
				marks := make([]string, len(values))
				for i, v := range values {
					marks[i] = b.dialect.Placeholder(argIdx)
					args = append(args, v)
					argIdx++
				}
				parts = append(parts, fmt.Sprintf("%s %s (%s)", b.dialect.QuoteIdent(w.column), op, strings.Join(marks, ", ")))
				continue
			}

			parts = append(parts, fmt.Sprintf("%s %s %s", b.dialect.QuoteIdent(w.column), op, b.dialect.Placeholder(argIdx)))
			args = append(args, w.value)
			argIdx++
		}
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(parts, " AND "))
	}

	if len(b.orderBy) > 0 {
		parts := make([]string, len(b.orderBy))
		for i, o := range b.orderBy {
			dir := "ASC"
			if o.dir == Desc {
				dir = "DESC"
			}
			parts[i] = fmt.Sprintf("%s %s", b.dialect.QuoteIdent(o.column), dir)
		}
		sb.WriteString(" ORDER BY ")
		sb.WriteString(strings.Join(parts, ", "))
	}

	return sb.String(), args, nil
}
