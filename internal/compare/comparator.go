// Package compare decides whether two tables hold the same rows.
//
// Counts are compared first. Different counts settle the question without
// the expensive set differences; equal counts are followed by one difference
// in each direction over an explicit column list taken from the source.
package compare

import (
	"context"
	"fmt"
	"time"

	"github.com/koustreak/tablecompare/internal/database"
	"github.com/koustreak/tablecompare/internal/errs"
)

// ColumnLister resolves a table's columns in ordinal order.
// *catalog.Accessor satisfies it.
type ColumnLister interface {
	Columns(ctx context.Context, db, schema, table string) ([]string, error)
}

// Options tunes a Comparator.
type Options struct {
	// Semantics defaults to Multiset.
	Semantics Semantics

	// QueryTimeout bounds each individual statement; zero means no bound
	// beyond the caller's context.
	QueryTimeout time.Duration
}

// Comparator compares table pairs on one warehouse. It holds no state
// between calls and is safe for concurrent use when the handle is.
type Comparator struct {
	db      database.DB
	columns ColumnLister
	opts    Options
}

// New returns a Comparator.
func New(db database.DB, columns ColumnLister, opts Options) *Comparator {
	if opts.Semantics == "" {
		opts.Semantics = Multiset
	}
	return &Comparator{db: db, columns: columns, opts: opts}
}

// Compare runs count-then-difference on source and target. It never
// returns an error: failures become an ERROR outcome.
func (c *Comparator) Compare(ctx context.Context, source, target TableIdentifier) Outcome {
	out, err := c.compare(ctx, source, target)
	if err != nil {
		return Failure(source, target, err)
	}
	return out
}

func (c *Comparator) compare(ctx context.Context, source, target TableIdentifier) (Outcome, error) {
	// The target is assumed to share the source's columns; if it does not,
	// the difference query fails and the pair is reported as an error.
	columns, err := c.columns.Columns(ctx, source.Database, source.Schema, source.Table)
	if err != nil {
		return Outcome{}, fmt.Errorf("listing columns of %s: %w", source, err)
	}
	if len(columns) == 0 {
		return Outcome{}, errs.Newf(errs.ErrKindNotFound, "no columns found for %s", source)
	}

	sourceRows, err := c.Count(ctx, source)
	if err != nil {
		return Outcome{}, err
	}
	targetRows, err := c.Count(ctx, target)
	if err != nil {
		return Outcome{}, err
	}

	if sourceRows != targetRows {
		return CountMismatch(source, target, sourceRows, targetRows), nil
	}

	onlyInSource, err := c.difference(ctx, columns, source, target)
	if err != nil {
		return Outcome{}, err
	}
	onlyInTarget, err := c.difference(ctx, columns, target, source)
	if err != nil {
		return Outcome{}, err
	}

	return Differences(source, target, sourceRows, onlyInSource, onlyInTarget), nil
}

// Count returns the number of rows in t.
func (c *Comparator) Count(ctx context.Context, t TableIdentifier) (int64, error) {
	n, err := c.scalar(ctx, countSQL(c.db.Dialect(), t))
	if err != nil {
		return 0, fmt.Errorf("counting rows of %s: %w", t, err)
	}
	return n, nil
}

func (c *Comparator) difference(ctx context.Context, columns []string, left, right TableIdentifier) (int64, error) {
	n, err := c.scalar(ctx, differenceSQL(c.db.Dialect(), c.opts.Semantics, columns, left, right))
	if err != nil {
		return 0, fmt.Errorf("computing rows of %s missing from %s: %w", left, right, err)
	}
	return n, nil
}

func (c *Comparator) scalar(ctx context.Context, sql string) (int64, error) {
	if c.opts.QueryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.opts.QueryTimeout)
		defer cancel()
	}

	row, err := c.db.QueryRow(ctx, sql)
	if err != nil {
		return 0, err
	}
	var n int64
	if err := row.Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}
