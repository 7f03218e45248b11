// Package batch drives table comparisons over an explicit table list or
// over positional schema pairs, and collects the outcomes into a Report.
//
// A target table that cannot be counted is reported as ONLY_IN_SOURCE
// rather than as an error. Any other failure stays confined to its own
// table pair; the batch always continues with the next pair.
package batch

import (
	"context"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/koustreak/tablecompare/internal/compare"
	"github.com/koustreak/tablecompare/internal/diag"
	"github.com/koustreak/tablecompare/internal/errs"
	"github.com/koustreak/tablecompare/internal/logger"
)

// Comparer compares one table pair. *compare.Comparator satisfies it.
type Comparer interface {
	Compare(ctx context.Context, source, target compare.TableIdentifier) compare.Outcome
	Count(ctx context.Context, t compare.TableIdentifier) (int64, error)
}

// TableLister enumerates base tables in ascending order.
// *catalog.Accessor satisfies it.
type TableLister interface {
	Tables(ctx context.Context, db, schema string) ([]string, error)
}

// Options tunes an Orchestrator.
type Options struct {
	// Workers caps the number of table pairs compared at once.
	// Values below 1 mean 1, which runs pairs strictly in sequence.
	Workers int

	Observer Observer

	// Notifier also receives every diagnostic that goes into a Report.
	Notifier diag.Notifier

	Logger *logger.Logger
}

// Orchestrator runs batches. It keeps no state between runs.
type Orchestrator struct {
	cmp    Comparer
	tables TableLister
	opts   Options
	log    *logger.Logger
}

// New returns an Orchestrator.
func New(cmp Comparer, tables TableLister, opts Options) *Orchestrator {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}
	return &Orchestrator{cmp: cmp, tables: tables, opts: opts, log: log}
}

type unit struct {
	source compare.TableIdentifier
	target compare.TableIdentifier
}

// run holds the mutable state of one batch.
type run struct {
	report    *Report
	collector diag.Collector
	notify    diag.Notifier
}

func (o *Orchestrator) begin(mode Mode) *run {
	r := &run{report: &Report{Mode: mode, Outcomes: []compare.Outcome{}, StartedAt: time.Now()}}
	r.notify = diag.Tee(&r.collector, o.opts.Notifier)
	return r
}

func (o *Orchestrator) finish(r *run) *Report {
	r.report.Diagnostics = r.collector.Diagnostics()
	r.report.FinishedAt = time.Now()
	return r.report
}

// CompareExplicitTables compares each named table of source with the table
// of the same name in target, in the given order. Names are trimmed and
// blank names ignored. An empty selection yields an empty report with a
// warning and issues no queries.
func (o *Orchestrator) CompareExplicitTables(ctx context.Context, source, target Scope, tables []string) (*Report, error) {
	r := o.begin(ModeTables)

	units := make([]unit, 0, len(tables))
	for _, name := range tables {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		units = append(units, unit{source: source.table(name), target: target.table(name)})
	}

	if len(units) == 0 {
		r.notify.Notify(diag.New(diag.KindEmptySelection, nil, "no tables selected for comparison"))
		return o.finish(r), nil
	}

	o.execute(ctx, r, units)
	return o.finish(r), nil
}

// CompareSchemaPairs pairs sourceSchemas[i] with targetSchemas[i] and
// compares every base table of each source schema with its namesake in the
// paired target schema. Lists of different lengths are rejected before any
// query runs. A source schema without tables is skipped with a warning.
func (o *Orchestrator) CompareSchemaPairs(ctx context.Context, sourceDB string, sourceSchemas []string, targetDB string, targetSchemas []string) (*Report, error) {
	r := o.begin(ModeSchemas)

	if len(sourceSchemas) != len(targetSchemas) {
		err := errs.Newf(errs.ErrKindInvalidInput,
			"schema lists differ in length: %d source, %d target", len(sourceSchemas), len(targetSchemas))
		r.notify.Notify(diag.New(diag.KindPrecondition, nil, "%s", err.Error()))
		return o.finish(r), err
	}

	var units []unit
	for i := range sourceSchemas {
		if ctx.Err() != nil {
			r.report.Truncated = true
			return o.finish(r), nil
		}

		source := Scope{Database: sourceDB, Schema: strings.TrimSpace(sourceSchemas[i])}
		target := Scope{Database: targetDB, Schema: strings.TrimSpace(targetSchemas[i])}

		tables, err := o.tables.Tables(ctx, source.Database, source.Schema)
		if err != nil {
			r.notify.Notify(diag.New(diag.KindMetadataQuery, err,
				"failed to list tables in %s", source.table("")))
		}
		if len(tables) == 0 {
			r.notify.Notify(diag.New(diag.KindSkippedPair, nil,
				"no tables found in %s; skipping pair with %s", source.table(""), target.table("")))
			continue
		}

		for _, name := range tables {
			units = append(units, unit{source: source.table(name), target: target.table(name)})
		}
	}

	o.execute(ctx, r, units)
	return o.finish(r), nil
}

// execute runs units and stores the completed outcomes in request order.
// Once ctx is done no further unit starts, and an outcome finished after
// cancellation is dropped since its queries were cut short.
func (o *Orchestrator) execute(ctx context.Context, r *run, units []unit) {
	results := make([]*compare.Outcome, len(units))

	var (
		mu   sync.Mutex
		done int
	)
	complete := func(i int, out compare.Outcome, elapsed time.Duration) {
		mu.Lock()
		defer mu.Unlock()

		results[i] = &out
		done++
		o.log.InfoWith("table compared", map[string]any{
			"source":     out.Source.String(),
			"target":     out.Target.String(),
			"status":     string(out.Status),
			"elapsed_ms": elapsed.Milliseconds(),
		})
		if o.opts.Observer != nil {
			o.opts.Observer(Progress{Done: done, Total: len(units), Table: out.Table(), Status: out.Status})
		}
	}

	work := func(i int) {
		if ctx.Err() != nil {
			return
		}
		start := time.Now()
		out := o.compareOne(ctx, units[i])
		if ctx.Err() != nil {
			return
		}
		complete(i, out, time.Since(start))
	}

	if o.opts.Workers == 1 {
		for i := range units {
			if ctx.Err() != nil {
				break
			}
			work(i)
		}
	} else {
		var g errgroup.Group
		g.SetLimit(o.opts.Workers)
		for i := range units {
			if ctx.Err() != nil {
				break
			}
			g.Go(func() error {
				work(i)
				return nil
			})
		}
		_ = g.Wait()
	}

	for _, out := range results {
		if out == nil {
			r.report.Truncated = true
			continue
		}
		r.report.Outcomes = append(r.report.Outcomes, *out)
	}
	if r.report.Truncated {
		o.log.WarnWith("comparison cancelled", ctx.Err(), map[string]any{
			"completed": len(r.report.Outcomes),
			"requested": len(units),
		})
	}
}

// compareOne probes the target with a row count before comparing. A failed
// probe means the target is missing or unreadable.
func (o *Orchestrator) compareOne(ctx context.Context, u unit) compare.Outcome {
	if _, err := o.cmp.Count(ctx, u.target); err != nil {
		o.log.DebugWith("target table not readable", map[string]any{
			"target": u.target.String(),
			"error":  err.Error(),
		})
		sourceRows := compare.Failed()
		if n, err := o.cmp.Count(ctx, u.source); err == nil {
			sourceRows = compare.Known(n)
		}
		return compare.SourceOnly(u.source, u.target, sourceRows)
	}
	return o.cmp.Compare(ctx, u.source, u.target)
}
