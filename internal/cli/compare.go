package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/koustreak/tablecompare/internal/batch"
	"github.com/koustreak/tablecompare/internal/catalog"
	"github.com/koustreak/tablecompare/internal/compare"
	"github.com/koustreak/tablecompare/internal/diag"
	"github.com/koustreak/tablecompare/internal/report"
)

// ErrDifferencesFound is returned with --fail-on-diff when any pair is not
// a MATCH, so scripts can gate on the exit status.
var ErrDifferencesFound = errors.New("differences found")

// outputFlags are shared by the comparison commands.
type outputFlags struct {
	format     string
	output     string
	progress   bool
	failOnDiff bool
}

func (o *outputFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&o.format, "format", "f", "text", "report format: text, json, yaml, csv")
	cmd.Flags().StringVarP(&o.output, "output", "o", "", "write the report to this file instead of stdout")
	cmd.Flags().BoolVar(&o.progress, "progress", true, "show a progress bar on stderr")
	cmd.Flags().BoolVar(&o.failOnDiff, "fail-on-diff", false, "exit non-zero unless every table matches")
}

func newTablesCommand(a *app) *cobra.Command {
	var (
		out            outputFlags
		source, target batch.Scope
		tables         []string
	)

	cmd := &cobra.Command{
		Use:   "tables",
		Short: "Compare named tables between a source and a target schema",
		Example: `  tablecompare tables --source-db ANALYTICS --source-schema STAGING \
    --target-db ANALYTICS --target-schema PROD --table ORDERS --table CUSTOMERS`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.compare(cmd.Context(), out, func(ctx context.Context, o *batch.Orchestrator) (*batch.Report, error) {
				return o.CompareExplicitTables(ctx, source, target, tables)
			})
		},
	}

	cmd.Flags().StringVar(&source.Database, "source-db", "", "source database")
	cmd.Flags().StringVar(&source.Schema, "source-schema", "", "source schema")
	cmd.Flags().StringVar(&target.Database, "target-db", "", "target database")
	cmd.Flags().StringVar(&target.Schema, "target-schema", "", "target schema")
	cmd.Flags().StringSliceVarP(&tables, "table", "t", nil, "table to compare (repeatable or comma separated)")
	out.register(cmd)
	return cmd
}

func newSchemasCommand(a *app) *cobra.Command {
	var (
		out                     outputFlags
		sourceDB, targetDB      string
		sourceSchemas, tgtNames []string
	)

	cmd := &cobra.Command{
		Use:   "schemas",
		Short: "Compare every table of source schemas with paired target schemas",
		Long: `Schemas are paired by position: the first source schema with the first
target schema, and so on. Both lists must have the same length.`,
		Example: `  tablecompare schemas --source-db RAW --source-schemas SALES,FINANCE \
    --target-db PROD --target-schemas SALES,FINANCE_V2 --workers 4`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.compare(cmd.Context(), out, func(ctx context.Context, o *batch.Orchestrator) (*batch.Report, error) {
				return o.CompareSchemaPairs(ctx, sourceDB, sourceSchemas, targetDB, tgtNames)
			})
		},
	}

	cmd.Flags().StringVar(&sourceDB, "source-db", "", "source database")
	cmd.Flags().StringSliceVar(&sourceSchemas, "source-schemas", nil, "source schemas, in pairing order")
	cmd.Flags().StringVar(&targetDB, "target-db", "", "target database")
	cmd.Flags().StringSliceVar(&tgtNames, "target-schemas", nil, "target schemas, in pairing order")
	out.register(cmd)
	return cmd
}

func (a *app) compare(ctx context.Context, out outputFlags, run func(context.Context, *batch.Orchestrator) (*batch.Report, error)) error {
	format, err := report.ParseFormat(out.format)
	if err != nil {
		return err
	}

	db, err := a.connect(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	notify := diag.Log(a.log)
	acc := catalog.New(db, notify)
	bar := newProgressPrinter(a.stderr, out.progress)
	orch := batch.New(compare.New(db, acc, a.cfg.Compare.Options()), acc, batch.Options{
		Workers:  a.cfg.Compare.Workers,
		Observer: bar.Observe,
		Notifier: notify,
		Logger:   a.log,
	})

	rep, err := run(ctx, orch)
	bar.Finish()
	if err != nil {
		return err
	}

	if err := a.write(rep, format, out.output); err != nil {
		return err
	}

	if a.cfg.Export.Enabled {
		if err := a.export(ctx, rep); err != nil {
			return err
		}
	}

	if rep.Truncated {
		return context.Cause(ctx)
	}
	if out.failOnDiff {
		s := report.Summarize(rep)
		if s.Matches != s.Total {
			return fmt.Errorf("%w: %d of %d tables differ or failed", ErrDifferencesFound, s.Total-s.Matches, s.Total)
		}
	}
	return nil
}

func (a *app) write(rep *batch.Report, format report.Format, path string) error {
	if path == "" {
		return render(a.stdout, rep, format)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating report file: %w", err)
	}
	return writeAndClose(f, rep, format)
}

// writeAndClose renders into wc and reports a failed Close, which is where
// buffered writes to a file surface.
func writeAndClose(wc io.WriteCloser, rep *batch.Report, format report.Format) error {
	if err := render(wc, rep, format); err != nil {
		_ = wc.Close()
		return err
	}
	if err := wc.Close(); err != nil {
		return fmt.Errorf("closing report file: %w", err)
	}
	return nil
}

func render(w io.Writer, rep *batch.Report, format report.Format) error {
	if err := report.Render(w, rep, format); err != nil {
		return fmt.Errorf("rendering report: %w", err)
	}
	return nil
}

func (a *app) export(ctx context.Context, rep *batch.Report) error {
	store, err := a.openStore(ctx, a.cfg.Export.Filestore())
	if err != nil {
		return err
	}
	defer store.Close()

	exp, err := report.NewExporter(store, a.cfg.Export.Options(), a.log)
	if err != nil {
		return err
	}
	// An interrupted run still gets its partial report uploaded.
	exported, err := exp.Export(context.WithoutCancel(ctx), rep)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.stderr, "report uploaded to %s/%s\n", exported.Bucket, exported.Key)
	if exported.URL != "" {
		fmt.Fprintln(a.stderr, exported.URL)
	}
	return nil
}
