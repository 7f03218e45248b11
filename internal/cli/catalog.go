package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/koustreak/tablecompare/internal/catalog"
	"github.com/koustreak/tablecompare/internal/diag"
)

func newCatalogCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Browse warehouse metadata",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "databases",
			Short: "List databases",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return a.list(cmd.Context(), func(ctx context.Context, acc *catalog.Accessor) []string {
					return acc.ListDatabases(ctx)
				})
			},
		},
		&cobra.Command{
			Use:   "schemas DATABASE",
			Short: "List schemas of a database",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.list(cmd.Context(), func(ctx context.Context, acc *catalog.Accessor) []string {
					return acc.ListSchemas(ctx, args[0])
				})
			},
		},
		&cobra.Command{
			Use:   "tables DATABASE SCHEMA",
			Short: "List base tables of a schema",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.list(cmd.Context(), func(ctx context.Context, acc *catalog.Accessor) []string {
					return acc.ListTables(ctx, args[0], args[1])
				})
			},
		},
		&cobra.Command{
			Use:   "columns DATABASE SCHEMA TABLE",
			Short: "List columns of a table in ordinal order",
			Args:  cobra.ExactArgs(3),
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.list(cmd.Context(), func(ctx context.Context, acc *catalog.Accessor) []string {
					return acc.ListColumns(ctx, args[0], args[1], args[2])
				})
			},
		},
	)
	return cmd
}

// list prints one name per line. Lookup failures are logged and shown as
// warnings but do not fail the command.
func (a *app) list(ctx context.Context, lookup func(context.Context, *catalog.Accessor) []string) error {
	db, err := a.connect(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	collector := &diag.Collector{}
	acc := catalog.New(db, diag.Tee(collector, diag.Log(a.log)))
	for _, name := range lookup(ctx, acc) {
		fmt.Fprintln(a.stdout, name)
	}
	for _, d := range collector.Diagnostics() {
		fmt.Fprintln(a.stderr, warnStyle.Render("warning: "+d.String()))
	}
	return nil
}
