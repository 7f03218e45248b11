package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/koustreak/tablecompare/internal/config"
	"github.com/koustreak/tablecompare/internal/report"
	"github.com/koustreak/tablecompare/internal/server"
)

const shutdownGrace = 30 * time.Second

func newServeCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve catalog and comparison operations over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			db, err := a.connect(ctx)
			if err != nil {
				return err
			}
			defer db.Close()

			opts := server.Options{
				Compare:        a.cfg.Compare.Options(),
				Workers:        a.cfg.Compare.Workers,
				MaxWorkers:     a.cfg.Warehouse.MaxConns,
				RequestTimeout: a.cfg.Server.RequestTimeout,
				Logger:         a.log,
			}
			if opts.MaxWorkers > config.MaxWorkers {
				opts.MaxWorkers = config.MaxWorkers
			}

			if a.cfg.Export.Enabled {
				store, err := a.openStore(ctx, a.cfg.Export.Filestore())
				if err != nil {
					return err
				}
				defer store.Close()
				if opts.Exporter, err = report.NewExporter(store, a.cfg.Export.Options(), a.log); err != nil {
					return err
				}
			}

			srv := server.New(db, opts)
			return srv.ListenAndServe(ctx, a.cfg.Server.Addr, a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, shutdownGrace)
		},
	}
}
