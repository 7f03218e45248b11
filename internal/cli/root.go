// Package cli implements the tablecompare command line.
package cli

import (
	"context"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/koustreak/tablecompare/internal/config"
	"github.com/koustreak/tablecompare/internal/database"
	"github.com/koustreak/tablecompare/internal/database/postgres"
	"github.com/koustreak/tablecompare/internal/database/sqldb"
	"github.com/koustreak/tablecompare/internal/filestore"
	"github.com/koustreak/tablecompare/internal/filestore/minio"
	"github.com/koustreak/tablecompare/internal/logger"
)

// Version is set at build time with
// -ldflags "-X github.com/koustreak/tablecompare/internal/cli.Version=1.2.3".
var Version = "dev"

// app holds what the commands share once the root pre-run has loaded the
// configuration.
type app struct {
	cfgFile string
	cfg     *config.Config
	log     *logger.Logger

	stdout io.Writer
	stderr io.Writer

	openWarehouse func(ctx context.Context, cfg *database.Config) (database.DB, error)
	openStore     func(ctx context.Context, cfg *filestore.Config) (filestore.Store, error)
}

// flagKeys binds root persistent flags to configuration keys.
var flagKeys = map[string]string{
	"driver":        "warehouse.driver",
	"dsn":           "warehouse.dsn",
	"max-conns":     "warehouse.max_conns",
	"workers":       "compare.workers",
	"semantics":     "compare.semantics",
	"query-timeout": "compare.query_timeout",
	"log-level":     "log.level",
	"log-format":    "log.format",
	"export":        "export.enabled",
	"export-format": "export.format",
	"compression":   "export.compression",
	"addr":          "server.addr",
}

// NewRootCommand builds the command tree.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&app{
		stdout:        os.Stdout,
		stderr:        os.Stderr,
		openWarehouse: openWarehouse,
		openStore:     openStore,
	})
}

func newRootCommand(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "tablecompare",
		Short: "Compare table contents between two schemas of a data warehouse",
		Long: `tablecompare checks whether tables in a source schema hold the same rows as
their namesakes in a target schema. Row counts are compared first; equal
counts are followed by a set difference in each direction.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.cfgFile, "config", "", "config file (default ./tablecompare.yaml)")
	pf.String("driver", "", "warehouse driver: postgres, mysql, snowflake, clickhouse, sqlite")
	pf.String("dsn", "", "warehouse data source name")
	pf.Int("max-conns", 4, "maximum warehouse connections")
	pf.Int("workers", 1, "table pairs compared at once")
	pf.String("semantics", "multiset", "duplicate handling: multiset or set")
	pf.Duration("query-timeout", 0, "per-query timeout (0 = none)")
	pf.String("log-level", "info", "log level: debug, info, warn, error")
	pf.String("log-format", "console", "log format: console or json")
	pf.Bool("export", false, "upload the report to object storage")
	pf.String("export-format", "json", "format of the uploaded report")
	pf.String("compression", "none", "compression of the uploaded report: none, gzip, zstd, lz4")
	pf.String("addr", ":8080", "listen address for serve")

	root.PersistentPreRunE = func(cmd *cobra.Command, _ []string) error {
		return a.load(pf)
	}

	root.AddCommand(
		newTablesCommand(a),
		newSchemasCommand(a),
		newCatalogCommand(a),
		newServeCommand(a),
	)
	return root
}

func (a *app) load(flags *pflag.FlagSet) error {
	v, err := config.NewViper(a.cfgFile)
	if err != nil {
		return err
	}
	if err := bindFlags(v, flags); err != nil {
		return err
	}
	cfg, err := config.FromViper(v)
	if err != nil {
		return err
	}
	a.cfg = cfg

	logCfg := cfg.Log.Logger()
	logCfg.Output = a.stderr
	a.log = logger.New(logCfg)
	logger.SetGlobal(a.log)
	return nil
}

func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	for name, key := range flagKeys {
		if err := v.BindPFlag(key, flags.Lookup(name)); err != nil {
			return err
		}
	}
	return nil
}

// connect opens the configured warehouse with query logging.
func (a *app) connect(ctx context.Context) (database.DB, error) {
	if err := a.cfg.Warehouse.Validate(a.cfg.Compare.Workers); err != nil {
		return nil, err
	}
	db, err := a.openWarehouse(ctx, a.cfg.Warehouse.Database())
	if err != nil {
		return nil, err
	}
	a.log.DebugWith("connected to warehouse", map[string]any{"driver": a.cfg.Warehouse.Driver})
	return database.Logged(db, a.log), nil
}

func openWarehouse(ctx context.Context, cfg *database.Config) (database.DB, error) {
	if cfg.Driver == database.DriverPostgres {
		db, err := postgres.New(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return db, nil
	}
	db, err := sqldb.New(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return db, nil
}

func openStore(ctx context.Context, cfg *filestore.Config) (filestore.Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	store, err := minio.New(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return store, nil
}
