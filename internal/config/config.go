// Package config loads tablecompare settings from a YAML file, TABLECOMPARE_*
// environment variables and bound command-line flags, in increasing order
// of precedence.
package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/koustreak/tablecompare/internal/compare"
	"github.com/koustreak/tablecompare/internal/database"
	"github.com/koustreak/tablecompare/internal/errs"
	"github.com/koustreak/tablecompare/internal/filestore"
	"github.com/koustreak/tablecompare/internal/logger"
	"github.com/koustreak/tablecompare/internal/report"
)

// EnvPrefix prefixes every environment override, e.g.
// TABLECOMPARE_WAREHOUSE_DSN or TABLECOMPARE_COMPARE_WORKERS.
const EnvPrefix = "TABLECOMPARE"

// MaxWorkers bounds compare.workers.
const MaxWorkers = 64

var (
	ErrDriverRequired       = errors.New("warehouse driver is required")
	ErrDSNRequired          = errors.New("warehouse dsn is required")
	ErrMaxConnsInvalid      = errors.New("warehouse max_conns must be at least 1")
	ErrWorkersMinimum       = errors.New("compare workers must be at least 1")
	ErrWorkersMaximum       = errors.New("compare workers must not exceed 64")
	ErrWorkersExceedPool    = errors.New("compare workers must not exceed warehouse max_conns")
	ErrQueryTimeoutInvalid  = errors.New("compare query_timeout must be >= 0")
	ErrExportEndpoint       = errors.New("export endpoint is required when export is enabled")
	ErrExportBucketRequired = errors.New("export bucket is required when export is enabled")
	ErrServerAddrRequired   = errors.New("server addr is required")
)

// Config is the full application configuration.
type Config struct {
	Warehouse WarehouseConfig `mapstructure:"warehouse"`
	Compare   CompareConfig   `mapstructure:"compare"`
	Log       LogConfig       `mapstructure:"log"`
	Export    ExportConfig    `mapstructure:"export"`
	Server    ServerConfig    `mapstructure:"server"`
}

type WarehouseConfig struct {
	Driver          string        `mapstructure:"driver"`
	DSN             string        `mapstructure:"dsn"`
	MaxConns        int           `mapstructure:"max_conns"`
	MinConns        int           `mapstructure:"min_conns"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `mapstructure:"max_conn_idle_time"`
	ConnectTimeout  time.Duration `mapstructure:"connect_timeout"`
	InitStatements  []string      `mapstructure:"init_statements"`
}

type CompareConfig struct {
	// Semantics is multiset or set.
	Semantics    string        `mapstructure:"semantics"`
	Workers      int           `mapstructure:"workers"`
	QueryTimeout time.Duration `mapstructure:"query_timeout"`
}

type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	TimeFormat string `mapstructure:"time_format"`
}

type ExportConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	Endpoint    string        `mapstructure:"endpoint"`
	AccessKey   string        `mapstructure:"access_key"`
	SecretKey   string        `mapstructure:"secret_key"`
	UseSSL      bool          `mapstructure:"use_ssl"`
	Region      string        `mapstructure:"region"`
	Bucket      string        `mapstructure:"bucket"`
	Prefix      string        `mapstructure:"prefix"`
	Format      string        `mapstructure:"format"`
	Compression string        `mapstructure:"compression"`
	PresignTTL  time.Duration `mapstructure:"presign_ttl"`
}

type ServerConfig struct {
	Addr           string        `mapstructure:"addr"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// SetDefaults registers every key with its default. Keys must be known to
// viper for environment overrides to reach Unmarshal.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("warehouse.driver", "")
	v.SetDefault("warehouse.dsn", "")
	v.SetDefault("warehouse.max_conns", 4)
	v.SetDefault("warehouse.min_conns", 1)
	v.SetDefault("warehouse.max_conn_lifetime", 30*time.Minute)
	v.SetDefault("warehouse.max_conn_idle_time", 5*time.Minute)
	v.SetDefault("warehouse.connect_timeout", 10*time.Second)
	v.SetDefault("warehouse.init_statements", []string{})

	v.SetDefault("compare.semantics", string(compare.Multiset))
	v.SetDefault("compare.workers", 1)
	v.SetDefault("compare.query_timeout", time.Duration(0))

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.time_format", "rfc3339")

	v.SetDefault("export.enabled", false)
	v.SetDefault("export.endpoint", "")
	v.SetDefault("export.access_key", "")
	v.SetDefault("export.secret_key", "")
	v.SetDefault("export.use_ssl", false)
	v.SetDefault("export.region", "")
	v.SetDefault("export.bucket", "tablecompare-reports")
	v.SetDefault("export.prefix", "")
	v.SetDefault("export.format", string(report.FormatJSON))
	v.SetDefault("export.compression", "none")
	v.SetDefault("export.presign_ttl", time.Duration(0))

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 10*time.Minute)
	v.SetDefault("server.request_timeout", 10*time.Minute)
}

// NewViper returns a viper instance reading file (when set, otherwise
// ./tablecompare.yaml if present) and the TABLECOMPARE_* environment.
func NewViper(file string) (*viper.Viper, error) {
	v := viper.New()
	SetDefaults(v)

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("tablecompare")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, errs.Wrap(errs.ErrKindInvalidInput, "failed to read config", err)
		}
	}
	return v, nil
}

// FromViper decodes and validates the configuration held by v.
func FromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errs.Wrap(errs.ErrKindInvalidInput, "failed to decode config", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Load is NewViper followed by FromViper.
func Load(file string) (*Config, error) {
	v, err := NewViper(file)
	if err != nil {
		return nil, err
	}
	return FromViper(v)
}

// Validate checks the configuration. The warehouse section is checked by
// WarehouseConfig.Validate only when a command needs a connection.
func (c *Config) Validate() error {
	if _, err := compare.ParseSemantics(c.Compare.Semantics); err != nil {
		return err
	}
	switch {
	case c.Compare.Workers < 1:
		return invalid(ErrWorkersMinimum)
	case c.Compare.Workers > MaxWorkers:
		return invalid(ErrWorkersMaximum)
	case c.Compare.QueryTimeout < 0:
		return invalid(ErrQueryTimeoutInvalid)
	case c.Server.Addr == "":
		return invalid(ErrServerAddrRequired)
	}

	if c.Export.Enabled {
		if c.Export.Endpoint == "" {
			return invalid(ErrExportEndpoint)
		}
		if c.Export.Bucket == "" {
			return invalid(ErrExportBucketRequired)
		}
	}
	if _, err := report.ParseFormat(c.Export.Format); err != nil {
		return err
	}
	if _, err := report.NewCompressor(c.Export.Compression); err != nil {
		return err
	}
	return nil
}

// Validate checks what a connection needs. workers is the configured
// comparison fan-out, which the pool must be able to serve.
func (w WarehouseConfig) Validate(workers int) error {
	switch {
	case w.Driver == "":
		return invalid(ErrDriverRequired)
	case w.DSN == "":
		return invalid(ErrDSNRequired)
	case w.MaxConns < 1:
		return invalid(ErrMaxConnsInvalid)
	case database.Driver(w.Driver) != database.DriverSQLite && workers > w.MaxConns:
		return invalid(ErrWorkersExceedPool)
	}
	_, err := database.ParseDriver(w.Driver)
	return err
}

func invalid(err error) error {
	return errs.Wrap(errs.ErrKindInvalidInput, "invalid configuration", err)
}

// Database converts the warehouse section.
func (w WarehouseConfig) Database() *database.Config {
	cfg := database.DefaultConfig(database.Driver(w.Driver), w.DSN)
	cfg.MaxConns = int32(w.MaxConns)
	cfg.MinConns = int32(w.MinConns)
	cfg.MaxConnLifetime = w.MaxConnLifetime
	cfg.MaxConnIdleTime = w.MaxConnIdleTime
	cfg.ConnectTimeout = w.ConnectTimeout
	cfg.InitStatements = w.InitStatements
	return cfg
}

// Options converts the compare section. The section must have passed
// Config.Validate.
func (c CompareConfig) Options() compare.Options {
	sem, _ := compare.ParseSemantics(c.Semantics)
	return compare.Options{Semantics: sem, QueryTimeout: c.QueryTimeout}
}

// Logger converts the log section.
func (l LogConfig) Logger() *logger.Config {
	cfg := logger.DefaultConfig()
	cfg.Level = l.Level
	cfg.Format = l.Format
	cfg.TimeFormat = l.TimeFormat
	return cfg
}

// Filestore converts the export section's storage settings.
func (e ExportConfig) Filestore() *filestore.Config {
	cfg := filestore.DefaultConfig(e.Endpoint, e.AccessKey, e.SecretKey)
	cfg.UseSSL = e.UseSSL
	cfg.Region = e.Region
	cfg.Bucket = e.Bucket
	return cfg
}

// Options converts the export section's rendering settings.
func (e ExportConfig) Options() report.ExportOptions {
	format, _ := report.ParseFormat(e.Format)
	return report.ExportOptions{
		Bucket:      e.Bucket,
		Prefix:      e.Prefix,
		Format:      format,
		Compression: e.Compression,
		PresignTTL:  e.PresignTTL,
	}
}
