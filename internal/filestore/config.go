package filestore

import (
	"github.com/koustreak/tablecompare/internal/errs"
)

// Provider identifies the object storage backend.
type Provider string

const (
	ProviderMinIO Provider = "minio"
)

// Config holds all settings needed to connect to an object storage backend.
type Config struct {
	// Provider is the storage backend (e.g. ProviderMinIO).
	Provider Provider

	// Endpoint is the host:port of the storage server.
	// Example: "localhost:9000" for local MinIO.
	Endpoint string

	AccessKey string
	SecretKey string

	// UseSSL controls whether TLS is used for the connection.
	UseSSL bool

	// Region is used by region-aware backends such as AWS S3.
	// Leave empty for MinIO.
	Region string

	// Bucket receives exported reports.
	Bucket string
}

// DefaultConfig returns a local-dev config for MinIO.
func DefaultConfig(endpoint, accessKey, secretKey string) *Config {
	return &Config{
		Provider:  ProviderMinIO,
		Endpoint:  endpoint,
		AccessKey: accessKey,
		SecretKey: secretKey,
		Bucket:    "tablecompare-reports",
	}
}

// Validate checks the fields every provider needs.
func (c *Config) Validate() error {
	switch {
	case c.Provider != ProviderMinIO:
		return errs.Newf(errs.ErrKindInvalidInput, "unsupported storage provider %q", c.Provider)
	case c.Endpoint == "":
		return errs.New(errs.ErrKindInvalidInput, "storage endpoint is required")
	case c.Bucket == "":
		return errs.New(errs.ErrKindInvalidInput, "storage bucket is required")
	}
	return nil
}
