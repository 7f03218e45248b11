package report

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"time"

	"github.com/koustreak/tablecompare/internal/batch"
	"github.com/koustreak/tablecompare/internal/errs"
	"github.com/koustreak/tablecompare/internal/filestore"
	"github.com/koustreak/tablecompare/internal/logger"
)

// ExportOptions configures an Exporter.
type ExportOptions struct {
	Bucket string

	// Prefix is prepended to every object key, e.g. "nightly/snowflake".
	Prefix string

	Format      Format
	Compression string

	// PresignTTL, when positive, adds a download URL valid for that long.
	PresignTTL time.Duration
}

// Exported locates an uploaded report.
type Exported struct {
	Bucket string `json:"bucket"`
	Key    string `json:"key"`
	Size   int64  `json:"size"`
	ETag   string `json:"etag,omitempty"`
	URL    string `json:"url,omitempty"`
}

// Exporter renders, compresses and uploads reports.
type Exporter struct {
	store      filestore.Store
	opts       ExportOptions
	compressor Compressor
	log        *logger.Logger
}

// NewExporter validates opts and returns an Exporter writing to store.
func NewExporter(store filestore.Store, opts ExportOptions, log *logger.Logger) (*Exporter, error) {
	if opts.Bucket == "" {
		return nil, errs.New(errs.ErrKindInvalidInput, "export bucket is required")
	}
	if opts.Format == "" {
		opts.Format = FormatJSON
	}
	if _, err := ParseFormat(string(opts.Format)); err != nil {
		return nil, err
	}
	c, err := NewCompressor(opts.Compression)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Exporter{store: store, opts: opts, compressor: c, log: log}, nil
}

// ObjectKey names the object for r: <prefix>/<start time>-<mode>.<format><compression>.
func ObjectKey(prefix string, r *batch.Report, f Format, c Compressor) string {
	name := fmt.Sprintf("%s-%s.%s%s",
		r.StartedAt.UTC().Format("20060102T150405Z"), r.Mode, f.Extension(), c.Extension())
	if prefix == "" {
		return name
	}
	return path.Join(prefix, name)
}

// Export uploads r and returns where it went.
func (e *Exporter) Export(ctx context.Context, r *batch.Report) (*Exported, error) {
	var buf bytes.Buffer
	zw, err := e.compressor.NewWriter(&buf)
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindQueryFailed, "failed to create compressor", err)
	}
	if err := Render(zw, r, e.opts.Format); err != nil {
		_ = zw.Close()
		return nil, errs.Wrap(errs.ErrKindQueryFailed, "failed to render report", err)
	}
	if err := zw.Close(); err != nil {
		return nil, errs.Wrap(errs.ErrKindQueryFailed, "failed to finish compression", err)
	}

	if err := e.store.EnsureBucket(ctx, e.opts.Bucket); err != nil {
		return nil, err
	}

	key := ObjectKey(e.opts.Prefix, r, e.opts.Format, e.compressor)
	info, err := e.store.PutObject(ctx, e.opts.Bucket, key, bytes.NewReader(buf.Bytes()), int64(buf.Len()), filestore.PutOptions{
		ContentType:     e.opts.Format.ContentType(),
		ContentEncoding: e.compressor.Name(),
		Metadata: map[string]string{
			"mode":      string(r.Mode),
			"truncated": fmt.Sprint(r.Truncated),
		},
	})
	if err != nil {
		return nil, err
	}

	out := &Exported{Bucket: e.opts.Bucket, Key: key, Size: info.Size, ETag: info.ETag}
	if e.opts.PresignTTL > 0 {
		url, err := e.store.PresignGetURL(ctx, e.opts.Bucket, key, e.opts.PresignTTL)
		if err != nil {
			return nil, err
		}
		out.URL = url
	}

	e.log.InfoWith("report exported", map[string]any{
		"bucket": out.Bucket,
		"key":    out.Key,
		"bytes":  out.Size,
	})
	return out, nil
}
