package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koustreak/tablecompare/internal/batch"
	"github.com/koustreak/tablecompare/internal/compare"
	"github.com/koustreak/tablecompare/internal/config"
	"github.com/koustreak/tablecompare/internal/database"
	"github.com/koustreak/tablecompare/internal/errs"
	"github.com/koustreak/tablecompare/internal/filestore"
	"github.com/koustreak/tablecompare/internal/report"
	"github.com/koustreak/tablecompare/internal/testutil"
)

var fixture = []string{
	`CREATE TABLE src.ORDERS (id INTEGER, amount REAL)`,
	`CREATE TABLE tgt.ORDERS (id INTEGER, amount REAL)`,
	testutil.Sequence("src.ORDERS", 20, "n, n * 2.5"),
	testutil.Sequence("tgt.ORDERS", 20, "n, n * 2.5"),
	`CREATE TABLE src.CUSTOMERS (id INTEGER, name TEXT)`,
	testutil.Sequence("src.CUSTOMERS", 3, "n, 'c' || n"),
	`CREATE TABLE src.REFUNDS (id INTEGER)`,
	`CREATE TABLE tgt.REFUNDS (id INTEGER)`,
	testutil.Sequence("src.REFUNDS", 4, "n"),
	testutil.Sequence("tgt.REFUNDS", 3, "n"),
}

type uploaded struct {
	bucket, key string
	body        []byte
}

type fakeStore struct {
	puts []uploaded
}

func (f *fakeStore) Ping(context.Context) error                 { return nil }
func (f *fakeStore) Close() error                               { return nil }
func (f *fakeStore) EnsureBucket(context.Context, string) error { return nil }

func (f *fakeStore) PutObject(_ context.Context, bucket, key string, r io.Reader, _ int64, _ filestore.PutOptions) (*filestore.ObjectInfo, error) {
	body, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	f.puts = append(f.puts, uploaded{bucket: bucket, key: key, body: body})
	return &filestore.ObjectInfo{Bucket: bucket, Key: key, Size: int64(len(body))}, nil
}

func (f *fakeStore) StatObject(_ context.Context, bucket, key string) (*filestore.ObjectInfo, error) {
	return &filestore.ObjectInfo{Bucket: bucket, Key: key}, nil
}

func (f *fakeStore) PresignGetURL(context.Context, string, string, time.Duration) (string, error) {
	return "", nil
}

// keepOpen lets one fixture serve several command runs.
type keepOpen struct{ database.DB }

func (keepOpen) Close() {}

type harness struct {
	app    *app
	stdout *bytes.Buffer
	stderr *bytes.Buffer
	store  *fakeStore
}

func newHarness(t *testing.T, setup ...string) *harness {
	t.Helper()
	db := testutil.SQLite(t, setup...)
	h := &harness{stdout: &bytes.Buffer{}, stderr: &bytes.Buffer{}, store: &fakeStore{}}
	h.app = &app{
		stdout: h.stdout,
		stderr: h.stderr,
		openWarehouse: func(context.Context, *database.Config) (database.DB, error) {
			return keepOpen{db}, nil
		},
		openStore: func(context.Context, *filestore.Config) (filestore.Store, error) {
			return h.store, nil
		},
	}
	return h
}

func (h *harness) run(args ...string) error {
	root := newRootCommand(h.app)
	root.SetArgs(append([]string{"--driver", "sqlite", "--dsn", ":memory:"}, args...))
	root.SetOut(h.stdout)
	root.SetErr(h.stderr)
	return root.ExecuteContext(context.Background())
}

func (h *harness) document(t *testing.T) report.Document {
	t.Helper()
	var doc report.Document
	require.NoError(t, json.Unmarshal(h.stdout.Bytes(), &doc), h.stdout.String())
	return doc
}

func TestTables_JSON(t *testing.T) {
	h := newHarness(t, fixture...)

	err := h.run("tables", "--progress=false", "-f", "json",
		"--source-db", "main", "--source-schema", "src",
		"--target-db", "main", "--target-schema", "tgt",
		"--table", "ORDERS", "--table", "CUSTOMERS,REFUNDS")
	require.NoError(t, err)

	doc := h.document(t)
	require.Len(t, doc.Outcomes, 3)
	assert.Equal(t, compare.StatusMatch, doc.Outcomes[0].Status)
	assert.Equal(t, compare.StatusOnlyInSource, doc.Outcomes[1].Status)
	assert.Equal(t, compare.StatusCountMismatch, doc.Outcomes[2].Status)
	assert.Equal(t, report.Summary{Total: 3, Matches: 1, Mismatches: 1, OnlyInSource: 1}, doc.Summary)
}

func TestTables_FailOnDiff(t *testing.T) {
	h := newHarness(t, fixture...)

	err := h.run("tables", "--progress=false", "--fail-on-diff",
		"--source-db", "main", "--source-schema", "src",
		"--target-db", "main", "--target-schema", "tgt",
		"--table", "ORDERS,REFUNDS")
	require.ErrorIs(t, err, ErrDifferencesFound)
	assert.Contains(t, err.Error(), "1 of 2 tables")
	// the report is still written
	assert.Contains(t, h.stdout.String(), "REFUNDS")
}

func TestTables_AllMatchPassesFailOnDiff(t *testing.T) {
	h := newHarness(t, fixture...)

	err := h.run("tables", "--progress=false", "--fail-on-diff",
		"--source-db", "main", "--source-schema", "src",
		"--target-db", "main", "--target-schema", "tgt",
		"--table", "ORDERS")
	require.NoError(t, err)
}

func TestTables_ProgressOnStderr(t *testing.T) {
	h := newHarness(t, fixture...)

	err := h.run("tables", "-f", "csv",
		"--source-db", "main", "--source-schema", "src",
		"--target-db", "main", "--target-schema", "tgt",
		"--table", "ORDERS")
	require.NoError(t, err)
	assert.Contains(t, h.stderr.String(), "1/1 ORDERS MATCH")
	assert.NotContains(t, h.stdout.String(), "1/1")
}

func TestTables_OutputFile(t *testing.T) {
	h := newHarness(t, fixture...)
	path := filepath.Join(t.TempDir(), "report.yaml")

	err := h.run("tables", "--progress=false", "-f", "yaml", "-o", path,
		"--source-db", "main", "--source-schema", "src",
		"--target-db", "main", "--target-schema", "tgt",
		"--table", "ORDERS")
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "status: MATCH")
	assert.Empty(t, h.stdout.String())
}

// reportFile is a WriteCloser whose writes or Close can fail.
type reportFile struct {
	bytes.Buffer
	writeErr error
	closeErr error
	closed   bool
}

func (f *reportFile) Write(p []byte) (int, error) {
	if f.writeErr != nil {
		return 0, f.writeErr
	}
	return f.Buffer.Write(p)
}

func (f *reportFile) Close() error {
	f.closed = true
	return f.closeErr
}

func TestWriteAndClose(t *testing.T) {
	rep := &batch.Report{Mode: batch.ModeTables}

	t.Run("close error is returned", func(t *testing.T) {
		f := &reportFile{closeErr: errors.New("disk full")}
		err := writeAndClose(f, rep, report.FormatJSON)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "closing report file: disk full")
		assert.NotEmpty(t, f.String())
	})

	t.Run("render error wins and the file is still closed", func(t *testing.T) {
		f := &reportFile{writeErr: errors.New("broken pipe"), closeErr: errors.New("disk full")}
		err := writeAndClose(f, rep, report.FormatJSON)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "rendering report")
		assert.True(t, f.closed)
	})

	t.Run("success", func(t *testing.T) {
		f := &reportFile{}
		require.NoError(t, writeAndClose(f, rep, report.FormatCSV))
		assert.True(t, f.closed)
		assert.True(t, strings.HasPrefix(f.String(), "source_database,"))
	})
}

func TestTables_UnknownFormat(t *testing.T) {
	h := newHarness(t)
	err := h.run("tables", "-f", "xml", "--table", "ORDERS")
	require.Error(t, err)
	assert.True(t, errs.IsInvalidInput(err))
}

func TestSchemas_SetSemanticsWithWorkers(t *testing.T) {
	h := newHarness(t, fixture...)

	err := h.run("schemas", "--progress=false", "-f", "json",
		"--workers", "3", "--semantics", "set",
		"--source-db", "main", "--source-schemas", "src",
		"--target-db", "main", "--target-schemas", "tgt")
	require.NoError(t, err)

	doc := h.document(t)
	var tables []string
	for _, o := range doc.Outcomes {
		tables = append(tables, o.Table())
	}
	assert.Equal(t, []string{"CUSTOMERS", "ORDERS", "REFUNDS"}, tables)
}

func TestSchemas_MismatchedLengths(t *testing.T) {
	h := newHarness(t, fixture...)

	err := h.run("schemas", "--progress=false",
		"--source-db", "main", "--source-schemas", "src,src",
		"--target-db", "main", "--target-schemas", "tgt")
	require.Error(t, err)
	assert.True(t, errs.IsInvalidInput(err))
	assert.Empty(t, h.stdout.String())
}

func TestTables_Export(t *testing.T) {
	t.Setenv("TABLECOMPARE_EXPORT_ENDPOINT", "localhost:9000")
	h := newHarness(t, fixture...)

	err := h.run("tables", "--progress=false", "--export", "--compression", "gzip",
		"--source-db", "main", "--source-schema", "src",
		"--target-db", "main", "--target-schema", "tgt",
		"--table", "ORDERS")
	require.NoError(t, err)

	require.Len(t, h.store.puts, 1)
	put := h.store.puts[0]
	assert.Equal(t, "tablecompare-reports", put.bucket)
	assert.True(t, strings.HasSuffix(put.key, "-tables.json.gz"), put.key)
	assert.NotEmpty(t, put.body)
	assert.Contains(t, h.stderr.String(), "report uploaded to tablecompare-reports/")
}

func TestConfig_MissingDriver(t *testing.T) {
	h := newHarness(t)
	root := newRootCommand(h.app)
	root.SetArgs([]string{"catalog", "databases"})
	err := root.ExecuteContext(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, config.ErrDriverRequired)
}

func TestConfig_InvalidWorkers(t *testing.T) {
	h := newHarness(t)
	err := h.run("--workers", "0", "catalog", "databases")
	assert.ErrorIs(t, err, config.ErrWorkersMinimum)
}

func TestConfig_FileAndFlagPrecedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tablecompare.yaml")
	require.NoError(t, os.WriteFile(path, []byte("compare:\n  workers: 3\n  semantics: set\nlog:\n  level: debug\n"), 0o600))

	h := newHarness(t)
	root := newRootCommand(h.app)
	root.SetArgs([]string{"--config", path, "--driver", "sqlite", "--dsn", "x", "--semantics", "multiset", "catalog", "databases"})
	require.NoError(t, root.ExecuteContext(context.Background()))

	assert.Equal(t, 3, h.app.cfg.Compare.Workers)
	assert.Equal(t, "multiset", h.app.cfg.Compare.Semantics)
	assert.Equal(t, "debug", h.app.cfg.Log.Level)
}

func TestCatalog_Commands(t *testing.T) {
	h := newHarness(t, fixture...)

	require.NoError(t, h.run("catalog", "schemas", "main"))
	assert.Equal(t, "main\nsrc\ntgt\n", h.stdout.String())

	h.stdout.Reset()
	require.NoError(t, h.run("catalog", "tables", "main", "src"))
	assert.Equal(t, "CUSTOMERS\nORDERS\nREFUNDS\n", h.stdout.String())

	h.stdout.Reset()
	require.NoError(t, h.run("catalog", "columns", "main", "src", "CUSTOMERS"))
	assert.Equal(t, "id\nname\n", h.stdout.String())
}

func TestCatalog_FailureIsWarning(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.run("catalog", "tables", "main", "nope"))
	assert.Empty(t, h.stdout.String())
	assert.Contains(t, h.stderr.String(), "warning: metadata_query_failure: failed to list tables in main.nope")
}

func TestCatalog_ArgCount(t *testing.T) {
	h := newHarness(t)
	err := h.run("catalog", "columns", "main", "src")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrDifferencesFound))
}

func TestOpenWarehouse_UnknownDriver(t *testing.T) {
	_, err := openWarehouse(context.Background(), database.DefaultConfig("oracle", "dsn"))
	assert.Error(t, err)
}
