package report

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v3"
	"gotest.tools/v3/golden"

	"github.com/koustreak/tablecompare/internal/batch"
	"github.com/koustreak/tablecompare/internal/compare"
	"github.com/koustreak/tablecompare/internal/diag"
	"github.com/koustreak/tablecompare/internal/errs"
)

func id(schema, table string) compare.TableIdentifier {
	return compare.TableIdentifier{Database: "ANALYTICS", Schema: schema, Table: table}
}

func fixture() *batch.Report {
	return &batch.Report{
		Mode:       batch.ModeTables,
		StartedAt:  time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
		FinishedAt: time.Date(2026, 3, 1, 10, 0, 5, 0, time.UTC),
		Outcomes: []compare.Outcome{
			compare.Differences(id("SRC", "CUSTOMERS"), id("TGT", "CUSTOMERS"), 3, 0, 0),
			compare.Differences(id("SRC", "ORDERS"), id("TGT", "ORDERS"), 100, 1, 1),
			compare.CountMismatch(id("SRC", "REFUNDS"), id("TGT", "REFUNDS"), 10, 9),
			compare.SourceOnly(id("SRC", "RETURNS"), id("TGT", "RETURNS"), compare.Known(4)),
			compare.Failure(id("SRC", "LEDGER"), id("TGT", "LEDGER"),
				errors.New("counting rows of ANALYTICS.SRC.LEDGER: connection refused")),
		},
		Diagnostics: []diag.Diagnostic{
			diag.New(diag.KindMetadataQuery, errors.New("insufficient privileges"), "failed to list tables in ANALYTICS.AUDIT"),
		},
	}
}

func TestSummarize(t *testing.T) {
	assert.Equal(t, Summary{Total: 5, Matches: 1, Mismatches: 2, OnlyInSource: 1, Errors: 1}, Summarize(fixture()))
	assert.Equal(t, Summary{}, Summarize(&batch.Report{}))
}

func TestOnlyInSource(t *testing.T) {
	assert.Equal(t, []compare.TableIdentifier{id("SRC", "RETURNS")}, OnlyInSource(fixture()))
	assert.NotNil(t, OnlyInSource(&batch.Report{}))
}

func TestParseFormat(t *testing.T) {
	tests := map[string]Format{"": FormatText, "JSON": FormatJSON, "yml": FormatYAML, " csv ": FormatCSV, "text": FormatText}
	for in, want := range tests {
		got, err := ParseFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}

	_, err := ParseFormat("xlsx")
	assert.True(t, errs.IsInvalidInput(err))
	assert.Equal(t, "txt", FormatText.Extension())
	assert.Equal(t, "csv", FormatCSV.Extension())
}

func TestRender_CSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, fixture(), FormatCSV))
	golden.Assert(t, buf.String(), "report.csv.golden")
}

func TestRender_JSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, fixture(), FormatJSON))
	golden.Assert(t, buf.String(), "report.json.golden")
}

func TestRender_JSONEmptyReport(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, &batch.Report{Mode: batch.ModeSchemas}, FormatJSON))

	assert.Contains(t, buf.String(), `"outcomes": []`)
	assert.Contains(t, buf.String(), `"diagnostics": []`)
}

func TestRender_YAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, fixture(), FormatYAML))

	var doc map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, "tables", doc["mode"])

	outcomes, ok := doc["outcomes"].([]any)
	require.True(t, ok)
	require.Len(t, outcomes, 5)
	refunds := outcomes[2].(map[string]any)
	assert.Equal(t, 10, refunds["source_rows"])
	assert.Equal(t, "N/A", refunds["rows_only_in_source"])
	assert.Equal(t, "COUNT_MISMATCH", refunds["status"])
}

func TestRender_Text(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, fixture(), FormatText))
	out := buf.String()

	for _, want := range []string{
		"TABLE", "ONLY IN SOURCE", "CUSTOMERS", "COUNT_MISMATCH",
		"Total tables:   5",
		"Tables only in source",
		"ANALYTICS.SRC.RETURNS",
		"ANALYTICS.SRC.LEDGER: counting rows of ANALYTICS.SRC.LEDGER: connection refused",
		"failed to list tables in ANALYTICS.AUDIT: insufficient privileges",
	} {
		assert.Contains(t, out, want)
	}
	assert.NotContains(t, out, "partial")
}

func TestRender_TextEmptyAndTruncated(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, &batch.Report{Truncated: true}, FormatText))

	assert.Contains(t, buf.String(), "No comparison results generated")
	assert.Contains(t, buf.String(), "Run cancelled: the report is partial.")
}

func TestRender_TextIsStableAcrossRenders(t *testing.T) {
	render := func(r *batch.Report) string {
		var buf bytes.Buffer
		require.NoError(t, Render(&buf, r, FormatText))
		return buf.String()
	}
	empty := &batch.Report{Truncated: true}

	before := render(empty)
	table := render(fixture())
	after := render(empty)

	assert.Equal(t, before, after)
	assert.Equal(t, table, render(fixture()))
	assert.Contains(t, after, "No comparison results generated\n")
	assert.Contains(t, table, "Tables only in source\n")
	assert.Contains(t, table, "\nWarnings\n")
}

func TestRender_UnknownFormat(t *testing.T) {
	err := Render(&bytes.Buffer{}, fixture(), Format("xml"))
	assert.True(t, errs.IsInvalidInput(err))
}
