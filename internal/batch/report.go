package batch

import (
	"time"

	"github.com/koustreak/tablecompare/internal/compare"
	"github.com/koustreak/tablecompare/internal/diag"
)

// Mode names the entry point that produced a report.
type Mode string

const (
	ModeTables  Mode = "tables"
	ModeSchemas Mode = "schemas"
)

// Scope addresses one side of a comparison. On engines with a single
// namespace level above tables, Schema may be empty.
type Scope struct {
	Database string `json:"database" yaml:"database"`
	Schema   string `json:"schema" yaml:"schema"`
}

func (s Scope) table(name string) compare.TableIdentifier {
	return compare.TableIdentifier{Database: s.Database, Schema: s.Schema, Table: name}
}

// Report is the ordered result of one batch run. Outcomes follow request
// order: caller order for explicit tables, pair order then ascending table
// name for schema pairs.
type Report struct {
	Mode        Mode              `json:"mode" yaml:"mode"`
	Outcomes    []compare.Outcome `json:"outcomes" yaml:"outcomes"`
	Truncated   bool              `json:"truncated" yaml:"truncated"`
	Diagnostics []diag.Diagnostic `json:"diagnostics" yaml:"diagnostics"`
	StartedAt   time.Time         `json:"started_at" yaml:"started_at"`
	FinishedAt  time.Time         `json:"finished_at" yaml:"finished_at"`
}

// Empty reports whether the run produced no outcomes.
func (r *Report) Empty() bool {
	return len(r.Outcomes) == 0
}

// Progress is handed to the Observer after each table pair completes.
type Progress struct {
	Done   int
	Total  int
	Table  string
	Status compare.Status
}

// Observer receives progress. Calls are serialised.
type Observer func(Progress)
