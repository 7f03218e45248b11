// Package report turns a batch.Report into something people read: summary
// counts, renderings in several formats and compressed uploads to object
// storage.
package report

import (
	"time"

	"github.com/koustreak/tablecompare/internal/batch"
	"github.com/koustreak/tablecompare/internal/compare"
	"github.com/koustreak/tablecompare/internal/diag"
)

// Summary counts outcomes by status. Mismatches include COUNT_MISMATCH.
type Summary struct {
	Total        int `json:"total" yaml:"total"`
	Matches      int `json:"matches" yaml:"matches"`
	Mismatches   int `json:"mismatches" yaml:"mismatches"`
	OnlyInSource int `json:"only_in_source" yaml:"only_in_source"`
	Errors       int `json:"errors" yaml:"errors"`
}

// Summarize counts the outcomes of r.
func Summarize(r *batch.Report) Summary {
	s := Summary{Total: len(r.Outcomes)}
	for _, o := range r.Outcomes {
		switch o.Status {
		case compare.StatusMatch:
			s.Matches++
		case compare.StatusMismatch, compare.StatusCountMismatch:
			s.Mismatches++
		case compare.StatusOnlyInSource:
			s.OnlyInSource++
		case compare.StatusError:
			s.Errors++
		}
	}
	return s
}

// OnlyInSource lists the source tables whose target could not be read.
func OnlyInSource(r *batch.Report) []compare.TableIdentifier {
	out := []compare.TableIdentifier{}
	for _, o := range r.Outcomes {
		if o.Status == compare.StatusOnlyInSource {
			out = append(out, o.Source)
		}
	}
	return out
}

// Document is the serialised form of a report, shared by the JSON and YAML
// renderers and the HTTP API.
type Document struct {
	Mode         batch.Mode                `json:"mode" yaml:"mode"`
	StartedAt    time.Time                 `json:"started_at" yaml:"started_at"`
	FinishedAt   time.Time                 `json:"finished_at" yaml:"finished_at"`
	Truncated    bool                      `json:"truncated" yaml:"truncated"`
	Summary      Summary                   `json:"summary" yaml:"summary"`
	Outcomes     []compare.Outcome         `json:"outcomes" yaml:"outcomes"`
	OnlyInSource []compare.TableIdentifier `json:"only_in_source" yaml:"only_in_source"`
	Diagnostics  []diag.Diagnostic         `json:"diagnostics" yaml:"diagnostics"`
}

// NewDocument builds the Document for r. Slices are never nil so that
// empty lists serialise as [] rather than null.
func NewDocument(r *batch.Report) Document {
	d := Document{
		Mode:         r.Mode,
		StartedAt:    r.StartedAt,
		FinishedAt:   r.FinishedAt,
		Truncated:    r.Truncated,
		Summary:      Summarize(r),
		Outcomes:     r.Outcomes,
		OnlyInSource: OnlyInSource(r),
		Diagnostics:  r.Diagnostics,
	}
	if d.Outcomes == nil {
		d.Outcomes = []compare.Outcome{}
	}
	if d.Diagnostics == nil {
		d.Diagnostics = []diag.Diagnostic{}
	}
	return d
}
