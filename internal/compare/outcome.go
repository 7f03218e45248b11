package compare

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// TableIdentifier is a fully qualified table reference. The three names are
// opaque; they are only quoted into SQL and displayed.
type TableIdentifier struct {
	Database string `json:"database" yaml:"database"`
	Schema   string `json:"schema" yaml:"schema"`
	Table    string `json:"table" yaml:"table"`
}

func (t TableIdentifier) String() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{t.Database, t.Schema, t.Table} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ".")
}

// Status classifies one compared table pair.
type Status string

const (
	StatusMatch         Status = "MATCH"
	StatusMismatch      Status = "MISMATCH"
	StatusCountMismatch Status = "COUNT_MISMATCH"
	StatusOnlyInSource  Status = "ONLY_IN_SOURCE"
	StatusError         Status = "ERROR"
)

// CountState says whether a Count holds a number.
type CountState uint8

const (
	CountKnown CountState = iota
	CountNotApplicable
	CountFailed
)

const (
	notApplicableText = "N/A"
	failedText        = "ERROR"
)

// Count is a row count or one of two sentinels: not applicable (the value
// was never computed on purpose) and failed.
type Count struct {
	N     int64
	State CountState
}

// Known wraps a computed count.
func Known(n int64) Count { return Count{N: n} }

// NotApplicable marks a count that was deliberately skipped.
func NotApplicable() Count { return Count{State: CountNotApplicable} }

// Failed marks a count whose computation failed.
func Failed() Count { return Count{State: CountFailed} }

// Value returns the count and whether it is known.
func (c Count) Value() (int64, bool) {
	return c.N, c.State == CountKnown
}

func (c Count) String() string {
	switch c.State {
	case CountNotApplicable:
		return notApplicableText
	case CountFailed:
		return failedText
	default:
		return strconv.FormatInt(c.N, 10)
	}
}

// MarshalJSON writes a number, or the sentinel as a string.
func (c Count) MarshalJSON() ([]byte, error) {
	if c.State == CountKnown {
		return []byte(strconv.FormatInt(c.N, 10)), nil
	}
	return json.Marshal(c.String())
}

// UnmarshalJSON accepts what MarshalJSON writes.
func (c *Count) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		switch s {
		case notApplicableText:
			*c = NotApplicable()
			return nil
		case failedText:
			*c = Failed()
			return nil
		}
		return fmt.Errorf("unknown count sentinel %q", s)
	}

	var n int64
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("count must be an integer or a sentinel: %w", err)
	}
	*c = Known(n)
	return nil
}

// MarshalYAML writes a number, or the sentinel as a string.
func (c Count) MarshalYAML() (any, error) {
	if c.State == CountKnown {
		return c.N, nil
	}
	return c.String(), nil
}

// Outcome is the result of comparing one table pair.
//
// Status MATCH holds exactly when Matched is true, and then both difference
// counts are zero and the row counts are equal. COUNT_MISMATCH leaves both
// differences not applicable. ONLY_IN_SOURCE leaves the target count and
// both differences not applicable. ERROR marks every count failed and sets
// Error.
type Outcome struct {
	Source       TableIdentifier `json:"source" yaml:"source"`
	Target       TableIdentifier `json:"target" yaml:"target"`
	SourceRows   Count           `json:"source_rows" yaml:"source_rows"`
	TargetRows   Count           `json:"target_rows" yaml:"target_rows"`
	OnlyInSource Count           `json:"rows_only_in_source" yaml:"rows_only_in_source"`
	OnlyInTarget Count           `json:"rows_only_in_target" yaml:"rows_only_in_target"`
	Matched      bool            `json:"matched" yaml:"matched"`
	Status       Status          `json:"status" yaml:"status"`
	Error        string          `json:"error,omitempty" yaml:"error,omitempty"`
}

// Table returns the name shared by both sides, or source->target when
// they differ.
func (o Outcome) Table() string {
	if o.Source.Table == o.Target.Table {
		return o.Source.Table
	}
	return o.Source.Table + "->" + o.Target.Table
}

// CountMismatch builds the outcome for differing row counts.
func CountMismatch(source, target TableIdentifier, sourceRows, targetRows int64) Outcome {
	return Outcome{
		Source:       source,
		Target:       target,
		SourceRows:   Known(sourceRows),
		TargetRows:   Known(targetRows),
		OnlyInSource: NotApplicable(),
		OnlyInTarget: NotApplicable(),
		Status:       StatusCountMismatch,
	}
}

// Differences builds the outcome once both set differences are known.
func Differences(source, target TableIdentifier, rows, onlyInSource, onlyInTarget int64) Outcome {
	matched := onlyInSource == 0 && onlyInTarget == 0
	status := StatusMismatch
	if matched {
		status = StatusMatch
	}
	return Outcome{
		Source:       source,
		Target:       target,
		SourceRows:   Known(rows),
		TargetRows:   Known(rows),
		OnlyInSource: Known(onlyInSource),
		OnlyInTarget: Known(onlyInTarget),
		Matched:      matched,
		Status:       status,
	}
}

// SourceOnly builds the outcome for a target table that cannot be read.
func SourceOnly(source, target TableIdentifier, sourceRows Count) Outcome {
	return Outcome{
		Source:       source,
		Target:       target,
		SourceRows:   sourceRows,
		TargetRows:   NotApplicable(),
		OnlyInSource: NotApplicable(),
		OnlyInTarget: NotApplicable(),
		Status:       StatusOnlyInSource,
	}
}

// Failure builds the outcome for a comparison that could not complete.
func Failure(source, target TableIdentifier, err error) Outcome {
	return Outcome{
		Source:       source,
		Target:       target,
		SourceRows:   Failed(),
		TargetRows:   Failed(),
		OnlyInSource: Failed(),
		OnlyInTarget: Failed(),
		Status:       StatusError,
		Error:        err.Error(),
	}
}
