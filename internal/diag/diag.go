// Package diag carries the human-readable diagnostics that the comparison
// core raises while it recovers from failures: metadata queries that came
// back empty because they failed, skipped schema pairs, rejected batches.
//
// The core never returns these as errors. It hands them to a Notifier and
// keeps going; the caller decides whether to log, display or collect them.
package diag

import (
	"fmt"
	"sync"

	"github.com/koustreak/tablecompare/internal/logger"
)

// Kind classifies a diagnostic.
type Kind string

const (
	KindMetadataQuery  Kind = "metadata_query_failure"
	KindPrecondition   Kind = "precondition_violation"
	KindEmptySelection Kind = "empty_selection"
	KindSkippedPair    Kind = "skipped_schema_pair"
)

// Diagnostic is one surfaced message.
type Diagnostic struct {
	Kind    Kind   `json:"kind" yaml:"kind"`
	Message string `json:"message" yaml:"message"`
	Err     error  `json:"-" yaml:"-"`
}

// New builds a diagnostic whose message ends with err's text when err is set.
func New(kind Kind, err error, format string, args ...any) Diagnostic {
	msg := fmt.Sprintf(format, args...)
	if err != nil {
		msg += ": " + err.Error()
	}
	return Diagnostic{Kind: kind, Message: msg, Err: err}
}

func (d Diagnostic) String() string {
	return string(d.Kind) + ": " + d.Message
}

// Notifier receives diagnostics. Implementations must be safe for
// concurrent use.
type Notifier interface {
	Notify(Diagnostic)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Diagnostic)

func (f NotifierFunc) Notify(d Diagnostic) { f(d) }

// Discard drops every diagnostic.
var Discard Notifier = NotifierFunc(func(Diagnostic) {})

// Collector buffers diagnostics in arrival order.
type Collector struct {
	mu    sync.Mutex
	items []Diagnostic
}

func (c *Collector) Notify(d Diagnostic) {
	c.mu.Lock()
	c.items = append(c.items, d)
	c.mu.Unlock()
}

// Diagnostics returns a copy of everything collected so far.
func (c *Collector) Diagnostics() []Diagnostic {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Diagnostic, len(c.items))
	copy(out, c.items)
	return out
}

// Tee forwards each diagnostic to every non-nil notifier.
func Tee(notifiers ...Notifier) Notifier {
	return NotifierFunc(func(d Diagnostic) {
		for _, n := range notifiers {
			if n != nil {
				n.Notify(d)
			}
		}
	})
}

// Log writes diagnostics to l at warn level.
func Log(l *logger.Logger) Notifier {
	return NotifierFunc(func(d Diagnostic) {
		l.WarnWith(d.Message, d.Err, map[string]any{"diagnostic": string(d.Kind)})
	})
}
