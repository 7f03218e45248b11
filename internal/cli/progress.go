package cli

import (
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"

	"github.com/koustreak/tablecompare/internal/batch"
)

var progressInfoStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))

// progressPrinter redraws a single progress line on w.
type progressPrinter struct {
	mu      sync.Mutex
	w       io.Writer
	bar     progress.Model
	enabled bool
	drawn   bool
}

func newProgressPrinter(w io.Writer, enabled bool) *progressPrinter {
	return &progressPrinter{
		w:       w,
		bar:     progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
		enabled: enabled,
	}
}

// Observe is a batch.Observer.
func (p *progressPrinter) Observe(pr batch.Progress) {
	if !p.enabled || pr.Total == 0 {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	line := fmt.Sprintf("%d/%d %s %s", pr.Done, pr.Total, pr.Table, pr.Status)
	fmt.Fprintf(p.w, "\r\033[K%s %s", p.bar.ViewAs(float64(pr.Done)/float64(pr.Total)), progressInfoStyle.Render(line))
	p.drawn = true
}

// Finish ends the progress line.
func (p *progressPrinter) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.drawn {
		fmt.Fprintln(p.w)
		p.drawn = false
	}
}
