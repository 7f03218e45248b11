package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"go.yaml.in/yaml/v3"

	"github.com/koustreak/tablecompare/internal/batch"
	"github.com/koustreak/tablecompare/internal/compare"
	"github.com/koustreak/tablecompare/internal/errs"
)

// Format selects a renderer.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatCSV  Format = "csv"
)

// ParseFormat validates a format name; empty means text.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatText, nil
	case FormatText, FormatJSON, FormatYAML, FormatCSV:
		return f, nil
	case "yml":
		return FormatYAML, nil
	default:
		return "", errs.Newf(errs.ErrKindInvalidInput, "unknown report format %q (want text, json, yaml or csv)", s)
	}
}

// Extension is the file extension for the format, without a dot.
func (f Format) Extension() string {
	if f == FormatText {
		return "txt"
	}
	return string(f)
}

// ContentType is the MIME type for the format.
func (f Format) ContentType() string {
	switch f {
	case FormatJSON:
		return "application/json"
	case FormatYAML:
		return "application/yaml"
	case FormatCSV:
		return "text/csv"
	default:
		return "text/plain; charset=utf-8"
	}
}

// Render writes r to w in format f.
func Render(w io.Writer, r *batch.Report, f Format) error {
	switch f {
	case FormatJSON:
		return renderJSON(w, r)
	case FormatYAML:
		return renderYAML(w, r)
	case FormatCSV:
		return renderCSV(w, r)
	case FormatText, "":
		return renderText(w, r)
	default:
		return errs.Newf(errs.ErrKindInvalidInput, "unknown report format %q", f)
	}
}

func renderJSON(w io.Writer, r *batch.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(NewDocument(r))
}

func renderYAML(w io.Writer, r *batch.Report) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(NewDocument(r)); err != nil {
		return err
	}
	return enc.Close()
}

var csvHeader = []string{
	"source_database", "source_schema", "target_database", "target_schema", "table",
	"source_rows", "target_rows", "rows_only_in_source", "rows_only_in_target",
	"matched", "status", "error",
}

func renderCSV(w io.Writer, r *batch.Report) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, o := range r.Outcomes {
		err := cw.Write([]string{
			o.Source.Database, o.Source.Schema, o.Target.Database, o.Target.Schema, o.Table(),
			o.SourceRows.String(), o.TargetRows.String(), o.OnlyInSource.String(), o.OnlyInTarget.String(),
			strconv.FormatBool(o.Matched), string(o.Status), o.Error,
		})
		if err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FFAA00"))
	titleStyle   = lipgloss.NewStyle().Bold(true)
	plainStyle   = lipgloss.NewStyle()
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFD700"))

	statusStyles = map[compare.Status]lipgloss.Style{
		compare.StatusMatch:         lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575")),
		compare.StatusMismatch:      lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5F5F")),
		compare.StatusCountMismatch: lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5F5F")),
		compare.StatusOnlyInSource:  warningStyle,
		compare.StatusError:         mutedStyle,
	}

	textHeader = []string{"TABLE", "SOURCE", "TARGET", "SOURCE ROWS", "TARGET ROWS", "ONLY IN SOURCE", "ONLY IN TARGET", "STATUS"}
)

func renderText(w io.Writer, r *batch.Report) error {
	var b strings.Builder

	if len(r.Outcomes) == 0 {
		b.WriteString(mutedStyle.Render("No comparison results generated") + "\n")
	} else {
		writeTable(&b, r.Outcomes)
	}

	s := Summarize(r)
	fmt.Fprintf(&b, "\n%s\n", titleStyle.Render("Summary"))
	fmt.Fprintf(&b, "  Total tables:   %d\n", s.Total)
	fmt.Fprintf(&b, "  Matches:        %s\n", statusStyles[compare.StatusMatch].Render(strconv.Itoa(s.Matches)))
	fmt.Fprintf(&b, "  Mismatches:     %s\n", statusStyles[compare.StatusMismatch].Render(strconv.Itoa(s.Mismatches)))
	fmt.Fprintf(&b, "  Only in source: %d\n", s.OnlyInSource)
	fmt.Fprintf(&b, "  Errors:         %d\n", s.Errors)

	if only := OnlyInSource(r); len(only) > 0 {
		fmt.Fprintf(&b, "\n%s\n", warningStyle.Render("Tables only in source"))
		for _, t := range only {
			fmt.Fprintf(&b, "  %s\n", t)
		}
	}

	for _, o := range r.Outcomes {
		if o.Status == compare.StatusError {
			fmt.Fprintf(&b, "\n%s\n", titleStyle.Render("Errors"))
			break
		}
	}
	for _, o := range r.Outcomes {
		if o.Status == compare.StatusError {
			fmt.Fprintf(&b, "  %s: %s\n", o.Source, o.Error)
		}
	}

	if len(r.Diagnostics) > 0 {
		fmt.Fprintf(&b, "\n%s\n", warningStyle.Render("Warnings"))
		for _, d := range r.Diagnostics {
			fmt.Fprintf(&b, "  %s\n", d.Message)
		}
	}

	if r.Truncated {
		fmt.Fprintf(&b, "\n%s\n", warningStyle.Render("Run cancelled: the report is partial."))
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func writeTable(b *strings.Builder, outcomes []compare.Outcome) {
	rows := make([][]string, 0, len(outcomes))
	for _, o := range outcomes {
		rows = append(rows, []string{
			o.Table(),
			qualifier(o.Source),
			qualifier(o.Target),
			o.SourceRows.String(),
			o.TargetRows.String(),
			o.OnlyInSource.String(),
			o.OnlyInTarget.String(),
			string(o.Status),
		})
	}

	widths := make([]int, len(textHeader))
	for i, h := range textHeader {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			widths[i] = max(widths[i], lipgloss.Width(cell))
		}
	}

	cells := make([]string, len(textHeader))
	for i, h := range textHeader {
		cells[i] = cellStyle(headerStyle, widths[i]).Render(h)
	}
	b.WriteString(strings.TrimRight(strings.Join(cells, "  "), " ") + "\n")

	for ri, row := range rows {
		status := outcomes[ri].Status
		for i, cell := range row {
			base := plainStyle
			if i == len(row)-1 {
				base = statusStyles[status]
			}
			cells[i] = cellStyle(base, widths[i]).Render(cell)
		}
		b.WriteString(strings.TrimRight(strings.Join(cells, "  "), " ") + "\n")
	}
}

// cellStyle pads to width on a copy; lipgloss styles share their rules
// with plain assignments, so the package styles must never be sized.
func cellStyle(base lipgloss.Style, width int) lipgloss.Style {
	return base.Copy().Width(width)
}

// qualifier is the database.schema part of a table identifier.
func qualifier(t compare.TableIdentifier) string {
	t.Table = ""
	return t.String()
}
