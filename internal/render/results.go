package render

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/AndreyAkinshin/testbridge/internal/outcome"
	"github.com/AndreyAkinshin/testbridge/internal/runner"
	"github.com/AndreyAkinshin/testbridge/internal/session"
)

// ResultsOptions configures Results.
type ResultsOptions struct {
	Color bool
	// MessageWidth caps the message column; zero means 60.
	MessageWidth int
}

// Results writes a table with one row per reported test, followed by totals.
// Dispatched tests without an outcome are listed as "no result".
func Results(w io.Writer, rep *runner.Report, results []session.Result, opts ResultsOptions) {
	width := opts.MessageWidth
	if width <= 0 {
		width = 60
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle(fmt.Sprintf("Test Results (%s)", formatDuration(rep.Duration)))
	t.AppendHeader(table.Row{"Status", "Test", "Duration", "Message"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Test", WidthMax: 60, WidthMaxEnforcer: text.WrapSoft},
		{Name: "Duration", Align: text.AlignRight},
		{Name: "Message", WidthMax: width, WidthMaxEnforcer: text.WrapSoft},
	})

	for _, r := range results {
		t.AppendRow(table.Row{
			statusString(r.Status, opts.Color),
			r.Node.ID(),
			formatDuration(r.Duration),
			firstLine(r.Message),
		})
	}
	for _, id := range rep.Missing {
		t.AppendRow(table.Row{"no result", id, "-", ""})
	}

	t.AppendFooter(table.Row{
		"TOTAL",
		fmt.Sprintf("%d dispatched", rep.Dispatched),
		formatDuration(rep.Duration),
		summary(rep),
	})

	switch {
	case !opts.Color:
		t.SetStyle(table.StyleLight)
	case rep.Failures() > 0:
		t.SetStyle(table.StyleColoredBlackOnRedWhite)
	case len(rep.Missing) > 0:
		t.SetStyle(table.StyleColoredBlackOnYellowWhite)
	default:
		t.SetStyle(table.StyleColoredBlackOnGreenWhite)
	}

	t.Render()
}

func summary(rep *runner.Report) string {
	parts := []string{
		fmt.Sprintf("%d passed", rep.Reported[outcome.StatusPassed]),
		fmt.Sprintf("%d failed", rep.Reported[outcome.StatusFailed]),
		fmt.Sprintf("%d errored", rep.Reported[outcome.StatusErrored]),
	}
	if n := rep.Reported[outcome.StatusSkipped]; n > 0 {
		parts = append(parts, fmt.Sprintf("%d skipped", n))
	}
	if n := len(rep.Missing); n > 0 {
		parts = append(parts, fmt.Sprintf("%d without result", n))
	}
	return strings.Join(parts, ", ")
}

func statusString(s outcome.Status, color bool) string {
	label := strings.ToUpper(s.String())
	if !color {
		return label
	}
	switch s {
	case outcome.StatusPassed:
		return text.Colors{text.FgGreen}.Sprint(label)
	case outcome.StatusFailed, outcome.StatusErrored:
		return text.Colors{text.FgRed}.Sprint(label)
	default:
		return text.Colors{text.FgYellow}.Sprint(label)
	}
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}

// formatDuration formats d in seconds with millisecond precision.
func formatDuration(d time.Duration) string {
	return fmt.Sprintf("%.3fs", d.Seconds())
}
