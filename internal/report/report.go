// Package report renders benchmark results: a markdown grid of corrected
// averages for sharing, and a styled variant for the terminal.
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/snapbench/snapbench/internal/meter"
)

const noResult = "n/a"

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	naStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// Markdown renders the corrected-average grid as a markdown table. Rows are
// X scales, columns Y scales, cells the corrected average in milliseconds.
func Markdown(res *meter.RunResult) string {
	scales := res.Options.Scales()
	cells := cellIndex(res)

	var b strings.Builder

	b.WriteString("| x\\y |")
	for _, sy := range scales {
		fmt.Fprintf(&b, " %d |", sy)
	}
	b.WriteString("\n| --- |")
	for range scales {
		b.WriteString(" ---: |")
	}
	b.WriteString("\n")

	for _, sx := range scales {
		fmt.Fprintf(&b, "| %d |", sx)
		for _, sy := range scales {
			b.WriteString(" " + cellText(cells[gridKey{sx, sy}]) + " |")
		}
		b.WriteString("\n")
	}
	return b.String()
}

// Summary renders the run parameters and totals printed under the grid.
func Summary(res *meter.RunResult) string {
	failed := 0
	for _, c := range res.Results {
		failed += c.Failed
	}
	scales := res.Options.Scales()

	lines := []string{
		fmt.Sprintf("Source:       %s", res.Source),
		fmt.Sprintf("Grid:         %dx%d configurations (step %d)", len(scales), len(scales), res.Options.Step),
		fmt.Sprintf("Runs/config:  %d", res.Options.Runs),
		fmt.Sprintf("Significance: %g", res.Options.Significance),
		fmt.Sprintf("Pruned:       %d outliers", res.PrunedTotal()),
		fmt.Sprintf("Failed runs:  %d", failed),
		fmt.Sprintf("Total time:   %s", res.Elapsed.Round(time.Millisecond)),
	}
	return strings.Join(lines, "\n")
}

// Render produces the terminal output for a finished run. When plain is set
// or the terminal has no color support, the markdown grid is emitted as-is.
func Render(res *meter.RunResult, plain bool) string {
	if plain || termenv.ColorProfile() == termenv.Ascii {
		return Markdown(res) + "\n" + Summary(res)
	}
	return styled(res)
}

func styled(res *meter.RunResult) string {
	scales := res.Options.Scales()
	cells := cellIndex(res)

	width := 8
	for _, c := range res.Results {
		if l := len(cellText(&c)); l+2 > width {
			width = l + 2
		}
	}

	var rows []string
	header := headerStyle.Render(pad("x\\y", width))
	for _, sy := range scales {
		header += headerStyle.Render(pad(fmt.Sprintf("%d", sy), width))
	}
	rows = append(rows, header)

	for _, sx := range scales {
		row := headerStyle.Render(pad(fmt.Sprintf("%d", sx), width))
		for _, sy := range scales {
			c := cells[gridKey{sx, sy}]
			text := pad(cellText(c), width)
			if c == nil || !c.OK {
				row += naStyle.Render(text)
			} else {
				row += text
			}
		}
		rows = append(rows, row)
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render("Corrected average latency (ms)"),
		strings.Join(rows, "\n"),
		"",
		labelStyle.Render(Summary(res)),
	)
}

type gridKey struct{ sx, sy int }

func cellIndex(res *meter.RunResult) map[gridKey]*meter.ConfigResult {
	cells := make(map[gridKey]*meter.ConfigResult, len(res.Results))
	for i := range res.Results {
		c := &res.Results[i]
		cells[gridKey{c.ScaleX, c.ScaleY}] = c
	}
	return cells
}

func cellText(c *meter.ConfigResult) string {
	if c == nil || !c.OK {
		return noResult
	}
	return fmt.Sprintf("%.2f", c.MeanMs)
}

func pad(s string, width int) string {
	if len(s) >= width {
		return s + " "
	}
	return strings.Repeat(" ", width-len(s)) + s
}
