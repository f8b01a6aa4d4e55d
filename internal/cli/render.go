package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"quit-tracker/internal/models"
	"quit-tracker/internal/settings"
)

// Table represents a bordered text table for CLI output.
type Table struct {
	Title   string
	Headers []string
	Rows    [][]string
	Widths  []int // optional column widths, auto-calculated if nil
}

// RenderTitle renders a centered title bar in a bordered box.
func (s Styles) RenderTitle(title string) string {
	border := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(s.Palette.Border).
		Width(46).
		Align(lipgloss.Center).
		Padding(0, 1)

	return border.Render(s.Title.Render(title))
}

// RenderTable renders a bordered table with headers and rows. Every column
// but the first is right-aligned.
func (s Styles) RenderTable(t Table) string {
	if len(t.Rows) == 0 && len(t.Headers) == 0 {
		return ""
	}

	numCols := len(t.Headers)
	if numCols == 0 && len(t.Rows) > 0 {
		numCols = len(t.Rows[0])
	}

	widths := make([]int, numCols)
	if t.Widths != nil {
		copy(widths, t.Widths)
	} else {
		for i, h := range t.Headers {
			widths[i] = max(widths[i], lipgloss.Width(h))
		}
		for _, row := range t.Rows {
			for i, cell := range row {
				if i < numCols {
					widths[i] = max(widths[i], lipgloss.Width(cell))
				}
			}
		}
	}

	var b strings.Builder
	if t.Title != "" {
		b.WriteString("  ")
		b.WriteString(s.Header.Render(t.Title))
		b.WriteString("\n")
	}

	rule := func(left, mid, right string) {
		b.WriteString(s.Dim.Render(left))
		for i, w := range widths {
			b.WriteString(s.Dim.Render(strings.Repeat("─", w+2)))
			if i < numCols-1 {
				b.WriteString(s.Dim.Render(mid))
			}
		}
		b.WriteString(s.Dim.Render(right))
		b.WriteString("\n")
	}

	rule("╭", "┬", "╮")
	if len(t.Headers) > 0 {
		b.WriteString(s.Dim.Render("│"))
		for i, h := range t.Headers {
			b.WriteString(s.Header.Render(fmt.Sprintf(" %-*s ", widths[i], h)))
			if i < numCols-1 {
				b.WriteString(s.Dim.Render("│"))
			}
		}
		b.WriteString(s.Dim.Render("│"))
		b.WriteString("\n")
		rule("├", "┼", "┤")
	}

	for _, row := range t.Rows {
		b.WriteString(s.Dim.Render("│"))
		for i := 0; i < numCols; i++ {
			cell := ""
			if i < len(row) {
				cell = row[i]
			}
			var padded string
			if i == 0 {
				padded = fmt.Sprintf(" %-*s ", widths[i], cell)
			} else {
				padded = fmt.Sprintf(" %*s ", widths[i], cell)
			}
			b.WriteString(s.Value.Render(padded))
			if i < numCols-1 {
				b.WriteString(s.Dim.Render("│"))
			}
		}
		b.WriteString(s.Dim.Render("│"))
		b.WriteString("\n")
	}
	rule("╰", "┴", "╯")

	return b.String()
}

// RenderTiles renders the four summary tiles side by side.
func (s Styles) RenderTiles(sum models.Summary) string {
	tile := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(s.Palette.Border).
		Padding(0, 1).
		Width(16)

	render := func(label, value string) string {
		return tile.Render(s.Muted.Render(label) + "\n" + s.Header.Render(value))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top,
		render("Money saved", settings.FormatMoney(sum.MoneySavedMinor)),
		render("Units avoided", FormatNumber(sum.UnitsAvoided)),
		render("Days free", FormatNumber(int64(sum.DaysFree))),
		render("Resets", FormatNumber(int64(sum.ResetCount))),
	)
}

// RenderSparkline generates a unicode block sparkline from a series of values.
func RenderSparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}

	blocks := []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

	top := values[0]
	for _, v := range values[1:] {
		if v > top {
			top = v
		}
	}
	if top == 0 {
		top = 1
	}

	var b strings.Builder
	for _, v := range values {
		idx := int(v / top * float64(len(blocks)-1))
		idx = min(max(idx, 0), len(blocks)-1)
		b.WriteRune(blocks[idx])
	}
	return b.String()
}

// RenderHorizontalBar renders a bar proportional to value/maxValue.
func RenderHorizontalBar(value, maxValue float64, maxWidth int) string {
	if maxValue <= 0 {
		return ""
	}
	barLen := int(value / maxValue * float64(maxWidth))
	return strings.Repeat("█", max(barLen, 0))
}
