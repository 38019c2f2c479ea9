package cli

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Palette (Flexoki Dark)
var (
	ColorBorder    = lipgloss.Color("#282726")
	ColorTextDim   = lipgloss.Color("#575653")
	ColorTextMuted = lipgloss.Color("#6F6E69")
	ColorText      = lipgloss.Color("#FFFCF0")
	ColorAccent    = lipgloss.Color("#3AA99F")
	ColorGreen     = lipgloss.Color("#879A39")
	ColorOrange    = lipgloss.Color("#DA702C")
	ColorRed       = lipgloss.Color("#D14D41")
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorText).
			Align(lipgloss.Center)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorAccent)

	valueStyle = lipgloss.NewStyle().
			Foreground(ColorText)

	mutedStyle = lipgloss.NewStyle().
			Foreground(ColorTextMuted)

	dimStyle = lipgloss.NewStyle().
			Foreground(ColorTextDim)

	positiveStyle = lipgloss.NewStyle().Foreground(ColorGreen)
	negativeStyle = lipgloss.NewStyle().Foreground(ColorRed)
	warnStyle     = lipgloss.NewStyle().Foreground(ColorOrange)
)

// Table represents a bordered text table for CLI output.
type Table struct {
	Title   string
	Headers []string
	Rows    [][]string
	// LeftCols lists extra columns to left-align. Column 0 always is;
	// every other column is right-aligned.
	LeftCols []int
}

// RenderTitle renders a centered title bar in a bordered box.
func RenderTitle(title string) string {
	border := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorBorder).
		Width(55).
		Align(lipgloss.Center).
		Padding(0, 1)

	return border.Render(titleStyle.Render(title))
}

// RenderTable renders a bordered table with headers and rows. A row
// holding the single cell "---" draws a separator.
func RenderTable(t Table) string {
	numCols := len(t.Headers)
	if numCols == 0 && len(t.Rows) > 0 {
		numCols = len(t.Rows[0])
	}
	if numCols == 0 {
		return ""
	}

	widths := make([]int, numCols)
	for i, h := range t.Headers {
		widths[i] = max(widths[i], lipgloss.Width(h))
	}
	for _, row := range t.Rows {
		if isSeparator(row) {
			continue
		}
		for i, cell := range row {
			if i < numCols {
				widths[i] = max(widths[i], lipgloss.Width(cell))
			}
		}
	}

	left := make([]bool, numCols)
	left[0] = true
	for _, c := range t.LeftCols {
		if c >= 0 && c < numCols {
			left[c] = true
		}
	}

	var b strings.Builder

	if t.Title != "" {
		b.WriteString("  ")
		b.WriteString(headerStyle.Render(t.Title))
		b.WriteString("\n")
	}

	rule := func(l, mid, r string) {
		b.WriteString(dimStyle.Render(l))
		for i, w := range widths {
			b.WriteString(dimStyle.Render(strings.Repeat("─", w+2)))
			if i < numCols-1 {
				b.WriteString(dimStyle.Render(mid))
			}
		}
		b.WriteString(dimStyle.Render(r))
		b.WriteString("\n")
	}

	line := func(cells []string, style lipgloss.Style, alignAll bool) {
		b.WriteString(dimStyle.Render("│"))
		for i := range numCols {
			cell := ""
			if i < len(cells) {
				cell = cells[i]
			}
			b.WriteString(style.Render(" " + pad(cell, widths[i], alignAll || left[i]) + " "))
			if i < numCols-1 {
				b.WriteString(dimStyle.Render("│"))
			}
		}
		b.WriteString(dimStyle.Render("│"))
		b.WriteString("\n")
	}

	rule("╭", "┬", "╮")
	if len(t.Headers) > 0 {
		line(t.Headers, headerStyle, true)
		rule("├", "┼", "┤")
	}
	for _, row := range t.Rows {
		if isSeparator(row) {
			rule("├", "┼", "┤")
			continue
		}
		line(row, valueStyle, false)
	}
	rule("╰", "┴", "╯")

	return b.String()
}

func isSeparator(row []string) bool {
	return len(row) == 1 && row[0] == "---"
}

// pad fills s with spaces to width display columns.
func pad(s string, width int, leftAlign bool) string {
	gap := width - lipgloss.Width(s)
	if gap <= 0 {
		return s
	}
	if leftAlign {
		return s + strings.Repeat(" ", gap)
	}
	return strings.Repeat(" ", gap) + s
}

// RenderUsageBar renders a fill bar for a 0-1 fraction.
func RenderUsageBar(frac float64, width int) string {
	frac = min(max(frac, 0), 1)
	filled := int(frac * float64(width))

	style := positiveStyle
	switch {
	case frac < 0.25:
		style = negativeStyle
	case frac < 0.5:
		style = warnStyle
	}
	return style.Render(strings.Repeat("█", filled)) + dimStyle.Render(strings.Repeat("░", width-filled))
}

// RenderSparkline generates a unicode block sparkline from a series of values.
func RenderSparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}

	blocks := []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

	peak := values[0]
	for _, v := range values[1:] {
		peak = max(peak, v)
	}
	if peak <= 0 {
		peak = 1
	}

	var b strings.Builder
	for _, v := range values {
		idx := int(v / peak * float64(len(blocks)-1))
		idx = min(max(idx, 0), len(blocks)-1)
		b.WriteRune(blocks[idx])
	}
	return b.String()
}

// RenderHorizontalBar renders one labelled bar of a bar chart.
func RenderHorizontalBar(label string, value, maxValue float64, maxWidth int) string {
	if maxValue <= 0 {
		return "  " + label
	}
	barLen := max(int(value/maxValue*float64(maxWidth)), 0)
	return "  " + label + " " + mutedStyle.Render(strings.Repeat("█", barLen))
}

// Money colours an already formatted amount by its sign.
func Money(s string, negative bool) string {
	if negative {
		return negativeStyle.Render(s)
	}
	return positiveStyle.Render(s)
}

// Muted renders s in the muted text colour.
func Muted(s string) string {
	return mutedStyle.Render(s)
}

// Warn renders s in the warning colour.
func Warn(s string) string {
	return warnStyle.Render(s)
}
