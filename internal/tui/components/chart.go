package components

import (
	"fmt"
	"math"
	"strings"

	"github.com/theirongolddev/sobres/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

// BarChart renders vertical bars with a labeled y axis. values are in
// major currency units; labels, when given, must match values in length.
func BarChart(values []float64, labels []string, color lipgloss.Color, width, height int) string {
	if len(values) == 0 || width < 15 || height < 3 {
		return ""
	}
	t := theme.Active

	peak := 0.0
	for _, v := range values {
		peak = max(peak, v)
	}
	if peak == 0 {
		peak = 1
	}

	step := chartTickStep(peak)
	for math.Ceil(peak/step) > float64(max(height/2, 2)) {
		step *= 2
	}
	ceiling := math.Ceil(peak/step) * step
	ticks := max(int(math.Round(ceiling/step)), 1)
	rowsPerTick := max(height/ticks, 1)
	chartH := rowsPerTick * ticks

	yLabelW := max(len(formatChartLabel(ceiling))+1, 4)
	tickLabels := make(map[int]string, ticks)
	for i := 1; i <= ticks; i++ {
		tickLabels[i*rowsPerTick] = formatChartLabel(step * float64(i))
	}

	n := len(values)
	chartW := max(width-yLabelW-1, 5)
	barW := min(max((chartW-(n-1))/n, 1), 6)
	axisLen := n*barW + (n - 1)

	blocks := []rune{' ', '▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}
	axisStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	barStyle := lipgloss.NewStyle().Foreground(color).Background(t.Surface)
	blank := lipgloss.NewStyle().Background(t.Surface)

	var b strings.Builder
	for row := chartH; row >= 1; row-- {
		top := ceiling * float64(row) / float64(chartH)
		bottom := ceiling * float64(row-1) / float64(chartH)

		b.WriteString(axisStyle.Render(fmt.Sprintf("%*s│", yLabelW, tickLabels[row])))
		for i, v := range values {
			if i > 0 {
				b.WriteString(blank.Render(" "))
			}
			switch {
			case v >= top:
				b.WriteString(barStyle.Render(strings.Repeat("█", barW)))
			case v > bottom:
				idx := min(max(int((v-bottom)/(top-bottom)*8), 1), 8)
				b.WriteString(barStyle.Render(strings.Repeat(string(blocks[idx]), barW)))
			default:
				b.WriteString(blank.Render(strings.Repeat(" ", barW)))
			}
		}
		b.WriteString("\n")
	}

	b.WriteString(axisStyle.Render(fmt.Sprintf("%*s└", yLabelW, "0")))
	b.WriteString(axisStyle.Render(strings.Repeat("─", axisLen)))

	if len(labels) == n {
		line := []rune(strings.Repeat(" ", axisLen))
		lastEnd := -1
		for i, lbl := range labels {
			pos := i * (barW + 1)
			r := []rune(lbl)
			if pos <= lastEnd || pos+len(r) > axisLen {
				continue
			}
			copy(line[pos:], r)
			lastEnd = pos + len(r)
		}
		b.WriteString("\n")
		b.WriteString(blank.Render(strings.Repeat(" ", yLabelW+1)))
		b.WriteString(axisStyle.Render(strings.TrimRight(string(line), " ")))
	}

	return b.String()
}

// chartTickStep picks a round interval giving about five ticks.
func chartTickStep(peak float64) float64 {
	if peak <= 0 {
		return 1
	}
	rough := peak / 5
	base := math.Pow(10, math.Floor(math.Log10(rough)))
	switch frac := rough / base; {
	case frac < 1.5:
		return base
	case frac < 3.5:
		return 2 * base
	default:
		return 5 * base
	}
}

func formatChartLabel(v float64) string {
	switch {
	case v >= 1e6:
		return trimZero(fmt.Sprintf("%.1f", v/1e6)) + "M"
	case v >= 1e3:
		return trimZero(fmt.Sprintf("%.1f", v/1e3)) + "k"
	case v >= 1:
		return fmt.Sprintf("%.0f", v)
	default:
		return fmt.Sprintf("%.2f", v)
	}
}

func trimZero(s string) string {
	return strings.TrimSuffix(s, ".0")
}
