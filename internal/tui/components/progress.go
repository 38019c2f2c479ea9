package components

import (
	"fmt"

	"github.com/theirongolddev/sobres/internal/tui/theme"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
)

// ColorForRemaining returns a color for the fraction of an envelope still
// available: the emptier the envelope, the warmer the color.
func ColorForRemaining(frac float64) lipgloss.Color {
	t := theme.Active
	switch {
	case frac <= 0.1:
		return t.Expense
	case frac <= 0.25:
		return t.Warning
	case frac <= 0.5:
		return t.Caution
	default:
		return t.Income
	}
}

// EnvelopeBar renders how much of an envelope's assignment is left, with
// the percentage after the bar. frac is clamped to [0, 1].
func EnvelopeBar(frac float64, width int) string {
	t := theme.Active
	frac = clamp01(frac)

	color := ColorForRemaining(frac)
	bar := progress.New(
		progress.WithSolidFill(string(color)),
		progress.WithWidth(max(width, 4)),
		progress.WithoutPercentage(),
	)
	bar.EmptyColor = string(t.TextDim)

	pctStyle := lipgloss.NewStyle().Foreground(color).Background(t.Surface).Bold(true)
	spaceStyle := lipgloss.NewStyle().Background(t.Surface)

	return bar.ViewAs(frac) + spaceStyle.Render(" ") + pctStyle.Render(fmt.Sprintf("%3.0f%%", frac*100))
}

// CompactEnvelopeBar is a short labeled bar for the status line.
func CompactEnvelopeBar(label string, frac float64, width int) string {
	t := theme.Active
	frac = clamp01(frac)

	barW := max(width-lipgloss.Width(label)-6, 4)
	color := ColorForRemaining(frac)
	bar := progress.New(
		progress.WithSolidFill(string(color)),
		progress.WithWidth(barW),
		progress.WithoutPercentage(),
	)
	bar.EmptyColor = string(t.TextDim)

	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	pctStyle := lipgloss.NewStyle().Foreground(color).Background(t.Surface).Bold(true)
	spaceStyle := lipgloss.NewStyle().Background(t.Surface)

	return labelStyle.Render(label) +
		spaceStyle.Render(" ") +
		bar.ViewAs(frac) +
		spaceStyle.Render(" ") +
		pctStyle.Render(fmt.Sprintf("%2.0f%%", frac*100))
}

func clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}
