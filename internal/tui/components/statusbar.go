package components

import (
	"strings"

	"github.com/theirongolddev/sobres/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

// Status is what the bottom bar shows.
type Status struct {
	Namespace string
	// Message is a one-shot notice from the last action.
	Message string
	IsError bool
	// Remaining is the share of this month's income still unspent.
	// Ignored unless HasIncome.
	Remaining float64
	HasIncome bool
}

// RenderStatusBar renders the bottom status bar.
func RenderStatusBar(width int, s Status) string {
	t := theme.Active

	barStyle := lipgloss.NewStyle().Background(t.Surface)
	keyStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	hintStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	nsStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)

	left := barStyle.Render(" ") +
		keyStyle.Render("a") + hintStyle.Render(" add  ") +
		keyStyle.Render("?") + hintStyle.Render(" help  ") +
		keyStyle.Render("q") + hintStyle.Render(" quit")

	var middle string
	if s.Message != "" {
		msgStyle := lipgloss.NewStyle().Foreground(t.Income).Background(t.Surface)
		if s.IsError {
			msgStyle = msgStyle.Foreground(t.Expense)
		}
		middle = barStyle.Render("   ") + msgStyle.Render(s.Message)
	}

	right := nsStyle.Render(s.Namespace + " ")
	if s.HasIncome {
		right = CompactEnvelopeBar("mes", s.Remaining, 22) + barStyle.Render("  ") + right
	}

	gap := width - lipgloss.Width(left) - lipgloss.Width(middle) - lipgloss.Width(right)
	if gap < 0 {
		// Drop the gauge first, then the message.
		right = nsStyle.Render(s.Namespace + " ")
		gap = width - lipgloss.Width(left) - lipgloss.Width(middle) - lipgloss.Width(right)
		if gap < 0 {
			middle = ""
			gap = max(width-lipgloss.Width(left)-lipgloss.Width(right), 0)
		}
	}

	return barStyle.Width(width).Render(left + middle + barStyle.Render(strings.Repeat(" ", gap)) + right)
}
