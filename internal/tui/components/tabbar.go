package components

import (
	"strings"

	"github.com/theirongolddev/sobres/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

// Tab is a single entry in the tab bar.
type Tab struct {
	Name   string
	Key    rune
	KeyPos int // position of the shortcut letter in Name, -1 if absent
}

// Tabs defines all dashboard tabs in display order.
var Tabs = []Tab{
	{Name: "Resumen", Key: 'o', KeyPos: -1},
	{Name: "Movimientos", Key: 'm', KeyPos: 0},
	{Name: "Sobres", Key: 's', KeyPos: 0},
	{Name: "Mensual", Key: 'n', KeyPos: 2},
}

// TabIdxByKey returns the tab index for a key press, or -1.
func TabIdxByKey(key rune) int {
	for i, tab := range Tabs {
		if tab.Key == key {
			return i
		}
	}
	return -1
}

// TabVisualWidth is the rendered width of a tab, including its padding
// and the "[k]" suffix shown for inactive tabs whose key is not in the name.
func TabVisualWidth(tab Tab, active bool) int {
	w := lipgloss.Width(tab.Name) + 2
	if !active && tab.KeyPos < 0 {
		w += 3
	}
	return w
}

// RenderTabBar renders a single-row tab bar padded to width.
func RenderTabBar(activeIdx, width int) string {
	t := theme.Active

	activeStyle := lipgloss.NewStyle().
		Foreground(t.AccentBright).
		Background(t.SurfaceHover).
		Bold(true).
		Padding(0, 1)
	inactiveStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	keyStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true).Underline(true)
	dimStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	pad := lipgloss.NewStyle().Background(t.Surface).Render(" ")
	sep := lipgloss.NewStyle().Foreground(t.Border).Background(t.Surface).Render("│")

	parts := make([]string, len(Tabs))
	for i, tab := range Tabs {
		if i == activeIdx {
			parts[i] = activeStyle.Render(tab.Name)
			continue
		}

		var label string
		if tab.KeyPos >= 0 && tab.KeyPos < len(tab.Name) {
			label = inactiveStyle.Render(tab.Name[:tab.KeyPos]) +
				keyStyle.Render(tab.Name[tab.KeyPos:tab.KeyPos+1]) +
				inactiveStyle.Render(tab.Name[tab.KeyPos+1:])
		} else {
			label = inactiveStyle.Render(tab.Name) +
				dimStyle.Render("[") + keyStyle.Render(string(tab.Key)) + dimStyle.Render("]")
		}
		parts[i] = pad + label + pad
	}

	row := strings.Join(parts, sep)
	return lipgloss.NewStyle().Background(t.Surface).Width(width).Render(row)
}
