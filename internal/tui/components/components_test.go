package components

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/theirongolddev/sobres/internal/tui/theme"
)

func init() {
	// Force TrueColor output so ANSI codes are generated in tests
	lipgloss.SetColorProfile(termenv.TrueColor)
}

func TestLayoutRow(t *testing.T) {
	widths := LayoutRow(10, 3)
	if len(widths) != 3 || widths[0] != 4 || widths[1] != 3 || widths[2] != 3 {
		t.Fatalf("LayoutRow(10, 3) = %v, want [4 3 3]", widths)
	}
	if got := LayoutRow(10, 0); got != nil {
		t.Fatalf("LayoutRow(10, 0) = %v, want nil", got)
	}
}

func TestCardRowBackgroundFill(t *testing.T) {
	theme.SetActive("flexoki-dark")

	shortCard := ContentCard("Corto", "Contenido", 22)
	tallCard := ContentCard("Alto", "1\n2\n3\n4\n5", 22)

	shortLines := lipgloss.Height(shortCard)
	tallLines := lipgloss.Height(tallCard)
	if shortLines >= tallLines {
		t.Fatal("short card should be shorter than tall card")
	}

	lines := strings.Split(CardRow([]string{tallCard, shortCard}), "\n")
	if len(lines) != tallLines {
		t.Fatalf("joined height = %d, want %d", len(lines), tallLines)
	}
	for i, line := range lines {
		if w := lipgloss.Width(line); w != 44 {
			t.Errorf("line %d width = %d, want 44", i, w)
		}
		if i >= shortLines && !strings.Contains(line, "\x1b[") {
			t.Errorf("padding line %d has no ANSI styling", i)
		}
	}
}

func TestMetricCardRowFillsWidth(t *testing.T) {
	row := MetricCardRow([]Metric{
		{Label: "Ingresos", Value: "$1,000.00"},
		{Label: "Gastos", Value: "$300.00", Note: "3 movimientos"},
		{Label: "Balance", Value: "$700.00"},
	}, 61)

	for i, line := range strings.Split(row, "\n") {
		if w := lipgloss.Width(line); w != 61 {
			t.Fatalf("line %d width = %d, want 61", i, w)
		}
	}
}

func TestTabIdxByKey(t *testing.T) {
	for i, tab := range Tabs {
		if got := TabIdxByKey(tab.Key); got != i {
			t.Fatalf("TabIdxByKey(%q) = %d, want %d", tab.Key, got, i)
		}
	}
	if got := TabIdxByKey('z'); got != -1 {
		t.Fatalf("TabIdxByKey('z') = %d, want -1", got)
	}
}

func TestRenderTabBarWidth(t *testing.T) {
	for active := range Tabs {
		bar := RenderTabBar(active, 100)
		if w := lipgloss.Width(bar); w != 100 {
			t.Fatalf("active=%d: width = %d, want 100", active, w)
		}
		if !strings.Contains(stripANSI(bar), Tabs[active].Name) {
			t.Fatalf("active=%d: bar missing %q", active, Tabs[active].Name)
		}
	}
}

func TestEnvelopeBarClamps(t *testing.T) {
	if got := stripANSI(EnvelopeBar(1.7, 10)); !strings.HasSuffix(got, "100%") {
		t.Fatalf("EnvelopeBar(1.7) = %q, want 100%%", got)
	}
	if got := stripANSI(EnvelopeBar(-0.2, 10)); !strings.HasSuffix(got, "  0%") {
		t.Fatalf("EnvelopeBar(-0.2) = %q, want 0%%", got)
	}
	if ColorForRemaining(0.05) != theme.Active.Expense || ColorForRemaining(0.9) != theme.Active.Income {
		t.Fatal("ColorForRemaining should go from expense to income color")
	}
}

func TestBarChartHeight(t *testing.T) {
	chart := BarChart([]float64{120, 0, 480}, []string{"Ene", "Feb", "Mar"}, theme.Active.Expense, 40, 6)
	lines := strings.Split(stripANSI(chart), "\n")
	last := lines[len(lines)-1]
	for _, want := range []string{"Ene", "Mar"} {
		if !strings.Contains(last, want) {
			t.Fatalf("label row %q missing %s", last, want)
		}
	}
	if !strings.Contains(chart, "█") {
		t.Fatal("chart has no full blocks")
	}
	if BarChart(nil, nil, theme.Active.Expense, 40, 6) != "" {
		t.Fatal("empty chart should render nothing")
	}
}

func stripANSI(s string) string {
	var b strings.Builder
	inEsc := false
	for _, r := range s {
		switch {
		case r == '\x1b':
			inEsc = true
		case inEsc:
			if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
				inEsc = false
			}
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
