package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/theirongolddev/sobres/internal/cli"
	"github.com/theirongolddev/sobres/internal/ledger"
	"github.com/theirongolddev/sobres/internal/model"
	"github.com/theirongolddev/sobres/internal/report"
	"github.com/theirongolddev/sobres/internal/tui/components"
	"github.com/theirongolddev/sobres/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

// monthState is the month shown on the monthly tab.
type monthState struct {
	year  int
	month time.Month
}

func currentMonth(now time.Time) monthState {
	return monthState{year: now.Year(), month: now.Month()}
}

func (m monthState) start() time.Time {
	return time.Date(m.year, m.month, 1, 0, 0, 0, 0, time.UTC)
}

func (m monthState) add(months int) monthState {
	t := m.start().AddDate(0, months, 0)
	return monthState{year: t.Year(), month: t.Month()}
}

// updateMonthlyKey reports whether the key was a month navigation key.
func (a *App) updateMonthlyKey(key string) bool {
	switch key {
	case "[", "h":
		a.month = a.month.add(-1)
	case "]", "l":
		a.month = a.month.add(1)
	case "t":
		a.month = currentMonth(a.now())
	default:
		return false
	}
	return true
}

func (a App) renderMonthlyTab(cw int) string {
	t := theme.Active
	m := a.month
	label := cli.FormatMonth(m.year, m.month)

	nav := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	heading := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface).Bold(true)
	header := nav.Render("◀ [ ") + heading.Render(label) + nav.Render(" ] ▶   t vuelve al mes actual")

	var (
		sum model.MonthSummary
		ok  bool
	)
	a.svc.View(func(l *ledger.Ledger) {
		sum, ok = l.Summarize(m.year, m.month)
	})

	var b strings.Builder
	b.WriteString(header)
	b.WriteString("\n")

	if !ok {
		empty := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
		b.WriteString(components.ContentCard("", empty.Render(fmt.Sprintf("Sin movimientos en %s.", label)), cw))
		b.WriteString("\n")
		b.WriteString(a.renderTrend(cw))
		return b.String()
	}

	netColor := t.Income
	if sum.Net < 0 {
		netColor = t.Expense
	}
	b.WriteString(components.MetricCardRow([]components.Metric{
		{Label: "Ingresos", Value: cli.FormatMoney(sum.Income), Color: t.Income},
		{Label: "Gastos", Value: cli.FormatMoney(sum.Expense), Color: t.Expense},
		{Label: "Neto", Value: cli.FormatSignedMoney(sum.Net), Color: netColor},
		{Label: "Movimientos", Value: cli.FormatNumber(int64(sum.Transactions))},
	}, cw))
	b.WriteString("\n")

	if a.isCompactLayout() {
		b.WriteString(components.ContentCard("Gasto por categoría", a.renderCategorySpend(cw), cw))
		b.WriteString("\n")
		b.WriteString(a.renderTrend(cw))
		return b.String()
	}

	halves := components.LayoutRow(cw, 2)
	b.WriteString(components.CardRow([]string{
		components.ContentCard("Gasto por categoría", a.renderCategorySpend(halves[0]), halves[0]),
		a.renderTrend(halves[1]),
	}))
	return b.String()
}

// renderCategorySpend lists the selected month's expenses per category.
func (a App) renderCategorySpend(outerW int) string {
	t := theme.Active
	muted := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	text := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)

	from := a.month.start()
	monthTxs := report.FilterByTime(a.txs, from, a.month.add(1).start())
	stats := report.AggregateCategories(monthTxs, a.catalog)
	if len(stats) == 0 {
		return muted.Render("Sin gastos este mes.")
	}

	nameW, moneyW := 16, 13
	barW := max(components.CardInnerWidth(outerW)-nameW-moneyW-9, 4)
	peak := stats[0].Spent.Float()

	lines := make([]string, 0, len(stats))
	for _, s := range stats {
		bar := lipgloss.NewStyle().Foreground(lipgloss.Color(s.Category.Color)).Background(t.Surface).
			Render(strings.Repeat("█", max(int(s.Spent.Float()/peak*float64(barW)), 1)))
		lines = append(lines,
			text.Render(leftAlign(s.Category.Name, nameW))+
				text.Render(rightAlign(cli.FormatMoney(s.Spent), moneyW))+
				muted.Render(fmt.Sprintf(" %3.0f%% ", s.SharePercent))+
				bar)
	}
	return strings.Join(lines, "\n")
}

// renderTrend charts expenses over the months ending at the selected one.
func (a App) renderTrend(outerW int) string {
	t := theme.Active
	months := report.AggregateMonths(a.txs, a.month.add(-(trendMonths - 1)).start(), a.month.start())

	values := make([]float64, len(months))
	labels := make([]string, len(months))
	for i, ms := range months {
		// oldest on the left
		j := len(months) - 1 - i
		values[j] = ms.Expense.Float()
		labels[j] = cli.FormatMonthShort(ms.Month.Month())
	}

	chart := components.BarChart(values, labels, t.Expense, components.CardInnerWidth(outerW), 8)
	return components.ContentCard(fmt.Sprintf("Gastos · últimos %d meses", trendMonths), chart, outerW)
}
