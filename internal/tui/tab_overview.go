package tui

import (
	"fmt"
	"strings"

	"github.com/theirongolddev/sobres/internal/cli"
	"github.com/theirongolddev/sobres/internal/tui/components"
	"github.com/theirongolddev/sobres/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

func (a App) renderOverviewTab(cw int) string {
	t := theme.Active
	now := a.now()
	var b strings.Builder

	balanceColor := t.Income
	if a.cards.Balance < 0 {
		balanceColor = t.Expense
	}
	monthNote := cli.FormatMonth(now.Year(), now.Month())

	b.WriteString(components.MetricCardRow([]components.Metric{
		{Label: "Ingresos", Value: cli.FormatMoney(a.cards.Income), Note: monthNote, Color: t.Income},
		{Label: "Gastos", Value: cli.FormatMoney(a.cards.Expense), Note: monthNote, Color: t.Expense},
		{Label: "Balance del mes", Value: cli.FormatMoney(a.cards.Balance), Note: monthNote, Color: balanceColor},
		{Label: "Disponible", Value: cli.FormatMoney(a.total), Note: "en todos los sobres"},
	}, cw))
	b.WriteString("\n")

	recent := a.renderRecent()
	envelopes := a.renderEnvelopeSummary()

	if a.isCompactLayout() {
		b.WriteString(components.ContentCard("Últimos movimientos", recent, cw))
		b.WriteString("\n")
		b.WriteString(components.ContentCard("Sobres", envelopes, cw))
		return b.String()
	}

	halves := components.LayoutRow(cw, 2)
	b.WriteString(components.CardRow([]string{
		components.ContentCard("Últimos movimientos", recent, halves[0]),
		components.ContentCard("Sobres", envelopes, halves[1]),
	}))
	return b.String()
}

func (a App) renderRecent() string {
	t := theme.Active
	muted := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	text := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)

	if len(a.txs) == 0 {
		return muted.Render("Todavía no hay movimientos. Pulsa a para añadir uno.")
	}

	lines := make([]string, 0, recentCount)
	for _, tx := range a.txs[:min(recentCount, len(a.txs))] {
		lines = append(lines,
			muted.Render(cli.FormatDate(tx.Date)+"  ")+
				text.Render(leftAlign(tx.Description, 22)+"  ")+
				amountStyle(tx).Render(rightAlign(cli.FormatTransactionAmount(tx), 13)))
	}
	return strings.Join(lines, "\n")
}

func (a App) renderEnvelopeSummary() string {
	t := theme.Active
	muted := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)

	lines := make([]string, 0, len(a.envelopes))
	for _, e := range a.envelopes {
		value := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
		if e.Available < 0 {
			value = value.Foreground(t.Expense)
		}
		lines = append(lines,
			muted.Render(leftAlign(e.Category.Name, 16))+
				muted.Render(fmt.Sprintf("%4d%%  ", e.Percent))+
				value.Render(rightAlign(cli.FormatMoney(e.Available), 13)))
	}
	return strings.Join(lines, "\n")
}
