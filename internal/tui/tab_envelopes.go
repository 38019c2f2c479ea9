package tui

import (
	"fmt"
	"strings"

	"github.com/theirongolddev/sobres/internal/cli"
	"github.com/theirongolddev/sobres/internal/model"
	"github.com/theirongolddev/sobres/internal/tui/components"
	"github.com/theirongolddev/sobres/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

func (a App) renderEnvelopesTab(cw int) string {
	t := theme.Active
	innerW := components.CardInnerWidth(cw)

	muted := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	text := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	bold := text.Bold(true)

	nameW, pctW, moneyW := 16, 5, 14
	barW := max(innerW-nameW-pctW-2*moneyW-12, 10)

	var b strings.Builder
	b.WriteString(muted.Render(fmt.Sprintf("%s %s  %s  %s  %s",
		leftAlign("Sobre", nameW), rightAlign("%", pctW),
		rightAlign("Asignado", moneyW), rightAlign("Disponible", moneyW), "Queda")))
	b.WriteString("\n")

	var assigned model.Money
	for _, e := range a.envelopes {
		avail := text
		if e.Available < 0 {
			avail = avail.Foreground(t.Expense)
		}
		b.WriteString(text.Render(leftAlign(e.Category.Name, nameW)+" "))
		b.WriteString(muted.Render(rightAlign(fmt.Sprintf("%d%%", e.Percent), pctW) + "  "))
		b.WriteString(muted.Render(rightAlign(cli.FormatMoney(e.Assigned), moneyW) + "  "))
		b.WriteString(avail.Render(rightAlign(cli.FormatMoney(e.Available), moneyW) + "  "))
		if e.Assigned > 0 {
			b.WriteString(components.EnvelopeBar(e.Usage, barW))
		} else {
			b.WriteString(muted.Render("sin ingresos este mes"))
		}
		b.WriteString("\n")
		assigned += e.Assigned
	}

	b.WriteString(muted.Render(strings.Repeat("─", innerW)))
	b.WriteString("\n")
	b.WriteString(bold.Render(leftAlign("Total", nameW) + " "))
	b.WriteString(muted.Render(rightAlign(fmt.Sprintf("%d%%", model.AllocationTotal(a.allocs)), pctW) + "  "))
	b.WriteString(muted.Render(rightAlign(cli.FormatMoney(assigned), moneyW) + "  "))
	b.WriteString(bold.Render(rightAlign(cli.FormatMoney(a.total), moneyW)))

	title := "Sobres · " + cli.FormatMonth(a.now().Year(), a.now().Month())
	hint := muted.Render("p edita los porcentajes. Los cambios valen para ingresos nuevos.")

	return components.ContentCard(title, b.String(), cw) + "\n" + hint
}
