package tui

import (
	"fmt"
	"strings"

	"github.com/theirongolddev/sobres/internal/cli"
	"github.com/theirongolddev/sobres/internal/ledger"
	"github.com/theirongolddev/sobres/internal/model"
	"github.com/theirongolddev/sobres/internal/report"
	"github.com/theirongolddev/sobres/internal/tui/components"
	"github.com/theirongolddev/sobres/internal/tui/theme"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// txState holds the transactions tab UI state.
type txState struct {
	cursor int
	offset int
	filter model.TransactionType // "" shows every type

	searching   bool
	searchInput textinput.Model
	query       string
}

// nextFilter cycles all -> income -> expense -> all.
func nextFilter(f model.TransactionType) model.TransactionType {
	switch f {
	case "":
		return model.Income
	case model.Income:
		return model.Expense
	default:
		return ""
	}
}

func filterLabel(f model.TransactionType) string {
	switch f {
	case model.Income:
		return "ingresos"
	case model.Expense:
		return "gastos"
	}
	return "todos"
}

func (s *txState) clamp(n int) {
	s.cursor = min(s.cursor, n-1)
	s.cursor = max(s.cursor, 0)
}

func (s *txState) move(delta, n int) {
	s.cursor += delta
	s.clamp(n)
}

func newSearchInput() textinput.Model {
	ti := textinput.New()
	ti.Placeholder = "buscar descripción…"
	ti.CharLimit = 100
	ti.Width = 40
	return ti
}

// visibleTransactions applies the type filter and search query.
func (a App) visibleTransactions() []model.Transaction {
	txs := report.FilterByType(a.txs, a.txState.filter)
	return report.FilterByText(txs, a.txState.query)
}

func (a App) selectedTransaction() (model.Transaction, bool) {
	visible := a.visibleTransactions()
	if a.txState.cursor < 0 || a.txState.cursor >= len(visible) {
		return model.Transaction{}, false
	}
	return visible[a.txState.cursor], true
}

func (a App) findTransaction(id int64) (model.Transaction, bool) {
	for _, tx := range a.txs {
		if tx.ID == id {
			return tx, true
		}
	}
	return model.Transaction{}, false
}

// updateTransactionsKey handles keys specific to the transactions tab.
// ok is false when the key should fall through to the global bindings.
func (a App) updateTransactionsKey(key string) (next tea.Model, cmd tea.Cmd, ok bool) {
	n := len(a.visibleTransactions())

	switch key {
	case "j", "down":
		a.txState.move(1, n)
	case "k", "up":
		a.txState.move(-1, n)
	case "g", "home":
		a.txState.cursor = 0
	case "G", "end":
		a.txState.cursor = max(n-1, 0)
	case "f":
		a.txState.filter = nextFilter(a.txState.filter)
		a.txState.cursor = 0
		a.txState.offset = 0
	case "/":
		a.txState.searching = true
		a.txState.searchInput = newSearchInput()
		a.txState.searchInput.SetValue(a.txState.query)
		a.txState.searchInput.Focus()
		return a, textinput.Blink, true
	case "esc":
		if a.txState.query == "" {
			return a, nil, false
		}
		a.txState.query = ""
		a.txState.cursor = 0
		a.txState.offset = 0
	case "e", "enter":
		tx, found := a.selectedTransaction()
		if !found {
			return a, nil, true
		}
		next, cmd = a.openTransactionForm(tx.ID)
		return next, cmd, true
	case "d", "delete":
		tx, found := a.selectedTransaction()
		if !found {
			return a, nil, true
		}
		next, cmd = a.openDeleteForm(tx)
		return next, cmd, true
	default:
		return a, nil, false
	}
	a.txState.offset = scrollOffset(a.txState.cursor, a.txState.offset, a.txListHeight())
	return a, nil, true
}

// txListHeight is how many transaction rows fit on screen.
func (a App) txListHeight() int {
	// tab bar, status bar, card border and title, column header, detail block
	return max(a.height-9, 3)
}

// updateSearch handles keys while the search box is focused.
func (a App) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		a.txState.query = strings.TrimSpace(a.txState.searchInput.Value())
		a.txState.searching = false
		a.txState.cursor = 0
		a.txState.offset = 0
		return a, nil
	case "esc":
		a.txState.searching = false
		return a, nil
	}

	var cmd tea.Cmd
	a.txState.searchInput, cmd = a.txState.searchInput.Update(msg)
	return a, cmd
}

func (a App) renderTransactionsTab(cw int) string {
	t := theme.Active
	visible := a.visibleTransactions()

	title := fmt.Sprintf("Movimientos · %s · %d", filterLabel(a.txState.filter), len(visible))
	if a.txState.query != "" {
		title += fmt.Sprintf(" · «%s»", a.txState.query)
	}

	var b strings.Builder
	if a.txState.searching {
		b.WriteString(a.txState.searchInput.View())
		b.WriteString("\n")
	}

	innerW := components.CardInnerWidth(cw)
	dateW, typeW, amountW := 10, 7, 14
	catW := 15
	if a.isCompactLayout() {
		catW = 11
	}
	descW := max(innerW-dateW-typeW-amountW-catW-8, 10)

	muted := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	row := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	selected := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.SurfaceHover).Bold(true)

	b.WriteString(muted.Render(fmt.Sprintf("%-*s  %s  %s  %-*s  %s",
		dateW, "Fecha", leftAlign("Descripción", descW), leftAlign("Categoría", catW), typeW, "Tipo",
		rightAlign("Monto", amountW))))
	b.WriteString("\n")

	if len(visible) == 0 {
		b.WriteString(muted.Render("Sin movimientos. Pulsa a para registrar uno."))
		return components.ContentCard(title, b.String(), cw)
	}

	listH := a.txListHeight()
	if a.txState.searching {
		listH--
	}
	offset := scrollOffset(a.txState.cursor, a.txState.offset, listH)

	end := min(offset+listH, len(visible))
	for i := offset; i < end; i++ {
		tx := visible[i]
		line := fmt.Sprintf("%-*s  %s  %s  %-*s  ",
			dateW, cli.FormatDate(tx.Date),
			leftAlign(tx.Description, descW),
			leftAlign(categoryName(a.catalog, tx), catW),
			typeW, cli.FormatTypeLabel(tx.Type))
		amount := rightAlign(cli.FormatTransactionAmount(tx), amountW)

		if i == a.txState.cursor {
			b.WriteString(selected.Render(line + amount))
		} else {
			b.WriteString(row.Render(line) + amountStyle(tx).Render(amount))
		}
		b.WriteString("\n")
	}

	if tx, ok := a.selectedTransaction(); ok {
		b.WriteString("\n")
		b.WriteString(a.renderTransactionDetail(tx))
	}

	return components.ContentCard(title, strings.TrimRight(b.String(), "\n"), cw)
}

// renderTransactionDetail shows how the selected transaction moved money.
func (a App) renderTransactionDetail(tx model.Transaction) string {
	t := theme.Active
	muted := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	value := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)

	if tx.Type == model.Expense {
		return muted.Render(fmt.Sprintf("#%d  sale de ", tx.ID)) +
			value.Render(categoryName(a.catalog, tx))
	}

	parts := make([]string, 0, len(tx.Split))
	for _, c := range ledger.Credits(tx) {
		name := fmt.Sprintf("#%d", c.CategoryID)
		if cat, ok := a.catalog.Lookup(c.CategoryID); ok {
			name = cat.Name
		}
		parts = append(parts, fmt.Sprintf("%s %s", name, cli.FormatMoney(c.Amount)))
	}
	return muted.Render(fmt.Sprintf("#%d  reparto: ", tx.ID)) + value.Render(strings.Join(parts, " · "))
}

// scrollOffset keeps cursor within a window of height rows.
func scrollOffset(cursor, offset, height int) int {
	if cursor < offset {
		return cursor
	}
	if cursor >= offset+height {
		return cursor - height + 1
	}
	return offset
}
