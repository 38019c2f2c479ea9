// Package tui provides the interactive Bubble Tea dashboard for sobres.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/theirongolddev/sobres/internal/budget"
	"github.com/theirongolddev/sobres/internal/config"
	"github.com/theirongolddev/sobres/internal/ledger"
	"github.com/theirongolddev/sobres/internal/model"
	"github.com/theirongolddev/sobres/internal/report"
	"github.com/theirongolddev/sobres/internal/tui/components"
	"github.com/theirongolddev/sobres/internal/tui/theme"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

const (
	tabOverview = iota
	tabTransactions
	tabEnvelopes
	tabMonthly
)

const (
	minTerminalWidth = 80
	compactWidth     = 120
	maxContentWidth  = 160
	minContentHeight = 5

	recentCount = 5
	trendMonths = 6
)

// App is the root Bubble Tea model.
type App struct {
	svc *budget.Service
	ctx context.Context
	cfg config.Config
	now func() time.Time

	// Copied out of the ledger after every change.
	txs       []model.Transaction // newest first
	allocs    []model.Allocation
	balances  map[model.CategoryID]model.Money
	total     model.Money
	catalog   model.Catalog
	cards     report.Cards
	envelopes []model.EnvelopeStats

	width     int
	height    int
	activeTab int
	showHelp  bool

	txState txState
	month   monthState

	// Active modal form, if any. Values live behind a pointer so the
	// form's bindings stay valid as the model is copied.
	form     *huh.Form
	formKind formKind
	vals     *formValues
	pending  pendingChange

	needSetup bool
	setupVals *SetupValues

	message  string
	errorMsg bool
}

// NewApp creates the dashboard over an open budget service.
func NewApp(ctx context.Context, svc *budget.Service, cfg config.Config) App {
	a := App{
		svc:       svc,
		ctx:       ctx,
		cfg:       cfg,
		now:       time.Now,
		vals:      &formValues{},
		setupVals: &SetupValues{},
		needSetup: !config.Exists(),
	}
	a.month = currentMonth(a.now())
	a.refresh()
	return a
}

// Init implements tea.Model.
func (a App) Init() tea.Cmd {
	return tea.EnableMouseCellMotion
}

// refresh copies the figures every tab renders out of the ledger.
func (a *App) refresh() {
	now := a.now()
	a.svc.View(func(l *ledger.Ledger) {
		txs := make([]model.Transaction, 0, l.Len())
		for tx := range l.Transactions("") {
			txs = append(txs, tx)
		}
		a.txs = txs
		a.allocs = l.Allocations()
		a.balances = l.Balances()
		a.total = l.Total()
		a.catalog = l.Catalog()
	})

	a.cards = report.CurrentMonthCards(a.txs, now)
	a.envelopes = report.EnvelopeUsage(a.allocs, a.balances, a.cards.Income, a.catalog)
	a.txState.clamp(len(a.visibleTransactions()))
}

func (a *App) setMessage(msg string) {
	a.message = msg
	a.errorMsg = false
}

func (a *App) setError(err error) {
	a.message = err.Error()
	a.errorMsg = true
}

// Update implements tea.Model.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		if a.form != nil {
			a.form = a.form.WithWidth(a.formWidth())
		}
		return a, nil

	case tea.MouseMsg:
		if a.form != nil || a.showHelp {
			return a, nil
		}
		return a.updateMouse(msg)

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}
		if a.form != nil {
			return a.updateForm(msg)
		}
		if a.needSetup {
			return a.startSetup()
		}
		if a.activeTab == tabTransactions && a.txState.searching {
			return a.updateSearch(msg)
		}
		return a.updateKey(msg)
	}

	if a.form != nil {
		return a.updateForm(msg)
	}
	return a, nil
}

func (a App) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if key == "?" {
		a.showHelp = !a.showHelp
		return a, nil
	}
	if a.showHelp {
		a.showHelp = false
		return a, nil
	}

	a.message = ""

	switch a.activeTab {
	case tabTransactions:
		if next, cmd, ok := a.updateTransactionsKey(key); ok {
			return next, cmd
		}
	case tabEnvelopes:
		if key == "p" {
			return a.openAllocationForm()
		}
	case tabMonthly:
		if a.updateMonthlyKey(key) {
			return a, nil
		}
	}

	switch key {
	case "q":
		return a, tea.Quit
	case "a":
		return a.openTransactionForm(0)
	case "left", "shift+tab":
		a.activeTab = (a.activeTab - 1 + len(components.Tabs)) % len(components.Tabs)
	case "right", "tab":
		a.activeTab = (a.activeTab + 1) % len(components.Tabs)
	default:
		if r := []rune(key); len(r) == 1 {
			if idx := components.TabIdxByKey(r[0]); idx >= 0 {
				a.activeTab = idx
			}
		}
	}
	return a, nil
}

func (a App) updateMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	switch msg.Button {
	case tea.MouseButtonWheelUp:
		if a.activeTab == tabTransactions {
			a.txState.move(-1, len(a.visibleTransactions()))
			a.txState.offset = scrollOffset(a.txState.cursor, a.txState.offset, a.txListHeight())
		}
	case tea.MouseButtonWheelDown:
		if a.activeTab == tabTransactions {
			a.txState.move(1, len(a.visibleTransactions()))
			a.txState.offset = scrollOffset(a.txState.cursor, a.txState.offset, a.txListHeight())
		}
	case tea.MouseButtonLeft:
		if msg.Action == tea.MouseActionPress && msg.Y == 0 {
			if tab := a.tabAtX(msg.X); tab >= 0 {
				a.activeTab = tab
			}
		}
	}
	return a, nil
}

// tabAtX returns the tab index at column x, or -1.
// Hitboxes follow the widths RenderTabBar draws.
func (a App) tabAtX(x int) int {
	pos := 0
	for i, tab := range components.Tabs {
		w := components.TabVisualWidth(tab, i == a.activeTab)
		if x >= pos && x < pos+w {
			return i
		}
		pos += w + 1 // separator
	}
	return -1
}

func (a App) contentWidth() int {
	return min(a.width, maxContentWidth)
}

func (a App) isCompactLayout() bool {
	return a.contentWidth() < compactWidth
}

// View implements tea.Model.
func (a App) View() string {
	if a.width == 0 {
		return ""
	}
	if a.width < minTerminalWidth {
		return a.viewTooNarrow()
	}
	if a.form != nil {
		return a.viewForm()
	}
	if a.showHelp {
		return a.viewHelp()
	}
	return a.viewMain()
}

func (a App) viewTooNarrow() string {
	h := max(a.height, 5)
	msg := fmt.Sprintf("\n  Terminal too narrow (%d cols)\n\n  sobres needs at least %d columns.\n",
		a.width, minTerminalWidth)
	return padHeight(truncateHeight(msg, h), h)
}

func (a App) viewMain() string {
	t := theme.Active
	w := a.width
	cw := a.contentWidth()

	header := components.RenderTabBar(a.activeTab, w)

	status := components.Status{
		Namespace: a.svc.Namespace(),
		Message:   a.message,
		IsError:   a.errorMsg,
	}
	if a.cards.Income > 0 {
		status.HasIncome = true
		status.Remaining = a.cards.Balance.Float() / a.cards.Income.Float()
	}
	statusBar := components.RenderStatusBar(w, status)

	contentH := max(a.height-lipgloss.Height(header)-lipgloss.Height(statusBar), minContentHeight)

	var content string
	switch a.activeTab {
	case tabOverview:
		content = a.renderOverviewTab(cw)
	case tabTransactions:
		content = a.renderTransactionsTab(cw)
	case tabEnvelopes:
		content = a.renderEnvelopesTab(cw)
	case tabMonthly:
		content = a.renderMonthlyTab(cw)
	}

	content = padHeight(truncateHeight(content, contentH), contentH)
	content = fillLinesWithBackground(content, cw, t.Background)
	content = lipgloss.Place(w, contentH, lipgloss.Center, lipgloss.Top, content,
		lipgloss.WithWhitespaceBackground(t.Background))

	out := lipgloss.JoinVertical(lipgloss.Left, header, content, statusBar)
	return lipgloss.Place(w, a.height, lipgloss.Left, lipgloss.Top, out,
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) viewHelp() string {
	t := theme.Active

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Background(t.Surface).
		Padding(1, 3)
	titleStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface).Bold(true)
	sectionStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	keyStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface).Bold(true)
	descStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	dimStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)

	sections := []struct {
		title    string
		bindings [][2]string
	}{
		{"Navegación", [][2]string{
			{"o m s n", "Ir a pestaña"},
			{"← →", "Pestaña anterior / siguiente"},
			{"j k", "Mover selección"},
			{"g G", "Primero / último"},
			{"[ ]", "Mes anterior / siguiente"},
		}},
		{"Acciones", [][2]string{
			{"a", "Nuevo movimiento"},
			{"e Enter", "Editar seleccionado"},
			{"d", "Eliminar seleccionado"},
			{"f", "Filtrar por tipo"},
			{"/", "Buscar"},
			{"p", "Editar porcentajes"},
			{"?", "Ayuda"},
			{"q", "Salir"},
		}},
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("◈ Atajos de teclado"))
	b.WriteString("\n")
	for _, sec := range sections {
		b.WriteString("\n")
		b.WriteString(sectionStyle.Render(sec.title))
		b.WriteString("\n")
		for _, bind := range sec.bindings {
			fmt.Fprintf(&b, "  %s  %s\n",
				keyStyle.Render(fmt.Sprintf("%-8s", bind[0])),
				descStyle.Render(bind[1]))
		}
	}
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("Pulsa cualquier tecla para cerrar"))

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, cardStyle.Render(b.String()),
		lipgloss.WithWhitespaceBackground(t.Background))
}

// ─── Helpers ────────────────────────────────────────────────────

func truncStr(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-1]) + "…"
}

func truncateHeight(s string, limit int) string {
	lines := strings.Split(s, "\n")
	if len(lines) <= limit {
		return s
	}
	return strings.Join(lines[:limit], "\n")
}

func padHeight(s string, h int) string {
	lines := strings.Split(s, "\n")
	if len(lines) >= h {
		return s
	}
	return s + strings.Repeat("\n", h-len(lines))
}

// fillLinesWithBackground pads each line to width w with background color.
func fillLinesWithBackground(s string, w int, bg lipgloss.Color) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = lipgloss.PlaceHorizontal(w, lipgloss.Left, line,
			lipgloss.WithWhitespaceBackground(bg))
	}
	return strings.Join(lines, "\n")
}

func categoryName(catalog model.Catalog, tx model.Transaction) string {
	if tx.Type == model.Income {
		return "Reparto"
	}
	if c, ok := catalog.Lookup(tx.CategoryID); ok {
		return c.Name
	}
	return fmt.Sprintf("#%d", tx.CategoryID)
}

func amountStyle(tx model.Transaction) lipgloss.Style {
	t := theme.Active
	color := t.Income
	if tx.Type == model.Expense {
		color = t.Expense
	}
	return lipgloss.NewStyle().Foreground(color).Background(t.Surface)
}

// rightAlign pads s on the left to width w.
func rightAlign(s string, w int) string {
	return strings.Repeat(" ", max(w-lipgloss.Width(s), 0)) + s
}

// leftAlign pads s on the right to width w, truncating when longer.
func leftAlign(s string, w int) string {
	s = truncStr(s, w)
	return s + strings.Repeat(" ", max(w-lipgloss.Width(s), 0))
}
