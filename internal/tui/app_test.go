package tui

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/theirongolddev/sobres/internal/budget"
	"github.com/theirongolddev/sobres/internal/cli"
	"github.com/theirongolddev/sobres/internal/config"
	"github.com/theirongolddev/sobres/internal/ledger"
	"github.com/theirongolddev/sobres/internal/logging"
	"github.com/theirongolddev/sobres/internal/model"
	"github.com/theirongolddev/sobres/internal/store"
	"github.com/theirongolddev/sobres/internal/tui/components"
	"github.com/theirongolddev/sobres/internal/tui/theme"

	tea "github.com/charmbracelet/bubbletea"
)

var testNow = time.Date(2024, time.March, 15, 10, 0, 0, 0, time.UTC)

func newTestApp(t *testing.T) App {
	t.Helper()
	ctx := context.Background()
	svc, err := budget.Open(ctx, store.NewMemory(), "test", logging.Discard())
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	a := NewApp(ctx, svc, config.DefaultConfig())
	a.needSetup = false
	a.now = func() time.Time { return testNow }
	a.month = currentMonth(testNow)
	a.width, a.height = 120, 40
	a.refresh()
	return a
}

func addIncome(t *testing.T, a *App, amount model.Money) {
	t.Helper()
	_, err := a.svc.Add(a.ctx, ledger.TransactionInput{
		Description: "Salario",
		Amount:      amount,
		Date:        model.NewDate(2024, 3, 1),
		Type:        model.Income,
	}, ledger.Confirm)
	if err != nil {
		t.Fatalf("add income: %v", err)
	}
	a.refresh()
}

func press(t *testing.T, m tea.Model, keys ...string) App {
	t.Helper()
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "right":
			msg = tea.KeyMsg{Type: tea.KeyRight}
		case "left":
			msg = tea.KeyMsg{Type: tea.KeyLeft}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		m, _ = m.Update(msg)
	}
	return m.(App)
}

func TestTabAtXMatchesTabWidths(t *testing.T) {
	for active := range components.Tabs {
		a := App{activeTab: active}
		pos := 0
		for i, tab := range components.Tabs {
			w := components.TabVisualWidth(tab, i == active)
			if got := a.tabAtX(pos + w/2); got != i {
				t.Fatalf("active=%d x=%d -> tab=%d, want %d", active, pos+w/2, got, i)
			}
			pos += w + 1
		}
		if got := a.tabAtX(pos + 50); got != -1 {
			t.Fatalf("x past the last tab -> %d, want -1", got)
		}
	}
}

func TestTabKeys(t *testing.T) {
	a := newTestApp(t)

	a = press(t, a, "s")
	if a.activeTab != tabEnvelopes {
		t.Fatalf("s -> tab %d, want %d", a.activeTab, tabEnvelopes)
	}
	a = press(t, a, "right")
	if a.activeTab != tabMonthly {
		t.Fatalf("right -> tab %d, want %d", a.activeTab, tabMonthly)
	}
	a = press(t, a, "right")
	if a.activeTab != tabOverview {
		t.Fatalf("right wraps -> tab %d, want %d", a.activeTab, tabOverview)
	}
	a = press(t, a, "left", "m")
	if a.activeTab != tabTransactions {
		t.Fatalf("m -> tab %d, want %d", a.activeTab, tabTransactions)
	}
}

func TestHelpClosesOnAnyKey(t *testing.T) {
	a := press(t, newTestApp(t), "?")
	if !a.showHelp {
		t.Fatal("? should open help")
	}
	a = press(t, a, "s")
	if a.showHelp || a.activeTab != tabOverview {
		t.Fatalf("key while help open: showHelp=%v tab=%d", a.showHelp, a.activeTab)
	}
}

func TestFilterCycleAndCursorClamp(t *testing.T) {
	a := newTestApp(t)
	addIncome(t, &a, model.Units(1000))
	_, err := a.svc.Add(a.ctx, ledger.TransactionInput{
		Description: "Cine", Amount: model.Units(15), Date: model.NewDate(2024, 3, 9),
		Type: model.Expense, CategoryID: 4,
	}, ledger.Confirm)
	if err != nil {
		t.Fatal(err)
	}
	a.refresh()

	a = press(t, a, "m", "G")
	if a.txState.cursor != 1 {
		t.Fatalf("G -> cursor %d, want 1", a.txState.cursor)
	}
	a = press(t, a, "j", "j")
	if a.txState.cursor != 1 {
		t.Fatalf("cursor past end = %d, want 1", a.txState.cursor)
	}

	a = press(t, a, "f")
	if a.txState.filter != model.Income || len(a.visibleTransactions()) != 1 {
		t.Fatalf("f -> filter %q with %d rows", a.txState.filter, len(a.visibleTransactions()))
	}
	a = press(t, a, "f")
	if tx, ok := a.selectedTransaction(); !ok || tx.Description != "Cine" {
		t.Fatalf("expense filter selected %+v, %v", tx, ok)
	}
	a = press(t, a, "f")
	if a.txState.filter != "" {
		t.Fatalf("third f -> filter %q, want all", a.txState.filter)
	}
}

func TestCommitAsksBeforeOverspending(t *testing.T) {
	a := newTestApp(t)
	addIncome(t, &a, model.Units(1000)) // Necesidades gets 500.00

	a.pending = pendingChange{input: ledger.TransactionInput{
		Description: "Alquiler", Amount: model.Units(600), Date: model.NewDate(2024, 3, 5),
		Type: model.Expense, CategoryID: 1,
	}}

	w, warned := a.commit(false)
	if !warned {
		t.Fatal("expected an overspend warning")
	}
	if w.Shortfall() != model.Units(100) {
		t.Fatalf("shortfall = %v, want 100.00", w.Shortfall())
	}
	if len(a.txs) != 1 {
		t.Fatalf("declined expense was recorded: %d transactions", len(a.txs))
	}

	if _, warned := a.commit(true); warned {
		t.Fatal("confirmed commit warned again")
	}
	if len(a.txs) != 2 || a.balances[1] != -model.Units(100) {
		t.Fatalf("after confirm: %d transactions, Necesidades %v", len(a.txs), a.balances[1])
	}
	if a.errorMsg || !strings.HasPrefix(a.message, "Guardado") {
		t.Fatalf("message = %q (error=%v)", a.message, a.errorMsg)
	}
}

func TestCommitWithoutConfirmation(t *testing.T) {
	a := newTestApp(t)
	a.cfg.Budget.ConfirmOverspend = false

	a.pending = pendingChange{input: ledger.TransactionInput{
		Description: "Libro", Amount: model.Units(25), Date: model.NewDate(2024, 3, 2),
		Type: model.Expense, CategoryID: 3,
	}}
	if _, warned := a.commit(false); warned {
		t.Fatal("should not ask when confirmation is off")
	}
	if a.balances[3] != -model.Units(25) {
		t.Fatalf("Educación = %v, want -25.00", a.balances[3])
	}
}

func TestDeleteForm(t *testing.T) {
	a := newTestApp(t)
	addIncome(t, &a, model.Units(50))

	a.formKind = formDelete
	a.pending = pendingChange{id: a.txs[0].ID}
	a.vals.Confirm = true

	m, _ := a.submitForm()
	a = m.(App)
	if len(a.txs) != 0 || a.total != 0 {
		t.Fatalf("after delete: %d transactions, total %v", len(a.txs), a.total)
	}
}

func TestAllocationForm(t *testing.T) {
	a := newTestApp(t)

	a.formKind = formAllocations
	a.vals.Percents = []string{"40", "30", "10", "10", "10"}
	m, _ := a.submitForm()
	a = m.(App)
	if a.errorMsg {
		t.Fatalf("unexpected error: %s", a.message)
	}
	if a.allocs[0].Value != 40 || a.allocs[1].Value != 30 {
		t.Fatalf("allocations = %+v", a.allocs)
	}

	a.formKind = formAllocations
	a.vals.Percents = []string{"40", "40", "10", "10", "10"}
	m, _ = a.submitForm()
	a = m.(App)
	if !a.errorMsg {
		t.Fatal("a set summing 110 should be rejected")
	}
	if a.allocs[1].Value != 30 {
		t.Fatalf("rejected set changed allocations: %+v", a.allocs)
	}
}

func TestMonthlyNavigation(t *testing.T) {
	a := press(t, newTestApp(t), "n", "[", "[", "[")
	if a.month.year != 2023 || a.month.month != time.December {
		t.Fatalf("three months back = %d-%d", a.month.year, a.month.month)
	}
	a = press(t, a, "]")
	if a.month.year != 2024 || a.month.month != time.January {
		t.Fatalf("forward = %d-%d", a.month.year, a.month.month)
	}
	a = press(t, a, "t")
	if a.month != currentMonth(testNow) {
		t.Fatalf("t -> %+v", a.month)
	}
}

func TestEscCancelsForm(t *testing.T) {
	m, _ := newTestApp(t).openTransactionForm(0)
	a := m.(App)
	if a.form == nil || a.formKind != formTransaction {
		t.Fatal("a should open the transaction form")
	}
	a = press(t, a, "esc")
	if a.form != nil || a.message != "Cancelado" {
		t.Fatalf("esc: form=%v message=%q", a.form != nil, a.message)
	}
}

func TestSetupSavesConfig(t *testing.T) {
	t.Setenv("SOBRES_CONFIG", filepath.Join(t.TempDir(), "config.toml"))
	t.Cleanup(func() {
		theme.SetActive(theme.FlexokiDark.Name)
		cli.CurrencySymbol = "$"
	})

	a := newTestApp(t)
	a.needSetup = true
	a = press(t, a, "x")
	if a.formKind != formSetup || a.needSetup {
		t.Fatalf("first key should open setup: kind=%d needSetup=%v", a.formKind, a.needSetup)
	}

	a.setupVals.Currency = "€"
	a.setupVals.Theme = theme.TokyoNight.Name
	a.setupVals.ConfirmOverspend = false
	a.finishSetup()

	if a.errorMsg {
		t.Fatalf("setup failed: %s", a.message)
	}
	if !config.Exists() {
		t.Fatal("config file not written")
	}
	cfg, err := config.Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Display.CurrencySymbol != "€" || cfg.Display.Theme != theme.TokyoNight.Name || cfg.Budget.ConfirmOverspend {
		t.Fatalf("saved config = %+v", cfg)
	}
	if theme.Active.Name != theme.TokyoNight.Name {
		t.Fatalf("active theme = %s", theme.Active.Name)
	}
}

func TestViewRendersEveryTab(t *testing.T) {
	a := newTestApp(t)
	addIncome(t, &a, model.Units(2500))

	for i, tab := range components.Tabs {
		a.activeTab = i
		out := a.View()
		if !strings.Contains(out, tab.Name) {
			t.Fatalf("%s view does not show its tab name", tab.Name)
		}
	}

	a.width = 60
	if out := a.View(); !strings.Contains(out, "too narrow") {
		t.Fatalf("narrow view = %q", out)
	}
}
