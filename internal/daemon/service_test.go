package daemon

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/theirongolddev/sobres/internal/ledger"
	"github.com/theirongolddev/sobres/internal/logging"
	"github.com/theirongolddev/sobres/internal/model"
	"github.com/theirongolddev/sobres/internal/store"
)

var fixedNow = time.Date(2024, 3, 20, 12, 0, 0, 0, time.UTC)

func newTestService(t *testing.T) (*Service, *store.Memory, *ledger.Ledger) {
	t.Helper()
	mem := store.NewMemory()
	l := ledger.New(model.DefaultCategories)

	s := New(Config{Namespace: "default", EventsBuffer: 10, RatePerSec: 1000}, mem, logging.Discard())
	s.now = func() time.Time { return fixedNow }
	return s, mem, l
}

func save(t *testing.T, mem *store.Memory, l *ledger.Ledger) {
	t.Helper()
	if err := mem.Save(context.Background(), "default", l.State()); err != nil {
		t.Fatalf("save: %v", err)
	}
}

func add(t *testing.T, l *ledger.Ledger, in ledger.TransactionInput) model.Transaction {
	t.Helper()
	tx, err := l.Add(in, ledger.Confirm)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	return tx
}

func get(t *testing.T, h http.Handler, path string, wantCode int, out any) {
	t.Helper()
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
	if rr.Code != wantCode {
		t.Fatalf("GET %s = %d, want %d: %s", path, rr.Code, wantCode, rr.Body.String())
	}
	if out != nil {
		if err := json.Unmarshal(rr.Body.Bytes(), out); err != nil {
			t.Fatalf("GET %s: decode: %v", path, err)
		}
	}
}

func TestDiffSnapshots(t *testing.T) {
	prev := Snapshot{
		Revision:     3,
		Transactions: 10,
		TotalCents:   50_000,
		Balances:     map[model.CategoryID]model.Money{1: 20_000, 2: 30_000},
	}
	curr := Snapshot{
		Revision:     5,
		Transactions: 11,
		TotalCents:   45_000,
		Balances:     map[model.CategoryID]model.Money{1: 15_000, 2: 30_000},
	}

	delta := diffSnapshots(prev, curr)
	if delta.Revisions != 2 {
		t.Fatalf("Revisions delta = %d, want 2", delta.Revisions)
	}
	if delta.Transactions != 1 {
		t.Fatalf("Transactions delta = %d, want 1", delta.Transactions)
	}
	if delta.TotalCents != -5_000 {
		t.Fatalf("Total delta = %d, want -5000", delta.TotalCents)
	}
	if len(delta.Balances) != 1 || delta.Balances[1] != -5_000 {
		t.Fatalf("Balances delta = %v, want only category 1 at -5000", delta.Balances)
	}
}

func TestPublishEventRingBuffer(t *testing.T) {
	s := New(Config{EventsBuffer: 2}, store.NewMemory(), logging.Discard())

	s.publishEvent(Event{ID: 1})
	s.publishEvent(Event{ID: 2})
	s.publishEvent(Event{ID: 3})

	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.events) != 2 {
		t.Fatalf("events len = %d, want 2", len(s.events))
	}
	if s.events[0].ID != 2 || s.events[1].ID != 3 {
		t.Fatalf("events ring contains IDs [%d, %d], want [2, 3]", s.events[0].ID, s.events[1].ID)
	}
}

func TestPollPublishesOnlyOnRevisionChange(t *testing.T) {
	s, mem, l := newTestService(t)
	ctx := context.Background()

	s.pollOnce(ctx)
	if st := s.snapshotStatus(); st.LastError == "" || st.PollCount != 1 {
		t.Fatalf("missing namespace: status = %+v, want error recorded", st)
	}

	save(t, mem, l)
	s.pollOnce(ctx)
	s.pollOnce(ctx)

	add(t, l, ledger.TransactionInput{Description: "Salario", Amount: model.Units(1000), Date: model.NewDate(2024, 3, 1), Type: model.Income})
	save(t, mem, l)
	s.pollOnce(ctx)

	var events []Event
	get(t, s.Handler(), "/v1/events", http.StatusOK, &events)
	if len(events) != 2 {
		t.Fatalf("events = %d, want 2", len(events))
	}
	if events[0].Type != EventSnapshot || events[1].Type != EventLedgerDelta {
		t.Fatalf("event types = %s, %s", events[0].Type, events[1].Type)
	}
	if got := events[1].Delta.Balances[1]; got != model.Units(500) {
		t.Fatalf("delta for Necesidades = %v, want 500.00", got)
	}

	st := s.snapshotStatus()
	if st.LastError != "" {
		t.Fatalf("LastError = %q, want cleared", st.LastError)
	}
	if st.Summary.MonthIncome != model.Units(1000) {
		t.Fatalf("MonthIncome = %v, want 1000.00", st.Summary.MonthIncome)
	}
}

func TestHandlersServeLedger(t *testing.T) {
	s, mem, l := newTestService(t)
	h := s.Handler()

	get(t, h, "/v1/balances", http.StatusServiceUnavailable, nil)

	add(t, l, ledger.TransactionInput{Description: "Salario", Amount: model.Units(1000), Date: model.NewDate(2024, 3, 1), Type: model.Income})
	food := add(t, l, ledger.TransactionInput{Description: "Supermercado", Amount: model.Units(300), Date: model.NewDate(2024, 3, 4), Type: model.Expense, CategoryID: 1})
	save(t, mem, l)
	s.pollOnce(context.Background())

	var balances []BalanceEntry
	get(t, h, "/v1/balances", http.StatusOK, &balances)
	if len(balances) != 5 {
		t.Fatalf("balances = %d entries, want 5", len(balances))
	}
	if b := balances[0]; b.AvailableCents != model.Units(200) || b.AssignedCents != model.Units(500) {
		t.Fatalf("Necesidades = %+v, want 200.00 of 500.00", b)
	}

	var txs []model.Transaction
	get(t, h, "/v1/transactions?type=expense", http.StatusOK, &txs)
	if len(txs) != 1 || txs[0].ID != food.ID {
		t.Fatalf("expense list = %+v", txs)
	}
	get(t, h, "/v1/transactions?limit=1", http.StatusOK, &txs)
	if len(txs) != 1 || txs[0].ID != food.ID {
		t.Fatalf("newest first with limit: %+v", txs)
	}
	get(t, h, "/v1/transactions?q=nothing", http.StatusOK, &txs)
	if len(txs) != 0 {
		t.Fatalf("search = %+v, want none", txs)
	}
	get(t, h, "/v1/transactions?type=transfer", http.StatusBadRequest, nil)
	get(t, h, "/v1/transactions?limit=0", http.StatusBadRequest, nil)

	var one model.Transaction
	get(t, h, "/v1/transactions/2", http.StatusOK, &one)
	if one.Description != "Supermercado" {
		t.Fatalf("transaction 2 = %+v", one)
	}
	get(t, h, "/v1/transactions/99", http.StatusNotFound, nil)

	var sum MonthSummary
	get(t, h, "/v1/summary/2024/3", http.StatusOK, &sum)
	if sum.NetCents != model.Units(700) || sum.ByCategory[1] != model.Units(300) {
		t.Fatalf("summary = %+v", sum)
	}

	var empty EmptyMonth
	get(t, h, "/v1/summary/2024/2", http.StatusNotFound, &empty)
	if !empty.Empty {
		t.Fatal("February should report the empty state")
	}
	get(t, h, "/v1/summary/2024/13", http.StatusBadRequest, nil)

	var trend []model.MonthlyStats
	get(t, h, "/v1/trend?months=3", http.StatusOK, &trend)
	if len(trend) != 3 || trend[0].Net != model.Units(700) {
		t.Fatalf("trend = %+v", trend)
	}
}

func TestTrendAtEndOfMonth(t *testing.T) {
	s, mem, l := newTestService(t)
	s.now = func() time.Time { return time.Date(2024, 3, 31, 22, 0, 0, 0, time.UTC) }

	add(t, l, ledger.TransactionInput{Description: "Salario", Amount: model.Units(1000), Date: model.NewDate(2024, 2, 29), Type: model.Income})
	save(t, mem, l)
	s.pollOnce(context.Background())

	var trend []model.MonthlyStats
	get(t, s.Handler(), "/v1/trend?months=2", http.StatusOK, &trend)
	if len(trend) != 2 {
		t.Fatalf("trend = %d months, want 2", len(trend))
	}
	if trend[0].Month.Month() != time.March || trend[1].Month.Month() != time.February {
		t.Fatalf("months = %s, %s; want March, February", trend[0].Month.Month(), trend[1].Month.Month())
	}
	if trend[1].Income != model.Units(1000) {
		t.Fatalf("February income = %s, want 1000.00", trend[1].Income)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	s, mem, l := newTestService(t)
	save(t, mem, l)
	s.pollOnce(context.Background())
	h := s.Handler()

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rr.Code != http.StatusOK || rr.Body.String() != "ok\n" {
		t.Fatalf("healthz = %d %q", rr.Code, rr.Body.String())
	}

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := rr.Body.String()
	for _, want := range []string{"sobres_polls_total", "sobres_ledger_revision 1", "sobres_category_balance"} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics missing %q", want)
		}
	}
}

func TestRateLimit(t *testing.T) {
	s := New(Config{RatePerSec: 1}, store.NewMemory(), logging.Discard())
	h := s.Handler()

	codes := make([]int, 0, 4)
	for range 4 {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		codes = append(codes, rr.Code)
	}
	if codes[0] != http.StatusOK || codes[3] != http.StatusTooManyRequests {
		t.Fatalf("codes = %v, want burst then 429", codes)
	}
}
