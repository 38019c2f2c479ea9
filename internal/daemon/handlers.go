package daemon

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/theirongolddev/sobres/internal/ledger"
	"github.com/theirongolddev/sobres/internal/logging"
	"github.com/theirongolddev/sobres/internal/model"
	"github.com/theirongolddev/sobres/internal/report"
)

const (
	defaultListLimit = 50
	maxListLimit     = 1000
	maxTrendMonths   = 120
)

type errorBody struct {
	Error string `json:"error"`
}

// EmptyMonth is the body of /v1/summary for a month with no transactions.
type EmptyMonth struct {
	Year  int        `json:"year"`
	Month time.Month `json:"month"`
	Empty bool       `json:"empty"`
}

// Handler returns the HTTP API.
func (s *Service) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(logging.Middleware(s.log))
	r.Use(s.rateLimit)

	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", promhttp.HandlerFor(s.metrics.registry, promhttp.HandlerOpts{}))

	r.Route("/v1", func(r chi.Router) {
		r.Get("/status", s.handleStatus)
		r.Get("/events", s.handleEvents)
		r.Get("/stream", s.handleStream)

		r.Group(func(r chi.Router) {
			r.Use(s.requireLedger)
			r.Get("/balances", s.handleBalances)
			r.Get("/allocations", s.handleAllocations)
			r.Get("/transactions", s.handleTransactions)
			r.Get("/transactions/{id}", s.handleTransaction)
			r.Get("/summary/{year}/{month}", s.handleSummary)
			r.Get("/trend", s.handleTrend)
		})
	})
	return r
}

// requireLedger answers 503 until the first successful poll.
func (s *Service) requireLedger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.current() == nil {
			writeJSON(w, http.StatusServiceUnavailable, errorBody{Error: "ledger not loaded yet"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Service) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Service) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.snapshotStatus())
}

// BalanceEntry is one row of /v1/balances.
type BalanceEntry struct {
	CategoryID     model.CategoryID `json:"category_id"`
	Name           string           `json:"name"`
	Color          string           `json:"color"`
	Percent        int              `json:"percent"`
	AvailableCents model.Money      `json:"available_cents"`
	AssignedCents  model.Money      `json:"assigned_cents"`
	Usage          float64          `json:"usage"`
}

func (s *Service) handleBalances(w http.ResponseWriter, _ *http.Request) {
	l := s.current()
	now := s.now()

	txs := collect(l, "")
	income := report.MonthIncome(txs, now.Year(), now.Month())
	envelopes := report.EnvelopeUsage(l.Allocations(), l.Balances(), income, l.Catalog())

	out := make([]BalanceEntry, 0, len(envelopes))
	for _, e := range envelopes {
		out = append(out, BalanceEntry{
			CategoryID:     e.Category.ID,
			Name:           e.Category.Name,
			Color:          e.Category.Color,
			Percent:        e.Percent,
			AvailableCents: e.Available,
			AssignedCents:  e.Assigned,
			Usage:          e.Usage,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Service) handleAllocations(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.current().Allocations())
}

func (s *Service) handleTransactions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var filter model.TransactionType
	if v := q.Get("type"); v != "" {
		t, err := model.ParseTransactionType(v)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
			return
		}
		filter = t
	}

	limit := defaultListLimit
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: "limit must be a positive integer"})
			return
		}
		limit = min(n, maxListLimit)
	}

	txs := report.FilterByText(collect(s.current(), filter), q.Get("q"))
	if len(txs) > limit {
		txs = txs[:limit]
	}
	if txs == nil {
		txs = []model.Transaction{}
	}
	writeJSON(w, http.StatusOK, txs)
}

func (s *Service) handleTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid transaction id"})
		return
	}
	tx, ok := s.current().Get(id)
	if !ok {
		writeJSON(w, http.StatusNotFound, errorBody{Error: (&ledger.NotFoundError{ID: id}).Error()})
		return
	}
	writeJSON(w, http.StatusOK, tx)
}

// MonthSummary is the body of /v1/summary for a month with transactions.
type MonthSummary struct {
	Year         int                              `json:"year"`
	Month        time.Month                       `json:"month"`
	Transactions int                              `json:"transactions"`
	IncomeCents  model.Money                      `json:"income_cents"`
	ExpenseCents model.Money                      `json:"expense_cents"`
	NetCents     model.Money                      `json:"net_cents"`
	ByCategory   map[model.CategoryID]model.Money `json:"by_category_cents"`
}

func (s *Service) handleSummary(w http.ResponseWriter, r *http.Request) {
	year, errY := strconv.Atoi(chi.URLParam(r, "year"))
	month, errM := strconv.Atoi(chi.URLParam(r, "month"))
	if errY != nil || errM != nil || month < 1 || month > 12 {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "want /v1/summary/{year}/{month} with month 1-12"})
		return
	}

	sum, ok := s.current().Summarize(year, time.Month(month))
	if !ok {
		writeJSON(w, http.StatusNotFound, EmptyMonth{Year: year, Month: time.Month(month), Empty: true})
		return
	}
	writeJSON(w, http.StatusOK, MonthSummary{
		Year:         sum.Year,
		Month:        sum.Month,
		Transactions: sum.Transactions,
		IncomeCents:  sum.Income,
		ExpenseCents: sum.Expense,
		NetCents:     sum.Net,
		ByCategory:   sum.ByCategory,
	})
}

func (s *Service) handleTrend(w http.ResponseWriter, r *http.Request) {
	months := 6
	if v := r.URL.Query().Get("months"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > maxTrendMonths {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: "months must be between 1 and 120"})
			return
		}
		months = n
	}

	now := s.now()
	from := time.Date(now.Year(), now.Month()-time.Month(months-1), 1, 0, 0, 0, 0, time.UTC)
	writeJSON(w, http.StatusOK, report.AggregateMonths(collect(s.current(), ""), from, now))
}

func (s *Service) handleEvents(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	events := make([]Event, len(s.events))
	copy(events, s.events)
	s.mu.RUnlock()

	writeJSON(w, http.StatusOK, events)
}

func (s *Service) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := make(chan Event, 16)
	id := s.addSubscriber(ch)
	defer s.removeSubscriber(id)

	// Send current snapshot immediately.
	writeSSE(w, Event{
		Type:      EventSnapshot,
		Timestamp: s.now(),
		Snapshot:  s.snapshotStatus().Summary,
	})
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev := <-ch:
			writeSSE(w, ev)
			flusher.Flush()
		}
	}
}

func collect(l *ledger.Ledger, filter model.TransactionType) []model.Transaction {
	var txs []model.Transaction
	for tx := range l.Transactions(filter) {
		txs = append(txs, tx)
	}
	return txs
}
