// Package daemon serves a read-only view of a saved ledger over HTTP and
// streams change events as the ledger is edited by other processes.
package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/theirongolddev/sobres/internal/ledger"
	"github.com/theirongolddev/sobres/internal/logging"
	"github.com/theirongolddev/sobres/internal/model"
	"github.com/theirongolddev/sobres/internal/report"
	"github.com/theirongolddev/sobres/internal/store"
)

// Config controls the daemon runtime behavior.
type Config struct {
	Namespace    string
	Backend      string
	DataDir      string
	Interval     time.Duration
	Addr         string
	EventsBuffer int
	// RatePerSec limits requests per client address.
	RatePerSec int
}

// Snapshot is a compact ledger state for status and event payloads.
type Snapshot struct {
	At           time.Time                        `json:"at"`
	Revision     int64                            `json:"revision"`
	Transactions int                              `json:"transactions"`
	TotalCents   model.Money                      `json:"total_cents"`
	Balances     map[model.CategoryID]model.Money `json:"balances_cents"`
	MonthIncome  model.Money                      `json:"month_income_cents"`
	MonthExpense model.Money                      `json:"month_expense_cents"`
	MonthBalance model.Money                      `json:"month_balance_cents"`
}

// Delta captures what changed between two polls.
type Delta struct {
	Revisions    int64                            `json:"revisions"`
	Transactions int                              `json:"transactions"`
	TotalCents   model.Money                      `json:"total_cents"`
	Balances     map[model.CategoryID]model.Money `json:"balances_cents,omitempty"`
}

// Event is emitted whenever the saved ledger changes.
type Event struct {
	ID        int64     `json:"id"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Snapshot  Snapshot  `json:"snapshot"`
	Delta     Delta     `json:"delta"`
}

// Event types.
const (
	EventSnapshot    = "snapshot"
	EventLedgerDelta = "ledger_delta"
)

// Status is served at /v1/status.
type Status struct {
	StartedAt       time.Time `json:"started_at"`
	LastPollAt      time.Time `json:"last_poll_at"`
	PollIntervalSec int       `json:"poll_interval_sec"`
	PollCount       int64     `json:"poll_count"`
	Namespace       string    `json:"namespace"`
	Backend         string    `json:"backend"`
	DataDir         string    `json:"data_dir"`
	Summary         Snapshot  `json:"summary"`
	LastError       string    `json:"last_error,omitempty"`
	EventCount      int       `json:"event_count"`
	SubscriberCount int       `json:"subscriber_count"`
}

// Service provides the daemon runtime and HTTP API.
type Service struct {
	cfg     Config
	source  store.Loader
	log     *slog.Logger
	metrics *metrics
	now     func() time.Time

	mu          sync.RWMutex
	startedAt   time.Time
	lastPollAt  time.Time
	pollCount   int64
	lastError   string
	hasSnapshot bool
	snapshot    Snapshot
	ledger      *ledger.Ledger
	nextEventID int64
	events      []Event

	nextSubID int
	subs      map[int]chan Event

	limiter *visitors
}

// New returns a daemon serving the ledger that source loads.
func New(cfg Config, source store.Loader, logger *slog.Logger) *Service {
	if cfg.Interval < time.Second {
		cfg.Interval = 5 * time.Second
	}
	if cfg.EventsBuffer < 1 {
		cfg.EventsBuffer = 200
	}
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:8787"
	}
	if cfg.Namespace == "" {
		cfg.Namespace = "default"
	}
	if cfg.RatePerSec < 1 {
		cfg.RatePerSec = 20
	}

	return &Service{
		cfg:       cfg,
		source:    source,
		log:       logging.Component(logger, logging.ComponentServer).With(logging.FieldNamespace, cfg.Namespace),
		metrics:   newMetrics(prometheus.NewRegistry()),
		now:       time.Now,
		startedAt: time.Now(),
		subs:      make(map[int]chan Event),
		limiter:   newVisitors(cfg.RatePerSec, cfg.RatePerSec*2),
	}
}

// Run starts HTTP endpoints and polling until ctx is canceled.
func (s *Service) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Seed initial snapshot so status is useful immediately.
	s.pollOnce(ctx)
	s.log.Info("listening", "addr", s.cfg.Addr, "interval", s.cfg.Interval)

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		case <-ticker.C:
			s.pollOnce(ctx)
			s.limiter.sweep(3 * time.Minute)
		case err := <-errCh:
			return fmt.Errorf("daemon http server: %w", err)
		}
	}
}

func (s *Service) pollOnce(ctx context.Context) {
	rec, err := s.source.Load(ctx, s.cfg.Namespace)
	if err == nil {
		var l *ledger.Ledger
		l, err = ledger.Restore(model.DefaultCategories, rec.State)
		if err == nil {
			s.apply(rec.Revision, l)
			return
		}
	}

	if errors.Is(err, store.ErrNotFound) {
		err = fmt.Errorf("namespace %q has no saved ledger", s.cfg.Namespace)
	}

	s.mu.Lock()
	s.lastError = err.Error()
	s.lastPollAt = s.now()
	s.pollCount++
	s.mu.Unlock()
	s.metrics.polls.WithLabelValues("error").Inc()
	s.log.Warn("poll failed", logging.FieldError, err)
}

// apply installs a freshly loaded ledger and publishes the change, if any.
func (s *Service) apply(revision int64, l *ledger.Ledger) {
	now := s.now()
	snap := snapshotOf(l, revision, now)

	var (
		ev      Event
		publish bool
	)

	s.mu.Lock()
	prev := s.snapshot
	prevExists := s.hasSnapshot

	s.hasSnapshot = true
	s.snapshot = snap
	s.ledger = l
	s.lastPollAt = now
	s.pollCount++
	s.lastError = ""

	switch {
	case !prevExists:
		s.nextEventID++
		ev = Event{ID: s.nextEventID, Type: EventSnapshot, Timestamp: now, Snapshot: snap}
		publish = true
	case prev.Revision != snap.Revision:
		s.nextEventID++
		ev = Event{ID: s.nextEventID, Type: EventLedgerDelta, Timestamp: now, Snapshot: snap, Delta: diffSnapshots(prev, snap)}
		publish = true
	}
	s.mu.Unlock()

	s.metrics.polls.WithLabelValues("ok").Inc()
	s.metrics.observe(snap)
	if publish {
		s.publishEvent(ev)
	}
}

func snapshotOf(l *ledger.Ledger, revision int64, at time.Time) Snapshot {
	cards := report.CurrentMonthCards(collect(l, ""), at)

	return Snapshot{
		At:           at,
		Revision:     revision,
		Transactions: l.Len(),
		TotalCents:   l.Total(),
		Balances:     l.Balances(),
		MonthIncome:  cards.Income,
		MonthExpense: cards.Expense,
		MonthBalance: cards.Balance,
	}
}

func diffSnapshots(prev, curr Snapshot) Delta {
	d := Delta{
		Revisions:    curr.Revision - prev.Revision,
		Transactions: curr.Transactions - prev.Transactions,
		TotalCents:   curr.TotalCents - prev.TotalCents,
	}
	for id, bal := range curr.Balances {
		if diff := bal - prev.Balances[id]; diff != 0 {
			if d.Balances == nil {
				d.Balances = make(map[model.CategoryID]model.Money)
			}
			d.Balances[id] = diff
		}
	}
	return d
}

func (s *Service) publishEvent(ev Event) {
	s.mu.Lock()
	s.events = append(s.events, ev)
	if len(s.events) > s.cfg.EventsBuffer {
		s.events = s.events[len(s.events)-s.cfg.EventsBuffer:]
	}

	for _, ch := range s.subs {
		select {
		case ch <- ev:
		default:
		}
	}
	s.mu.Unlock()

	s.metrics.events.WithLabelValues(ev.Type).Inc()
}

func (s *Service) snapshotStatus() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Status{
		StartedAt:       s.startedAt,
		LastPollAt:      s.lastPollAt,
		PollIntervalSec: int(s.cfg.Interval.Seconds()),
		PollCount:       s.pollCount,
		Namespace:       s.cfg.Namespace,
		Backend:         s.cfg.Backend,
		DataDir:         s.cfg.DataDir,
		Summary:         s.snapshot,
		LastError:       s.lastError,
		EventCount:      len(s.events),
		SubscriberCount: len(s.subs),
	}
}

// current returns the last loaded ledger, or nil before the first
// successful poll. The ledger is never modified after it is installed.
func (s *Service) current() *ledger.Ledger {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ledger
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeSSE(w http.ResponseWriter, ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	_, _ = fmt.Fprintf(w, "event: %s\n", ev.Type)
	_, _ = fmt.Fprintf(w, "data: %s\n\n", data)
}

func (s *Service) addSubscriber(ch chan Event) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSubID++
	id := s.nextSubID
	s.subs[id] = ch
	s.metrics.subscribers.Set(float64(len(s.subs)))
	return id
}

func (s *Service) removeSubscriber(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subs, id)
	s.metrics.subscribers.Set(float64(len(s.subs)))
}
