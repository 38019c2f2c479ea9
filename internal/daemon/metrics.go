package daemon

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type metrics struct {
	registry    *prometheus.Registry
	polls       *prometheus.CounterVec
	events      *prometheus.CounterVec
	rateLimited prometheus.Counter
	subscribers prometheus.Gauge
	revision    prometheus.Gauge
	txCount     prometheus.Gauge
	balance     *prometheus.GaugeVec
}

func newMetrics(reg *prometheus.Registry) *metrics {
	f := promauto.With(reg)
	return &metrics{
		registry: reg,
		polls: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sobres_polls_total",
				Help: "Store polls by result",
			},
			[]string{"result"},
		),
		events: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sobres_events_total",
				Help: "Events published by type",
			},
			[]string{"type"},
		),
		rateLimited: f.NewCounter(prometheus.CounterOpts{
			Name: "sobres_http_rate_limited_total",
			Help: "Requests rejected by the rate limiter",
		}),
		subscribers: f.NewGauge(prometheus.GaugeOpts{
			Name: "sobres_stream_subscribers",
			Help: "Open event stream connections",
		}),
		revision: f.NewGauge(prometheus.GaugeOpts{
			Name: "sobres_ledger_revision",
			Help: "Revision of the last loaded ledger",
		}),
		txCount: f.NewGauge(prometheus.GaugeOpts{
			Name: "sobres_ledger_transactions",
			Help: "Transactions in the last loaded ledger",
		}),
		balance: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "sobres_category_balance",
				Help: "Available funds per category, in currency units",
			},
			[]string{"category_id"},
		),
	}
}

func (m *metrics) observe(snap Snapshot) {
	m.revision.Set(float64(snap.Revision))
	m.txCount.Set(float64(snap.Transactions))
	for id, bal := range snap.Balances {
		m.balance.WithLabelValues(strconv.Itoa(int(id))).Set(bal.Float())
	}
}
