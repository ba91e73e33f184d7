// Package metrics exposes ledger and RPC metrics through a private Prometheus
// registry.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mmynk/coffeeledger/internal/apperrors"
	"github.com/mmynk/coffeeledger/internal/ledger"
	"github.com/mmynk/coffeeledger/internal/models"
	"github.com/mmynk/coffeeledger/internal/money"
)

var _ ledger.Recorder = (*Metrics)(nil)

// Metrics bundles coffee ledger metrics.
type Metrics struct {
	registry *prometheus.Registry

	RoundsTotal     *prometheus.CounterVec
	RoundCost       prometheus.Histogram
	PayerSelected   *prometheus.CounterVec
	OperationErrors *prometheus.CounterVec
	RPCDuration     *prometheus.HistogramVec
}

// New constructs metrics and registers them on a fresh registry, so several
// instances can coexist in tests.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		RoundsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "coffeeledger_rounds_total",
				Help: "Total settled rounds by tie strategy",
			},
			[]string{"strategy"},
		),
		RoundCost: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "coffeeledger_round_cost",
			Help:    "Total cost of settled rounds",
			Buckets: []float64{5, 10, 15, 20, 30, 40, 60, 80, 120},
		}),
		PayerSelected: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "coffeeledger_payer_selected_total",
				Help: "Rounds paid by each person",
			},
			[]string{"payer"},
		),
		OperationErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "coffeeledger_operation_errors_total",
				Help: "Failed ledger operations by operation and error kind",
			},
			[]string{"operation", "kind"},
		),
		RPCDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "coffeeledger_rpc_duration_seconds",
				Help:    "RPC handling duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"procedure", "code"},
		),
	}
	m.registry.MustRegister(
		m.RoundsTotal,
		m.RoundCost,
		m.PayerSelected,
		m.OperationErrors,
		m.RPCDuration,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) RoundSettled(strategy models.TieStrategy, payer string, total money.Money) {
	m.RoundsTotal.WithLabelValues(string(strategy)).Inc()
	m.RoundCost.Observe(total.Float64())
	m.PayerSelected.WithLabelValues(payer).Inc()
}

func (m *Metrics) OperationFailed(operation string, err error) {
	m.OperationErrors.WithLabelValues(operation, apperrors.KindOf(err).String()).Inc()
}

// ObserveRPC records how long a procedure took. code is "ok" or a connect code.
func (m *Metrics) ObserveRPC(procedure, code string, d time.Duration) {
	m.RPCDuration.WithLabelValues(procedure, code).Observe(d.Seconds())
}
