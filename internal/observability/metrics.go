// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"t2e-leaderboard/internal/domain"
)

// DefaultNamespace prefixes every metric name.
const DefaultNamespace = "t2e"

// Metrics holds all Prometheus metrics for the application.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	// Ingestion metrics
	TradesIngested *prometheus.CounterVec

	// Engine metrics
	OperationsTotal   *prometheus.CounterVec
	OperationDuration *prometheus.HistogramVec

	// Leaderboard metrics
	RankedTraders   prometheus.Gauge
	LastUpdate      prometheus.Gauge
	EmergencyPaused prometheus.Gauge
	SnapshotsTaken  prometheus.Counter

	// Reward metrics
	DistributionRuns   *prometheus.CounterVec
	RewardsDistributed prometheus.Counter
	PayoutsTotal       prometheus.Counter
	AdjustedPool       prometheus.Gauge
}

// NewMetrics creates a Metrics instance registered on reg.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	factory := promauto.With(reg)

	return &Metrics{
		TradesIngested: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "trades_total",
			Help:      "Total number of ingested trades by source and outcome",
		}, []string{"source", "outcome"}),

		OperationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "operations_total",
			Help:      "Total number of engine operations by status",
		}, []string{"operation", "status"}),
		OperationDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "operation_duration_seconds",
			Help:      "Engine operation duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),

		RankedTraders: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "leaderboard",
			Name:      "ranked_traders",
			Help:      "Number of traders on the leaderboard",
		}),
		LastUpdate: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "leaderboard",
			Name:      "last_update_timestamp",
			Help:      "Unix timestamp of the last leaderboard update",
		}),
		EmergencyPaused: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "leaderboard",
			Name:      "emergency_paused",
			Help:      "1 while reward distribution is paused",
		}),
		SnapshotsTaken: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "history",
			Name:      "snapshots_total",
			Help:      "Total number of leaderboard snapshots appended",
		}),

		DistributionRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "rewards",
			Name:      "distribution_runs_total",
			Help:      "Total number of distribution runs by status",
		}, []string{"status"}),
		RewardsDistributed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "rewards",
			Name:      "distributed_amount_total",
			Help:      "Total reward tokens transferred",
		}),
		PayoutsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "rewards",
			Name:      "payouts_total",
			Help:      "Total number of executed payouts",
		}),
		AdjustedPool: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "rewards",
			Name:      "adjusted_pool",
			Help:      "Reward pool after halving in the last distribution",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// TradeIngested counts one handled trade.
func (m *Metrics) TradeIngested(source, outcome string) {
	if m == nil {
		return
	}
	if source == "" {
		source = "unknown"
	}
	m.TradesIngested.WithLabelValues(source, outcome).Inc()
}

// ObserveOperation records the outcome and latency of an engine operation.
func (m *Metrics) ObserveOperation(operation string, start time.Time, err error) {
	if m == nil {
		return
	}
	m.OperationsTotal.WithLabelValues(operation, Status(err)).Inc()
	m.OperationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

// SetLeaderboard publishes the state of lb.
func (m *Metrics) SetLeaderboard(lb *domain.Leaderboard) {
	if m == nil || lb == nil {
		return
	}
	m.RankedTraders.Set(float64(lb.Len()))
	m.LastUpdate.Set(float64(lb.LastUpdate))
	paused := 0.0
	if lb.EmergencyPause {
		paused = 1
	}
	m.EmergencyPaused.Set(paused)
}

// SnapshotTaken counts one appended snapshot.
func (m *Metrics) SnapshotTaken() {
	if m == nil {
		return
	}
	m.SnapshotsTaken.Inc()
}

// RecordDistribution records a distribution run. amounts are the executed
// transfers, which may be fewer than planned when err is non-nil.
func (m *Metrics) RecordDistribution(adjustedPool uint64, amounts []uint64, err error) {
	if m == nil {
		return
	}
	m.DistributionRuns.WithLabelValues(Status(err)).Inc()
	if err == nil || len(amounts) > 0 {
		m.AdjustedPool.Set(float64(adjustedPool))
	}
	for _, a := range amounts {
		m.RewardsDistributed.Add(float64(a))
		m.PayoutsTotal.Inc()
	}
}

// Status maps an error to a metric label.
func Status(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrEmergencyPaused):
		return "paused"
	case errors.Is(err, domain.ErrUpdateTooSoon), errors.Is(err, domain.ErrTradeSpamDetected):
		return "rate_limited"
	default:
		return "error"
	}
}
