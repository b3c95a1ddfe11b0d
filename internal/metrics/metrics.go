// Package metrics exposes pool activity and monitor cycles as Prometheus metrics.
package metrics

import (
	"net/http"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/elys-network/lender/internal/events"
	"github.com/elys-network/lender/internal/logger"
	"github.com/elys-network/lender/internal/types"
	"github.com/elys-network/lender/internal/utils"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the lender.
type Metrics struct {
	registry *prometheus.Registry

	// Pool activity
	EventsTotal *prometheus.CounterVec

	// Pool state, in whole stable tokens
	PoolSize        *prometheus.GaugeVec
	PoolMaxLimit    *prometheus.GaugeVec
	PenaltyFees     *prometheus.GaugeVec
	StrategyBalance *prometheus.GaugeVec
	Lenders         *prometheus.GaugeVec

	// Monitor
	CyclesTotal   *prometheus.CounterVec
	CycleDuration prometheus.Histogram
}

// NewMetrics creates a Metrics instance registered on its own registry.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "lender"
	}
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		EventsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pool",
			Name:      "events_total",
			Help:      "Total number of committed pool events by kind",
		}, []string{"pool", "kind"}),
		PoolSize: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "pool",
			Name:      "size_tokens",
			Help:      "Active principal held by the pool",
		}, []string{"pool"}),
		PoolMaxLimit: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "pool",
			Name:      "max_limit_tokens",
			Help:      "Pool capacity",
		}, []string{"pool"}),
		PenaltyFees: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "pool",
			Name:      "penalty_fees_tokens",
			Help:      "Emergency withdrawal penalties not yet withdrawn by the admin",
		}, []string{"pool"}),
		StrategyBalance: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "pool",
			Name:      "strategy_balance_tokens",
			Help:      "Balance the active strategy holds for the pool, yield included",
		}, []string{"pool"}),
		Lenders: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "pool",
			Name:      "lenders",
			Help:      "Number of owners with at least one active position",
		}, []string{"pool"}),
		CyclesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "monitor",
			Name:      "cycles_total",
			Help:      "Total number of monitor cycles by result",
		}, []string{"result"}),
		CycleDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "monitor",
			Name:      "cycle_duration_seconds",
			Help:      "Duration of monitor cycles",
			Buckets:   prometheus.DefBuckets,
		}),
	}
}

// Registry returns the registry every metric is registered on.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Emit counts a committed pool event.
func (m *Metrics) Emit(ev events.Event) {
	m.EventsTotal.WithLabelValues(ev.Pool, string(ev.Kind)).Inc()
}

var _ events.Emitter = (*Metrics)(nil)

// ObservePool records the state of one pool.
func (m *Metrics) ObservePool(info types.PoolInfo, strategyBalance sdkmath.Int, lenders int) {
	dec := int(info.StableToken.Decimals)
	m.PoolSize.WithLabelValues(info.Name).Set(tokens(info.PoolSize, dec))
	m.PoolMaxLimit.WithLabelValues(info.Name).Set(tokens(info.MaxLimit, dec))
	m.PenaltyFees.WithLabelValues(info.Name).Set(tokens(info.TotalPenaltyFee, dec))
	m.StrategyBalance.WithLabelValues(info.Name).Set(tokens(strategyBalance, dec))
	m.Lenders.WithLabelValues(info.Name).Set(float64(lenders))
}

// ObserveCycle records the outcome of one monitor cycle.
func (m *Metrics) ObserveCycle(d time.Duration, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	m.CyclesTotal.WithLabelValues(result).Inc()
	m.CycleDuration.Observe(d.Seconds())
}

func tokens(amount sdkmath.Int, decimals int) float64 {
	if amount.IsNil() {
		return 0
	}
	v, err := utils.SDKIntToFloat64(amount, decimals)
	if err != nil {
		l := logger.GetForComponent("metrics")
		l.Warn().Err(err).Str("amount", amount.String()).Msg("Amount not representable as a gauge")
		return 0
	}
	return v
}
