// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Feed metrics
	TokensDiscovered prometheus.Counter
	FeedErrors       prometheus.Counter

	// Trading metrics
	SignalsGenerated prometheus.Counter
	TradesOpened     prometheus.Counter
	TradesClosed     *prometheus.CounterVec
	OpenPositions    prometheus.Gauge

	// Monitor metrics
	MonitorTickLatency prometheus.Histogram

	// Evolution metrics
	EvolutionCycles   prometheus.Counter
	StrategiesBorn    prometheus.Counter
	StrategiesRetired prometheus.Counter
	PopulationFitness prometheus.Gauge
	CurrentGeneration prometheus.Gauge

	// Treasury metrics
	TreasuryTotalSol prometheus.Gauge
	TreasuryLocked   prometheus.Gauge
	TreasuryPnL      prometheus.Gauge

	// Bus metrics
	EventsPublished    *prometheus.CounterVec
	DroppedSubscribers prometheus.Counter
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "evo_trader"
	}

	return &Metrics{
		TokensDiscovered: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "tokens_discovered_total",
			Help:      "Total number of new-token events received",
		}),
		FeedErrors: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "errors_total",
			Help:      "Total number of feed fetch or parse errors",
		}),

		SignalsGenerated: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "trading",
			Name:      "signals_generated_total",
			Help:      "Total number of buy signals generated",
		}),
		TradesOpened: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "trading",
			Name:      "trades_opened_total",
			Help:      "Total number of positions opened",
		}),
		TradesClosed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "trading",
			Name:      "trades_closed_total",
			Help:      "Total number of positions closed by exit reason",
		}, []string{"reason"}),
		OpenPositions: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "trading",
			Name:      "open_positions",
			Help:      "Current number of open positions",
		}),

		MonitorTickLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "monitor",
			Name:      "tick_latency_seconds",
			Help:      "Per-position monitor tick latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}),

		EvolutionCycles: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "evolution",
			Name:      "cycles_total",
			Help:      "Total number of evolution cycles run",
		}),
		StrategiesBorn: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "evolution",
			Name:      "strategies_born_total",
			Help:      "Total number of offspring strategies created",
		}),
		StrategiesRetired: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "evolution",
			Name:      "strategies_retired_total",
			Help:      "Total number of strategies retired",
		}),
		PopulationFitness: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "evolution",
			Name:      "population_avg_fitness",
			Help:      "Average fitness of the population after the last cycle",
		}),
		CurrentGeneration: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "evolution",
			Name:      "current_generation",
			Help:      "Current generation counter",
		}),

		TreasuryTotalSol: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "treasury",
			Name:      "total_sol",
			Help:      "Total treasury balance in SOL",
		}),
		TreasuryLocked: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "treasury",
			Name:      "locked_sol",
			Help:      "SOL locked in open positions",
		}),
		TreasuryPnL: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "treasury",
			Name:      "total_pnl_sol",
			Help:      "Cumulative realized PnL in SOL",
		}),

		EventsPublished: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "events",
			Name:      "published_total",
			Help:      "Total number of events published by kind",
		}, []string{"kind"}),
		DroppedSubscribers: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "events",
			Name:      "dropped_subscribers_total",
			Help:      "Total number of subscribers dropped for falling behind",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("evo_trader")

// RecordTokenDiscovered increments the tokens discovered counter.
func RecordTokenDiscovered() {
	DefaultMetrics.TokensDiscovered.Inc()
}

// RecordFeedError increments the feed error counter.
func RecordFeedError() {
	DefaultMetrics.FeedErrors.Inc()
}

// RecordSignal increments the signals generated counter.
func RecordSignal() {
	DefaultMetrics.SignalsGenerated.Inc()
}

// RecordTradeOpened increments the trades opened counter.
func RecordTradeOpened() {
	DefaultMetrics.TradesOpened.Inc()
}

// RecordTradeClosed increments the trades closed counter for a reason.
func RecordTradeClosed(reason string) {
	DefaultMetrics.TradesClosed.WithLabelValues(reason).Inc()
}

// SetOpenPositions updates the open positions gauge.
func SetOpenPositions(n int) {
	DefaultMetrics.OpenPositions.Set(float64(n))
}

// ObserveMonitorTick records one monitor tick latency.
func ObserveMonitorTick(seconds float64) {
	DefaultMetrics.MonitorTickLatency.Observe(seconds)
}

// RecordEvolutionCycle records the outcome of one evolution cycle.
func RecordEvolutionCycle(births, deaths int, avgFitness float64, generation int) {
	DefaultMetrics.EvolutionCycles.Inc()
	DefaultMetrics.StrategiesBorn.Add(float64(births))
	DefaultMetrics.StrategiesRetired.Add(float64(deaths))
	DefaultMetrics.PopulationFitness.Set(avgFitness)
	DefaultMetrics.CurrentGeneration.Set(float64(generation))
}

// UpdateTreasury updates the treasury gauges.
func UpdateTreasury(totalSol, locked, pnl float64) {
	DefaultMetrics.TreasuryTotalSol.Set(totalSol)
	DefaultMetrics.TreasuryLocked.Set(locked)
	DefaultMetrics.TreasuryPnL.Set(pnl)
}

// RecordEventPublished counts one published event.
func RecordEventPublished(kind string) {
	DefaultMetrics.EventsPublished.WithLabelValues(kind).Inc()
}

// RecordDroppedSubscriber counts one dropped subscriber.
func RecordDroppedSubscriber() {
	DefaultMetrics.DroppedSubscribers.Inc()
}
