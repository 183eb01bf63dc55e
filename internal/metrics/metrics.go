// Package metrics exposes the Prometheus instruments shared by the pipeline
// and the engine. A nil *Metrics is a valid no-op receiver so tests can skip
// registration entirely.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles the collectors of one indexer instance.
type Metrics struct {
	eventsHandled  *prometheus.CounterVec
	eventFailures  *prometheus.CounterVec
	oddsFailures   *prometheus.CounterVec
	betsSettled    *prometheus.CounterVec
	handleDuration prometheus.Histogram
}

// New registers all collectors on reg and returns the bundle.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		eventsHandled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "betcore",
			Name:      "events_handled_total",
			Help:      "Chain events fully processed, by event name.",
		}, []string{"event"}),
		eventFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "betcore",
			Name:      "event_failures_total",
			Help:      "Chain events abandoned partway, by event name.",
		}, []string{"event"}),
		oddsFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "betcore",
			Name:      "odds_failures_total",
			Help:      "Odds computations that returned an error, by version.",
		}, []string{"version"}),
		betsSettled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "betcore",
			Name:      "bets_settled_total",
			Help:      "Bets finalized by the settlement cascade, by result.",
		}, []string{"result"}),
		handleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "betcore",
			Name:      "event_handle_seconds",
			Help:      "Wall time spent processing one event.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 14),
		}),
	}
	reg.MustRegister(m.eventsHandled, m.eventFailures, m.oddsFailures, m.betsSettled, m.handleDuration)
	return m
}

func (m *Metrics) EventHandled(name string) {
	if m == nil {
		return
	}
	m.eventsHandled.WithLabelValues(name).Inc()
}

func (m *Metrics) EventFailed(name string) {
	if m == nil {
		return
	}
	m.eventFailures.WithLabelValues(name).Inc()
}

func (m *Metrics) OddsFailed(version string) {
	if m == nil {
		return
	}
	m.oddsFailures.WithLabelValues(version).Inc()
}

func (m *Metrics) BetSettled(result string) {
	if m == nil {
		return
	}
	m.betsSettled.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveHandleDuration(seconds float64) {
	if m == nil {
		return
	}
	m.handleDuration.Observe(seconds)
}
