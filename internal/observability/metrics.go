package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the poll loop.
type Metrics struct {
	Runs        *prometheus.CounterVec // labels: outcome={success,error}
	FetchErrors prometheus.Counter

	StationsParsed prometheus.Gauge
	AbsentReadings prometheus.Counter

	AlertsEmitted *prometheus.CounterVec // labels: level={1,2,3}
	Rearms        prometheus.Counter
	Heartbeats    prometheus.Counter

	PublishErrors prometheus.Counter

	CycleDuration prometheus.Histogram
	PollerRunning prometheus.Gauge
}

// NewMetrics creates and registers all poller metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		Runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "river_alerts",
			Name:      "runs_total",
			Help:      "Completed poll cycles by outcome.",
		}, []string{"outcome"}),
		FetchErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "river_alerts",
			Name:      "fetch_errors_total",
			Help:      "Failed fetches or parses of the source page.",
		}),
		StationsParsed: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "river_alerts",
			Name:      "stations_parsed",
			Help:      "Stations found in the most recent snapshot.",
		}),
		AbsentReadings: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "river_alerts",
			Name:      "absent_readings_total",
			Help:      "Monitored stations that reported no usable level.",
		}),
		AlertsEmitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "river_alerts",
			Name:      "alerts_emitted_total",
			Help:      "Alert events emitted, by level reached.",
		}, []string{"level"}),
		Rearms: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "river_alerts",
			Name:      "rearms_total",
			Help:      "Stations whose alert level dropped during a cycle.",
		}),
		Heartbeats: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "river_alerts",
			Name:      "heartbeats_total",
			Help:      "Fallback feed items emitted for quiet runs.",
		}),
		PublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "river_alerts",
			Name:      "publish_errors_total",
			Help:      "Failed Kafka publishes of alert events.",
		}),
		CycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "river_alerts",
			Name:      "cycle_duration_seconds",
			Help:      "Duration of a complete fetch-evaluate-publish cycle.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		PollerRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "river_alerts",
			Name:      "poller_running",
			Help:      "1 when the poll loop is active, 0 when shut down.",
		}),
	}

	prometheus.MustRegister(
		m.Runs,
		m.FetchErrors,
		m.StationsParsed,
		m.AbsentReadings,
		m.AlertsEmitted,
		m.Rearms,
		m.Heartbeats,
		m.PublishErrors,
		m.CycleDuration,
		m.PollerRunning,
	)

	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		Runs:           prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "river_alerts", Name: "runs_total"}, []string{"outcome"}),
		FetchErrors:    prometheus.NewCounter(prometheus.CounterOpts{Namespace: "river_alerts", Name: "fetch_errors_total"}),
		StationsParsed: prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "river_alerts", Name: "stations_parsed"}),
		AbsentReadings: prometheus.NewCounter(prometheus.CounterOpts{Namespace: "river_alerts", Name: "absent_readings_total"}),
		AlertsEmitted:  prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "river_alerts", Name: "alerts_emitted_total"}, []string{"level"}),
		Rearms:         prometheus.NewCounter(prometheus.CounterOpts{Namespace: "river_alerts", Name: "rearms_total"}),
		Heartbeats:     prometheus.NewCounter(prometheus.CounterOpts{Namespace: "river_alerts", Name: "heartbeats_total"}),
		PublishErrors:  prometheus.NewCounter(prometheus.CounterOpts{Namespace: "river_alerts", Name: "publish_errors_total"}),
		CycleDuration:  prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "river_alerts", Name: "cycle_duration_seconds"}),
		PollerRunning:  prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "river_alerts", Name: "poller_running"}),
	}
}
