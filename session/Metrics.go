package session

import "github.com/prometheus/client_golang/prometheus"

// metrics holds the manager's prometheus collectors. Every manager
// owns its own registry so tests can build managers freely without
// tripping duplicate-registration panics.
type metrics struct {
	started      prometheus.Counter
	finished     *prometheus.CounterVec
	active       prometheus.Gauge
	queueDepth   prometheus.Gauge
	epochSeconds prometheus.Histogram
}

func newMetrics(reg *prometheus.Registry) *metrics {
	m := &metrics{
		started: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gotrain_sessions_started_total",
			Help: "Training sessions admitted to the worker pool.",
		}),
		finished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gotrain_sessions_finished_total",
			Help: "Training sessions that reached a terminal status.",
		}, []string{"status"}),
		active: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "gotrain_active_sessions",
			Help: "Live (pending, running or paused) sessions.",
		}),
		queueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "gotrain_queue_depth",
			Help: "Sessions waiting for a free worker.",
		}),
		epochSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "gotrain_epoch_duration_seconds",
			Help:    "Wall time per training epoch.",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
		}),
	}

	reg.MustRegister(m.started, m.finished, m.active, m.queueDepth,
		m.epochSeconds)
	return m
}
