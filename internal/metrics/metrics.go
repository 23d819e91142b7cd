package metrics

import (
	"net/http"

	"github.com/orgball2608/insta-story-player/internal/player"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "story_player"

// Metrics turns session events into prometheus series.
type Metrics struct {
	registry *prometheus.Registry

	sessionsOpened prometheus.Counter
	sessionsEnded  *prometheus.CounterVec
	sessionsActive prometheus.Gauge
	items          *prometheus.CounterVec
	pauses         prometheus.Counter
	watchSeconds   prometheus.Histogram
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		sessionsOpened: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_opened_total",
			Help:      "Story sessions opened.",
		}),
		sessionsEnded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_ended_total",
			Help:      "Story sessions ended, by outcome.",
		}, []string{"outcome"}),
		sessionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions_active",
			Help:      "Story sessions currently open.",
		}),
		items: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "items_total",
			Help:      "Story items left, by how they were left.",
		}, []string{"outcome"}),
		pauses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pauses_total",
			Help:      "Holds that paused a running story.",
		}),
		watchSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "item_watch_seconds",
			Help:      "Watched time per story item.",
			Buckets:   []float64{1, 2, 4, 6, 10, 15, 30, 60},
		}),
	}

	m.registry.MustRegister(
		m.sessionsOpened,
		m.sessionsEnded,
		m.sessionsActive,
		m.items,
		m.pauses,
		m.watchSeconds,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

var _ player.Observer = (*Metrics)(nil)

func (m *Metrics) OnEvent(ev player.Event) {
	switch ev.Type {
	case player.EventOpened:
		m.sessionsOpened.Inc()
		m.sessionsActive.Inc()
	case player.EventPaused:
		m.pauses.Inc()
	case player.EventCompleted, player.EventSkipped, player.EventStalled:
		m.items.WithLabelValues(ev.Type.String()).Inc()
		m.watchSeconds.Observe(ev.Elapsed.Seconds())
	case player.EventFinished:
		outcome := "finished"
		if ev.Err != nil {
			outcome = "aborted"
		}
		m.sessionsEnded.WithLabelValues(outcome).Inc()
		m.sessionsActive.Dec()
	case player.EventClosed:
		m.sessionsEnded.WithLabelValues("closed").Inc()
		m.sessionsActive.Dec()
	}
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
