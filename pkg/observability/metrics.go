package observability

import (
	"context"
	"sync"

	"github.com/aretw0/mediabridge/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the run collectors.
type Metrics struct {
	RunsStarted *prometheus.CounterVec
	RunsEnded   *prometheus.CounterVec
	RunDuration *prometheus.HistogramVec
	LogLines    *prometheus.CounterVec
	ActiveRuns  prometheus.Gauge

	mu     sync.Mutex
	active map[string]struct{} // run IDs counted in ActiveRuns
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		active: make(map[string]struct{}),
		RunsStarted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mediabridge_runs_started_total",
				Help: "Total number of generator runs that launched a process",
			},
			[]string{"generator"},
		),
		RunsEnded: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mediabridge_runs_ended_total",
				Help: "Total number of generator runs by final phase",
			},
			[]string{"generator", "phase"},
		),
		RunDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "mediabridge_run_duration_seconds",
				Help:    "Supervised time of generator runs",
				Buckets: prometheus.ExponentialBuckets(0.5, 2, 12),
			},
			[]string{"generator", "phase"},
		),
		LogLines: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mediabridge_log_lines_total",
				Help: "Captured output lines by stream",
			},
			[]string{"stream"},
		),
		ActiveRuns: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "mediabridge_active_runs",
			Help: "Runs currently supervised",
		}),
	}
	for _, c := range []prometheus.Collector{m.RunsStarted, m.RunsEnded, m.RunDuration, m.LogLines, m.ActiveRuns} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Hooks returns lifecycle hooks that feed the collectors.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnRunStart: func(ctx context.Context, e *domain.RunEvent) {
			m.RunsStarted.WithLabelValues(e.Generator).Inc()
			m.mu.Lock()
			m.active[e.RunID] = struct{}{}
			m.mu.Unlock()
			m.ActiveRuns.Inc()
		},
		OnRunEnd: func(ctx context.Context, e *domain.RunEvent) {
			phase := string(e.Phase)
			m.RunsEnded.WithLabelValues(e.Generator, phase).Inc()
			// Runs that failed before launching were never counted as active.
			m.mu.Lock()
			_, counted := m.active[e.RunID]
			delete(m.active, e.RunID)
			m.mu.Unlock()
			if counted {
				m.ActiveRuns.Dec()
			}
			m.RunDuration.WithLabelValues(e.Generator, phase).Observe(e.Elapsed.Seconds())
		},
		OnLogLine: func(ctx context.Context, e *domain.LogEvent) {
			m.LogLines.WithLabelValues(string(e.Line.Stream)).Inc()
		},
	}
}
