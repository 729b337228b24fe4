// Package metrics exports Prometheus collectors fed by engine lifecycle hooks.
package metrics

import (
	"context"
	"time"

	"github.com/aretw0/slicer/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Namespace prefixes every metric name.
const Namespace = "slicer"

// Collector holds the slicer metrics.
type Collector struct {
	runs          *prometheus.CounterVec
	events        *prometheus.CounterVec
	stageDuration *prometheus.HistogramVec
	runDuration   prometheus.Histogram
	triangles     prometheus.Histogram
	lines         prometheus.Histogram
	active        prometheus.Gauge
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) (*Collector, error) {
	c := &Collector{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "runs_total",
			Help:      "Finished conversion runs by outcome.",
		}, []string{"outcome"}),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "events_total",
			Help:      "Events emitted by type.",
		}, []string{"type"}),
		stageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of pipeline stages.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}, []string{"stage", "failed"}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of conversion runs.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 4, 8),
		}),
		triangles: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "mesh_triangles",
			Help:      "Triangle count of converted meshes.",
			Buckets:   prometheus.ExponentialBuckets(100, 10, 6),
		}),
		lines: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "program_lines",
			Help:      "Line count of generated programs.",
			Buckets:   prometheus.ExponentialBuckets(50, 4, 7),
		}),
		active: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "runs_active",
			Help:      "Runs currently in flight.",
		}),
	}

	for _, col := range []prometheus.Collector{c.runs, c.events, c.stageDuration, c.runDuration, c.triangles, c.lines, c.active} {
		if err := reg.Register(col); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Hooks returns lifecycle hooks that record into the collectors.
func (c *Collector) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnRunStart: func(context.Context, *domain.RunEvent) {
			c.active.Inc()
		},
		OnStageLeave: func(_ context.Context, e *domain.StageEvent) {
			failed := "false"
			if e.Err != nil {
				failed = "true"
			}
			c.stageDuration.WithLabelValues(string(e.Stage), failed).Observe(e.Duration.Seconds())
		},
		OnEvent: func(_ context.Context, e *domain.Event) {
			c.events.WithLabelValues(string(e.Type)).Inc()
		},
		OnRunFinish: func(_ context.Context, e *domain.RunEvent) {
			c.active.Dec()
			c.runs.WithLabelValues(string(e.Outcome)).Inc()
			c.runDuration.Observe(max(e.Duration, time.Duration(0)).Seconds())
			if e.Outcome == domain.EventComplete {
				c.triangles.Observe(float64(e.TriangleCount))
				c.lines.Observe(float64(e.Lines))
			}
		},
	}
}
