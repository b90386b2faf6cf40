// Package metrics provides Prometheus instrumentation for spawnpool.
//
// # Overview
//
// Every pool reports what it hands out, what comes back, and how many
// instances it holds. The vectors are package level and registered through
// promauto, so any binary that imports the pool package exposes them on the
// default registry.
//
// # Basic Usage
//
//	metrics.Acquires.WithLabelValues("level-1", "Spark", metrics.ResultHit).Inc()
//	metrics.FreeInstances.WithLabelValues("level-1", "Spark").Set(4)
//
//	timer := metrics.NewTimer("warmup")
//	runWarmup()
//	metrics.WarmupDuration.WithLabelValues("level-1").Observe(timer.Stop().Seconds())
//
// # Labels
//
// registry: the registry name (one per scene or level)
// kind: the pooled kind, formatted with fmt
// result / error_type: outcome of the operation
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Acquire results
const (
	ResultHit   = "hit"   // served from the free list
	ResultHeal  = "heal"  // free head was invalid and got replaced
	ResultSynth = "synth" // free list empty, constructed on demand
)

// Release results
const (
	ResultReleased  = "released"
	ResultInvalid   = "invalid"
	ResultDuplicate = "duplicate"
	ResultDestroyed = "destroyed"
)

var (
	// Acquires counts acquire calls by outcome.
	// Labels: registry, kind, result (hit/heal/synth)
	Acquires = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "spawnpool",
			Name:      "acquires_total",
			Help:      "Total number of instances handed out",
		},
		[]string{"registry", "kind", "result"},
	)

	// Releases counts release calls by outcome.
	// Labels: registry, kind, result (released/invalid/duplicate/destroyed)
	Releases = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "spawnpool",
			Name:      "releases_total",
			Help:      "Total number of instances returned",
		},
		[]string{"registry", "kind", "result"},
	)

	// WarmSteps counts instances constructed by warm-up
	WarmSteps = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "spawnpool",
			Name:      "warm_steps_total",
			Help:      "Total number of instances constructed during warm-up",
		},
		[]string{"registry", "kind"},
	)

	// Errors counts recovered faults by error type
	Errors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "spawnpool",
			Name:      "errors_total",
			Help:      "Total number of recovered pool faults",
		},
		[]string{"registry", "kind", "error_type"},
	)

	// FreeInstances tracks the free list length
	FreeInstances = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "spawnpool",
			Name:      "free_instances",
			Help:      "Instances waiting in the free list",
		},
		[]string{"registry", "kind"},
	)

	// ActiveInstances tracks instances currently handed out
	ActiveInstances = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "spawnpool",
			Name:      "active_instances",
			Help:      "Instances currently active in the world",
		},
		[]string{"registry", "kind"},
	)

	// LiveInstances tracks every instance the pool accounts for
	LiveInstances = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "spawnpool",
			Name:      "live_instances",
			Help:      "Instances owned by the pool, free or active",
		},
		[]string{"registry", "kind"},
	)

	// WarmupComplete is 1 once a registry reached every target
	WarmupComplete = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "spawnpool",
			Name:      "warmup_complete",
			Help:      "Whether warm-up finished for the registry",
		},
		[]string{"registry"},
	)

	// WarmupDuration tracks how long warm-up took from first step to completion
	WarmupDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "spawnpool",
			Name:      "warmup_duration_seconds",
			Help:      "Time from the first warm step to completion",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"registry"},
	)
)

// KindGauges bundles the per-kind gauges so a pool resolves its labels once
type KindGauges struct {
	Free   prometheus.Gauge
	Active prometheus.Gauge
	Live   prometheus.Gauge
}

// ForKind resolves the gauges for one registry/kind pair
func ForKind(registry, kind string) KindGauges {
	return KindGauges{
		Free:   FreeInstances.WithLabelValues(registry, kind),
		Active: ActiveInstances.WithLabelValues(registry, kind),
		Live:   LiveInstances.WithLabelValues(registry, kind),
	}
}

// Set updates all three gauges
func (g KindGauges) Set(free, active, live int) {
	g.Free.Set(float64(free))
	g.Active.Set(float64(active))
	g.Live.Set(float64(live))
}

// Timer provides a simple timing mechanism for measuring operation durations.
type Timer struct {
	start time.Time
	name  string
}

// NewTimer creates a new timer and starts timing immediately.
func NewTimer(name string) *Timer {
	return &Timer{
		start: time.Now(),
		name:  name,
	}
}

// Name returns the timer's name
func (t *Timer) Name() string {
	return t.name
}

// Stop returns the elapsed duration since creation. It can be called
// multiple times.
func (t *Timer) Stop() time.Duration {
	return time.Since(t.start)
}
