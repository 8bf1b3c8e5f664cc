// Package metrics instruments the watcher controller loop with
// prometheus/client_golang counters and gauges, scraped by the admin
// server's /metrics endpoint (spec.md §5, SPEC_FULL.md's DOMAIN STACK).
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry holds every metric this process exports, labeled by dag_id so
// one process running several watchers reports each separately. It
// implements internal/watcher.Metrics.
type Registry struct {
	ticks         *prometheus.CounterVec
	triggers      *prometheus.CounterVec
	readyScenes   *prometheus.GaugeVec
	tickErrors    *prometheus.CounterVec
	runningScenes *prometheus.GaugeVec
}

// NewRegistry constructs and registers every metric against reg. Pass
// prometheus.DefaultRegisterer for normal operation; tests pass a fresh
// prometheus.NewRegistry() to avoid collisions across parallel test runs.
func NewRegistry(reg prometheus.Registerer) *Registry {
	factory := promauto.With(reg)

	return &Registry{
		ticks: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "scenewatcher_ticks_total",
			Help: "Total number of watcher ticks run.",
		}, []string{"dag_id"}),
		triggers: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "scenewatcher_triggers_total",
			Help: "Total number of downstream DagRuns triggered.",
		}, []string{"dag_id"}),
		readyScenes: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "scenewatcher_ready_scenes",
			Help: "Number of ready scenes observed on the most recent tick.",
		}, []string{"dag_id"}),
		tickErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "scenewatcher_tick_errors_total",
			Help: "Total number of ticks that ended in an error.",
		}, []string{"dag_id"}),
		runningScenes: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "scenewatcher_running_scenes",
			Help: "Number of downstream DagRuns in state running on the most recent tick.",
		}, []string{"dag_id"}),
	}
}

func (r *Registry) ObserveTick(dagID string)      { r.ticks.WithLabelValues(dagID).Inc() }
func (r *Registry) ObserveTrigger(dagID string)   { r.triggers.WithLabelValues(dagID).Inc() }
func (r *Registry) ObserveTickError(dagID string) { r.tickErrors.WithLabelValues(dagID).Inc() }

func (r *Registry) ObserveReady(dagID string, n int) {
	r.readyScenes.WithLabelValues(dagID).Set(float64(n))
}

func (r *Registry) SetRunning(dagID string, n int) {
	r.runningScenes.WithLabelValues(dagID).Set(float64(n))
}
