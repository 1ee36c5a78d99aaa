// Package metrics exposes Prometheus counters for the coach and the HTTP API.
package metrics

import (
	"github.com/claude/courtside/internal/models"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager holds every collector. It implements coach.Metrics.
type Manager struct {
	CounterWorkoutsStarted   *prometheus.CounterVec
	CounterWorkoutsFinished  *prometheus.CounterVec
	CounterExercises         prometheus.Counter
	CounterPauses            prometheus.Counter
	CounterPersistFailures   prometheus.Counter
	CounterRequests          *prometheus.CounterVec
	HistogramRequestDuration *prometheus.HistogramVec
}

// NewRegistry returns a registry with build, Go runtime and process collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewBuildInfoCollector(),
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// NewTestManagerAndRegistry returns a manager on a fresh empty registry.
func NewTestManagerAndRegistry() (*Manager, *prometheus.Registry) {
	reg := prometheus.NewRegistry()
	return NewManager("courtside", reg), reg
}

func NewManager(namespace string, reg prometheus.Registerer) *Manager {
	factory := promauto.With(reg)

	return &Manager{
		CounterWorkoutsStarted: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "coach",
			Name:      "workouts_started_total",
			Help:      "Workouts started or resumed, by plan type.",
		}, []string{"plan_type"}),
		CounterWorkoutsFinished: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "coach",
			Name:      "workouts_finished_total",
			Help:      "Workouts that ended, by outcome.",
		}, []string{"outcome"}),
		CounterExercises: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "coach",
			Name:      "exercises_completed_total",
			Help:      "Exercise timers that ran to zero.",
		}),
		CounterPauses: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "coach",
			Name:      "pauses_total",
			Help:      "Times a running workout was paused.",
		}),
		CounterPersistFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "coach",
			Name:      "persist_failures_total",
			Help:      "Session store writes that failed.",
		}),
		CounterRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "API requests, by method and status.",
		}, []string{"method", "status"}),
		HistogramRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "API request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
	}
}

func (m *Manager) WorkoutStarted(planType models.PlanType) {
	m.CounterWorkoutsStarted.WithLabelValues(string(planType)).Inc()
}

func (m *Manager) WorkoutFinished(outcome string) {
	m.CounterWorkoutsFinished.WithLabelValues(outcome).Inc()
}

func (m *Manager) ExerciseCompleted() { m.CounterExercises.Inc() }
func (m *Manager) Paused()            { m.CounterPauses.Inc() }
func (m *Manager) PersistFailed()     { m.CounterPersistFailures.Inc() }
