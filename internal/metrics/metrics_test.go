package metrics

import (
	"testing"

	"github.com/claude/courtside/internal/models"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCoachCounters(t *testing.T) {
	m, _ := NewTestManagerAndRegistry()

	m.WorkoutStarted(models.PlanWarmup)
	m.WorkoutStarted(models.PlanWarmup)
	m.WorkoutFinished("completed")
	m.ExerciseCompleted()
	m.Paused()
	m.PersistFailed()

	if got := testutil.ToFloat64(m.CounterWorkoutsStarted.WithLabelValues("warmup")); got != 2 {
		t.Errorf("workouts started = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.CounterWorkoutsFinished.WithLabelValues("completed")); got != 1 {
		t.Errorf("workouts finished = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.CounterPersistFailures); got != 1 {
		t.Errorf("persist failures = %v, want 1", got)
	}
}

// TestRegistryGathers verifies the default collectors register without conflicts.
func TestRegistryGathers(t *testing.T) {
	reg := NewRegistry()
	NewManager("courtside", reg)
	if _, err := reg.Gather(); err != nil {
		t.Fatalf("Gather: %v", err)
	}
}
