package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/claude/courtside/internal/models"
	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "courtside.db")
	if err := RunMigrations(path); err != nil {
		t.Fatalf("RunMigrations: %v", err)
	}
	db, err := Open(context.Background(), path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func sampleState() *models.WorkoutState {
	plan := &models.PlanDescriptor{
		Type: models.PlanWarmup,
		ID:   "warmup",
		Name: "Warm-Up",
		Sections: []models.Section{
			{Name: "Core"},
		},
		Exercises: []models.Exercise{
			{Name: "Plank", Duration: "30 seconds", SectionName: "Core"},
			{Name: "Side Plank", Duration: "20-30 seconds", SectionName: "Core"},
		},
	}
	st := models.NewWorkoutState(plan, models.DefaultWorkoutConfig(), time.UnixMilli(1_700_000_000_000))
	st.TimerState = models.TimerState{Type: models.PhaseExercise, Running: true, Elapsed: 12, Total: 30}
	return st
}

type sessionStore interface {
	Save(context.Context, *models.WorkoutState) error
	Load(context.Context) (*models.WorkoutState, error)
	Clear(context.Context) error
}

// TestSessionStores verifies both backends keep a single slot that round-trips
// the snapshot and reports ErrNotFound when empty.
func TestSessionStores(t *testing.T) {
	stores := map[string]func(t *testing.T) sessionStore{
		"sqlite": func(t *testing.T) sessionStore { return openTestDB(t).Sessions() },
		"file": func(t *testing.T) sessionStore {
			return NewFileSessionStore(filepath.Join(t.TempDir(), "state", "session.json"))
		},
	}

	for name, open := range stores {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := open(t)

			if _, err := s.Load(ctx); !errors.Is(err, ErrNotFound) {
				t.Fatalf("Load on empty store = %v, want ErrNotFound", err)
			}
			if _, err := s.Load(ctx); !errors.Is(err, models.ErrNotFound) {
				t.Fatalf("Load on empty store = %v, want models.ErrNotFound", err)
			}

			first := sampleState()
			if err := s.Save(ctx, first); err != nil {
				t.Fatalf("Save: %v", err)
			}
			second := sampleState()
			second.CurrentExerciseIndex = 1
			second.TimerState.Elapsed = 3
			if err := s.Save(ctx, second); err != nil {
				t.Fatalf("Save: %v", err)
			}

			got, err := s.Load(ctx)
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if diff := cmp.Diff(second, got); diff != "" {
				t.Errorf("Load mismatch (-want +got):\n%s", diff)
			}

			if err := s.Clear(ctx); err != nil {
				t.Fatalf("Clear: %v", err)
			}
			if err := s.Clear(ctx); err != nil {
				t.Fatalf("second Clear: %v", err)
			}
			if _, err := s.Load(ctx); !errors.Is(err, ErrNotFound) {
				t.Errorf("Load after Clear = %v, want ErrNotFound", err)
			}
		})
	}
}

// TestHistory verifies completions list newest first and feed week progress.
func TestHistory(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	recs := []models.HistoryRecord{
		{PlanType: models.PlanEightWeek, PlanID: "w1d1", PlanName: "Week 1 Day 1", Week: 1, Day: 1, CompletedAt: base},
		{PlanType: models.PlanEightWeek, PlanID: "w1d3", PlanName: "Week 1 Day 3", Week: 1, Day: 3, CompletedAt: base.Add(48 * time.Hour)},
		{PlanType: models.PlanEightWeek, PlanID: "w1d1", PlanName: "Week 1 Day 1", Week: 1, Day: 1, CompletedAt: base.Add(72 * time.Hour)},
		{PlanType: models.PlanWarmup, PlanID: "warmup", PlanName: "Warm-Up", CompletedAt: base.Add(time.Hour)},
	}
	for _, r := range recs {
		r.StartedAt = r.CompletedAt.Add(-20 * time.Minute)
		r.TotalExercises, r.ExercisesCompleted, r.DurationSec = 8, 8, 1200
		if err := db.RecordCompletion(ctx, r); err != nil {
			t.Fatalf("RecordCompletion: %v", err)
		}
	}

	list, err := db.ListHistory(ctx, 2)
	if err != nil {
		t.Fatalf("ListHistory: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("got %d records, want 2", len(list))
	}
	if !list[0].CompletedAt.Equal(base.Add(72*time.Hour)) || list[1].PlanID != "w1d3" {
		t.Errorf("unexpected order: %+v", list)
	}
	if list[0].ID == uuid.Nil {
		t.Error("expected an assigned ID")
	}

	days, err := db.WeekCompletion(ctx, 1)
	if err != nil {
		t.Fatalf("WeekCompletion: %v", err)
	}
	if diff := cmp.Diff([]int{1, 3}, days); diff != "" {
		t.Errorf("days mismatch (-want +got):\n%s", diff)
	}
}

func TestCustomWorkoutCRUD(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	w := &models.CustomWorkout{
		Name:      "Serve Prep",
		Exercises: []models.Exercise{{Name: "Arm Circles", Duration: "30 seconds"}},
	}
	if err := db.SaveCustomWorkout(ctx, w); err != nil {
		t.Fatalf("SaveCustomWorkout: %v", err)
	}
	if w.ID == uuid.Nil {
		t.Fatal("expected an assigned ID")
	}

	w.Name = "Serve Prep II"
	if err := db.SaveCustomWorkout(ctx, w); err != nil {
		t.Fatalf("update: %v", err)
	}

	got, err := db.GetCustomWorkout(ctx, w.ID)
	if err != nil {
		t.Fatalf("GetCustomWorkout: %v", err)
	}
	if got.Name != "Serve Prep II" || len(got.Exercises) != 1 || got.Exercises[0].Name != "Arm Circles" {
		t.Errorf("unexpected workout: %+v", got)
	}

	list, err := db.ListCustomWorkouts(ctx)
	if err != nil || len(list) != 1 {
		t.Fatalf("ListCustomWorkouts = %d, %v; want 1 workout", len(list), err)
	}

	if err := db.DeleteCustomWorkout(ctx, w.ID); err != nil {
		t.Fatalf("DeleteCustomWorkout: %v", err)
	}
	if err := db.DeleteCustomWorkout(ctx, w.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete = %v, want ErrNotFound", err)
	}
	if _, err := db.GetCustomWorkout(ctx, w.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("get after delete = %v, want ErrNotFound", err)
	}
}

// TestRunMigrationsIdempotent verifies reopening an existing database is a no-op.
func TestRunMigrationsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "courtside.db")
	for range 2 {
		if err := RunMigrations(path); err != nil {
			t.Fatalf("RunMigrations: %v", err)
		}
	}
}

// TestFileSessionCorrupt verifies an undecodable session file reports
// ErrCorruptSession, the same sentinel the models package exports.
func TestFileSessionCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	s := NewFileSessionStore(path)
	ctx := context.Background()

	if _, err := s.Load(ctx); !errors.Is(err, ErrCorruptSession) {
		t.Errorf("Load err = %v, want ErrCorruptSession", err)
	}
	if _, err := s.Load(ctx); !errors.Is(err, models.ErrCorruptSession) {
		t.Errorf("Load err = %v, want models.ErrCorruptSession", err)
	}
	if err := s.Clear(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Load(ctx); !errors.Is(err, ErrNotFound) {
		t.Errorf("after Clear err = %v, want ErrNotFound", err)
	}
}
