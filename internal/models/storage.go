package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned by stores when a requested record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrCorruptSession is returned when a stored session cannot be decoded.
	ErrCorruptSession = errors.New("corrupt session")
)

// HistoryRecord is a row of the workout_history table, written when a
// voice-guided workout runs to completion.
type HistoryRecord struct {
	ID                 uuid.UUID `json:"id"`
	PlanType           PlanType  `json:"plan_type"`
	PlanID             string    `json:"plan_id"`
	PlanName           string    `json:"plan_name"`
	Week               int       `json:"week,omitempty"`
	Day                int       `json:"day,omitempty"`
	ExercisesCompleted int       `json:"exercises_completed"`
	TotalExercises     int       `json:"total_exercises"`
	Sections           int       `json:"sections"`
	DurationSec        int       `json:"duration_sec"`
	StartedAt          time.Time `json:"started_at"`
	CompletedAt        time.Time `json:"completed_at"`
}

// CustomWorkout is a user-built workout stored in the custom_workouts table.
type CustomWorkout struct {
	ID        uuid.UUID  `json:"id"`
	Name      string     `json:"name"`
	Exercises []Exercise `json:"exercises"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}
