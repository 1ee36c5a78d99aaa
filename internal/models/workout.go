package models

import (
	"slices"
	"time"
)

// Phase is the timer phase of a voice-guided workout.
type Phase string

const (
	PhaseReady     Phase = "ready"
	PhaseCountdown Phase = "countdown"
	PhaseExercise  Phase = "exercise"
	PhaseRest      Phase = "rest"
	PhaseComplete  Phase = "complete"
)

// CountdownSeconds is the fixed lead-in before every exercise.
const CountdownSeconds = 5

// PauseDurationPresets are the rest durations offered when configuring a workout.
var PauseDurationPresets = []int{5, 10, 15, 20, 30, 45, 60}

// WorkoutConfig is chosen by the user before a voice-guided workout starts.
type WorkoutConfig struct {
	PauseDuration   int  `json:"pauseDuration"`
	VoiceEnabled    bool `json:"voiceEnabled"`
	BeepsEnabled    bool `json:"beepsEnabled"`
	WakeLockEnabled bool `json:"wakeLockEnabled"`
}

// DefaultWorkoutConfig returns voice on, beeps on, wake lock off and a 10s rest.
func DefaultWorkoutConfig() WorkoutConfig {
	return WorkoutConfig{
		PauseDuration: 10,
		VoiceEnabled:  true,
		BeepsEnabled:  true,
	}
}

// ValidPauseDuration reports whether seconds is one of the presets.
func ValidPauseDuration(seconds int) bool {
	return slices.Contains(PauseDurationPresets, seconds)
}

// TimerState is the running timer of the current phase.
type TimerState struct {
	Type    Phase `json:"type"`
	Running bool  `json:"running"`
	Elapsed int   `json:"elapsed"`
	Total   int   `json:"total"`
}

// Remaining returns Total-Elapsed, never negative.
func (t TimerState) Remaining() int {
	if r := t.Total - t.Elapsed; r > 0 {
		return r
	}
	return 0
}

// WorkoutState is the coach's working set and the persisted session snapshot.
type WorkoutState struct {
	Active               bool          `json:"active"`
	PlanType             PlanType      `json:"planType"`
	PlanID               string        `json:"planId"`
	PlanName             string        `json:"planName"`
	Week                 int           `json:"week,omitempty"`
	Day                  int           `json:"day,omitempty"`
	Sections             []Section     `json:"sections"`
	Exercises            []Exercise    `json:"exercises"`
	CurrentSectionIndex  int           `json:"currentSectionIndex"`
	CurrentExerciseIndex int           `json:"currentExerciseIndex"`
	TimerState           TimerState    `json:"timerState"`
	Config               WorkoutConfig `json:"config"`
	StartTime            int64         `json:"startTime"`
	TotalElapsed         int           `json:"totalElapsed"`
}

// NewWorkoutState freezes plan into a fresh session positioned on the first exercise.
func NewWorkoutState(plan *PlanDescriptor, cfg WorkoutConfig, now time.Time) *WorkoutState {
	st := &WorkoutState{
		Active:    true,
		PlanType:  plan.Type,
		PlanID:    plan.ID,
		PlanName:  plan.Name,
		Week:      plan.Week,
		Day:       plan.Day,
		Sections:  slices.Clone(plan.Sections),
		Exercises: slices.Clone(plan.Exercises),
		TimerState: TimerState{
			Type: PhaseReady,
		},
		Config:    cfg,
		StartTime: now.UnixMilli(),
	}
	if len(st.Exercises) > 0 {
		st.CurrentSectionIndex = st.Exercises[0].SectionIndex
	}
	return st
}

// Clone returns a copy that shares no slices with s.
func (s *WorkoutState) Clone() *WorkoutState {
	if s == nil {
		return nil
	}
	c := *s
	c.Sections = make([]Section, len(s.Sections))
	for i, sec := range s.Sections {
		sec.Exercises = slices.Clone(sec.Exercises)
		c.Sections[i] = sec
	}
	c.Exercises = slices.Clone(s.Exercises)
	return &c
}

// CurrentExercise returns the exercise at CurrentExerciseIndex.
func (s *WorkoutState) CurrentExercise() (Exercise, bool) {
	if s.CurrentExerciseIndex < 0 || s.CurrentExerciseIndex >= len(s.Exercises) {
		return Exercise{}, false
	}
	return s.Exercises[s.CurrentExerciseIndex], true
}

// SectionName returns the name of section i, or "" when out of range.
func (s *WorkoutState) SectionName(i int) string {
	if i < 0 || i >= len(s.Sections) {
		return ""
	}
	return s.Sections[i].Name
}

// FirstExerciseOfSection returns the index of the first exercise recorded
// under section i, or -1 when the section has none.
func (s *WorkoutState) FirstExerciseOfSection(i int) int {
	for idx, ex := range s.Exercises {
		if ex.SectionIndex == i {
			return idx
		}
	}
	return -1
}

// Valid reports whether the indices satisfy the session invariants.
func (s *WorkoutState) Valid() bool {
	if len(s.Exercises) == 0 {
		return false
	}
	if s.CurrentExerciseIndex < 0 || s.CurrentExerciseIndex >= len(s.Exercises) {
		return false
	}
	return s.CurrentSectionIndex == s.Exercises[s.CurrentExerciseIndex].SectionIndex
}
