// Package service is the application layer shared by the HTTP API and the
// MCP server: it resolves plans, applies workout defaults and forwards
// controls to the coach.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/claude/courtside/internal/coach"
	"github.com/claude/courtside/internal/models"
	"github.com/claude/courtside/internal/plan"
	"github.com/claude/courtside/internal/storage"
	"github.com/google/uuid"
)

var (
	// ErrInvalidRequest wraps every caller mistake the API should report as 400.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrNotFound is returned for unknown plans and custom workouts.
	ErrNotFound = errors.New("not found")
)

// Navigation units accepted by Navigate.
const (
	UnitExercise = "exercise"
	UnitSection  = "section"
)

// StartRequest selects a plan and optionally overrides the workout defaults.
// Exactly one of PlanID, Week/Day or CustomID should be set.
type StartRequest struct {
	PlanID        string `json:"plan_id,omitempty"`
	Week          int    `json:"week,omitempty"`
	Day           int    `json:"day,omitempty"`
	CustomID      string `json:"custom_id,omitempty"`
	PauseDuration *int   `json:"pause_duration,omitempty"`
	Voice         *bool  `json:"voice,omitempty"`
	Beeps         *bool  `json:"beeps,omitempty"`
	WakeLock      *bool  `json:"wake_lock,omitempty"`
}

// WeekProgress is the 8-week program view of one week.
type WeekProgress struct {
	Week          int            `json:"week"`
	Days          []plan.Summary `json:"days"`
	CompletedDays []int          `json:"completed_days"`
}

// Service wires the coach to the plan catalog and the database.
type Service struct {
	coach    *coach.Coach
	catalog  *plan.Catalog
	db       *storage.DB
	defaults models.WorkoutConfig
	log      *slog.Logger
}

func New(c *coach.Coach, catalog *plan.Catalog, db *storage.DB, defaults models.WorkoutConfig, log *slog.Logger) *Service {
	return &Service{coach: c, catalog: catalog, db: db, defaults: defaults, log: log}
}

// ListPlans returns the catalog followed by the custom workouts.
func (s *Service) ListPlans(ctx context.Context) ([]plan.Summary, error) {
	out := s.catalog.List()
	custom, err := s.db.ListCustomWorkouts(ctx)
	if err != nil {
		return nil, err
	}
	for _, w := range custom {
		p := plan.Custom(w)
		out = append(out, plan.Summary{
			ID:        p.ID,
			Type:      p.Type,
			Name:      p.Name,
			Sections:  len(p.Sections),
			Exercises: len(p.Exercises),
		})
	}
	return out, nil
}

// Plan returns the plan with the given catalog ID or custom workout ID.
func (s *Service) Plan(ctx context.Context, id string) (*models.PlanDescriptor, error) {
	p, err := s.catalog.Get(id)
	if err == nil {
		return p, nil
	}
	if cid, perr := uuid.Parse(id); perr == nil {
		return s.customPlan(ctx, cid)
	}
	return nil, fmt.Errorf("%w: plan %s", ErrNotFound, id)
}

func (s *Service) customPlan(ctx context.Context, id uuid.UUID) (*models.PlanDescriptor, error) {
	w, err := s.db.GetCustomWorkout(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: custom workout %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return plan.Custom(w), nil
}

// resolve finds the plan a start request names. A request naming nothing
// yields a nil plan, which the coach rejects.
func (s *Service) resolve(ctx context.Context, req StartRequest) (*models.PlanDescriptor, error) {
	switch {
	case req.CustomID != "":
		id, err := uuid.Parse(req.CustomID)
		if err != nil {
			return nil, fmt.Errorf("%w: custom_id: %v", ErrInvalidRequest, err)
		}
		return s.customPlan(ctx, id)
	case req.Week != 0 || req.Day != 0:
		p, err := s.catalog.Day(req.Week, req.Day)
		if errors.Is(err, plan.ErrUnknownPlan) {
			return nil, fmt.Errorf("%w: %v", ErrNotFound, err)
		}
		return p, err
	case req.PlanID != "":
		return s.Plan(ctx, req.PlanID)
	}
	return nil, nil
}

func (s *Service) config(req StartRequest) (models.WorkoutConfig, error) {
	cfg := s.defaults
	if req.PauseDuration != nil {
		cfg.PauseDuration = *req.PauseDuration
	}
	if req.Voice != nil {
		cfg.VoiceEnabled = *req.Voice
	}
	if req.Beeps != nil {
		cfg.BeepsEnabled = *req.Beeps
	}
	if req.WakeLock != nil {
		cfg.WakeLockEnabled = *req.WakeLock
	}
	if !models.ValidPauseDuration(cfg.PauseDuration) {
		return cfg, fmt.Errorf("%w: pause_duration must be one of %v", ErrInvalidRequest, models.PauseDurationPresets)
	}
	return cfg, nil
}

// Start resolves the requested plan and begins it.
func (s *Service) Start(ctx context.Context, req StartRequest) (coach.View, error) {
	p, err := s.resolve(ctx, req)
	if err != nil {
		return coach.View{}, err
	}
	cfg, err := s.config(req)
	if err != nil {
		return coach.View{}, err
	}
	if err := s.coach.Start(ctx, p, cfg); err != nil {
		return coach.View{}, err
	}
	return s.coach.View(), nil
}

func (s *Service) Status() coach.View {
	return s.coach.View()
}

// Pause reports false when nothing was running.
func (s *Service) Pause(ctx context.Context) (coach.View, bool) {
	ok := s.coach.Pause(ctx)
	return s.coach.View(), ok
}

func (s *Service) Resume(ctx context.Context) (coach.View, bool) {
	ok := s.coach.Resume(ctx)
	return s.coach.View(), ok
}

func (s *Service) Toggle(ctx context.Context) coach.View {
	s.coach.TogglePlayPause(ctx)
	return s.coach.View()
}

// Navigate moves dir (±1) exercises or sections.
func (s *Service) Navigate(unit string, dir int) (coach.View, bool, error) {
	if dir != 1 && dir != -1 {
		return coach.View{}, false, fmt.Errorf("%w: direction must be 1 or -1", ErrInvalidRequest)
	}
	var ok bool
	switch strings.ToLower(unit) {
	case "", UnitExercise:
		ok = s.coach.NavigateExercise(dir)
	case UnitSection:
		ok = s.coach.NavigateSection(dir)
	default:
		return coach.View{}, false, fmt.Errorf("%w: unit must be exercise or section", ErrInvalidRequest)
	}
	return s.coach.View(), ok, nil
}

func (s *Service) ToggleRange() (coach.View, bool) {
	ok := s.coach.ToggleDurationRange()
	return s.coach.View(), ok
}

func (s *Service) RepeatInstructions(ctx context.Context) bool {
	return s.coach.RepeatInstructions(ctx)
}

func (s *Service) SetVisibility(ctx context.Context, hidden bool) coach.View {
	s.coach.SetVisibility(ctx, hidden)
	return s.coach.View()
}

func (s *Service) Stop(ctx context.Context) bool {
	return s.coach.Stop(ctx)
}

// Events returns retained coach events newer than seq.
func (s *Service) Events(seq int64) []coach.Event {
	return s.coach.Events().Since(seq)
}

// PendingSession returns the stored session when one can be resumed and no
// workout is live.
func (s *Service) PendingSession(ctx context.Context) (*models.WorkoutState, bool) {
	if s.coach.Active() {
		return nil, false
	}
	return s.coach.PendingSession(ctx)
}

func (s *Service) ResumeSession(ctx context.Context) (coach.View, error) {
	if err := s.coach.ResumeSession(ctx); err != nil {
		return coach.View{}, err
	}
	return s.coach.View(), nil
}

func (s *Service) DiscardSession(ctx context.Context) {
	s.coach.DiscardSession(ctx)
}

func (s *Service) History(ctx context.Context, limit int) ([]models.HistoryRecord, error) {
	return s.db.ListHistory(ctx, limit)
}

// Week returns the days of a program week and which have been completed.
func (s *Service) Week(ctx context.Context, week int) (WeekProgress, error) {
	if week < 1 || week > plan.ProgramWeeks {
		return WeekProgress{}, fmt.Errorf("%w: week must be 1-%d", ErrInvalidRequest, plan.ProgramWeeks)
	}
	wp := WeekProgress{Week: week, CompletedDays: []int{}}
	for _, sum := range s.catalog.List() {
		if sum.Type == models.PlanEightWeek && sum.Week == week {
			wp.Days = append(wp.Days, sum)
		}
	}
	days, err := s.db.WeekCompletion(ctx, week)
	if err != nil {
		return WeekProgress{}, err
	}
	if days != nil {
		wp.CompletedDays = days
	}
	return wp, nil
}

func (s *Service) ListCustom(ctx context.Context) ([]models.CustomWorkout, error) {
	return s.db.ListCustomWorkouts(ctx)
}

func (s *Service) GetCustom(ctx context.Context, id uuid.UUID) (models.CustomWorkout, error) {
	w, err := s.db.GetCustomWorkout(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return w, fmt.Errorf("%w: custom workout %s", ErrNotFound, id)
	}
	return w, err
}

// SaveCustom validates and stores w, assigning an ID when it has none.
func (s *Service) SaveCustom(ctx context.Context, w *models.CustomWorkout) error {
	w.Name = strings.TrimSpace(w.Name)
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	if problems := plan.Validate(plan.Custom(*w)); plan.HasErrors(problems) {
		var msgs []string
		for _, p := range problems {
			if p.Severity == plan.SeverityError {
				msgs = append(msgs, p.Message)
			}
		}
		return fmt.Errorf("%w: %s", ErrInvalidRequest, strings.Join(msgs, "; "))
	}
	return s.db.SaveCustomWorkout(ctx, w)
}

func (s *Service) DeleteCustom(ctx context.Context, id uuid.UUID) error {
	err := s.db.DeleteCustomWorkout(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("%w: custom workout %s", ErrNotFound, id)
	}
	return err
}
