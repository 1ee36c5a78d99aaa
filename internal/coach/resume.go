package coach

import (
	"context"
	"errors"
	"fmt"

	"github.com/claude/courtside/internal/models"
)

// PendingSession returns the stored session if it can be resumed.
func (c *Coach) PendingSession(ctx context.Context) (*models.WorkoutState, bool) {
	st, err := c.store.Load(ctx)
	if err != nil {
		if !errors.Is(err, models.ErrNotFound) {
			c.log.Warn("loading stored session", "error", err)
		}
		return nil, false
	}
	return st, resumable(st)
}

func resumable(st *models.WorkoutState) bool {
	if st == nil || !st.Active || !st.Valid() {
		return false
	}
	switch st.TimerState.Type {
	case models.PhaseReady, models.PhaseCountdown, models.PhaseExercise, models.PhaseRest:
		return true
	}
	return false
}

// DiscardSession drops the stored session. It does nothing while a
// session is live, since the store then mirrors that session.
func (c *Coach) DiscardSession(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != nil {
		return
	}
	if err := c.store.Clear(ctx); err != nil {
		c.log.Warn("discarding session", "error", err)
	}
}

// ResumeSession restores the stored session. Exercise and rest phases
// continue counting from the stored elapsed time; a stored ready or
// countdown phase restarts the flow for the current exercise. A stored
// paused session comes back paused, with its interval idle until Resume.
func (c *Coach) ResumeSession(ctx context.Context) error {
	st, err := c.store.Load(ctx)
	switch {
	case errors.Is(err, models.ErrNotFound):
		return ErrNoSession
	case errors.Is(err, models.ErrCorruptSession):
		c.log.Warn("discarding unreadable session", "error", err)
		c.DiscardSession(ctx)
		return ErrNoSession
	case err != nil:
		return fmt.Errorf("loading session: %w", err)
	}
	if !resumable(st) {
		c.DiscardSession(ctx)
		return ErrNoSession
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.state != nil {
		c.finishLocked(OutcomeStopped, nil)
	}

	c.voice.SetEnabled(st.Config.VoiceEnabled)
	c.tones.SetEnabled(st.Config.BeepsEnabled)
	if st.Config.WakeLockEnabled {
		c.wake.Acquire(ctx)
	}

	c.state = st
	ex, _ := st.CurrentExercise()
	c.rng, c.useMax = models.Duration{}, false
	c.applyRangeLocked(ex)
	c.persistLocked()
	c.metrics.WorkoutStarted(st.PlanType)
	c.publishLocked(EventRestored)
	c.log.Info("workout resumed", "plan", st.PlanName, "exercise", st.CurrentExerciseIndex+1,
		"phase", st.TimerState.Type, "elapsed", st.TimerState.Elapsed, "running", st.TimerState.Running)

	var next func()
	switch st.TimerState.Type {
	case models.PhaseExercise, models.PhaseRest:
		c.newFlowLocked()
		c.startIntervalLocked()
		c.ensureTotalLocked()
	default:
		flowCtx, gen := c.newFlowLocked()
		next = func() { c.runFlow(flowCtx, gen) }
	}
	c.mu.Unlock()

	if next != nil {
		c.spawn(next)
	}
	return nil
}
