package coach

import (
	"context"
	"time"

	"github.com/claude/courtside/internal/models"
)

// runFlow leads into the current exercise: section, exercise and
// instruction announcements, then the countdown interval. Each await is
// followed by a liveness check; a retired flow returns quietly.
func (c *Coach) runFlow(ctx context.Context, gen uint64) {
	c.mu.Lock()
	if !c.liveLocked(ctx, gen) {
		c.mu.Unlock()
		return
	}
	st := c.state
	ex, ok := st.CurrentExercise()
	if !ok {
		next := c.completeLocked()
		c.mu.Unlock()
		next()
		return
	}
	st.CurrentSectionIndex = ex.SectionIndex
	c.applyRangeLocked(ex)
	st.TimerState = models.TimerState{
		Type:    models.PhaseReady,
		Running: st.TimerState.Running,
		Total:   c.resolveLocked(ex),
	}
	n, total := st.CurrentExerciseIndex+1, len(st.Exercises)
	newSection := st.FirstExerciseOfSection(ex.SectionIndex) == st.CurrentExerciseIndex
	section := st.SectionName(ex.SectionIndex)
	c.publishLocked(EventExercise)
	c.mu.Unlock()

	if newSection && section != "" {
		c.voice.AnnounceSection(ctx, section)
		if !c.live(ctx, gen) {
			return
		}
	}
	c.voice.AnnounceExercise(ctx, ex.Name, n, total)
	if !c.live(ctx, gen) {
		return
	}
	c.voice.AnnounceInstructions(ctx, ex)

	c.mu.Lock()
	if !c.liveLocked(ctx, gen) {
		c.mu.Unlock()
		return
	}
	st.TimerState = models.TimerState{
		Type:    models.PhaseCountdown,
		Running: st.TimerState.Running,
		Total:   models.CountdownSeconds,
	}
	c.startIntervalLocked()
	c.publishLocked(EventPhase)
	cue := c.countdownCueLocked(models.CountdownSeconds)
	c.mu.Unlock()

	if cue != nil {
		c.spawn(cue)
	}
}

// countdownCueLocked returns the audio for count n (0 is "go"), bound to a
// context Pause cancels. Beeps win over the spoken count. A paused workout
// gets no cue.
func (c *Coach) countdownCueLocked(n int) func() {
	c.stopCueLocked()
	if !c.state.TimerState.Running {
		return nil
	}
	ctx, cancel := context.WithCancel(c.flowCtx)
	c.cancelCue = cancel
	if c.state.Config.BeepsEnabled {
		return func() { c.tones.PlayCount(ctx, n) }
	}
	return func() { c.voice.AnnounceCount(ctx, n) }
}

func (c *Coach) stopCueLocked() {
	if c.cancelCue != nil {
		c.cancelCue()
		c.cancelCue = nil
	}
}

// applyRangeLocked keeps useMax while consecutive exercises share the same
// range and resets it otherwise.
func (c *Coach) applyRangeLocked(ex models.Exercise) {
	d := ex.ParsedDuration()
	if !d.IsRange() {
		c.rng, c.useMax = models.Duration{}, false
		return
	}
	if !d.SameRange(c.rng) {
		c.useMax = false
	}
	c.rng = d
}

func (c *Coach) resolveLocked(ex models.Exercise) int {
	return ex.ParsedDuration().Resolve(c.useMax)
}

// onPhaseTick advances the countdown, exercise or rest timer by one second.
func (c *Coach) onPhaseTick(id uint64) {
	c.mu.Lock()
	st := c.state
	if id != c.timerID || st == nil || !st.TimerState.Running {
		c.mu.Unlock()
		return
	}

	ts := &st.TimerState
	ts.Elapsed++
	if ts.Elapsed < ts.Total {
		var cue func()
		switch ts.Type {
		case models.PhaseExercise:
			c.persistLocked()
		case models.PhaseCountdown:
			cue = c.countdownCueLocked(ts.Remaining())
		}
		c.publishLocked(EventTick)
		c.mu.Unlock()
		if cue != nil {
			c.spawn(cue)
		}
		return
	}

	ts.Elapsed = ts.Total
	c.stopTimerLocked()

	var next func()
	switch ts.Type {
	case models.PhaseCountdown:
		cue := c.countdownCueLocked(0)
		describe := c.startExerciseLocked()
		next = func() {
			if cue != nil {
				cue()
			}
			describe()
		}
	case models.PhaseExercise:
		next = c.finishExerciseLocked()
	case models.PhaseRest:
		ctx, gen := c.newFlowLocked()
		next = func() { c.runFlow(ctx, gen) }
	}
	c.mu.Unlock()

	if next != nil {
		c.spawn(next)
	}
}

// startExerciseLocked starts the exercise timer at the resolved duration
// and returns the description announcement to run alongside it.
func (c *Coach) startExerciseLocked() func() {
	st := c.state
	ex, _ := st.CurrentExercise()
	st.TimerState = models.TimerState{
		Type:    models.PhaseExercise,
		Running: true,
		Total:   c.resolveLocked(ex),
	}
	c.persistLocked()
	c.startIntervalLocked()
	c.ensureTotalLocked()
	c.publishLocked(EventPhase)

	ctx := c.flowCtx
	return func() { c.voice.AnnounceDescription(ctx, ex) }
}

// finishExerciseLocked moves past the exercise whose timer just expired:
// into rest, across a section boundary, or to completion.
func (c *Coach) finishExerciseLocked() func() {
	st := c.state
	c.metrics.ExerciseCompleted()

	next := st.CurrentExerciseIndex + 1
	if next >= len(st.Exercises) {
		st.CurrentExerciseIndex = next
		return c.completeLocked()
	}

	nextSection := st.Exercises[next].SectionIndex
	if nextSection == st.CurrentSectionIndex {
		st.CurrentExerciseIndex = next
		return c.startRestLocked()
	}

	finished := st.SectionName(st.CurrentSectionIndex)
	upcoming := st.SectionName(nextSection)
	ctx, gen := c.newFlowLocked()
	return func() {
		c.voice.AnnounceSectionComplete(ctx, finished, upcoming)

		c.mu.Lock()
		if !c.liveLocked(ctx, gen) {
			c.mu.Unlock()
			return
		}
		c.state.CurrentExerciseIndex = next
		c.state.CurrentSectionIndex = nextSection
		rest := c.startRestLocked()
		c.mu.Unlock()
		rest()
	}
}

// startRestLocked enters the rest phase for the exercise now current. The
// upcoming exercise is announced first; the rest interval starts after.
func (c *Coach) startRestLocked() func() {
	st := c.state
	st.TimerState = models.TimerState{
		Type:    models.PhaseRest,
		Running: st.TimerState.Running,
		Total:   st.Config.PauseDuration,
	}
	c.persistLocked()
	c.publishLocked(EventPhase)

	ex, _ := st.CurrentExercise()
	ctx, gen := c.newFlowLocked()
	return func() {
		c.voice.AnnounceNext(ctx, ex.Name)

		c.mu.Lock()
		defer c.mu.Unlock()
		if !c.liveLocked(ctx, gen) || c.state.TimerState.Type != models.PhaseRest {
			return
		}
		c.startIntervalLocked()
	}
}

// completeLocked stops the timers and returns the closing sequence:
// announcement, success tones, a short delay, then summary and teardown.
func (c *Coach) completeLocked() func() {
	st := c.state
	c.stopTimerLocked()
	c.stopTotalLocked()
	st.TimerState = models.TimerState{Type: models.PhaseComplete, Running: st.TimerState.Running}
	c.publishLocked(EventPhase)

	ctx, gen := c.newFlowLocked()
	return func() {
		c.voice.AnnounceWorkoutComplete(ctx)
		c.tones.PlaySuccess(ctx)
		if c.clock.Sleep(ctx, time.Second) != nil {
			return
		}

		c.mu.Lock()
		if !c.liveLocked(ctx, gen) {
			c.mu.Unlock()
			return
		}
		st := c.state
		summary := &Summary{
			PlanName:           st.PlanName,
			TotalElapsed:       st.TotalElapsed,
			Duration:           FormatElapsed(st.TotalElapsed),
			Exercises:          len(st.Exercises),
			Sections:           len(st.Sections),
			CompletedExercises: st.CurrentExerciseIndex,
		}
		rec := models.HistoryRecord{
			PlanType:           st.PlanType,
			PlanID:             st.PlanID,
			PlanName:           st.PlanName,
			Week:               st.Week,
			Day:                st.Day,
			ExercisesCompleted: min(st.CurrentExerciseIndex, len(st.Exercises)),
			TotalExercises:     len(st.Exercises),
			Sections:           len(st.Sections),
			DurationSec:        st.TotalElapsed,
			StartedAt:          time.UnixMilli(st.StartTime).UTC(),
			CompletedAt:        c.clock.Now().UTC(),
		}
		c.log.Info("workout complete", "plan", st.PlanName, "elapsed", summary.Duration,
			"exercises", summary.Exercises, "sections", summary.Sections)
		c.finishLocked(OutcomeCompleted, summary)
		c.mu.Unlock()

		if c.recorder == nil {
			return
		}
		if err := c.recorder.RecordCompletion(c.base, rec); err != nil {
			c.log.Warn("recording workout history", "plan", rec.PlanName, "error", err)
		}
	}
}
