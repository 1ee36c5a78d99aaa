package coach

import (
	"context"

	"github.com/claude/courtside/internal/models"
)

// Pause stops the clock of the current phase and silences the countdown.
// Intervals stay registered and idle until Resume. Pausing a paused or
// completing workout does nothing.
func (c *Coach) Pause(ctx context.Context) bool {
	c.mu.Lock()
	if !c.controllableLocked() || !c.state.TimerState.Running {
		c.mu.Unlock()
		return false
	}
	c.state.TimerState.Running = false
	c.stopCueLocked()
	c.persistLocked()
	c.metrics.Paused()
	c.publishLocked(EventPaused)
	c.mu.Unlock()

	c.voice.Cancel()
	c.voice.AnnouncePause(ctx)
	return true
}

// Resume restarts the clock. Resuming a running workout does nothing.
func (c *Coach) Resume(ctx context.Context) bool {
	c.mu.Lock()
	if !c.controllableLocked() || c.state.TimerState.Running {
		c.mu.Unlock()
		return false
	}
	c.state.TimerState.Running = true
	c.persistLocked()
	c.publishLocked(EventResumed)
	c.mu.Unlock()

	c.voice.AnnounceResume(ctx)
	return true
}

// TogglePlayPause pauses a running workout and resumes a paused one.
func (c *Coach) TogglePlayPause(ctx context.Context) {
	c.mu.Lock()
	running := c.state != nil && c.state.TimerState.Running
	c.mu.Unlock()
	if running {
		c.Pause(ctx)
	} else {
		c.Resume(ctx)
	}
}

// controllableLocked reports whether a session is live and not yet in its
// terminal complete phase.
func (c *Coach) controllableLocked() bool {
	return c.state != nil && c.state.TimerState.Type != models.PhaseComplete
}

// NavigateExercise moves dir exercises (±1) and restarts the flow there.
// It reports false, changing nothing, when the target is out of range.
func (c *Coach) NavigateExercise(dir int) bool {
	c.mu.Lock()
	if !c.controllableLocked() {
		c.mu.Unlock()
		return false
	}
	target := c.state.CurrentExerciseIndex + dir
	if target < 0 || target >= len(c.state.Exercises) {
		c.mu.Unlock()
		return false
	}
	next := c.jumpLocked(target)
	c.mu.Unlock()

	c.spawn(next)
	return true
}

// NavigateSection moves dir sections (±1) to the first exercise of the
// target section. Out-of-range targets and sections without exercises are
// no-ops that report false.
func (c *Coach) NavigateSection(dir int) bool {
	c.mu.Lock()
	if !c.controllableLocked() {
		c.mu.Unlock()
		return false
	}
	section := c.state.CurrentSectionIndex + dir
	if section < 0 || section >= len(c.state.Sections) {
		c.mu.Unlock()
		return false
	}
	target := c.state.FirstExerciseOfSection(section)
	if target < 0 {
		c.mu.Unlock()
		return false
	}
	next := c.jumpLocked(target)
	c.mu.Unlock()

	c.spawn(next)
	return true
}

func (c *Coach) NextExercise() bool { return c.NavigateExercise(1) }
func (c *Coach) PrevExercise() bool { return c.NavigateExercise(-1) }
func (c *Coach) NextSection() bool  { return c.NavigateSection(1) }
func (c *Coach) PrevSection() bool  { return c.NavigateSection(-1) }

// jumpLocked stops the phase timer, moves to exercise idx and returns the
// new flow. The section index always follows the target exercise.
func (c *Coach) jumpLocked(idx int) func() {
	c.stopTimerLocked()
	st := c.state
	st.CurrentExerciseIndex = idx
	st.CurrentSectionIndex = st.Exercises[idx].SectionIndex
	ex := st.Exercises[idx]
	c.applyRangeLocked(ex)
	st.TimerState = models.TimerState{
		Type:    models.PhaseReady,
		Running: st.TimerState.Running,
		Total:   c.resolveLocked(ex),
	}
	c.persistLocked()
	c.publishLocked(EventNavigated)
	c.log.Debug("navigated", "exercise", idx+1, "section", st.SectionName(st.CurrentSectionIndex))

	ctx, gen := c.newFlowLocked()
	return func() { c.runFlow(ctx, gen) }
}

// ToggleDurationRange switches the current exercise between the lower and
// upper bound of its duration range. The displayed total follows while the
// exercise has not started; a running exercise keeps its total. It reports
// false when the exercise has no range.
func (c *Coach) ToggleDurationRange() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.controllableLocked() || !c.rng.IsRange() {
		return false
	}
	c.useMax = !c.useMax
	if c.state.TimerState.Type == models.PhaseReady {
		c.state.TimerState.Total = c.rng.Resolve(c.useMax)
	}
	c.publishLocked(EventRange)
	return true
}

// RepeatInstructions speaks the current exercise's instructions again.
func (c *Coach) RepeatInstructions(ctx context.Context) bool {
	c.mu.Lock()
	if c.state == nil {
		c.mu.Unlock()
		return false
	}
	ex, ok := c.state.CurrentExercise()
	c.mu.Unlock()
	if !ok {
		return false
	}
	c.voice.AnnounceInstructions(ctx, ex)
	return true
}

// SetVisibility reacts to the app being hidden or shown. Hiding a running
// workout pauses it; showing it again re-acquires the wake lock if the
// session asked for one, but never resumes.
func (c *Coach) SetVisibility(ctx context.Context, hidden bool) {
	if hidden {
		c.Pause(ctx)
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == nil || !c.state.Config.WakeLockEnabled || c.wake.Active() {
		return
	}
	if c.wake.Acquire(ctx) {
		c.log.Debug("wake lock re-acquired")
	}
}
