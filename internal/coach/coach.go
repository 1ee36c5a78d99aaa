// Package coach runs a voice-guided workout: it sequences countdown,
// exercise and rest phases, narrates them, and mirrors the session to a
// store so it can be resumed after a restart.
//
// All exported methods are safe for concurrent use. State is guarded by a
// single mutex that is never held across an announcement; every flow step
// re-checks that its session is still live after it wakes up, and every
// interval callback checks its timer id, the session and the running flag
// before it acts.
package coach

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/claude/courtside/internal/clock"
	"github.com/claude/courtside/internal/models"
)

var (
	// ErrNoPlan is returned by Start when the plan is missing or has no exercises.
	ErrNoPlan = errors.New("no workout plan selected")
	// ErrInvalidConfig is returned by Start for a negative rest duration.
	ErrInvalidConfig = errors.New("invalid workout config")
	// ErrNoSession is returned by ResumeSession when nothing resumable is stored.
	ErrNoSession = errors.New("no resumable session")
	// ErrClosed is returned by Start and ResumeSession after Close.
	ErrClosed = errors.New("coach closed")
)

// Announcer speaks the workout narration. Calls block until the phrases
// are spoken, skipped or cancelled, and never fail.
type Announcer interface {
	SetEnabled(enabled bool)
	Cancel()
	AnnounceSection(ctx context.Context, name string)
	AnnounceExercise(ctx context.Context, name string, n, total int)
	AnnounceInstructions(ctx context.Context, ex models.Exercise)
	AnnounceDescription(ctx context.Context, ex models.Exercise)
	AnnounceCount(ctx context.Context, n int)
	AnnounceSectionComplete(ctx context.Context, name, next string)
	AnnounceNext(ctx context.Context, name string)
	AnnounceWorkoutComplete(ctx context.Context)
	AnnouncePause(ctx context.Context)
	AnnounceResume(ctx context.Context)
}

// TonePlayer plays the countdown beeps and the success chord.
type TonePlayer interface {
	SetEnabled(enabled bool)
	PlayCount(ctx context.Context, n int)
	PlaySuccess(ctx context.Context)
}

// WakeLock keeps the screen on.
type WakeLock interface {
	Acquire(ctx context.Context) bool
	Release()
	Active() bool
}

// SessionStore is the durable single-slot mirror of the live session. Load
// reports models.ErrNotFound when the slot is empty and
// models.ErrCorruptSession when it cannot be decoded.
type SessionStore interface {
	Save(ctx context.Context, st *models.WorkoutState) error
	Load(ctx context.Context) (*models.WorkoutState, error)
	Clear(ctx context.Context) error
}

// Recorder receives a history record for every completed workout.
type Recorder interface {
	RecordCompletion(ctx context.Context, rec models.HistoryRecord) error
}

// Metrics counts coach activity.
type Metrics interface {
	WorkoutStarted(planType models.PlanType)
	WorkoutFinished(outcome string)
	ExerciseCompleted()
	Paused()
	PersistFailed()
}

// Workout outcomes reported to Metrics.
const (
	OutcomeCompleted = "completed"
	OutcomeStopped   = "stopped"
)

type nopMetrics struct{}

func (nopMetrics) WorkoutStarted(models.PlanType) {}
func (nopMetrics) WorkoutFinished(string)         {}
func (nopMetrics) ExerciseCompleted()             {}
func (nopMetrics) Paused()                        {}
func (nopMetrics) PersistFailed()                 {}

// Options wires a Coach to its collaborators. Voice, Tones, Wake and Store
// are required.
type Options struct {
	Voice    Announcer
	Tones    TonePlayer
	Wake     WakeLock
	Store    SessionStore
	Recorder Recorder
	Metrics  Metrics
	Clock    clock.Clock
	Logger   *slog.Logger
	// Spawn runs a flow step. Defaults to starting a goroutine.
	Spawn func(func())
	// EventBuffer is the number of events kept for polling clients.
	EventBuffer int
}

// Coach owns the one live workout session.
type Coach struct {
	voice    Announcer
	tones    TonePlayer
	wake     WakeLock
	store    SessionStore
	recorder Recorder
	metrics  Metrics
	clock    clock.Clock
	log      *slog.Logger
	spawn    func(func())
	events   *EventBus

	base       context.Context
	cancelBase context.CancelFunc
	wg         sync.WaitGroup

	mu     sync.Mutex
	closed bool
	state  *models.WorkoutState

	// Duration range of the current exercise and which bound is active.
	rng    models.Duration
	useMax bool

	// Current flow. Bumping gen or cancelling flowCtx retires every step
	// still running for an earlier flow.
	gen        uint64
	flowCtx    context.Context
	cancelFlow context.CancelFunc

	// Audio for the current countdown count. Pause cancels it.
	cancelCue context.CancelFunc

	timerID   uint64
	stopTimer func()
	totalID   uint64
	stopTotal func()
}

// New builds a Coach from opts.
func New(opts Options) *Coach {
	c := &Coach{
		voice:    opts.Voice,
		tones:    opts.Tones,
		wake:     opts.Wake,
		store:    opts.Store,
		recorder: opts.Recorder,
		metrics:  opts.Metrics,
		clock:    opts.Clock,
		log:      opts.Logger,
		spawn:    opts.Spawn,
	}
	if c.metrics == nil {
		c.metrics = nopMetrics{}
	}
	if c.clock == nil {
		c.clock = clock.Real{}
	}
	if c.log == nil {
		c.log = slog.Default()
	}
	if c.spawn == nil {
		c.spawn = func(fn func()) {
			c.mu.Lock()
			if c.closed {
				c.mu.Unlock()
				return
			}
			c.wg.Add(1)
			c.mu.Unlock()
			go func() {
				defer c.wg.Done()
				fn()
			}()
		}
	}
	c.events = NewEventBus(opts.EventBuffer, c.log)
	c.base, c.cancelBase = context.WithCancel(context.Background())
	return c
}

// Events returns the coach's event bus.
func (c *Coach) Events() *EventBus {
	return c.events
}

// Start begins plan with cfg, replacing any session in progress.
func (c *Coach) Start(ctx context.Context, plan *models.PlanDescriptor, cfg models.WorkoutConfig) error {
	if plan == nil || len(plan.Exercises) == 0 {
		return ErrNoPlan
	}
	if cfg.PauseDuration < 0 {
		return fmt.Errorf("%w: pause duration %d", ErrInvalidConfig, cfg.PauseDuration)
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.state != nil {
		c.log.Info("replacing workout in progress", "plan", c.state.PlanName)
		c.finishLocked(OutcomeStopped, nil)
	} else {
		c.clearStoreLocked()
	}

	c.voice.SetEnabled(cfg.VoiceEnabled)
	c.tones.SetEnabled(cfg.BeepsEnabled)
	if cfg.WakeLockEnabled {
		c.wake.Acquire(ctx)
	}

	st := models.NewWorkoutState(plan, cfg, c.clock.Now())
	c.state = st
	c.rng, c.useMax = models.Duration{}, false
	first := st.Exercises[0]
	c.applyRangeLocked(first)
	st.TimerState.Running = true
	st.TimerState.Total = c.resolveLocked(first)
	c.persistLocked()
	c.metrics.WorkoutStarted(plan.Type)
	c.publishLocked(EventStarted)
	c.log.Info("workout started", "plan", plan.Name, "exercises", len(plan.Exercises),
		"pause_duration", cfg.PauseDuration, "voice", cfg.VoiceEnabled, "beeps", cfg.BeepsEnabled)

	flowCtx, gen := c.newFlowLocked()
	c.mu.Unlock()

	c.spawn(func() { c.runFlow(flowCtx, gen) })
	return nil
}

// Stop ends the session on explicit user confirmation. It reports whether
// a session was running.
func (c *Coach) Stop(ctx context.Context) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == nil {
		return false
	}
	c.log.Info("workout stopped", "plan", c.state.PlanName, "exercise", c.state.CurrentExerciseIndex+1)
	c.finishLocked(OutcomeStopped, nil)
	return true
}

// Close stops all timers and flows without clearing the stored session, so
// the workout can be resumed by the next process. It waits for spawned
// flows to return; nothing is spawned afterwards.
func (c *Coach) Close() {
	c.mu.Lock()
	c.closed = true
	c.stopTimerLocked()
	c.stopTotalLocked()
	c.stopCueLocked()
	c.gen++
	if c.cancelFlow != nil {
		c.cancelFlow()
		c.cancelFlow = nil
	}
	if c.state != nil {
		c.voice.Cancel()
		c.wake.Release()
		c.state = nil
	}
	c.mu.Unlock()

	c.wg.Wait()
	c.cancelBase()
}

// Active reports whether a session is live.
func (c *Coach) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state != nil
}

// Snapshot returns a copy of the live session state.
func (c *Coach) Snapshot() (*models.WorkoutState, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == nil {
		return nil, false
	}
	return c.state.Clone(), true
}

// View returns the presentation model of the live session.
func (c *Coach) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewLocked()
}

func (c *Coach) viewLocked() View {
	return buildView(c.state, c.rng, c.useMax)
}

func (c *Coach) publishLocked(t EventType) {
	c.events.Publish(Event{Type: t, Timestamp: c.clock.Now(), View: c.viewLocked()})
}

// persistLocked mirrors the session to the store. Failures only get logged.
func (c *Coach) persistLocked() {
	if c.state == nil {
		return
	}
	if err := c.store.Save(c.base, c.state); err != nil {
		c.metrics.PersistFailed()
		c.log.Warn("persisting session", "error", err)
	}
}

func (c *Coach) clearStoreLocked() {
	if err := c.store.Clear(c.base); err != nil {
		c.metrics.PersistFailed()
		c.log.Warn("clearing session", "error", err)
	}
}

// newFlowLocked retires the current flow and returns the context and
// generation of a new one.
func (c *Coach) newFlowLocked() (context.Context, uint64) {
	if c.cancelFlow != nil {
		c.cancelFlow()
	}
	c.gen++
	c.flowCtx, c.cancelFlow = context.WithCancel(c.base)
	return c.flowCtx, c.gen
}

func (c *Coach) liveLocked(ctx context.Context, gen uint64) bool {
	return ctx.Err() == nil && c.state != nil && c.gen == gen
}

func (c *Coach) live(ctx context.Context, gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.liveLocked(ctx, gen)
}

// finishLocked tears the session down in order: intervals, flows, speech,
// wake lock, store. summary is nil unless the workout completed.
func (c *Coach) finishLocked(outcome string, summary *Summary) {
	c.stopTimerLocked()
	c.stopTotalLocked()
	c.stopCueLocked()
	c.gen++
	if c.cancelFlow != nil {
		c.cancelFlow()
		c.cancelFlow = nil
	}
	c.voice.Cancel()
	c.wake.Release()
	c.clearStoreLocked()
	c.state = nil
	c.rng, c.useMax = models.Duration{}, false

	c.metrics.WorkoutFinished(outcome)
	ev := Event{Type: EventStopped, Timestamp: c.clock.Now(), View: View{}}
	if outcome == OutcomeCompleted {
		ev.Type = EventCompleted
		ev.Summary = summary
	}
	c.events.Publish(ev)
}

// startIntervalLocked replaces the phase interval with a fresh one.
func (c *Coach) startIntervalLocked() {
	c.stopTimerLocked()
	id := c.timerID
	c.stopTimer = c.clock.Every(time.Second, func() { c.onPhaseTick(id) })
}

func (c *Coach) stopTimerLocked() {
	if c.stopTimer != nil {
		c.stopTimer()
		c.stopTimer = nil
	}
	c.timerID++
}

// ensureTotalLocked starts the total-elapsed tracker if it is not running.
func (c *Coach) ensureTotalLocked() {
	if c.stopTotal != nil {
		return
	}
	id := c.totalID
	c.stopTotal = c.clock.Every(time.Second, func() { c.onTotalTick(id) })
}

func (c *Coach) stopTotalLocked() {
	if c.stopTotal != nil {
		c.stopTotal()
		c.stopTotal = nil
	}
	c.totalID++
}

func (c *Coach) onTotalTick(id uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if id != c.totalID || c.state == nil || !c.state.TimerState.Running {
		return
	}
	c.state.TotalElapsed++
}
