package coach

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/claude/courtside/internal/clock"
	"github.com/claude/courtside/internal/models"
)

// fakeVoice records each announcement as a short tagged phrase.
type fakeVoice struct {
	mu      sync.Mutex
	enabled bool
	phrases []string
	cancels int
	hook    func(phrase string)
}

func (f *fakeVoice) say(p string) {
	f.mu.Lock()
	f.phrases = append(f.phrases, p)
	hook := f.hook
	f.mu.Unlock()
	if hook != nil {
		hook(p)
	}
}

func (f *fakeVoice) SetEnabled(enabled bool) {
	f.mu.Lock()
	f.enabled = enabled
	f.mu.Unlock()
}

func (f *fakeVoice) Cancel() {
	f.mu.Lock()
	f.cancels++
	f.mu.Unlock()
}

func (f *fakeVoice) AnnounceSection(_ context.Context, name string) { f.say("section:" + name) }
func (f *fakeVoice) AnnounceExercise(_ context.Context, name string, n, total int) {
	f.say(fmt.Sprintf("exercise:%s %d/%d", name, n, total))
}
func (f *fakeVoice) AnnounceInstructions(_ context.Context, ex models.Exercise) {
	f.say("instructions:" + ex.Name)
}
func (f *fakeVoice) AnnounceDescription(_ context.Context, ex models.Exercise) {
	f.say("description:" + ex.Name)
}
func (f *fakeVoice) AnnounceCount(_ context.Context, n int) { f.say(fmt.Sprintf("count:%d", n)) }
func (f *fakeVoice) AnnounceSectionComplete(_ context.Context, name, next string) {
	f.say("section-complete:" + name + ">" + next)
}
func (f *fakeVoice) AnnounceNext(_ context.Context, name string) { f.say("next:" + name) }
func (f *fakeVoice) AnnounceWorkoutComplete(context.Context)    { f.say("complete") }
func (f *fakeVoice) AnnouncePause(context.Context)              { f.say("pause") }
func (f *fakeVoice) AnnounceResume(context.Context)             { f.say("resume") }

func (f *fakeVoice) count(prefix string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, p := range f.phrases {
		if strings.HasPrefix(p, prefix) {
			n++
		}
	}
	return n
}

func (f *fakeVoice) said(phrase string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.phrases {
		if p == phrase {
			return true
		}
	}
	return false
}

// fakeTones records the countdown beeps it was asked to play.
type fakeTones struct {
	mu        sync.Mutex
	enabled   bool
	counts    []int
	last      context.Context
	successes int
}

func (f *fakeTones) SetEnabled(enabled bool) {
	f.mu.Lock()
	f.enabled = enabled
	f.mu.Unlock()
}

func (f *fakeTones) PlayCount(ctx context.Context, n int) {
	f.mu.Lock()
	f.counts = append(f.counts, n)
	f.last = ctx
	f.mu.Unlock()
}

func (f *fakeTones) lastCtx() context.Context {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.last
}

func (f *fakeTones) played() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int(nil), f.counts...)
}

func (f *fakeTones) PlaySuccess(context.Context) {
	f.mu.Lock()
	f.successes++
	f.mu.Unlock()
}

type fakeWake struct {
	mu       sync.Mutex
	held     bool
	acquires int
	releases int
}

func (f *fakeWake) Acquire(context.Context) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.held {
		f.acquires++
	}
	f.held = true
	return true
}

func (f *fakeWake) Release() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.held {
		f.releases++
	}
	f.held = false
}

func (f *fakeWake) Active() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.held
}

// memStore keeps the session as JSON, like the real stores do.
type memStore struct {
	mu       sync.Mutex
	data     []byte
	saves    int
	failSave bool
}

func (s *memStore) Save(_ context.Context, st *models.WorkoutState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failSave {
		return errors.New("disk full")
	}
	data, err := json.Marshal(st)
	if err != nil {
		return err
	}
	s.data = data
	s.saves++
	return nil
}

func (s *memStore) Load(context.Context) (*models.WorkoutState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data == nil {
		return nil, models.ErrNotFound
	}
	var st models.WorkoutState
	if err := json.Unmarshal(s.data, &st); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrCorruptSession, err)
	}
	return &st, nil
}

func (s *memStore) Clear(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = nil
	return nil
}

func (s *memStore) stored(t *testing.T) *models.WorkoutState {
	t.Helper()
	st, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("loading stored session: %v", err)
	}
	return st
}

func (s *memStore) empty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data == nil
}

func (s *memStore) saveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}

type fakeRecorder struct {
	mu      sync.Mutex
	records []models.HistoryRecord
}

func (f *fakeRecorder) RecordCompletion(_ context.Context, rec models.HistoryRecord) error {
	f.mu.Lock()
	f.records = append(f.records, rec)
	f.mu.Unlock()
	return nil
}

type fakeMetrics struct {
	started, finished, exercises, pauses, persistFailures int
}

func (f *fakeMetrics) WorkoutStarted(models.PlanType) { f.started++ }
func (f *fakeMetrics) WorkoutFinished(string)         { f.finished++ }
func (f *fakeMetrics) ExerciseCompleted()             { f.exercises++ }
func (f *fakeMetrics) Paused()                        { f.pauses++ }
func (f *fakeMetrics) PersistFailed()                 { f.persistFailures++ }

// queue defers spawned flow steps until run is called.
type queue struct {
	mu  sync.Mutex
	fns []func()
}

func (q *queue) spawn(fn func()) {
	q.mu.Lock()
	q.fns = append(q.fns, fn)
	q.mu.Unlock()
}

func (q *queue) run() {
	for {
		q.mu.Lock()
		if len(q.fns) == 0 {
			q.mu.Unlock()
			return
		}
		fn := q.fns[0]
		q.fns = q.fns[1:]
		q.mu.Unlock()
		fn()
	}
}

type harness struct {
	c       *Coach
	clk     *clock.Manual
	voice   *fakeVoice
	tones   *fakeTones
	wake    *fakeWake
	store   *memStore
	rec     *fakeRecorder
	metrics *fakeMetrics

	mu     sync.Mutex
	events []Event
}

type harnessOption func(*Options)

func withSpawn(spawn func(func())) harnessOption {
	return func(o *Options) { o.Spawn = spawn }
}

// newHarness builds a coach on a manual clock. Flow steps run inline unless
// a different spawner is supplied.
func newHarness(t *testing.T, opts ...harnessOption) *harness {
	t.Helper()
	h := &harness{
		clk:     clock.NewManual(time.UnixMilli(1_760_000_000_000)),
		voice:   &fakeVoice{},
		tones:   &fakeTones{},
		wake:    &fakeWake{},
		store:   &memStore{},
		rec:     &fakeRecorder{},
		metrics: &fakeMetrics{},
	}
	o := Options{
		Voice:    h.voice,
		Tones:    h.tones,
		Wake:     h.wake,
		Store:    h.store,
		Recorder: h.rec,
		Metrics:  h.metrics,
		Clock:    h.clk,
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		Spawn:    func(fn func()) { fn() },
	}
	for _, opt := range opts {
		opt(&o)
	}
	h.c = New(o)
	h.c.Events().Subscribe(func(e Event) {
		h.mu.Lock()
		h.events = append(h.events, e)
		h.mu.Unlock()
	})
	t.Cleanup(h.c.Close)
	return h
}

func (h *harness) state(t *testing.T) *models.WorkoutState {
	t.Helper()
	st, ok := h.c.Snapshot()
	if !ok {
		t.Fatal("expected a live session")
	}
	return st
}

func (h *harness) timer(t *testing.T) models.TimerState {
	t.Helper()
	return h.state(t).TimerState
}

// exercisePhases returns the exercise names of every exercise-timer start, in order.
func (h *harness) exercisePhases() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	var names []string
	for _, e := range h.events {
		if e.Type == EventPhase && e.View.Phase == models.PhaseExercise {
			names = append(names, e.View.Exercise)
		}
	}
	return names
}

func (h *harness) lastEvent(t EventType) (Event, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i := len(h.events) - 1; i >= 0; i-- {
		if h.events[i].Type == t {
			return h.events[i], true
		}
	}
	return Event{}, false
}

// runToEnd ticks until the session ends, failing after limit ticks.
func (h *harness) runToEnd(t *testing.T, limit int) {
	t.Helper()
	for i := 0; h.c.Active(); i++ {
		if i >= limit {
			t.Fatalf("workout still active after %d ticks", limit)
		}
		h.clk.Tick()
	}
}

func corePlan() *models.PlanDescriptor {
	return &models.PlanDescriptor{
		Type:     models.PlanWarmup,
		ID:       "warmup",
		Name:     "Warm-Up Protocol",
		Sections: []models.Section{{Name: "Core"}},
		Exercises: []models.Exercise{
			{Name: "Plank", Duration: "30 seconds", SectionName: "Core"},
			{Name: "Side Plank", Duration: "20-30 seconds", SectionName: "Core"},
		},
	}
}

func twoSectionPlan() *models.PlanDescriptor {
	return &models.PlanDescriptor{
		Type:     models.PlanEightWeek,
		ID:       "w1d1",
		Name:     "Week 1 Day 1",
		Week:     1,
		Day:      1,
		Sections: []models.Section{{Name: "Core"}, {Name: "Agility"}},
		Exercises: []models.Exercise{
			{Name: "Plank", Duration: "10 seconds", SectionName: "Core", SectionIndex: 0},
			{Name: "Dead Bug", Duration: "10 seconds", SectionName: "Core", SectionIndex: 0},
			{Name: "Split Step", Duration: "10 seconds", SectionName: "Agility", SectionIndex: 1},
		},
	}
}

func quietConfig() models.WorkoutConfig {
	cfg := models.DefaultWorkoutConfig()
	cfg.PauseDuration = 5
	return cfg
}
