package speech

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/claude/courtside/internal/clock"
	"github.com/claude/courtside/internal/models"
)

// Pauses inserted between spoken phrases so they stay intelligible.
const (
	partPause        = 300 * time.Millisecond
	phrasePause      = 400 * time.Millisecond
	defaultVoiceRate = 0.9
)

// Guide speaks the workout vocabulary. Its methods return once the phrase
// sequence has been spoken, skipped or cancelled; they never fail.
type Guide struct {
	speaker Speaker
	clock   clock.Clock
	log     *slog.Logger
	rate    float64

	mu      sync.Mutex
	enabled bool
}

// NewGuide wraps speaker. A rate <= 0 uses the default of 0.9.
func NewGuide(speaker Speaker, clk clock.Clock, rate float64, log *slog.Logger) *Guide {
	if rate <= 0 {
		rate = defaultVoiceRate
	}
	return &Guide{speaker: speaker, clock: clk, log: log, rate: rate, enabled: true}
}

// SetEnabled switches narration on or off. Disabling cancels the current utterance.
func (g *Guide) SetEnabled(enabled bool) {
	g.mu.Lock()
	g.enabled = enabled
	g.mu.Unlock()
	if !enabled {
		g.Cancel()
	}
}

// Enabled reports whether narration is on.
func (g *Guide) Enabled() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.enabled
}

// Cancel stops whatever is being spoken.
func (g *Guide) Cancel() {
	g.speaker.Cancel()
}

// Say speaks text at the guide's rate, replacing any utterance in flight.
func (g *Guide) Say(ctx context.Context, text string) {
	g.sayRate(ctx, text, g.rate)
}

func (g *Guide) sayRate(ctx context.Context, text string, rate float64) {
	if ctx.Err() != nil {
		return
	}
	if !g.Enabled() {
		g.log.Debug("voice disabled", "text", text)
		return
	}
	g.speaker.Cancel()
	err := g.speaker.Speak(ctx, text, Voice{Rate: rate})
	if err != nil && !errors.Is(err, context.Canceled) {
		g.log.Warn("speech synthesis failed", "text", text, "error", err)
	}
}

func (g *Guide) wait(ctx context.Context, d time.Duration) {
	_ = g.clock.Sleep(ctx, d)
}

func (g *Guide) AnnounceSection(ctx context.Context, name string) {
	g.Say(ctx, "Starting "+name)
}

// AnnounceExercise says the ordinal position, then the exercise name.
func (g *Guide) AnnounceExercise(ctx context.Context, name string, n, total int) {
	g.Say(ctx, fmt.Sprintf("Exercise %d of %d", n, total))
	g.wait(ctx, phrasePause)
	g.Say(ctx, name)
}

// AnnounceInstructions says duration, reps and sets, each followed by a short
// pause, then the explicit instructions or the description's first sentence.
func (g *Guide) AnnounceInstructions(ctx context.Context, ex models.Exercise) {
	var parts []string
	if d := ex.DurationText(); d != "" {
		parts = append(parts, d)
	}
	if ex.Reps != "" {
		parts = append(parts, ex.Reps)
	}
	if ex.Sets != "" {
		parts = append(parts, ex.Sets)
	}
	for _, p := range parts {
		g.Say(ctx, p)
		g.wait(ctx, partPause)
	}

	if brief := ex.BriefInstruction(); brief != "" {
		g.wait(ctx, phrasePause)
		g.Say(ctx, brief)
	}
}

// AnnounceDescription reads the full description, if any.
func (g *Guide) AnnounceDescription(ctx context.Context, ex models.Exercise) {
	if ex.Description != "" {
		g.Say(ctx, ex.Description)
	}
}

// AnnounceCount speaks count n of a countdown; 0 is "Go!".
func (g *Guide) AnnounceCount(ctx context.Context, n int) {
	if n <= 0 {
		g.sayRate(ctx, "Go!", 1.2)
		return
	}
	g.sayRate(ctx, strconv.Itoa(n), 1.0)
}

// AnnounceSectionComplete names the finished section and, when there is one, the next.
func (g *Guide) AnnounceSectionComplete(ctx context.Context, name, next string) {
	text := name + " complete."
	if next != "" {
		text += " Moving to " + next + "."
	}
	g.Say(ctx, text)
}

func (g *Guide) AnnounceNext(ctx context.Context, name string) {
	g.Say(ctx, "Next: "+name)
}

func (g *Guide) AnnounceWorkoutComplete(ctx context.Context) {
	g.sayRate(ctx, "Workout complete! Great job!", 0.9)
}

func (g *Guide) AnnouncePause(ctx context.Context) {
	g.Say(ctx, "Workout paused")
}

func (g *Guide) AnnounceResume(ctx context.Context) {
	g.Say(ctx, "Resuming")
}
