// Package tone plays the short sine beeps that accompany the countdown and
// the end of a workout.
package tone

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	"github.com/claude/courtside/internal/clock"
	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// SampleRate of synthesized tones.
const SampleRate = 22050

const (
	bitDepth     = 16
	wavFormatPCM = 1
)

// Tone is a single sine beep.
type Tone struct {
	Frequency float64
	Duration  time.Duration
	Volume    float64
}

// Countdown beeps: a low tick for each count, a higher and longer one
// on "1", then the "go" beep.
var (
	countTick = Tone{Frequency: 800, Duration: 200 * time.Millisecond, Volume: 0.3}
	countLast = Tone{Frequency: 1000, Duration: 300 * time.Millisecond, Volume: 0.3}
	countGo   = Tone{Frequency: 1200, Duration: 300 * time.Millisecond, Volume: 0.4}
)

var successChord = []Tone{
	{Frequency: 600, Duration: 150 * time.Millisecond, Volume: 0.3},
	{Frequency: 800, Duration: 150 * time.Millisecond, Volume: 0.3},
	{Frequency: 1000, Duration: 250 * time.Millisecond, Volume: 0.4},
}

// successGap separates the notes of the success chord.
const successGap = 50 * time.Millisecond

// Sink renders a tone to an audio device.
type Sink interface {
	Play(ctx context.Context, t Tone) error
}

// ErrUnsupported is returned when no audio player is available.
var ErrUnsupported = errors.New("audio output not supported")

// Player maps workout events onto tones. Playback failures are logged and
// swallowed.
type Player struct {
	sink  Sink
	clock clock.Clock
	log   *slog.Logger

	mu      sync.Mutex
	enabled bool
}

func NewPlayer(sink Sink, clk clock.Clock, log *slog.Logger) *Player {
	return &Player{sink: sink, clock: clk, log: log, enabled: true}
}

func (p *Player) SetEnabled(enabled bool) {
	p.mu.Lock()
	p.enabled = enabled
	p.mu.Unlock()
}

func (p *Player) Enabled() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.enabled
}

func (p *Player) play(ctx context.Context, t Tone) {
	if ctx.Err() != nil || !p.Enabled() {
		return
	}
	if err := p.sink.Play(ctx, t); err != nil && ctx.Err() == nil {
		p.log.Warn("tone playback failed", "frequency", t.Frequency, "error", err)
	}
}

// CountdownTone returns the beep for count n; 0 is the "go" beep.
func CountdownTone(n int) Tone {
	switch n {
	case 0:
		return countGo
	case 1:
		return countLast
	}
	return countTick
}

// PlayCount plays the single beep for count n of a countdown.
func (p *Player) PlayCount(ctx context.Context, n int) {
	p.play(ctx, CountdownTone(n))
}

// PlaySuccess plays a rising three-note chord.
func (p *Player) PlaySuccess(ctx context.Context) {
	for i, t := range successChord {
		if i > 0 && p.clock.Sleep(ctx, successGap) != nil {
			return
		}
		p.play(ctx, t)
	}
}

// Samples renders t as 16-bit mono PCM with a short linear fade in and
// out.
func Samples(t Tone) []int {
	n := int(t.Duration.Seconds() * SampleRate)
	fade := min(n/10, SampleRate/100)
	vol := math.Max(0, math.Min(1, t.Volume))

	samples := make([]int, n)
	for i := range samples {
		env := 1.0
		if fade > 0 {
			if i < fade {
				env = float64(i) / float64(fade)
			} else if i >= n-fade {
				env = float64(n-1-i) / float64(fade)
			}
		}
		v := math.Sin(2*math.Pi*t.Frequency*float64(i)/SampleRate) * vol * env
		samples[i] = int(v * math.MaxInt16)
	}
	return samples
}

// Encode writes t to w as a WAV file.
func Encode(w io.WriteSeeker, t Tone) error {
	enc := wav.NewEncoder(w, SampleRate, bitDepth, 1, wavFormatPCM)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: SampleRate},
		Data:           Samples(t),
		SourceBitDepth: bitDepth,
	}
	if err := enc.Write(buf); err != nil {
		enc.Close()
		return fmt.Errorf("encoding tone: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("finishing tone: %w", err)
	}
	return nil
}

// players are tried in order when no command is configured.
var players = []string{"paplay", "aplay", "afplay"}

// CommandSink writes each tone to a temporary WAV file and plays it with
// an external player.
type CommandSink struct {
	bin string
	dir string
}

// NewCommandSink uses command, or the first player found on PATH when
// command is empty. Temporary files go to dir (os.TempDir() when empty).
func NewCommandSink(command, dir string) (*CommandSink, error) {
	candidates := players
	if command != "" {
		candidates = []string{command}
	}
	for _, c := range candidates {
		if path, err := exec.LookPath(c); err == nil {
			return &CommandSink{bin: path, dir: dir}, nil
		}
	}
	return nil, fmt.Errorf("looking up %v: %w", candidates, ErrUnsupported)
}

func (s *CommandSink) Play(ctx context.Context, t Tone) error {
	f, err := os.CreateTemp(s.dir, "courtside-tone-*.wav")
	if err != nil {
		return fmt.Errorf("creating tone file: %w", err)
	}
	defer os.Remove(f.Name())

	if err := Encode(f, t); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing tone file: %w", err)
	}

	var args []string
	if filepath.Base(s.bin) == "aplay" {
		args = append(args, "-q")
	}
	args = append(args, f.Name())
	if err := exec.CommandContext(ctx, s.bin, args...).Run(); err != nil {
		return fmt.Errorf("running %s: %w", s.bin, err)
	}
	return nil
}

// NopSink discards tones.
type NopSink struct{}

func (NopSink) Play(context.Context, Tone) error { return nil }
