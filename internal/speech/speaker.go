// Package speech narrates workouts. A Speaker turns text into audio; the
// Guide layers the workout vocabulary, pauses between phrases and the
// voice-enabled switch on top of it.
package speech

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"path/filepath"
	"strconv"
	"sync"
)

// ErrUnsupported is returned when no speech synthesizer is available.
var ErrUnsupported = errors.New("speech synthesis not supported")

// Voice carries per-utterance settings. Rate 1.0 is the synthesizer's normal speed.
type Voice struct {
	Rate float64
}

// Speaker speaks one utterance at a time.
type Speaker interface {
	// Speak blocks until the utterance finishes, is cancelled, or fails.
	Speak(ctx context.Context, text string, v Voice) error
	// Cancel stops the in-flight utterance, if any.
	Cancel()
}

// synthesizers are tried in order when no command is configured.
var synthesizers = []string{"espeak-ng", "espeak", "spd-say", "say"}

// CommandSpeaker speaks by running a platform TTS program per utterance.
type CommandSpeaker struct {
	bin string
	log *slog.Logger

	mu     sync.Mutex
	seq    uint64
	cancel context.CancelFunc
}

// NewCommandSpeaker uses command, or the first synthesizer found on PATH
// when command is empty.
func NewCommandSpeaker(command string, log *slog.Logger) (*CommandSpeaker, error) {
	candidates := synthesizers
	if command != "" {
		candidates = []string{command}
	}
	for _, c := range candidates {
		if path, err := exec.LookPath(c); err == nil {
			log.Info("speech synthesizer found", "command", path)
			return &CommandSpeaker{bin: path, log: log}, nil
		}
	}
	return nil, fmt.Errorf("looking up %v: %w", candidates, ErrUnsupported)
}

func (s *CommandSpeaker) Speak(ctx context.Context, text string, v Voice) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.seq++
	seq := s.seq
	s.cancel = cancel
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		if s.seq == seq {
			s.cancel = nil
		}
		s.mu.Unlock()
	}()

	cmd := exec.CommandContext(ctx, s.bin, speakArgs(s.bin, text, v)...)
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("running %s: %w", s.bin, err)
	}
	return nil
}

func (s *CommandSpeaker) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

// speakArgs maps a Voice onto each synthesizer's flags.
func speakArgs(bin, text string, v Voice) []string {
	rate := v.Rate
	if rate <= 0 {
		rate = 1
	}
	switch filepath.Base(bin) {
	case "espeak-ng", "espeak":
		return []string{"-s", strconv.Itoa(int(175 * rate)), text}
	case "spd-say":
		// -w waits until the message is spoken; rate is -100..100.
		return []string{"-w", "-r", strconv.Itoa(clamp(int((rate-1)*100), -100, 100)), text}
	case "say":
		return []string{"-r", strconv.Itoa(int(180 * rate)), text}
	}
	return []string{text}
}

func clamp(v, lo, hi int) int {
	return max(lo, min(hi, v))
}

// LogSpeaker writes utterances to the log instead of speaking them.
type LogSpeaker struct {
	Log *slog.Logger
}

func (s LogSpeaker) Speak(ctx context.Context, text string, _ Voice) error {
	s.Log.Info("voice", "text", text)
	return ctx.Err()
}

func (LogSpeaker) Cancel() {}
