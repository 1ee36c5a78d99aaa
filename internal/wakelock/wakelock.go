// Package wakelock keeps the machine's screen awake while a workout runs.
package wakelock

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"runtime"
	"sync"
)

// ErrUnsupported is returned when the platform offers no way to inhibit sleep.
var ErrUnsupported = errors.New("screen wake lock not supported")

// Inhibitor holds the platform's sleep inhibition until release is called.
type Inhibitor interface {
	Inhibit(ctx context.Context) (release func(), err error)
}

// Controller acquires and releases the wake lock. All failures are
// reported through Acquire's result and the log; none are returned.
type Controller struct {
	inhibitor Inhibitor
	log       *slog.Logger

	mu      sync.Mutex
	release func()
}

func New(inhibitor Inhibitor, log *slog.Logger) *Controller {
	return &Controller{inhibitor: inhibitor, log: log}
}

// Acquire requests the lock. It reports whether the lock is held afterwards;
// acquiring while already held is a no-op that returns true.
func (c *Controller) Acquire(ctx context.Context) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.release != nil {
		return true
	}
	if c.inhibitor == nil {
		c.log.Debug("wake lock unavailable", "error", ErrUnsupported)
		return false
	}
	release, err := c.inhibitor.Inhibit(ctx)
	if err != nil {
		c.log.Warn("wake lock request failed", "error", err)
		return false
	}
	c.release = release
	c.log.Info("wake lock acquired")
	return true
}

// Release drops the lock if held.
func (c *Controller) Release() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.release == nil {
		return
	}
	c.release()
	c.release = nil
	c.log.Info("wake lock released")
}

// Active reports whether the lock is currently held.
func (c *Controller) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.release != nil
}

// CommandInhibitor runs a long-lived inhibiting process and kills it on release.
type CommandInhibitor struct {
	Name string
	Args []string
}

// Detect returns the inhibitor for the running platform: systemd-inhibit on
// Linux, caffeinate on macOS.
func Detect() (*CommandInhibitor, error) {
	var ci CommandInhibitor
	switch runtime.GOOS {
	case "linux":
		ci = CommandInhibitor{
			Name: "systemd-inhibit",
			Args: []string{"--what=idle:sleep", "--who=courtside", "--why=Workout in progress", "--mode=block", "sleep", "infinity"},
		}
	case "darwin":
		ci = CommandInhibitor{Name: "caffeinate", Args: []string{"-d", "-i"}}
	default:
		return nil, fmt.Errorf("%s: %w", runtime.GOOS, ErrUnsupported)
	}
	if _, err := exec.LookPath(ci.Name); err != nil {
		return nil, fmt.Errorf("looking up %s: %w", ci.Name, ErrUnsupported)
	}
	return &ci, nil
}

// Inhibit starts the process. The process outlives ctx; only release stops it.
func (ci *CommandInhibitor) Inhibit(_ context.Context) (func(), error) {
	cmd := exec.Command(ci.Name, ci.Args...)
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("starting %s: %w", ci.Name, err)
	}
	done := make(chan struct{})
	go func() {
		_ = cmd.Wait()
		close(done)
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			_ = cmd.Process.Kill()
			<-done
		})
	}, nil
}
