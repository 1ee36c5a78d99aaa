// Package clock provides the tick source the coach runs on. Real uses
// wall-clock tickers; Manual is advanced by hand so the workout state machine
// can be driven second by second in tests.
package clock

import (
	"context"
	"sync"
	"time"
)

// Clock schedules the coach's sleeps and one-second intervals.
type Clock interface {
	Now() time.Time
	// Sleep blocks for d or until ctx is done, returning ctx.Err() in the latter case.
	Sleep(ctx context.Context, d time.Duration) error
	// Every calls fn every d until the returned stop func is called.
	// stop never waits for an in-flight fn and is safe to call from inside fn.
	Every(d time.Duration, fn func()) (stop func())
}

// Real is the wall-clock implementation.
type Real struct{}

func (Real) Now() time.Time { return time.Now() }

func (Real) Sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (Real) Every(d time.Duration, fn func()) func() {
	ticker := time.NewTicker(d)
	done := make(chan struct{})
	var once sync.Once

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				// A stop that raced with this tick wins.
				select {
				case <-done:
					return
				default:
				}
				fn()
			}
		}
	}()

	return func() { once.Do(func() { close(done) }) }
}
