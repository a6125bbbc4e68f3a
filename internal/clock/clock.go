// Package clock provides time and timer operations that can be replaced in tests.
package clock

import (
	"sync"
	"time"
)

// Clock provides the current time.
type Clock interface {
	Now() time.Time
	Since(t time.Time) time.Duration
}

// Timer is a handle to scheduled work. Stop reports whether the call prevented future executions.
type Timer interface {
	Stop() bool
}

// Scheduler runs functions in the future. Scheduled functions run on a goroutine owned by the scheduler.
type Scheduler interface {
	// AfterFunc runs f once after d has elapsed.
	AfterFunc(d time.Duration, f func()) Timer
	// Every runs f every d until the returned Timer is stopped.
	Every(d time.Duration, f func()) Timer
}

// Real uses the standard time package.
type Real struct{}

func (Real) Now() time.Time                  { return time.Now() }
func (Real) Since(t time.Time) time.Duration { return time.Since(t) }

func (Real) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

func (Real) Every(d time.Duration, f func()) Timer {
	t := &ticker{
		ticker: time.NewTicker(d),
		stopCh: make(chan struct{}),
	}
	go t.run(f)
	return t
}

type ticker struct {
	ticker *time.Ticker
	stopCh chan struct{}
	once   sync.Once
}

func (t *ticker) run(f func()) {
	for {
		select {
		case <-t.stopCh:
			return
		case <-t.ticker.C:
			f()
		}
	}
}

func (t *ticker) Stop() bool {
	stopped := false
	t.once.Do(func() {
		t.ticker.Stop()
		close(t.stopCh)
		stopped = true
	})
	return stopped
}
