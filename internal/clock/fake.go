package clock

import (
	"slices"
	"sync"
	"time"
)

// Fake is a manually advanced [Clock] and [Scheduler] for deterministic tests.
//
// Scheduled functions only run inside Advance, on the goroutine calling Advance, in deadline order.
// Functions with equal deadlines run in the order they were scheduled.
type Fake struct {
	mu      sync.Mutex
	current time.Time
	seq     int
	pending []*fakeTimer
}

func NewFake(start time.Time) *Fake {
	return &Fake{current: start}
}

func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.current
}

func (f *Fake) Since(t time.Time) time.Duration {
	return f.Now().Sub(t)
}

func (f *Fake) AfterFunc(d time.Duration, fn func()) Timer {
	return f.schedule(d, 0, fn)
}

func (f *Fake) Every(d time.Duration, fn func()) Timer {
	return f.schedule(d, d, fn)
}

// Pending returns the number of scheduled functions that have not run or been stopped.
func (f *Fake) Pending() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.pending)
}

// Advance moves the clock forward by d and runs every function that becomes due.
func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	target := f.current.Add(d)
	f.mu.Unlock()

	for {
		f.mu.Lock()
		next := f.popDue(target)
		if next == nil {
			f.current = target
			f.mu.Unlock()
			return
		}
		f.current = next.deadline
		if next.interval > 0 {
			next.deadline = next.deadline.Add(next.interval)
			f.seq++
			next.seq = f.seq
			f.pending = append(f.pending, next)
		}
		f.mu.Unlock()

		next.fn()
	}
}

func (f *Fake) schedule(d, interval time.Duration, fn func()) *fakeTimer {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	t := &fakeTimer{
		owner:    f,
		deadline: f.current.Add(d),
		interval: interval,
		seq:      f.seq,
		fn:       fn,
	}
	f.pending = append(f.pending, t)
	return t
}

// popDue removes and returns the earliest timer due at or before target. Must be called with mu held.
func (f *Fake) popDue(target time.Time) *fakeTimer {
	if len(f.pending) == 0 {
		return nil
	}
	idx := 0
	for i, t := range f.pending {
		best := f.pending[idx]
		if t.deadline.Before(best.deadline) || (t.deadline.Equal(best.deadline) && t.seq < best.seq) {
			idx = i
		}
	}
	t := f.pending[idx]
	if t.deadline.After(target) {
		return nil
	}
	f.pending = slices.Delete(f.pending, idx, idx+1)
	return t
}

type fakeTimer struct {
	owner    *Fake
	deadline time.Time
	interval time.Duration
	seq      int
	fn       func()
}

func (t *fakeTimer) Stop() bool {
	t.owner.mu.Lock()
	defer t.owner.mu.Unlock()
	idx := slices.Index(t.owner.pending, t)
	if idx == -1 {
		return false
	}
	t.owner.pending = slices.Delete(t.owner.pending, idx, idx+1)
	return true
}
