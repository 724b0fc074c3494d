package engine

import (
	"sync"
	"time"
)

// Observed gate delays from the scenario games: selections reveal their
// reflection for 1.5s before the player may advance, and the last stage
// auto-settles 2.5s after selection unless the player finishes first.
const (
	DefaultRevealDelay      = 1500 * time.Millisecond
	DefaultFinalSettleDelay = 2500 * time.Millisecond
)

// Timing carries the two gate delays of a session.
type Timing struct {
	RevealDelay      time.Duration
	FinalSettleDelay time.Duration
}

// DefaultTiming returns the observed production delays.
func DefaultTiming() Timing {
	return Timing{
		RevealDelay:      DefaultRevealDelay,
		FinalSettleDelay: DefaultFinalSettleDelay,
	}
}

func (t Timing) withDefaults() Timing {
	if t.RevealDelay <= 0 {
		t.RevealDelay = DefaultRevealDelay
	}
	if t.FinalSettleDelay <= 0 {
		t.FinalSettleDelay = DefaultFinalSettleDelay
	}
	return t
}

// Scheduler abstracts delayed callbacks so sessions never depend on wall-clock
// timers directly.
type Scheduler interface {
	// AfterFunc runs fn after d on an arbitrary goroutine and returns a stop
	// function. Stop reports whether it prevented the callback from running.
	AfterFunc(d time.Duration, fn func()) (stop func() bool)
}

// WallScheduler schedules on real timers.
type WallScheduler struct{}

func (WallScheduler) AfterFunc(d time.Duration, fn func()) func() bool {
	t := time.AfterFunc(d, fn)
	return t.Stop
}

// ManualScheduler is test-only: it queues callbacks and fires them on demand
// so reveal and settle transitions can be driven deterministically.
type ManualScheduler struct {
	mu    sync.Mutex
	queue []*manualTimer
}

type manualTimer struct {
	delay   time.Duration
	fn      func()
	stopped bool
	fired   bool
}

func NewManualScheduler() *ManualScheduler {
	return &ManualScheduler{}
}

func (m *ManualScheduler) AfterFunc(d time.Duration, fn func()) func() bool {
	t := &manualTimer{delay: d, fn: fn}
	m.mu.Lock()
	m.queue = append(m.queue, t)
	m.mu.Unlock()
	return func() bool {
		m.mu.Lock()
		defer m.mu.Unlock()
		if t.fired || t.stopped {
			return false
		}
		t.stopped = true
		return true
	}
}

// FireNext runs the earliest callback that is neither fired nor stopped.
// It reports whether one was found.
func (m *ManualScheduler) FireNext() bool {
	m.mu.Lock()
	var next *manualTimer
	for _, t := range m.queue {
		if !t.fired && !t.stopped {
			next = t
			break
		}
	}
	if next != nil {
		next.fired = true
	}
	m.mu.Unlock()

	if next == nil {
		return false
	}
	next.fn()
	return true
}

// FireAll runs every pending callback in scheduling order.
func (m *ManualScheduler) FireAll() {
	for m.FireNext() {
	}
}

// Pending reports how many callbacks are neither fired nor stopped.
func (m *ManualScheduler) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, t := range m.queue {
		if !t.fired && !t.stopped {
			n++
		}
	}
	return n
}

// Replay re-invokes every callback ever scheduled, including stopped and
// already-fired ones. Sessions must treat such stale callbacks as no-ops;
// tests use this to prove cancellation is not the only line of defense.
func (m *ManualScheduler) Replay() {
	m.mu.Lock()
	fns := make([]func(), 0, len(m.queue))
	for _, t := range m.queue {
		fns = append(fns, t.fn)
	}
	m.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}
