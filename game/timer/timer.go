package timer

import (
	"errors"
	"sync"
	"time"
)

// ErrModeMismatch is returned when a countdown-only query is made on an
// elapsed timer, or the other way around.
var ErrModeMismatch = errors.New("timer mode mismatch")

// Mode selects what a Timer measures
type Mode int

const (
	// Countdown runs a fixed budget down to zero
	Countdown Mode = iota + 1
	// Elapsed counts time since start, minus paused time
	Elapsed
)

func (m Mode) String() string {
	switch m {
	case Countdown:
		return "countdown"
	case Elapsed:
		return "elapsed"
	default:
		return "unknown"
	}
}

// State is the lifecycle state of a Timer
type State int

const (
	Ready State = iota
	Running
	Paused
	Stopped
)

func (s State) String() string {
	switch s {
	case Ready:
		return "ready"
	case Running:
		return "running"
	case Paused:
		return "paused"
	case Stopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Clock returns the current time
type Clock func() time.Time

// Option configures a Timer
type Option func(*Timer)

// WithClock replaces the wall clock, mainly for tests
func WithClock(clock Clock) Option {
	return func(t *Timer) {
		if clock != nil {
			t.now = clock
		}
	}
}

// Timer is a pausable clock that either counts down a budget or counts up.
// All methods are safe for concurrent use.
type Timer struct {
	mu     sync.Mutex
	mode   Mode
	budget time.Duration
	now    Clock
	state  State

	startedAt time.Time
	pausedAt  time.Time
	pausedFor time.Duration
	frozen    time.Duration // elapsed value captured by Stop

	watchDone chan struct{}
}

// New creates a timer in the Ready state. budget is ignored for Elapsed timers.
func New(mode Mode, budget time.Duration, opts ...Option) *Timer {
	t := &Timer{
		mode:   mode,
		budget: budget,
		now:    time.Now,
		state:  Ready,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Mode returns the timer's mode
func (t *Timer) Mode() Mode {
	return t.mode
}

// Budget returns the countdown budget (zero for elapsed timers)
func (t *Timer) Budget() time.Duration {
	if t.mode != Countdown {
		return 0
	}
	return t.budget
}

// State returns the current lifecycle state
func (t *Timer) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Start begins timing from Ready or Stopped. Any previous pause accumulation is
// discarded. Calls from Running or Paused are ignored.
func (t *Timer) Start() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state != Ready && t.state != Stopped {
		return
	}
	t.startedAt = t.now()
	t.pausedAt = time.Time{}
	t.pausedFor = 0
	t.frozen = 0
	t.state = Running
}

// Pause freezes the timer. Only legal while Running.
func (t *Timer) Pause() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state != Running {
		return
	}
	t.pausedAt = t.now()
	t.state = Paused
}

// Resume continues a paused timer; the paused interval is excluded from elapsed time.
func (t *Timer) Resume() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state != Paused {
		return
	}
	t.pausedFor += t.now().Sub(t.pausedAt)
	t.pausedAt = time.Time{}
	t.state = Running
}

// Stop halts the timer from Running or Paused and cancels any watch.
// The elapsed value is frozen at the moment of the stop.
func (t *Timer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state != Running && t.state != Paused {
		return
	}
	t.frozen = t.elapsedLocked()
	t.state = Stopped
	t.cancelWatchLocked()
}

// Reset forces the timer back to Ready and clears every anchor
func (t *Timer) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.startedAt = time.Time{}
	t.pausedAt = time.Time{}
	t.pausedFor = 0
	t.frozen = 0
	t.state = Ready
	t.cancelWatchLocked()
}

// Elapsed returns running time minus paused time. Elapsed timers only.
func (t *Timer) Elapsed() (time.Duration, error) {
	if t.mode != Elapsed {
		return 0, ErrModeMismatch
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.elapsedLocked(), nil
}

// Remaining returns what is left of the budget, never negative. Countdown timers only.
func (t *Timer) Remaining() (time.Duration, error) {
	if t.mode != Countdown {
		return 0, ErrModeMismatch
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.remainingLocked(), nil
}

// IsExpired reports whether a running countdown has used its whole budget
func (t *Timer) IsExpired() bool {
	if t.mode != Countdown {
		return false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state == Running && t.remainingLocked() <= 0
}

// Watch calls fn every interval on a background goroutine until Stop or Reset
// is called, or Watch is called again. fn must not assume it holds any lock.
func (t *Timer) Watch(interval time.Duration, fn func()) {
	if interval <= 0 || fn == nil {
		return
	}

	t.mu.Lock()
	t.cancelWatchLocked()
	done := make(chan struct{})
	t.watchDone = done
	t.mu.Unlock()

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				select {
				case <-done:
					return
				default:
				}
				fn()
			}
		}
	}()
}

// Watching reports whether a watch goroutine is scheduled
func (t *Timer) Watching() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.watchDone != nil
}

func (t *Timer) cancelWatchLocked() {
	if t.watchDone != nil {
		close(t.watchDone)
		t.watchDone = nil
	}
}

func (t *Timer) elapsedLocked() time.Duration {
	switch t.state {
	case Running:
		return t.now().Sub(t.startedAt) - t.pausedFor
	case Paused:
		return t.pausedAt.Sub(t.startedAt) - t.pausedFor
	case Stopped:
		return t.frozen
	default:
		return 0
	}
}

func (t *Timer) remainingLocked() time.Duration {
	remaining := t.budget - t.elapsedLocked()
	if remaining < 0 {
		return 0
	}
	return remaining
}
