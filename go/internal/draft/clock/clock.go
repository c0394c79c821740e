// Package clock implements the per-turn countdown of a draft session.
package clock

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// State is the lifecycle of a turn clock.
type State string

const (
	StateIdle    State = "idle"
	StateRunning State = "running"
	StatePaused  State = "paused"
	StateExpired State = "expired"
)

// Expiry is delivered once when a bound turn runs out of time.
type Expiry struct {
	Turn       int
	Generation uint64
	At         time.Time
}

// ExpiryFunc receives expiries on the clock's own goroutine, with no clock lock held.
type ExpiryFunc func(Expiry)

// Snapshot is a point-in-time view of the clock.
type Snapshot struct {
	State     State         `json:"state"`
	Turn      int           `json:"turn"`
	Duration  time.Duration `json:"duration"`
	Remaining time.Duration `json:"remaining"`
	Deadline  *time.Time    `json:"deadline,omitempty"`
}

// Clock counts down one turn at a time. Every Start, Pause, Resume and Reset moves the clock to a
// new generation, and an expiry only fires if its generation is still current.
type Clock struct {
	mu       sync.Mutex
	clock    clockwork.Clock
	onExpire ExpiryFunc

	state      State
	turn       int
	generation uint64
	duration   time.Duration
	remaining  time.Duration
	deadline   time.Time
	cancel     chan struct{}
}

// New creates an idle clock. A nil clk uses the wall clock.
func New(clk clockwork.Clock, onExpire ExpiryFunc) *Clock {
	if clk == nil {
		clk = clockwork.NewRealClock()
	}
	return &Clock{
		clock:    clk,
		onExpire: onExpire,
		state:    StateIdle,
	}
}

// Start binds the clock to turn and runs it for d, replacing any previous binding. It returns the
// deadline.
func (c *Clock) Start(turn int, d time.Duration) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.disarm()
	c.generation++
	c.turn = turn
	c.duration = d
	c.remaining = d
	c.state = StateRunning
	c.arm(d)
	return c.deadline
}

// Hold binds the clock to turn in the paused state with remaining time left on it.
func (c *Clock) Hold(turn int, d, remaining time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.disarm()
	c.generation++
	c.turn = turn
	c.duration = d
	c.remaining = max(remaining, 0)
	c.deadline = time.Time{}
	c.state = StatePaused
}

// Pause freezes the remaining time. It is a no-op unless the clock is running.
func (c *Clock) Pause() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateRunning {
		return false
	}
	c.remaining = max(c.deadline.Sub(c.clock.Now()), 0)
	c.disarm()
	c.generation++
	c.deadline = time.Time{}
	c.state = StatePaused
	return true
}

// Resume restarts a paused clock with the remaining time captured at pause.
func (c *Clock) Resume() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StatePaused {
		return false
	}
	c.generation++
	c.state = StateRunning
	c.arm(c.remaining)
	return true
}

// Reset returns the clock to idle and invalidates the current binding.
func (c *Clock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.disarm()
	c.generation++
	c.turn = 0
	c.duration = 0
	c.remaining = 0
	c.deadline = time.Time{}
	c.state = StateIdle
}

// Current reports whether e is the expiry of the clock's present binding.
func (c *Clock) Current(e Expiry) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state == StateExpired && e.Generation == c.generation && e.Turn == c.turn
}

// Remaining returns the time left on the bound turn.
func (c *Clock) Remaining() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remainingLocked()
}

// Deadline returns when the running clock expires.
func (c *Clock) Deadline() (time.Time, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateRunning {
		return time.Time{}, false
	}
	return c.deadline, true
}

func (c *Clock) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Clock) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Snapshot{
		State:     c.state,
		Turn:      c.turn,
		Duration:  c.duration,
		Remaining: c.remainingLocked(),
	}
	if c.state == StateRunning {
		d := c.deadline
		s.Deadline = &d
	}
	return s
}

func (c *Clock) remainingLocked() time.Duration {
	switch c.state {
	case StateRunning:
		return max(c.deadline.Sub(c.clock.Now()), 0)
	case StatePaused:
		return c.remaining
	default:
		return 0
	}
}

// arm starts the timer goroutine for the current generation. Caller holds mu.
func (c *Clock) arm(d time.Duration) {
	c.deadline = c.clock.Now().Add(d)
	cancel := make(chan struct{})
	c.cancel = cancel
	go c.wait(c.clock.NewTimer(d), cancel, c.generation)
}

// disarm cancels the timer goroutine, if any. Caller holds mu.
func (c *Clock) disarm() {
	if c.cancel != nil {
		close(c.cancel)
		c.cancel = nil
	}
}

func (c *Clock) wait(t clockwork.Timer, cancel <-chan struct{}, generation uint64) {
	select {
	case <-cancel:
		stopAndDrainTimer(t)
	case at := <-t.Chan():
		c.mu.Lock()
		if generation != c.generation || c.state != StateRunning {
			c.mu.Unlock()
			return
		}
		c.state = StateExpired
		c.remaining = 0
		c.cancel = nil
		e := Expiry{Turn: c.turn, Generation: generation, At: at}
		c.mu.Unlock()

		if c.onExpire != nil {
			c.onExpire(e)
		}
	}
}

// stopAndDrainTimer stops a timer and drains its channel if it already fired.
func stopAndDrainTimer(timer clockwork.Timer) {
	if !timer.Stop() {
		select {
		case <-timer.Chan():
		default:
		}
	}
}
