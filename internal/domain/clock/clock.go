// Package clock implements the countdown match clock.
package clock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

const defaultInterval = time.Second

// Clock counts down from a match duration, one second per tick. It is safe
// for concurrent use.
type Clock struct {
	mu        sync.Mutex
	max       int
	remaining int
	running   bool
	gen       uint64 // bumped on every start so stale ticks are dropped
	stop      chan struct{}

	interval time.Duration
	clk      clockwork.Clock
	onTick   func(remaining int)
}

// New creates a stopped clock with maxSeconds remaining.
func New(maxSeconds int, opts ...Option) *Clock {
	c := &Clock{
		max:       maxSeconds,
		remaining: maxSeconds,
		interval:  defaultInterval,
		clk:       clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start begins counting down. It returns false if the clock is already
// running or time is up. The tick goroutine ends on Stop, on expiry or when
// ctx is done.
func (c *Clock) Start(ctx context.Context) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running || c.remaining <= 0 {
		return false
	}
	c.running = true
	c.gen++
	c.stop = make(chan struct{})
	go c.run(ctx, c.gen, c.stop, c.clk.NewTicker(c.interval))
	return true
}

// Stop halts the countdown. It returns false if the clock was not running.
func (c *Clock) Stop() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stopLocked()
}

// Reset stops the clock and restores maxSeconds remaining.
func (c *Clock) Reset(maxSeconds int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopLocked()
	c.max = maxSeconds
	c.remaining = maxSeconds
}

func (c *Clock) stopLocked() bool {
	if !c.running {
		return false
	}
	c.running = false
	close(c.stop)
	return true
}

func (c *Clock) run(ctx context.Context, gen uint64, stop <-chan struct{}, t clockwork.Ticker) {
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		case <-t.Chan():
			remaining, ok := c.tick(gen)
			if !ok {
				return
			}
			if c.onTick != nil {
				c.onTick(remaining)
			}
		}
	}
}

// tick removes one second. ok is false when gen is no longer the live run.
func (c *Clock) tick(gen uint64) (remaining int, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running || gen != c.gen {
		return c.remaining, false
	}
	c.remaining--
	if c.remaining <= 0 {
		c.remaining = 0
		c.stopLocked()
	}
	return c.remaining, true
}

// Remaining returns the seconds left.
func (c *Clock) Remaining() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remaining
}

// Elapsed returns max minus remaining.
func (c *Clock) Elapsed() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.max - c.remaining
}

// Max returns the configured duration.
func (c *Clock) Max() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.max
}

// IsTimeUp reports whether no time remains.
func (c *Clock) IsTimeUp() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remaining <= 0
}

// Running reports whether the clock is counting down.
func (c *Clock) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// State returns remaining seconds and running together.
func (c *Clock) State() (remaining int, running bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remaining, c.running
}

// FormatClock renders seconds as MM:SS.
func FormatClock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}
