package clock

import (
	"time"

	"github.com/jonboulle/clockwork"
)

// Option applies a configuration option to the Clock.
type Option func(*Clock)

// WithInterval sets the real time between ticks. Each tick removes one
// second from the match clock regardless of the interval.
func WithInterval(d time.Duration) Option {
	return func(c *Clock) {
		if d > 0 {
			c.interval = d
		}
	}
}

// WithClock sets the time source tickers are taken from. Tests pass a
// clockwork.FakeClock and advance it by the interval.
func WithClock(clk clockwork.Clock) Option {
	return func(c *Clock) {
		if clk != nil {
			c.clk = clk
		}
	}
}

// WithOnTick registers a callback run after every tick with the remaining
// seconds. It runs on the clock goroutine without the clock's lock held.
func WithOnTick(fn func(remaining int)) Option {
	return func(c *Clock) {
		c.onTick = fn
	}
}
