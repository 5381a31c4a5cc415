// Package turnclock keeps the per-turn countdown shown to the user.
//
// The countdown is advisory. It is resynchronised from the server's
// turn_start_time/timer_duration pair on every refresh and ticks down locally
// in between. Reaching zero only tells the caller to go and ask the server;
// it never decides that a turn has lapsed.
package turnclock

import (
	"math"
	"time"

	"github.com/benbjohnson/clock"
)

// Remaining is ceil(duration - (now - start)) clamped to [0, ceil(duration)].
// The upper clamp hides a local clock that runs behind the server's.
func Remaining(now time.Time, start, duration float64) int {
	elapsed := float64(now.UnixNano())/1e9 - start
	left := math.Ceil(duration - elapsed)
	if left < 0 {
		return 0
	}
	if top := math.Ceil(duration); left > top {
		return int(top)
	}
	return int(left)
}

type TurnClock struct {
	clk       clock.Clock
	enabled   bool
	remaining int
	signalled bool
}

func New(clk clock.Clock, enabled bool) *TurnClock {
	if clk == nil {
		clk = clock.New()
	}
	return &TurnClock{clk: clk, enabled: enabled}
}

func (c *TurnClock) Enabled() bool { return c.enabled }

func (c *TurnClock) Remaining() int { return c.remaining }

// Sync recomputes the countdown from the server's numbers.
func (c *TurnClock) Sync(start, duration float64) int {
	if !c.enabled {
		return 0
	}
	c.remaining = Remaining(c.clk.Now(), start, duration)
	c.signalled = c.remaining == 0
	return c.remaining
}

// Tick counts one second down. reachedZero is true exactly once per sync,
// on the tick that brings the display to zero.
func (c *TurnClock) Tick() (remaining int, reachedZero bool) {
	if !c.enabled {
		return 0, false
	}
	if c.remaining > 0 {
		c.remaining--
	}
	if c.remaining == 0 && !c.signalled {
		c.signalled = true
		return 0, true
	}
	return c.remaining, false
}

// Stop freezes the countdown at zero without signalling.
func (c *TurnClock) Stop() {
	c.remaining = 0
	c.signalled = true
}
