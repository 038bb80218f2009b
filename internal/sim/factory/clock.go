package factory

import (
	"math"
	"time"
)

// Clock is a fixed-period accumulator. Durations are integral nanoseconds so
// that a given sequence of Advance calls always yields the same ticks.
type Clock struct {
	period time.Duration
	acc    time.Duration
}

func NewClock(period time.Duration) (*Clock, error) {
	if period <= 0 {
		return nil, ErrBadPeriod
	}
	return &Clock{period: period}, nil
}

func (c *Clock) Period() time.Duration { return c.period }

// Advance accumulates dt and returns how many whole periods elapsed. Every
// elapsed period is reported; slow frames catch up rather than drop ticks.
func (c *Clock) Advance(dt time.Duration) int {
	if dt > 0 {
		c.acc += dt
	}
	n := 0
	for c.acc >= c.period {
		c.acc -= c.period
		n++
	}
	return n
}

// Alpha is the fraction of the current period already elapsed, in [0,1).
func (c *Clock) Alpha() float64 {
	return float64(c.acc) / float64(c.period)
}

func (c *Clock) Reset() { c.acc = 0 }

// SecondsToDuration converts float seconds to the nearest nanosecond.
func SecondsToDuration(s float64) time.Duration {
	if s <= 0 || math.IsNaN(s) {
		return 0
	}
	return time.Duration(math.Round(s * float64(time.Second)))
}
