package taskloop

import "time"

// idleController tracks idleness: after each idle tick with no
// progress, Increment advises how long to spin-wait next, or reports
// that the caller may keep polling immediately. Reset returns it to the
// active state on any progress.
//
// Policy: the first MaxIdleTicks increments return ok=false
// (busy-continue, no hint yet); every increment after that returns
// ok=true with a duration starting at InitialBackoff and growing by
// GrowthFactor per further tick, capped at MaxBackoff.
type idleController struct {
	maxIdleTicks   int
	initialBackoff time.Duration
	growthFactor   float64
	maxBackoff     time.Duration

	ticks   int
	current time.Duration
}

func newIdleController(maxIdleTicks int, initialBackoff time.Duration, growthFactor float64, maxBackoff time.Duration) *idleController {
	return &idleController{
		maxIdleTicks:   maxIdleTicks,
		initialBackoff: initialBackoff,
		growthFactor:   growthFactor,
		maxBackoff:     maxBackoff,
	}
}

// Increment records one more idle tick and returns the recommended
// spin-wait duration, or ok=false if the caller should simply continue
// without pausing.
func (c *idleController) Increment() (d time.Duration, ok bool) {
	c.ticks++
	if c.ticks <= c.maxIdleTicks {
		return 0, false
	}
	if c.current == 0 {
		c.current = c.initialBackoff
	} else {
		next := time.Duration(float64(c.current) * c.growthFactor)
		if next > c.maxBackoff {
			next = c.maxBackoff
		}
		c.current = next
	}
	return c.current, true
}

// Reset returns the controller to the active state; called on every
// successful progress.
func (c *idleController) Reset() {
	c.ticks = 0
	c.current = 0
}
