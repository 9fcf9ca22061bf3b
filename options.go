package taskloop

import (
	"fmt"
	"time"
)

// Priority selects the queue-placement discipline used by WakeUp: Top
// wakes the target and its ancestor chain toward the front of the
// processing deque; Bottom wakes them toward the back.
type Priority uint8

const (
	// PriorityTop pushes a woken entry to the front, then pushes each
	// ancestor to the front in reverse chain order, so the nearest
	// ancestor ends up just behind the woken target.
	PriorityTop Priority = iota
	// PriorityBottom pushes a woken entry to the back, then pushes each
	// ancestor to the back in forward chain order.
	PriorityBottom
)

func (p Priority) String() string {
	switch p {
	case PriorityTop:
		return "top"
	case PriorityBottom:
		return "bottom"
	default:
		return "unknown"
	}
}

// config collects every Executor construction parameter, resolved by
// resolveOptions from sane defaults plus whatever Options are supplied.
type config struct {
	priority           Priority
	rngSeed            uint64
	idleMaxTicks       int
	idleInitialBackoff time.Duration
	idleGrowthFactor   float64
	idleMaxBackoff     time.Duration
	logger             *logger
	metrics            *Metrics
}

func defaultConfig() *config {
	return &config{
		priority:           PriorityBottom,
		rngSeed:            1,
		idleMaxTicks:       3,
		idleInitialBackoff: time.Millisecond,
		idleGrowthFactor:   2.0,
		idleMaxBackoff:     250 * time.Millisecond,
		logger:             defaultLogger(),
	}
}

// Option configures an Executor at construction. The zero Option is not
// valid; build one with a With* constructor.
type Option interface {
	apply(*config) error
}

type optionFunc func(*config) error

func (f optionFunc) apply(c *config) error { return f(c) }

// WithPriority sets the wake-up placement discipline; Schedule always
// pushes to the back regardless. Default is PriorityBottom.
func WithPriority(p Priority) Option {
	return optionFunc(func(c *config) error {
		if p != PriorityTop && p != PriorityBottom {
			return fmt.Errorf("taskloop: invalid priority %d", p)
		}
		c.priority = p
		return nil
	})
}

// WithRNGSeed sets the 64-bit seed for the executor's deterministic RNG.
// Default is 1.
func WithRNGSeed(seed uint64) Option {
	return optionFunc(func(c *config) error {
		c.rngSeed = seed
		return nil
	})
}

// WithIdleBackoff configures the idle controller:
// maxTicks idle RunOnce calls with no progress are absorbed silently
// before a spin-wait hint is offered; the hint then starts at initial
// and grows by growthFactor per further idle tick, capped at max.
func WithIdleBackoff(maxTicks int, initial time.Duration, growthFactor float64, max time.Duration) Option {
	return optionFunc(func(c *config) error {
		if maxTicks < 0 {
			return fmt.Errorf("taskloop: idle maxTicks must be >= 0, got %d", maxTicks)
		}
		if initial <= 0 {
			return fmt.Errorf("taskloop: idle initial backoff must be positive, got %s", initial)
		}
		if growthFactor < 1 {
			return fmt.Errorf("taskloop: idle growth factor must be >= 1, got %f", growthFactor)
		}
		if max < initial {
			return fmt.Errorf("taskloop: idle max backoff must be >= initial backoff")
		}
		c.idleMaxTicks = maxTicks
		c.idleInitialBackoff = initial
		c.idleGrowthFactor = growthFactor
		c.idleMaxBackoff = max
		return nil
	})
}

// WithLogger sets the structured logger the executor reports through.
// Default is a disabled logger (every call a no-op).
func WithLogger(l *logger) Option {
	return optionFunc(func(c *config) error {
		if l == nil {
			return fmt.Errorf("taskloop: logger must not be nil")
		}
		c.logger = l
		return nil
	})
}

// WithMetrics attaches a Metrics sink the executor records processing-
// deque depth, step latency, and progressed-step rate into. Default is
// nil (no metrics recorded).
func WithMetrics(m *Metrics) Option {
	return optionFunc(func(c *config) error {
		c.metrics = m
		return nil
	})
}

func resolveOptions(opts []Option) (*config, error) {
	c := defaultConfig()
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt.apply(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}
