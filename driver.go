package taskloop

import (
	"context"
	"time"
)

// Yielder is the embedder-provided collaborator a Driver uses to
// surrender the thread: YieldProcess is a voluntary release (a no-op is
// valid on a truly single-threaded environment), and YieldFor is a
// time-bounded pause that may busy-wait where no timer is available
// between batches.
type Yielder interface {
	YieldProcess()
	YieldFor(d time.Duration)
}

// OSYielder is the default Yielder: YieldProcess calls runtime.Gosched,
// and YieldFor calls unix.Nanosleep directly rather than time.Sleep on
// unix platforms, avoiding the Go runtime timer heap for a primitive
// that is meant to be a thin OS collaborator.
type OSYielder struct{}

// defaultYieldBatch is the number of RunOnce iterations between
// mandatory YieldProcess calls.
const defaultYieldBatch = 200

// Driver wraps one Executor with a Yielder: RunOnce
// performs one progress step, BlockOn loops until ctx is done.
type Driver struct {
	exec       *Executor
	yielder    Yielder
	yieldBatch int
	logger     *logger
}

// DriverOption configures a Driver at construction.
type DriverOption interface {
	applyDriver(*driverConfig)
}

type driverConfig struct {
	yieldBatch int
	logger     *logger
}

type driverOptionFunc func(*driverConfig)

func (f driverOptionFunc) applyDriver(c *driverConfig) { f(c) }

// WithYieldBatch overrides the default 200-iteration mandatory-yield
// batch size.
func WithYieldBatch(n int) DriverOption {
	return driverOptionFunc(func(c *driverConfig) {
		if n > 0 {
			c.yieldBatch = n
		}
	})
}

// WithDriverLogger sets the structured logger the driver reports
// through. Defaults to exec's own logger.
func WithDriverLogger(l *logger) DriverOption {
	return driverOptionFunc(func(c *driverConfig) {
		if l != nil {
			c.logger = l
		}
	})
}

// NewDriver builds a Driver over exec using yielder to realize
// suspension.
func NewDriver(exec *Executor, yielder Yielder, opts ...DriverOption) *Driver {
	c := &driverConfig{yieldBatch: defaultYieldBatch, logger: exec.logger}
	for _, opt := range opts {
		if opt != nil {
			opt.applyDriver(c)
		}
	}
	return &Driver{exec: exec, yielder: yielder, yieldBatch: c.yieldBatch, logger: c.logger}
}

// Executor returns the Executor this Driver wraps.
func (d *Driver) Executor() *Executor {
	return d.exec
}

// RunOnce performs exactly one ScheduleAndDoWork step.
func (d *Driver) RunOnce() (ProgressIndicator, error) {
	return d.exec.ScheduleAndDoWork()
}

// BlockOn loops RunOnce until ctx is cancelled or a fatal
// *InvariantError occurs: up to yieldBatch
// iterations are attempted without mandatory yielding, consulting the
// yielder between batches and on NoWork/SpinWait results.
func (d *Driver) BlockOn(ctx context.Context) error {
	for {
		for i := 0; i < d.yieldBatch; i++ {
			if err := ctx.Err(); err != nil {
				return nil
			}
			pi, err := d.RunOnce()
			if err != nil {
				d.logger.Err().Err(err).Str("category", logCategoryInvariant).Log("fatal invariant violation, stopping driver")
				return err
			}
			switch pi.Kind {
			case ProgressCanProgress:
				continue
			case ProgressNoWork:
				d.yielder.YieldProcess()
			case ProgressSpinWait:
				d.yielder.YieldFor(pi.Delay)
			}
		}
		d.yielder.YieldProcess()
	}
}
