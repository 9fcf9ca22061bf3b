package taskloop

import (
	"errors"
	"fmt"
)

// Sentinel errors for recoverable conditions. Callers compare against
// these with errors.Is; they are returned directly or wrapped, never
// embedded in an InvariantError.
var (
	// ErrParentMustBeExecuting is returned by Executor.Lift when a task
	// is lifted with a parent dependency that is not the entry currently
	// stepping on this executor.
	ErrParentMustBeExecuting = errors.New("taskloop: parent entry must be the currently executing entry")

	// ErrQueueFull is returned by BroadcastQueue.Push when the queue has
	// no free slot. The caller may retry later; the queue never blocks.
	ErrQueueFull = errors.New("taskloop: broadcast queue is full")

	// ErrQueueClosed is returned by BroadcastQueue.Push and
	// BroadcastQueue.Pop once Close has been called and, for Pop, the
	// queue has drained.
	ErrQueueClosed = errors.New("taskloop: broadcast queue is closed")
)

// Sentinel causes wrapped by InvariantError. Use errors.Is against these,
// not against the InvariantError value itself.
var (
	// ErrStaleEntry means an Entry's generation no longer matches the
	// entry table's live generation for that index — the task it once
	// named has been taken (destroyed) and its slot may have been reused.
	ErrStaleEntry = errors.New("taskloop: stale entry handle")

	// ErrDoubleParked means Park was called on an entry already parked.
	ErrDoubleParked = errors.New("taskloop: entry already parked")

	// ErrDependencyCycle means walking a dependency chain exceeded
	// maxDependencyChainLength, which the executor treats as proof of a
	// cycle rather than a legitimately deep forest.
	ErrDependencyCycle = errors.New("taskloop: dependency chain exceeds safety bound, possible cycle")

	// ErrSpawnFailed means a step returned StepSpawnFailed (for example a
	// SpawnAction or ready-resolver returned an error) or an unknown
	// StepKind, or returned StepSpawnFinished with no spawn-op marker set.
	ErrSpawnFailed = errors.New("taskloop: spawn action failed")

	// ErrDoneEntryMissing means the entry popped for a step had no task
	// body in the entry table after it was parked.
	ErrDoneEntryMissing = errors.New("taskloop: done entry missing from entry table")
)

// InvariantError wraps a programmer-error invariant violation detected
// while stepping a task. It carries the Entry that was being stepped (the
// zero Entry if the violation was not entry-specific) for diagnostics.
//
// A step that panics is recovered and converted into an InvariantError
// rather than propagating the panic; InvariantError is never raised by
// ordinary scheduling outcomes.
type InvariantError struct {
	Entry Entry
	Cause error
}

func (e *InvariantError) Error() string {
	if e.Entry == (Entry{}) {
		return fmt.Sprintf("taskloop: invariant violation: %v", e.Cause)
	}
	return fmt.Sprintf("taskloop: invariant violation at %s: %v", e.Entry, e.Cause)
}

func (e *InvariantError) Unwrap() error {
	return e.Cause
}

// wrapInvariant builds an *InvariantError for entry, wrapping cause.
func wrapInvariant(entry Entry, cause error) *InvariantError {
	return &InvariantError{Entry: entry, Cause: cause}
}

// recoveredPanicError adapts a recovered panic value into an error
// suitable for wrapping in an InvariantError, preserving the original
// value via %v and, when it is itself an error, via Unwrap.
type recoveredPanicError struct {
	value any
}

func (e *recoveredPanicError) Error() string {
	return fmt.Sprintf("recovered panic: %v", e.value)
}

func (e *recoveredPanicError) Unwrap() error {
	if err, ok := e.value.(error); ok {
		return err
	}
	return nil
}
