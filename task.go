package taskloop

import "time"

// StepKind tags the outcome of one TaskBody.Step invocation: the
// vocabulary the executor steps a task body through. A builder-façade
// Ready value is consumed inside the façade itself and never reaches
// the executor as a distinct StepKind; it is translated to
// StepProgressed after the ready-resolver fires.
type StepKind uint8

const (
	// StepProgressed means the task did useful work and wants to be
	// scheduled again immediately, at the front of the processing deque.
	StepProgressed StepKind = iota
	// StepPending means the task cannot progress right now and should
	// be requeued at the front without any sleep.
	StepPending
	// StepDelayed means the task cannot progress for at least Delay; it
	// is packed and registered as a duration waiter.
	StepDelayed
	// StepReschedule requeues the task at the back of the processing
	// deque as a fairness hint.
	StepReschedule
	// StepSpawnFinished means a nested task was just lifted, scheduled,
	// or broadcast; the executor's step handler requeues the caller
	// according to the spawn-op marker recorded by that call.
	StepSpawnFinished
	// StepDone is terminal success: the entry is unparked, taken from
	// the entry table, and dropped from the dependency map and packed
	// set before the step call returns.
	StepDone
	// StepSpawnFailed indicates a failure inside the task (a spawn action
	// or ready-resolver failed, or a spawn state carried no action). It is
	// always fatal: the executor reports ErrSpawnFailed.
	StepSpawnFailed
)

// String implements fmt.Stringer for diagnostics and log fields.
func (k StepKind) String() string {
	switch k {
	case StepProgressed:
		return "progressed"
	case StepPending:
		return "pending"
	case StepDelayed:
		return "delayed"
	case StepReschedule:
		return "reschedule"
	case StepSpawnFinished:
		return "spawn_finished"
	case StepDone:
		return "done"
	case StepSpawnFailed:
		return "spawn_failed"
	default:
		return "unknown"
	}
}

// StepResult is the value a TaskBody.Step call returns alongside its
// exhaustion flag. Delay is meaningful only when Kind is StepDelayed.
type StepResult struct {
	Kind  StepKind
	Delay time.Duration
}

// TaskBody is the polymorphic step protocol the executor drives. Step
// receives the entry stepping and a handle for spawning further work,
// and returns (result, true) to continue, or (zero, false) when the
// underlying iterator is exhausted — treated identically to StepDone.
type TaskBody interface {
	Step(entry Entry, handle ExecutorHandle) (StepResult, bool)
}

// TaskBodyFunc adapts a plain function to TaskBody, the way
// http.HandlerFunc adapts a function to http.Handler.
type TaskBodyFunc func(entry Entry, handle ExecutorHandle) (StepResult, bool)

// Step implements TaskBody.
func (f TaskBodyFunc) Step(entry Entry, handle ExecutorHandle) (StepResult, bool) {
	return f(entry, handle)
}

// ParentOption is Lift's optional parent argument: either NoParent, or
// WithParent(e) naming the entry the lifted task is a dependent of.
type ParentOption struct {
	entry Entry
	has   bool
}

// NoParent is the zero ParentOption: lift with no dependency edge.
var NoParent = ParentOption{}

// WithParent builds a ParentOption naming e as the lifting task's
// parent. e must equal the currently executing entry or Lift fails
// with ErrParentMustBeExecuting.
func WithParent(e Entry) ParentOption {
	return ParentOption{entry: e, has: true}
}

// SpawnAction is applied by the builder façade when a user iterator
// yields a Spawn state; it is given the spawning entry and an executor
// handle so it can call Lift, Schedule, or Broadcast.
type SpawnAction func(entry Entry, handle ExecutorHandle) error

// ExecutorHandle is what task bodies and spawn actions see of the
// executor: enough to lift children, schedule siblings, broadcast to
// other drivers, and borrow the shared RNG and global queue.
type ExecutorHandle interface {
	// Lift inserts body and pushes it to the front of the processing
	// deque. If parent.has, parent.entry must equal the currently
	// executing entry; the parent is re-queued at the front immediately
	// before the child, so the child runs next and the parent resumes
	// right after.
	Lift(body TaskBody, parent ParentOption) (Entry, error)
	// Schedule inserts body and pushes it to the back of the processing
	// deque, with no dependency edge recorded.
	Schedule(body TaskBody) Entry
	// Broadcast pushes body onto the shared global intake queue,
	// failing with ErrQueueFull or ErrQueueClosed rather than blocking.
	Broadcast(body TaskBody) error
	// RNG returns the executor's seeded, deterministic random source.
	RNG() RNG
	// Queue returns the shared global intake queue, for handing off to
	// another driver.
	Queue() *BroadcastQueue
	// SleepOnFlag packs entry and its ancestor chain and registers w as
	// a flag waiter for entry. Call it before returning StepPending so
	// the entry is requeued but skipped (packed) until some goroutine
	// calls w.Signal. entry must be the currently executing entry.
	SleepOnFlag(entry Entry, w *FlagWaiter) error
}

// ProgressKind tags a ProgressIndicator, the driver-level result of one
// RunOnce step.
type ProgressKind uint8

const (
	// ProgressCanProgress means more work is immediately available.
	ProgressCanProgress ProgressKind = iota
	// ProgressNoWork means no task is ready to step: the deque is empty
	// and no global task was acquired. Sleepers may still be pending when
	// a finishing task left the deque empty.
	ProgressNoWork
	// ProgressSpinWait means the driver should pause for Delay before
	// trying again; Delay is either the delay of the task that just went
	// to sleep with nothing else queued, or the idle controller's hint.
	ProgressSpinWait
)

func (k ProgressKind) String() string {
	switch k {
	case ProgressCanProgress:
		return "can_progress"
	case ProgressNoWork:
		return "no_work"
	case ProgressSpinWait:
		return "spin_wait"
	default:
		return "unknown"
	}
}

// ProgressIndicator is returned by Executor.DoWork, Executor.ScheduleAndDoWork,
// and Driver.RunOnce.
type ProgressIndicator struct {
	Kind  ProgressKind
	Delay time.Duration
}
