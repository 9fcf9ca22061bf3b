// Package taskloop provides a single-threaded, cooperative task executor
// for Go, built around iterator-shaped tasks that step themselves to
// completion rather than blocking a goroutine.
//
// # Architecture
//
// An [Executor] owns a processing deque, an entry table of parked and
// active tasks, a dependency map linking spawned children to their
// parents, and a sleeper set for tasks waiting on a duration or a flag.
// A [Driver] repeatedly steps the executor ([Driver.RunOnce]) or loops it
// until its context is done or a fatal error occurs ([Driver.BlockOn]),
// consulting an idle controller for a
// back-off hint whenever there is no ready work.
//
// Tasks are supplied as a [TaskBody], which a [TaskBuilder] assembles
// from a generic [TaskIterator], an optional ready-value resolver, a
// chain of status mappers, and an optional spawn action — mirroring how
// the executor itself only ever deals with the polymorphic [StepResult]
// protocol, never with application types directly.
//
// # Concurrency
//
// Everything owned by an [Executor] — the deque, entry table, dependency
// map, packed set, sleeper set, and idle controller — is touched only
// from the goroutine driving it; none of it is guarded by a mutex. The
// sole exception is the [BroadcastQueue], a bounded multi-producer
// multi-consumer intake queue that multiple Executor/Driver pairs can
// share to hand work to one another without blocking: [BroadcastQueue.Push]
// returns [ErrQueueFull] or [ErrQueueClosed] rather than waiting.
//
// # Usage
//
//	queue := taskloop.NewBroadcastQueue(256)
//	exec, err := taskloop.New(queue)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	driver := taskloop.NewDriver(exec, taskloop.OSYielder{})
//
//	body := taskloop.TaskBodyFunc(func(e taskloop.Entry, h taskloop.ExecutorHandle) (taskloop.StepResult, bool) {
//	    fmt.Println("hello from", e)
//	    return taskloop.StepResult{}, false
//	})
//	entry, _ := exec.Lift(body, taskloop.NoParent)
//	_ = entry
//
//	if err := driver.BlockOn(context.Background()); err != nil {
//	    log.Fatal(err)
//	}
//
// # Error Types
//
// Recoverable conditions ([ErrQueueFull], [ErrQueueClosed],
// [ErrParentMustBeExecuting]) are returned as sentinel-wrapped errors
// usable with [errors.Is]. Programmer-error invariant violations
// ([ErrStaleEntry], [ErrDoubleParked], [ErrDependencyCycle],
// [ErrSpawnFailed], [ErrDoneEntryMissing]) surface as [*InvariantError]
// values, never as panics in steady state — a step that panics is
// recovered and converted into one.
package taskloop
