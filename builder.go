package taskloop

import (
	"iter"
	"time"
)

// UserStateKind tags the generic states a user TaskIterator yields,
// the generic states a task iterator yields: Ready(R), Pending, Delayed(d),
// Spawn(action), Init.
type UserStateKind uint8

const (
	UserInit UserStateKind = iota
	UserReady
	UserPending
	UserDelayed
	UserSpawn
)

// UserState is one value produced by a TaskIterator[R].Next call.
type UserState[R any] struct {
	Kind  UserStateKind
	Value R
	Delay time.Duration
	Spawn SpawnAction
}

// Ready builds a UserState carrying a ready value.
func Ready[R any](value R) UserState[R] {
	return UserState[R]{Kind: UserReady, Value: value}
}

// Pending builds a UserState meaning "cannot progress now, no sleep".
func Pending[R any]() UserState[R] {
	return UserState[R]{Kind: UserPending}
}

// Delayed builds a UserState meaning "sleep for at least d".
func Delayed[R any](d time.Duration) UserState[R] {
	return UserState[R]{Kind: UserDelayed, Delay: d}
}

// Spawned builds a UserState carrying a spawn action to apply.
func Spawned[R any](action SpawnAction) UserState[R] {
	return UserState[R]{Kind: UserSpawn, Spawn: action}
}

// Init builds a UserState meaning "not yet started, but makes progress
// just by being invoked" — the façade's startup state.
func Init[R any]() UserState[R] {
	return UserState[R]{Kind: UserInit}
}

// TaskIterator is the user-supplied iterator the builder façade adapts
// into a TaskBody. Next returns (state, true) to continue, or (zero,
// false) when exhausted — translated to StepDone by the façade.
type TaskIterator[R any] interface {
	Next(entry Entry, handle ExecutorHandle) (UserState[R], bool)
}

// TaskIteratorFunc adapts a plain function to TaskIterator.
type TaskIteratorFunc[R any] func(entry Entry, handle ExecutorHandle) (UserState[R], bool)

// Next implements TaskIterator.
func (f TaskIteratorFunc[R]) Next(entry Entry, handle ExecutorHandle) (UserState[R], bool) {
	return f(entry, handle)
}

// ReadyResolver is invoked only on a UserReady state, receiving the
// value and an executor handle.
type ReadyResolver[R any] func(value R, handle ExecutorHandle) error

// StatusMapper transforms or filters a state before the resolver sees
// it; mappers in a TaskBuilder apply in registration order.
type StatusMapper[R any] func(UserState[R]) UserState[R]

// TaskBuilder assembles a user TaskIterator, an optional ready-resolver,
// a chain of status mappers, and an optional default spawn action into
// the executor's TaskBody protocol.
type TaskBuilder[R any] struct {
	iter        TaskIterator[R]
	resolver    ReadyResolver[R]
	mappers     []StatusMapper[R]
	defaultSpawn SpawnAction
}

// NewTaskBuilder starts a façade over iter.
func NewTaskBuilder[R any](iter TaskIterator[R]) *TaskBuilder[R] {
	return &TaskBuilder[R]{iter: iter}
}

// WithReadyResolver sets the resolver invoked on UserReady states.
func (b *TaskBuilder[R]) WithReadyResolver(resolver ReadyResolver[R]) *TaskBuilder[R] {
	b.resolver = resolver
	return b
}

// WithStatusMapper appends m to the mapper chain.
func (b *TaskBuilder[R]) WithStatusMapper(m StatusMapper[R]) *TaskBuilder[R] {
	b.mappers = append(b.mappers, m)
	return b
}

// WithDefaultSpawnAction sets the action applied when a UserSpawn state
// carries no action of its own.
func (b *TaskBuilder[R]) WithDefaultSpawnAction(action SpawnAction) *TaskBuilder[R] {
	b.defaultSpawn = action
	return b
}

// Build produces the TaskBody the executor steps, translating user
// states: Delayed(d) -> Pending(Some d), Pending ->
// Progressed, Init -> Progressed, Ready -> Progressed after the
// resolver fires, Spawn -> SpawnFinished after the action applies,
// exhaustion -> Done.
func (b *TaskBuilder[R]) Build() TaskBody {
	return &builderBody[R]{builder: b}
}

type builderBody[R any] struct {
	builder *TaskBuilder[R]
}

func (bb *builderBody[R]) Step(entry Entry, handle ExecutorHandle) (StepResult, bool) {
	b := bb.builder
	state, ok := b.iter.Next(entry, handle)
	if !ok {
		return StepResult{}, false
	}
	for _, m := range b.mappers {
		state = m(state)
	}
	switch state.Kind {
	case UserDelayed:
		return StepResult{Kind: StepDelayed, Delay: state.Delay}, true

	case UserPending:
		return StepResult{Kind: StepProgressed}, true

	case UserInit:
		return StepResult{Kind: StepProgressed}, true

	case UserReady:
		if b.resolver != nil {
			if err := b.resolver(state.Value, handle); err != nil {
				return StepResult{Kind: StepSpawnFailed}, true
			}
		}
		return StepResult{Kind: StepProgressed}, true

	case UserSpawn:
		action := state.Spawn
		if action == nil {
			action = b.defaultSpawn
		}
		if action == nil {
			return StepResult{Kind: StepSpawnFailed}, true
		}
		if err := action(entry, handle); err != nil {
			return StepResult{Kind: StepSpawnFailed}, true
		}
		return StepResult{Kind: StepSpawnFinished}, true

	default:
		return StepResult{Kind: StepSpawnFailed}, true
	}
}

// ReadyValues drives iter directly (outside any executor scheduling)
// and yields only the values carried by UserReady states, filtering out
// Pending/Init/Spawn/Delayed. Useful glue for tests and embedders that
// just want final values.
func (b *TaskBuilder[R]) ReadyValues(handle ExecutorHandle) iter.Seq[R] {
	return func(yield func(R) bool) {
		var zero Entry
		for {
			state, ok := b.iter.Next(zero, handle)
			if !ok {
				return
			}
			for _, m := range b.mappers {
				state = m(state)
			}
			if state.Kind == UserReady {
				if !yield(state.Value) {
					return
				}
			}
		}
	}
}
