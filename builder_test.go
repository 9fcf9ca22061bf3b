package taskloop

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskBuilder_TranslatesUserStates(t *testing.T) {
	states := []UserState[int]{
		Init[int](),
		Pending[int](),
		Delayed[int](50 * time.Millisecond),
		Ready[int](7),
	}
	i := 0
	iter := TaskIteratorFunc[int](func(Entry, ExecutorHandle) (UserState[int], bool) {
		if i >= len(states) {
			return UserState[int]{}, false
		}
		s := states[i]
		i++
		return s, true
	})

	var resolved int
	b := NewTaskBuilder[int](iter).WithReadyResolver(func(v int, _ ExecutorHandle) error {
		resolved = v
		return nil
	})
	body := b.Build()

	wantKinds := []StepKind{StepProgressed, StepProgressed, StepDelayed, StepProgressed}
	for _, want := range wantKinds {
		sr, ok := body.Step(Entry{}, nil)
		require.True(t, ok)
		assert.Equal(t, want, sr.Kind)
	}
	assert.Equal(t, 7, resolved)

	_, ok := body.Step(Entry{}, nil)
	assert.False(t, ok, "iterator exhausted")
}

func TestTaskBuilder_ReadyResolverErrorBecomesSpawnFailed(t *testing.T) {
	iter := TaskIteratorFunc[int](func(Entry, ExecutorHandle) (UserState[int], bool) {
		return Ready[int](1), true
	})
	b := NewTaskBuilder[int](iter).WithReadyResolver(func(int, ExecutorHandle) error {
		return errors.New("resolver failed")
	})
	sr, ok := b.Build().Step(Entry{}, nil)
	require.True(t, ok)
	assert.Equal(t, StepSpawnFailed, sr.Kind)
}

func TestTaskBuilder_SpawnWithDefaultAction(t *testing.T) {
	var called bool
	iter := TaskIteratorFunc[int](func(Entry, ExecutorHandle) (UserState[int], bool) {
		return Spawned[int](nil), true
	})
	b := NewTaskBuilder[int](iter).WithDefaultSpawnAction(func(Entry, ExecutorHandle) error {
		called = true
		return nil
	})
	sr, ok := b.Build().Step(Entry{}, nil)
	require.True(t, ok)
	assert.True(t, called)
	assert.Equal(t, StepSpawnFinished, sr.Kind)
}

func TestTaskBuilder_SpawnWithNoActionFails(t *testing.T) {
	iter := TaskIteratorFunc[int](func(Entry, ExecutorHandle) (UserState[int], bool) {
		return Spawned[int](nil), true
	})
	sr, ok := NewTaskBuilder[int](iter).Build().Step(Entry{}, nil)
	require.True(t, ok)
	assert.Equal(t, StepSpawnFailed, sr.Kind)
}

func TestTaskBuilder_StatusMapperTransformsState(t *testing.T) {
	iter := TaskIteratorFunc[int](func(Entry, ExecutorHandle) (UserState[int], bool) {
		return Pending[int](), true
	})
	b := NewTaskBuilder[int](iter).
		WithStatusMapper(func(s UserState[int]) UserState[int] {
			s.Kind = UserDelayed
			s.Delay = time.Millisecond
			return s
		})
	sr, ok := b.Build().Step(Entry{}, nil)
	require.True(t, ok)
	assert.Equal(t, StepDelayed, sr.Kind)
	assert.Equal(t, time.Millisecond, sr.Delay)
}

func TestTaskBuilder_ReadyValuesFiltersNonReadyStates(t *testing.T) {
	states := []UserState[string]{
		Pending[string](),
		Ready[string]("a"),
		Delayed[string](time.Millisecond),
		Ready[string]("b"),
	}
	i := 0
	iter := TaskIteratorFunc[string](func(Entry, ExecutorHandle) (UserState[string], bool) {
		if i >= len(states) {
			return UserState[string]{}, false
		}
		s := states[i]
		i++
		return s, true
	})

	b := NewTaskBuilder[string](iter)
	var got []string
	for v := range b.ReadyValues(nil) {
		got = append(got, v)
	}
	assert.Equal(t, []string{"a", "b"}, got)
}

func TestTaskBuilder_ReadyValuesStopsOnFalseYield(t *testing.T) {
	calls := 0
	iter := TaskIteratorFunc[int](func(Entry, ExecutorHandle) (UserState[int], bool) {
		calls++
		return Ready[int](calls), true
	})
	b := NewTaskBuilder[int](iter)
	var got []int
	for v := range b.ReadyValues(nil) {
		got = append(got, v)
		if len(got) == 2 {
			break
		}
	}
	assert.Equal(t, []int{1, 2}, got)
}
