package taskloop

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dummyBody() TaskBody {
	return TaskBodyFunc(func(Entry, ExecutorHandle) (StepResult, bool) { return StepResult{}, false })
}

type taggedBody struct{ tag int }

func (taggedBody) Step(Entry, ExecutorHandle) (StepResult, bool) { return StepResult{}, false }

func TestBroadcastQueue_PushPopFIFO(t *testing.T) {
	q := NewBroadcastQueue(4)
	require.NoError(t, q.Push(taggedBody{1}))
	require.NoError(t, q.Push(taggedBody{2}))
	require.NoError(t, q.Push(taggedBody{3}))
	assert.Equal(t, 3, q.Len())

	for _, want := range []int{1, 2, 3} {
		got, ok, err := q.Pop()
		require.True(t, ok)
		require.NoError(t, err)
		assert.Equal(t, taggedBody{want}, got)
	}
}

func TestBroadcastQueue_FullRejects(t *testing.T) {
	q := NewBroadcastQueue(2)
	require.NoError(t, q.Push(dummyBody()))
	require.NoError(t, q.Push(dummyBody()))
	assert.ErrorIs(t, q.Push(dummyBody()), ErrQueueFull)
}

func TestBroadcastQueue_PopEmpty(t *testing.T) {
	q := NewBroadcastQueue(2)
	_, ok, err := q.Pop()
	assert.False(t, ok)
	assert.NoError(t, err)
}

func TestBroadcastQueue_CloseRejectsPushDrainsThenErrors(t *testing.T) {
	q := NewBroadcastQueue(2)
	require.NoError(t, q.Push(dummyBody()))
	q.Close()
	assert.True(t, q.Closed())
	assert.ErrorIs(t, q.Push(dummyBody()), ErrQueueClosed)

	_, ok, err := q.Pop()
	assert.True(t, ok)
	assert.NoError(t, err)

	_, ok, err = q.Pop()
	assert.False(t, ok)
	assert.ErrorIs(t, err, ErrQueueClosed)
}

func TestBroadcastQueue_CloseIdempotent(t *testing.T) {
	q := NewBroadcastQueue(1)
	q.Close()
	q.Close()
	assert.True(t, q.Closed())
}

func TestBroadcastQueue_ConcurrentPushPop(t *testing.T) {
	q := NewBroadcastQueue(64)
	const n = 200
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		pushed := 0
		for pushed < n {
			if q.Push(dummyBody()) == nil {
				pushed++
			}
		}
	}()

	go func() {
		defer wg.Done()
		popped := 0
		for popped < n {
			if _, ok, _ := q.Pop(); ok {
				popped++
			}
		}
	}()

	wg.Wait()
	assert.Equal(t, 0, q.Len())
}
