package taskloop

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSleeperSet_DurationMaturity(t *testing.T) {
	s := newSleeperSet()
	base := time.Unix(0, 0)

	s.InsertDuration(entryFor(1), base.Add(10*time.Millisecond))
	s.InsertDuration(entryFor(2), base.Add(5*time.Millisecond))
	s.InsertDuration(entryFor(3), base.Add(20*time.Millisecond))

	assert.Equal(t, 3, s.Count())

	ready := s.Matured(base.Add(10 * time.Millisecond))
	require.Len(t, ready, 2)
	assert.Equal(t, uint32(2), ready[0].index)
	assert.Equal(t, uint32(1), ready[1].index)
	assert.Equal(t, 1, s.Count())

	deadline, ok := s.NextDeadline()
	require.True(t, ok)
	assert.True(t, deadline.Equal(base.Add(20*time.Millisecond)))
}

func TestSleeperSet_FlagMaturity(t *testing.T) {
	s := newSleeperSet()
	w1 := NewFlagWaiter()
	w2 := NewFlagWaiter()

	s.InsertFlag(entryFor(1), w1)
	s.InsertFlag(entryFor(2), w2)
	assert.True(t, s.HasPending())

	ready := s.Matured(time.Now())
	assert.Empty(t, ready)

	w2.Signal()
	ready = s.Matured(time.Now())
	require.Len(t, ready, 1)
	assert.Equal(t, uint32(2), ready[0].index)
	assert.Equal(t, 1, s.Count())
}

func TestSleeperSet_NextDeadlineEmpty(t *testing.T) {
	s := newSleeperSet()
	_, ok := s.NextDeadline()
	assert.False(t, ok)
}

func TestFlagWaiter_SignalIdempotent(t *testing.T) {
	w := NewFlagWaiter()
	assert.False(t, w.Ready())
	w.Signal()
	w.Signal()
	assert.True(t, w.Ready())
}
