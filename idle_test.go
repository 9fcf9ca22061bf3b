package taskloop

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIdleController_BusyThenBackoff(t *testing.T) {
	c := newIdleController(3, time.Millisecond, 2.0, 100*time.Millisecond)

	for i := 0; i < 3; i++ {
		d, ok := c.Increment()
		assert.False(t, ok, "tick %d should still be busy", i)
		assert.Zero(t, d)
	}

	d, ok := c.Increment()
	assert.True(t, ok)
	assert.Equal(t, time.Millisecond, d)

	d, ok = c.Increment()
	assert.True(t, ok)
	assert.Equal(t, 2*time.Millisecond, d)

	d, ok = c.Increment()
	assert.True(t, ok)
	assert.Equal(t, 4*time.Millisecond, d)
}

func TestIdleController_CapsAtMaxBackoff(t *testing.T) {
	c := newIdleController(0, time.Millisecond, 10.0, 5*time.Millisecond)
	d, ok := c.Increment()
	assert.True(t, ok)
	assert.Equal(t, time.Millisecond, d)

	d, ok = c.Increment()
	assert.True(t, ok)
	assert.Equal(t, 5*time.Millisecond, d, "growth should be capped at maxBackoff")
}

func TestIdleController_Reset(t *testing.T) {
	c := newIdleController(1, time.Millisecond, 2.0, time.Second)
	c.Increment()
	c.Increment()
	c.Reset()

	d, ok := c.Increment()
	assert.False(t, ok)
	assert.Zero(t, d)
}
