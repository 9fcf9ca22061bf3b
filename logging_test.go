package taskloop

import (
	"bytes"
	"testing"

	"github.com/joeycumines/logiface"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultLogger_IsDisabled(t *testing.T) {
	l := defaultLogger()
	require.NotNil(t, l)
	assert.False(t, l.Info().Enabled())
}

func TestNewJSONLogger_WritesStructuredOutput(t *testing.T) {
	var buf bytes.Buffer
	l := NewJSONLogger(logiface.LevelInformational, &buf)
	require.NotNil(t, l)
	assert.True(t, l.Info().Enabled())

	l.Info().Log(logCategoryLift)
	assert.Greater(t, buf.Len(), 0)
}

func TestLogCategories_AreDistinct(t *testing.T) {
	cats := []string{
		logCategoryLift,
		logCategorySchedule,
		logCategoryBroadcast,
		logCategoryWake,
		logCategorySleep,
		logCategoryIdle,
		logCategoryShutdown,
		logCategoryInvariant,
	}
	seen := make(map[string]bool, len(cats))
	for _, c := range cats {
		assert.False(t, seen[c], "duplicate category %q", c)
		seen[c] = true
	}
}
