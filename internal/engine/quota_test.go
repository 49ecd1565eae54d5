package engine

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuotaEnforcer_WithinLimit(t *testing.T) {
	q := NewQuotaEnforcer(3)

	for i := 0; i < 3; i++ {
		require.NoError(t, q.Check("task"))
	}
	assert.Equal(t, 3, q.Current())
	assert.Equal(t, 3, q.MaxSteps())
}

func TestQuotaEnforcer_Exceeded(t *testing.T) {
	q := NewQuotaEnforcer(2)
	require.NoError(t, q.Check("a"))
	require.NoError(t, q.Check("b"))

	err := q.Check("c")

	require.Error(t, err)
	assert.True(t, IsStepsExceededError(err))
	assert.True(t, IsQuotaError(err))
	assert.Equal(t, "drain exceeded max steps quota at task c: 3 steps > 2 limit", err.Error())
}

func TestQuotaEnforcer_Disabled(t *testing.T) {
	q := NewQuotaEnforcer(0)
	for i := 0; i < 100; i++ {
		require.NoError(t, q.Check("task"))
	}
}

func TestIsQuotaError_Wrapped(t *testing.T) {
	err := fmt.Errorf("drain: %w", &StepsExceededError{Task: "x", Steps: 2, Limit: 1})
	assert.True(t, IsQuotaError(err))

	err = fmt.Errorf("run: %w", &RuntimeError{Code: ErrCodeQuotaExceeded, Message: "too many"})
	assert.True(t, IsQuotaError(err))

	assert.False(t, IsQuotaError(fmt.Errorf("other")))
}
