package genetics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConsultor_Acquire_IsIdempotentPerPair(t *testing.T) {
	c := NewConsultor(nil)
	first := c.Acquire(0, 1)
	second := c.Acquire(0, 1)
	assert.Equal(t, first, second)
}

func TestConsultor_Acquire_MonotonicAcrossDistinctPairs(t *testing.T) {
	c := NewConsultor(nil)
	a := c.Acquire(0, 1)
	b := c.Acquire(0, 2)
	assert.Less(t, a, b)
}

func TestNewPrimedConsultor_InputMajorOutputMinorOrder(t *testing.T) {
	c := NewPrimedConsultor(nil, 2, 2)
	// input 0 -> output 2, input 0 -> output 3, input 1 -> output 2, input 1 -> output 3
	assert.Equal(t, int64(0), c.Acquire(0, 2))
	assert.Equal(t, int64(1), c.Acquire(0, 3))
	assert.Equal(t, int64(2), c.Acquire(1, 2))
	assert.Equal(t, int64(3), c.Acquire(1, 3))
	assert.Equal(t, 4, c.PairCount())
}

func TestConsultor_Exists(t *testing.T) {
	c := NewConsultor(nil)
	assert.False(t, c.Exists(0, 1))
	c.Acquire(0, 1)
	assert.True(t, c.Exists(0, 1))
}

func TestConsultor_NextInnovationNumber(t *testing.T) {
	c := NewConsultor(nil)
	assert.Equal(t, int64(0), c.NextInnovationNumber())
	c.Acquire(0, 1)
	assert.Equal(t, int64(1), c.NextInnovationNumber())
}
