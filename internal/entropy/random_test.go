package entropy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew_SameSeedSameStream(t *testing.T) {
	a, b := New(42), New(42)
	for range 20 {
		assert.Equal(t, a.Uint64(), b.Uint64())
	}
	assert.NotEqual(t, New(1).Uint64(), New(2).Uint64())
}

func TestRoll_Edges(t *testing.T) {
	rng := New(1)
	for range 50 {
		assert.False(t, Roll(rng, 0))
		assert.True(t, Roll(rng, 100))
	}
}

func TestBetweenAndIntRange(t *testing.T) {
	rng := New(7)
	for range 200 {
		v := Between(rng, 0.4, 0.6)
		assert.GreaterOrEqual(t, v, 0.4)
		assert.Less(t, v, 0.6)

		n := IntRange(rng, 3, 5)
		assert.GreaterOrEqual(t, n, 3)
		assert.LessOrEqual(t, n, 5)
	}
	assert.Equal(t, 9, IntRange(rng, 9, 2))
}
