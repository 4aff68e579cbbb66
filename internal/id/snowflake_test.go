package id

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeneratorNextIsIncreasing(t *testing.T) {
	gen, err := NewGenerator(1)
	require.NoError(t, err)

	prev := gen.Next()
	for i := 0; i < 100; i++ {
		next := gen.Next()
		assert.Greater(t, next, prev)
		prev = next
	}
}

func TestGeneratorNodesDoNotCollide(t *testing.T) {
	a, err := NewGenerator(1)
	require.NoError(t, err)
	b, err := NewGenerator(2)
	require.NoError(t, err)

	assert.NotEqual(t, a.Next(), b.Next())
}

func TestNewGeneratorRejectsOutOfRangeNode(t *testing.T) {
	_, err := NewGenerator(1024)
	assert.ErrorContains(t, err, "invalid node id 1024")

	_, err = NewGenerator(-1)
	assert.Error(t, err)
}
