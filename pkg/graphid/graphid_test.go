package graphid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDistinctAndNeverEmpty(t *testing.T) {
	c := NewContext()
	seen := make(map[ID]bool)
	for i := 0; i < 1000; i++ {
		id := c.New()
		require.False(t, id.IsEmpty(), "New must never return Empty")
		assert.False(t, seen[id], "identifiers must be pairwise distinct")
		seen[id] = true
	}
}

func TestOwnsDistinguishesContexts(t *testing.T) {
	a := NewContext()
	b := NewContext()

	idA := a.New()
	idB := b.New()

	assert.True(t, a.Owns(idA))
	assert.False(t, a.Owns(idB))
	assert.True(t, b.Owns(idB))
	assert.False(t, b.Owns(idA))
}

func TestEmptyOwnedByNoContext(t *testing.T) {
	c := NewContext()
	assert.False(t, c.Owns(Empty))
	assert.True(t, Empty.IsEmpty())
}

func TestStringRendering(t *testing.T) {
	assert.Equal(t, "<empty>", Empty.String())

	c := NewContext()
	id := c.New()
	assert.NotEqual(t, "<empty>", id.String())
	assert.Contains(t, id.String(), "#")
}
