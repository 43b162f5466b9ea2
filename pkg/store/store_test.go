package store

import (
	"testing"

	"github.com/cairnhq/cairn/pkg/graphid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPutGetContains(t *testing.T) {
	s := New[string]()
	ctx := graphid.NewContext()
	id := ctx.New()

	_, ok := s.Get(id)
	assert.False(t, ok)
	assert.False(t, s.Contains(id))

	s.Put(id, "alice")
	v, ok := s.Get(id)
	require.True(t, ok)
	assert.Equal(t, "alice", v)
	assert.True(t, s.Contains(id))
	assert.Equal(t, 1, s.Len())
}

func TestPutOverwriteKeepsPosition(t *testing.T) {
	s := New[string]()
	ctx := graphid.NewContext()
	a, b, c := ctx.New(), ctx.New(), ctx.New()
	s.Put(a, "a")
	s.Put(b, "b")
	s.Put(c, "c")

	s.Put(b, "b2")
	assert.Equal(t, []graphid.ID{a, b, c}, s.IDs())
	v, _ := s.Get(b)
	assert.Equal(t, "b2", v)
}

func TestDeleteCompactsOrderAndIndex(t *testing.T) {
	s := New[string]()
	ctx := graphid.NewContext()
	a, b, c := ctx.New(), ctx.New(), ctx.New()
	s.Put(a, "a")
	s.Put(b, "b")
	s.Put(c, "c")

	s.Delete(b)
	assert.Equal(t, []graphid.ID{a, c}, s.IDs())
	assert.False(t, s.Contains(b))
	assert.Equal(t, 2, s.Len())

	// deleting an already-absent id is a no-op
	s.Delete(b)
	assert.Equal(t, 2, s.Len())
}

func TestAllPreservesInsertionOrder(t *testing.T) {
	s := New[int]()
	ctx := graphid.NewContext()
	var ids []graphid.ID
	for i := 0; i < 5; i++ {
		id := ctx.New()
		ids = append(ids, id)
		s.Put(id, i)
	}
	assert.Equal(t, ids, s.IDs())
	assert.Equal(t, []int{0, 1, 2, 3, 4}, s.All())
}

func TestCloneIsIndependent(t *testing.T) {
	s := New[string]()
	ctx := graphid.NewContext()
	id := ctx.New()
	s.Put(id, "orig")

	clone := s.Clone()
	clone.Put(ctx.New(), "extra")
	clone.Delete(id)

	assert.Equal(t, 1, s.Len())
	assert.True(t, s.Contains(id))
	assert.Equal(t, 1, clone.Len())
	assert.False(t, clone.Contains(id))
}
