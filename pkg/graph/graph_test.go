package graph_test

import (
	"testing"

	"github.com/cairnhq/cairn/internal/fixture"
	"github.com/cairnhq/cairn/pkg/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGraphIsEmpty(t *testing.T) {
	reg, err := fixture.Build()
	require.NoError(t, err)

	g := graph.New(reg)
	assert.Equal(t, 0, g.Len())
	assert.Empty(t, g.IterateVariant(fixture.WorkerID))
}

func TestIterateVariantAndGroupReflectCommits(t *testing.T) {
	reg, err := fixture.Build()
	require.NoError(t, err)
	g := graph.New(reg)

	tx := g.Begin()
	f := tx.Insert(&fixture.Factory{Name: "plant-1"})
	w := tx.Insert(&fixture.Worker{Name: "alice", Factory: f})
	require.NoError(t, tx.Commit())

	workers := g.IterateVariant(fixture.WorkerID)
	require.Len(t, workers, 1)
	assert.Equal(t, "alice", workers[0].(*fixture.Worker).Name)

	factories := g.IterateVariant(fixture.FactoryID)
	require.Len(t, factories, 1)
	assert.Equal(t, "plant-1", factories[0].(*fixture.Factory).Name)

	assert.True(t, g.Contains(w))
	assert.True(t, g.Contains(f))

	floor := g.IterateGroup("FactoryFloor")
	require.Len(t, floor, 2)
	var names []string
	for _, n := range floor {
		switch v := n.(type) {
		case *fixture.Worker:
			names = append(names, v.Name)
		case *fixture.Factory:
			names = append(names, v.Name)
		}
	}
	assert.ElementsMatch(t, []string{"alice", "plant-1"}, names)
	assert.Empty(t, g.IterateGroup("NoSuchGroup"))
}

func TestGraphExposesNoDirectMutation(t *testing.T) {
	reg, err := fixture.Build()
	require.NoError(t, err)
	g := graph.New(reg)

	// The only way to change committed state is through a Transaction's
	// Commit; Get/Contains/IterateVariant/IterateGroup are read-only.
	_, ok := g.Get(g.IDContext().New())
	assert.False(t, ok)
}
