package schema_test

import (
	"testing"

	"github.com/cairnhq/cairn/pkg/graphid"
	"github.com/cairnhq/cairn/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubNode struct {
	variant schema.VariantID
	single  graphid.ID
}

func (s *stubNode) VariantID() schema.VariantID { return s.variant }
func (s *stubNode) Clone() schema.Node          { c := *s; return &c }

func buildTwoVariants(t *testing.T) (*schema.Builder, schema.VariantID, schema.VariantID) {
	t.Helper()
	b := schema.NewBuilder()
	a := b.Variant("A", "group-x")
	aID := a.ID()
	a.Link("single", schema.Single, nil,
		func(n schema.Node) schema.View { return schema.NewSingleView(n.(*stubNode).single) },
		func(n schema.Node, v schema.View) { n.(*stubNode).single = v.Single() }).
		End()

	bb := b.Variant("B", "group-x")
	bID := bb.ID()
	bb.Link("single", schema.Single, nil,
		func(n schema.Node) schema.View { return schema.NewSingleView(n.(*stubNode).single) },
		func(n schema.Node, v schema.View) { n.(*stubNode).single = v.Single() }).
		End()

	return b, aID, bID
}

func TestBuildResolvesNamesAndGroups(t *testing.T) {
	b, aID, bID := buildTwoVariants(t)
	reg, err := b.Build()
	require.NoError(t, err)

	av, ok := reg.VariantByName("A")
	require.True(t, ok)
	assert.Equal(t, aID, av.ID())

	members := reg.VariantsInGroup("group-x")
	require.Len(t, members, 2)
	assert.Equal(t, aID, members[0].ID())
	assert.Equal(t, bID, members[1].ID())
}

func TestBidirectionalRejectsSequenceShape(t *testing.T) {
	b := schema.NewBuilder()
	a := b.Variant("A")
	a.Link("seq", schema.Sequence, nil,
		func(schema.Node) schema.View { return schema.View{} },
		func(schema.Node, schema.View) {}).
		End()
	c := b.Variant("C")
	c.Link("single", schema.Single, nil,
		func(schema.Node) schema.View { return schema.View{} },
		func(schema.Node, schema.View) {}).
		End()

	b.Bidirectional("A", "seq", "C", "single")
	_, err := b.Build()
	require.Error(t, err)

	var buildErr *schema.BuildError
	require.ErrorAs(t, err, &buildErr)
}

func TestBidirectionalUnknownFieldErrorsWhenNotGroupExpanded(t *testing.T) {
	b := schema.NewBuilder()
	b.Variant("A").End()
	b.Variant("C").End()
	b.Bidirectional("A", "missing", "C", "also-missing")

	_, err := b.Build()
	require.Error(t, err)
}

func TestLinkTypeExpandsGroups(t *testing.T) {
	b := schema.NewBuilder()
	worker := b.Variant("Worker", "entity")
	workerID := worker.ID()
	worker.End()
	b.Variant("Factory", "entity").
		Link("refs", schema.Set, nil,
			func(schema.Node) schema.View { return schema.View{} },
			func(schema.Node, schema.View) {}).
		End()

	b.LinkType("Factory", "refs", "entity")
	reg, err := b.Build()
	require.NoError(t, err)

	factoryByName, ok := reg.VariantByName("Factory")
	require.True(t, ok)
	constraint, ok := reg.ConstraintFor(factoryByName.ID(), "refs")
	require.True(t, ok)
	assert.True(t, constraint.Permitted[workerID])
	assert.True(t, constraint.Permitted[factoryByName.ID()])
}
