package link_test

import (
	"testing"

	"github.com/cairnhq/cairn/pkg/graphid"
	"github.com/cairnhq/cairn/pkg/link"
	"github.com/cairnhq/cairn/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type widget struct {
	variant schema.VariantID
	label   string
	left    graphid.ID
	right   graphid.ID
}

func (w *widget) VariantID() schema.VariantID { return w.variant }
func (w *widget) Clone() schema.Node          { c := *w; return &c }

func buildWidgetRegistry(t *testing.T) (*schema.Registry, schema.VariantID) {
	t.Helper()
	b := schema.NewBuilder()
	vb := b.Variant("Widget")
	id := vb.ID()
	vb.
		Data("label", "string", func(n schema.Node) any { return n.(*widget).label }).
		Link("left", schema.Single, []string{"edges"},
			func(n schema.Node) schema.View { return schema.NewSingleView(n.(*widget).left) },
			func(n schema.Node, v schema.View) { n.(*widget).left = v.Single() }).
		Link("right", schema.Single, []string{"edges"},
			func(n schema.Node) schema.View { return schema.NewSingleView(n.(*widget).right) },
			func(n schema.Node, v schema.View) { n.(*widget).right = v.Single() }).
		End()
	reg, err := b.Build()
	require.NoError(t, err)
	return reg, id
}

func TestReadDataSucceedsWithMatchingTag(t *testing.T) {
	reg, id := buildWidgetRegistry(t)
	w := &widget{variant: id, label: "gizmo"}

	v, err := link.ReadData(reg, w, "label", "string")
	require.NoError(t, err)
	assert.Equal(t, "gizmo", v)
}

func TestReadDataMismatchedTagFails(t *testing.T) {
	reg, id := buildWidgetRegistry(t)
	w := &widget{variant: id, label: "gizmo"}

	_, err := link.ReadData(reg, w, "label", "int")
	require.ErrorIs(t, err, link.ErrTypeMismatch)
}

func TestReadLinkReturnsView(t *testing.T) {
	reg, id := buildWidgetRegistry(t)
	ctx := graphid.NewContext()
	target := ctx.New()
	w := &widget{variant: id, left: target}

	view, err := link.ReadLink(reg, w, "left")
	require.NoError(t, err)
	assert.Equal(t, target, view.Single())
}

func TestLinksInGroupConcatenatesFields(t *testing.T) {
	reg, id := buildWidgetRegistry(t)
	ctx := graphid.NewContext()
	left, right := ctx.New(), ctx.New()
	w := &widget{variant: id, left: left, right: right}

	ids := link.LinksInGroup(reg, w, "edges")
	assert.ElementsMatch(t, []graphid.ID{left, right}, ids)
}
