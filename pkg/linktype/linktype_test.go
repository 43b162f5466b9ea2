package linktype_test

import (
	"testing"

	"github.com/cairnhq/cairn/internal/fixture"
	"github.com/cairnhq/cairn/pkg/graphid"
	"github.com/cairnhq/cairn/pkg/linktype"
	"github.com/cairnhq/cairn/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRealCheckPassesPermittedTargets(t *testing.T) {
	reg, err := fixture.Build()
	require.NoError(t, err)

	ctx := graphid.NewContext()
	w := ctx.New()
	f := ctx.New()

	final := map[graphid.ID]schema.Node{
		w: &fixture.Worker{Name: "alice", Factory: f},
		f: &fixture.Factory{Name: "plant-1", Workers: []graphid.ID{w}},
	}

	assert.NoError(t, linktype.Real{}.Check(reg, final))
}

func TestRealCheckFailsWrongVariant(t *testing.T) {
	reg, err := fixture.Build()
	require.NoError(t, err)

	ctx := graphid.NewContext()
	f := ctx.New()
	p := ctx.New()

	final := map[graphid.ID]schema.Node{
		f: &fixture.Factory{Name: "plant-1", Workers: []graphid.ID{p}},
		p: &fixture.Product{SKU: "sku-1"},
	}

	err = linktype.Real{}.Check(reg, final)
	require.Error(t, err)
}

func TestNoOpNeverFails(t *testing.T) {
	assert.NoError(t, linktype.NoOp{}.Check(nil, nil))
}
