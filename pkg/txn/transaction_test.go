package txn_test

import (
	"errors"
	"testing"

	"github.com/cairnhq/cairn/internal/fixture"
	"github.com/cairnhq/cairn/pkg/commiterr"
	"github.com/cairnhq/cairn/pkg/graph"
	"github.com/cairnhq/cairn/pkg/graphid"
	"github.com/cairnhq/cairn/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGraph(t *testing.T) *graph.Graph {
	t.Helper()
	reg, err := fixture.Build()
	require.NoError(t, err)
	return graph.New(reg)
}

func TestCycleConstructionViaReservation(t *testing.T) {
	g := newGraph(t)
	tx := g.Begin()

	w1 := tx.Allocate(fixture.WorkerID)
	f := tx.Insert(&fixture.Factory{Name: "plant-1", Workers: []graphid.ID{w1}})
	tx.FillBack(w1, &fixture.Worker{Name: "alice", Factory: f})

	require.NoError(t, tx.Commit())

	fn, ok := g.Get(f)
	require.True(t, ok)
	assert.Equal(t, []graphid.ID{w1}, fn.(*fixture.Factory).Workers)

	wn, ok := g.Get(w1)
	require.True(t, ok)
	assert.Equal(t, f, wn.(*fixture.Worker).Factory)
}

func TestBidirectionalAutoFill(t *testing.T) {
	g := newGraph(t)
	tx := g.Begin()

	f := tx.Insert(&fixture.Factory{Name: "plant-1"})
	w1 := tx.Insert(&fixture.Worker{Name: "alice", Factory: f})

	require.NoError(t, tx.Commit())

	fn, ok := g.Get(f)
	require.True(t, ok)
	assert.Equal(t, []graphid.ID{w1}, fn.(*fixture.Factory).Workers)
}

func TestBidirectionalConflict(t *testing.T) {
	g := newGraph(t)

	setup := g.Begin()
	a1 := setup.Insert(&fixture.Factory{Name: "a1"})
	b1 := setup.Insert(&fixture.Worker{Name: "b1", Factory: a1})
	require.NoError(t, setup.Commit())

	a2 := g.Begin()
	a2id := a2.Insert(&fixture.Factory{Name: "a2"})
	a2.AddLink(a2id, "workers", b1)
	err := a2.Commit()

	require.Error(t, err)
	var conflict *commiterr.BidirectionalConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, b1, conflict.TargetID)
	assert.Equal(t, a1, conflict.Existing)
}

// refNode is a minimal variant whose "ref" link belongs to no bidirectional
// pair. Every link field of the fixture schema is bidirectional, and
// removing the target of a bidirectional link clears the back-reference
// instead of leaving it dangling.
type refNode struct {
	variant schema.VariantID
	ref     graphid.ID
}

func (r *refNode) VariantID() schema.VariantID { return r.variant }
func (r *refNode) Clone() schema.Node          { c := *r; return &c }

func TestDanglingReferenceOnRemoval(t *testing.T) {
	b := schema.NewBuilder()
	vb := b.Variant("Node")
	nodeVariant := vb.ID()
	vb.Link("ref", schema.Single, nil,
		func(n schema.Node) schema.View { return schema.NewSingleView(n.(*refNode).ref) },
		func(n schema.Node, v schema.View) { n.(*refNode).ref = v.Single() }).
		End()
	reg, err := b.Build()
	require.NoError(t, err)
	g := graph.New(reg)

	setup := g.Begin()
	target := setup.Insert(&refNode{variant: nodeVariant})
	src := setup.Insert(&refNode{variant: nodeVariant, ref: target})
	require.NoError(t, setup.Commit())

	tx := g.Begin()
	tx.Remove(target)
	err = tx.Commit()

	require.Error(t, err)
	var dangling *commiterr.DanglingReferenceError
	require.True(t, errors.As(err, &dangling))
	assert.Equal(t, src, dangling.SourceID)
	assert.Equal(t, "ref", dangling.Field)
	assert.Equal(t, target, dangling.TargetID)

	// the graph must be unchanged: src and target are both still present.
	assert.True(t, g.Contains(target))
	assert.True(t, g.Contains(src))
}

func TestUnfilledReservation(t *testing.T) {
	g := newGraph(t)
	tx := g.Begin()
	w := tx.Allocate(fixture.WorkerID)

	err := tx.Commit()
	require.Error(t, err)
	var unfilled *commiterr.UnfilledReservationError
	require.True(t, errors.As(err, &unfilled))
	assert.Equal(t, w, unfilled.ID)
}

func TestVariantMismatchOnFillBack(t *testing.T) {
	g := newGraph(t)
	tx := g.Begin()
	w := tx.Allocate(fixture.WorkerID)
	tx.FillBack(w, &fixture.Product{SKU: "wrong-variant"})

	err := tx.Commit()
	require.Error(t, err)
	var mismatch *commiterr.VariantMismatchError
	require.True(t, errors.As(err, &mismatch))
	assert.Equal(t, fixture.WorkerID, mismatch.Reserved)
	assert.Equal(t, fixture.ProductID, mismatch.Got)
}

func TestLinkTypeViolation(t *testing.T) {
	g := newGraph(t)

	setup := g.Begin()
	p := setup.Insert(&fixture.Product{SKU: "not-a-worker"})
	require.NoError(t, setup.Commit())

	tx := g.Begin()
	f := tx.Insert(&fixture.Factory{Name: "bad-factory", Workers: []graphid.ID{p}})
	err := tx.Commit()

	require.Error(t, err)
	var violation *commiterr.LinkTypeViolationError
	require.True(t, errors.As(err, &violation))
	assert.Equal(t, f, violation.SourceID)
	assert.Equal(t, "workers", violation.Field)
	assert.Equal(t, p, violation.TargetID)
	assert.Equal(t, fixture.ProductID, violation.ActualVariant)
}

func TestInsertThenRemoveSameTransactionIsNoOp(t *testing.T) {
	g := newGraph(t)
	before := g.Len()

	tx := g.Begin()
	w := tx.Insert(&fixture.Worker{Name: "ephemeral"})
	tx.Remove(w)
	require.NoError(t, tx.Commit())

	assert.Equal(t, before, g.Len())
	assert.False(t, g.Contains(w))
}

func TestEmptyCommitIsIdempotent(t *testing.T) {
	g := newGraph(t)

	setup := g.Begin()
	w := setup.Insert(&fixture.Worker{Name: "alice"})
	require.NoError(t, setup.Commit())
	before := g.Len()

	require.NoError(t, g.Begin().Commit())
	require.NoError(t, g.Begin().Commit())

	assert.Equal(t, before, g.Len())
	assert.True(t, g.Contains(w))
}

func TestRemovingAbsentFails(t *testing.T) {
	g := newGraph(t)
	ctx := g.IDContext()
	phantom := ctx.New()

	tx := g.Begin()
	tx.Remove(phantom)
	err := tx.Commit()

	require.Error(t, err)
	var absent *commiterr.RemovingAbsentError
	require.True(t, errors.As(err, &absent))
	assert.Equal(t, phantom, absent.ID)
}

func TestRemovalClearsBidirectionalBackReference(t *testing.T) {
	g := newGraph(t)

	setup := g.Begin()
	f := setup.Insert(&fixture.Factory{Name: "plant-1"})
	w := setup.Insert(&fixture.Worker{Name: "alice", Factory: f})
	require.NoError(t, setup.Commit())

	tx := g.Begin()
	tx.Remove(w)
	require.NoError(t, tx.Commit())

	fn, ok := g.Get(f)
	require.True(t, ok)
	assert.Empty(t, fn.(*fixture.Factory).Workers)
}

func TestContextMismatchRejected(t *testing.T) {
	g := newGraph(t)
	other := newGraph(t)
	foreignID := other.IDContext().New()

	tx := g.Begin()
	tx.Remove(foreignID)
	err := tx.Commit()

	require.Error(t, err)
	var mismatch *commiterr.ContextMismatchError
	require.True(t, errors.As(err, &mismatch))
}
