// Package bidi implements the bidirectional-link maintainer of spec.md
// §4.6: delta reconciliation of declared symmetric link pairs, run as a
// single phase during Transaction.Commit so that complementary edits
// made by hand within the same transaction cancel cleanly.
package bidi

import (
	"github.com/cairnhq/cairn/pkg/commiterr"
	"github.com/cairnhq/cairn/pkg/graphid"
	"github.com/cairnhq/cairn/pkg/schema"
)

// PreLookup returns the pre-commit (already-committed) node stored under
// id, if any. The Transaction supplies this backed by Graph.GetLocked.
type PreLookup func(graphid.ID) (schema.Node, bool)

// Reconcile walks touchedOrder — every id inserted, filled back, mutated,
// or removed by this commit, in the order phases 2–4 encountered them —
// and applies the delta-reconciliation algorithm of spec.md §4.6,
// mutating working (and, for removed ids, reading their pre-image via
// pre) in place. Peer nodes not otherwise touched by the transaction are
// pulled into working so phase 8 commits their updated field too.
func Reconcile(reg *schema.Registry, pre PreLookup, working map[graphid.ID]schema.Node, removed map[graphid.ID]bool, touchedOrder []graphid.ID) error {
	for _, src := range touchedOrder {
		var (
			preNode  schema.Node
			hadPre   bool
			curNode  schema.Node
			isRemove = removed[src]
		)

		if isRemove {
			preNode, hadPre = pre(src)
			if !hadPre {
				continue
			}
		} else {
			curNode = working[src]
			preNode, hadPre = pre(src)
		}

		var variant schema.VariantID
		if isRemove {
			variant = preNode.VariantID()
		} else {
			variant = curNode.VariantID()
		}
		v, ok := reg.Variant(variant)
		if !ok {
			continue
		}

		for _, lf := range v.LinkFields() {
			if lf.Shape == schema.Sequence {
				continue
			}
			if _, _, hasPair := reg.PeerOf(variant, lf.Name); !hasPair {
				continue
			}

			var preTargets, curTargets []graphid.ID
			if hadPre {
				preTargets = lf.Read(preNode).All()
			}
			if !isRemove {
				curTargets = lf.Read(curNode).All()
			}

			added := diff(curTargets, preTargets)
			dropped := diff(preTargets, curTargets)

			for _, dst := range added {
				if err := applyAdd(reg, pre, working, variant, src, lf.Name, dst); err != nil {
					return err
				}
			}
			for _, dst := range dropped {
				applyRemove(reg, pre, working, variant, src, lf.Name, dst)
			}
		}
	}
	return nil
}

func diff(a, b []graphid.ID) []graphid.ID {
	inB := make(map[graphid.ID]bool, len(b))
	for _, id := range b {
		inB[id] = true
	}
	var out []graphid.ID
	for _, id := range a {
		if !inB[id] {
			out = append(out, id)
		}
	}
	return out
}

// fetchMutable returns a node from working if this commit already staged
// a copy of it, or a freshly Cloned copy of its pre-commit state
// otherwise — never the live pointer stored in the committed graph,
// since a later phase may still abort the commit.
func fetchMutable(pre PreLookup, working map[graphid.ID]schema.Node, id graphid.ID) (schema.Node, bool) {
	if n, ok := working[id]; ok {
		return n, true
	}
	if n, ok := pre(id); ok {
		n = n.Clone()
		working[id] = n
		return n, true
	}
	return nil, false
}

func applyAdd(reg *schema.Registry, pre PreLookup, working map[graphid.ID]schema.Node, variant schema.VariantID, src graphid.ID, field string, dst graphid.ID) error {
	dstNode, ok := fetchMutable(pre, working, dst)
	if !ok {
		return nil // will surface as DanglingReference in the next phase
	}
	_, peerField, ok := reg.PeerOf(variant, field)
	if !ok {
		return nil
	}
	dstVariant, ok := reg.Variant(dstNode.VariantID())
	if !ok {
		return nil
	}
	lf2, ok := dstVariant.LinkField(peerField)
	if !ok {
		return nil
	}
	cur := lf2.Read(dstNode)
	switch lf2.Shape {
	case schema.Single:
		existing := cur.Single()
		switch {
		case existing == src:
			// already symmetric, no-op
		case existing.IsEmpty():
			lf2.Write(dstNode, schema.NewSingleView(src))
		default:
			return &commiterr.BidirectionalConflictError{
				SourceID: src, Field: field, TargetID: dst, Existing: existing,
			}
		}
	default: // Set
		lf2.Write(dstNode, cur.With(src))
	}
	return nil
}

func applyRemove(reg *schema.Registry, pre PreLookup, working map[graphid.ID]schema.Node, variant schema.VariantID, src graphid.ID, field string, dst graphid.ID) {
	dstNode, ok := fetchMutable(pre, working, dst)
	if !ok {
		return
	}
	_, peerField, ok := reg.PeerOf(variant, field)
	if !ok {
		return
	}
	dstVariant, ok := reg.Variant(dstNode.VariantID())
	if !ok {
		return
	}
	lf2, ok := dstVariant.LinkField(peerField)
	if !ok {
		return
	}
	cur := lf2.Read(dstNode)
	switch lf2.Shape {
	case schema.Single:
		if cur.Single() == src {
			lf2.Write(dstNode, schema.NewSingleView(graphid.Empty))
		}
	default:
		lf2.Write(dstNode, cur.Without(src))
	}
}
