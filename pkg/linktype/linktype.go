// Package linktype implements the link-type checker of spec.md §4.7:
// validating that every non-empty link target belongs to one of the
// variants declared permitted for that field. Checker is an interface so
// Transaction.Commit can pick the no-op implementation when there is
// nothing to enforce, and the real one otherwise, per SPEC_FULL.md Open
// Question (b).
package linktype

import (
	"github.com/cairnhq/cairn/pkg/commiterr"
	"github.com/cairnhq/cairn/pkg/graphid"
	"github.com/cairnhq/cairn/pkg/schema"
)

// Checker validates link-type constraints over a commit's final state.
type Checker interface {
	Check(reg *schema.Registry, final map[graphid.ID]schema.Node) error
}

// Real enforces every declared LinkTypeConstraint.
type Real struct{}

// Check walks every live node's constrained link fields and fails on the
// first target whose variant is not in the declared permitted set.
func (Real) Check(reg *schema.Registry, final map[graphid.ID]schema.Node) error {
	for id, n := range final {
		v, ok := reg.Variant(n.VariantID())
		if !ok {
			continue
		}
		for _, lf := range v.LinkFields() {
			constraint, ok := reg.ConstraintFor(v.ID(), lf.Name)
			if !ok {
				continue
			}
			for _, target := range lf.Read(n).All() {
				if target.IsEmpty() {
					continue
				}
				targetNode, live := final[target]
				if !live {
					continue // DanglingReference already caught this in phase 6
				}
				if !constraint.Permitted[targetNode.VariantID()] {
					return &commiterr.LinkTypeViolationError{
						SourceID:         id,
						Field:            lf.Name,
						TargetID:         target,
						ActualVariant:    targetNode.VariantID(),
						PermittedVariant: constraint.Permitted,
					}
				}
			}
		}
	}
	return nil
}

// NoOp never fails. Transaction.Commit (pkg/txn) selects it for a
// registry with no LinkTypeConstraints registered and no CommitWithCheck
// requested; any registry carrying constraints, or a CommitWithCheck call,
// gets Real instead, per Open Question (b).
type NoOp struct{}

// Check always succeeds.
func (NoOp) Check(*schema.Registry, map[graphid.ID]schema.Node) error { return nil }
