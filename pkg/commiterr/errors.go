// Package commiterr holds the typed commit-time error taxonomy shared by
// pkg/txn, pkg/bidi, and pkg/linktype. It lives apart from all three so
// that none of them need import each other just to construct or inspect
// an error — grounded on the teacher's ConstraintViolationError
// (pkg/storage/constraint_validation.go), split out instead of nested so
// callers can errors.As for the specific diagnostic fields named in
// spec.md §7.
package commiterr

import (
	"fmt"

	"github.com/cairnhq/cairn/pkg/graphid"
	"github.com/cairnhq/cairn/pkg/schema"
)

// UnfilledReservationError reports an allocate with no matching fill-back.
type UnfilledReservationError struct {
	ID graphid.ID
}

func (e *UnfilledReservationError) Error() string {
	return fmt.Sprintf("commit: reservation %s was never filled back", e.ID)
}

// VariantMismatchError reports a fill-back whose variant differs from the
// one declared at allocation.
type VariantMismatchError struct {
	ID       graphid.ID
	Reserved schema.VariantID
	Got      schema.VariantID
}

func (e *VariantMismatchError) Error() string {
	return fmt.Sprintf("commit: reservation %s declared variant %d but filled back with variant %d", e.ID, e.Reserved, e.Got)
}

// RemovingAbsentError reports a remove targeting an id that is neither
// live nor inserted earlier in the same transaction. pkg/txn also returns
// it for a mutation or link edit staged against such an id.
type RemovingAbsentError struct {
	ID graphid.ID
}

func (e *RemovingAbsentError) Error() string {
	return fmt.Sprintf("commit: operation targeted non-live id %s", e.ID)
}

// DanglingReferenceError reports a link field whose target does not
// refer to a live node after all mutations in the transaction apply.
type DanglingReferenceError struct {
	SourceID graphid.ID
	Field    string
	TargetID graphid.ID
}

func (e *DanglingReferenceError) Error() string {
	return fmt.Sprintf("commit: %s.%s references non-live id %s", e.SourceID, e.Field, e.TargetID)
}

// BidirectionalConflictError reports a Single-shape bidirectional peer
// field that was already bound to a different node.
type BidirectionalConflictError struct {
	SourceID graphid.ID
	Field    string
	TargetID graphid.ID
	Existing graphid.ID
}

func (e *BidirectionalConflictError) Error() string {
	return fmt.Sprintf("commit: %s.%s -> %s conflicts: %s is already bound to %s", e.SourceID, e.Field, e.TargetID, e.TargetID, e.Existing)
}

// LinkTypeViolationError reports a link target whose variant is not in
// the field's declared permitted set.
type LinkTypeViolationError struct {
	SourceID        graphid.ID
	Field           string
	TargetID        graphid.ID
	ActualVariant   schema.VariantID
	PermittedVariant map[schema.VariantID]bool
}

func (e *LinkTypeViolationError) Error() string {
	return fmt.Sprintf("commit: %s.%s -> %s has variant %d, not in permitted set", e.SourceID, e.Field, e.TargetID, e.ActualVariant)
}

// ContextMismatchError reports an identifier minted by a foreign Context
// used against this graph.
type ContextMismatchError struct {
	SourceID graphid.ID
	Field    string
	TargetID graphid.ID
}

func (e *ContextMismatchError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("commit: id %s belongs to a foreign context", e.SourceID)
	}
	return fmt.Sprintf("commit: %s.%s references %s, which belongs to a foreign context", e.SourceID, e.Field, e.TargetID)
}
