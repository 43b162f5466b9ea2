// Package schema is the per-variant node metadata registry: the runtime
// stand-in for the "schema-declaration DSL" spec.md deliberately leaves
// unspecified. It holds, for every declared variant, an ordered list of
// data fields and link fields plus their group memberships, and the
// declaration-time expansions of bidirectional pairs and link-type
// constraints.
//
// Nothing here uses reflect.TypeOf/reflect.Value. Every accessor is a
// plain Go closure supplied by the caller at registration time and stored
// in a map keyed by (VariantID, field name) — the "static dispatch table"
// spec.md's design notes call for, just built by a Go API instead of a
// code generator.
package schema

import "github.com/cairnhq/cairn/pkg/graphid"

// VariantID identifies a declared node variant within one Registry.
type VariantID uint16

// Node is satisfied by every concrete per-variant Go type a Registry is
// told how to read and write. Implementations are expected to be pointer
// types so that a LinkField.Write closure can mutate a node's fields in
// place. Clone must return a deep copy (a fresh value behind a fresh
// pointer, with any slice-typed link/data fields copied rather than
// aliased): pkg/txn clones a node the first time a commit touches it, so
// that a transaction which fails validation after a mutation leaves the
// previously-committed node completely untouched.
type Node interface {
	VariantID() VariantID
	Clone() Node
}

// Shape is the kind of a link field: how many targets it can hold and
// what ordering/duplication guarantees it offers.
type Shape int

const (
	// Single holds zero or one target identifier.
	Single Shape = iota
	// Sequence holds an ordered list of targets; duplicates permitted.
	Sequence
	// Set holds an unordered-in-principle, duplicate-free list of
	// targets. This Registry's Sets are insertion-preserving (see
	// SPEC_FULL.md §9 Open Question (a)).
	Set
)

func (s Shape) String() string {
	switch s {
	case Single:
		return "single"
	case Sequence:
		return "sequence"
	case Set:
		return "set"
	default:
		return "unknown"
	}
}

// View is a shape-erased, read-only handle onto a link field's current
// target set. It is produced by a LinkField.Read closure and consumed by
// callers that don't know (and shouldn't need to know) which variant they
// are looking at.
type View struct {
	shape Shape
	ids   []graphid.ID
}

// NewSingleView builds a Single-shape view. id may be graphid.Empty.
func NewSingleView(id graphid.ID) View {
	if id.IsEmpty() {
		return View{shape: Single}
	}
	return View{shape: Single, ids: []graphid.ID{id}}
}

// NewSequenceView builds an Ordered-sequence view, preserving the given
// order and duplicates exactly as provided.
func NewSequenceView(ids []graphid.ID) View {
	out := make([]graphid.ID, len(ids))
	copy(out, ids)
	return View{shape: Sequence, ids: out}
}

// NewSetView builds a Set view, deduplicating while preserving the first
// occurrence's position (insertion-preserving, per Open Question (a)).
func NewSetView(ids []graphid.ID) View {
	seen := make(map[graphid.ID]bool, len(ids))
	out := make([]graphid.ID, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return View{shape: Set, ids: out}
}

// Shape reports the view's shape.
func (v View) Shape() Shape { return v.shape }

// Single returns the sole target of a Single-shape view, or graphid.Empty
// if absent. It is a programmer error to call Single on a non-Single view.
func (v View) Single() graphid.ID {
	if len(v.ids) == 0 {
		return graphid.Empty
	}
	return v.ids[0]
}

// All returns the view's targets in iteration order (insertion order for
// Sequence and Set, the sole element or nothing for Single).
func (v View) All() []graphid.ID {
	out := make([]graphid.ID, len(v.ids))
	copy(out, v.ids)
	return out
}

// Len returns the number of targets held by the view.
func (v View) Len() int { return len(v.ids) }

// Contains reports whether id is among the view's targets.
func (v View) Contains(id graphid.ID) bool {
	for _, x := range v.ids {
		if x == id {
			return true
		}
	}
	return false
}

// With returns a copy of v with id appended (Sequence) or inserted
// (Set, idempotent; Single, replacing any existing target).
func (v View) With(id graphid.ID) View {
	switch v.shape {
	case Single:
		return NewSingleView(id)
	case Set:
		if v.Contains(id) {
			return v
		}
		return NewSetView(append(v.All(), id))
	default: // Sequence
		return NewSequenceView(append(v.All(), id))
	}
}

// Without returns a copy of v with every occurrence of id removed
// (Single clears to Empty if it matches).
func (v View) Without(id graphid.ID) View {
	switch v.shape {
	case Single:
		if v.Single() == id {
			return NewSingleView(graphid.Empty)
		}
		return v
	default:
		out := make([]graphid.ID, 0, len(v.ids))
		for _, x := range v.ids {
			if x != id {
				out = append(out, x)
			}
		}
		if v.shape == Set {
			return NewSetView(out)
		}
		return NewSequenceView(out)
	}
}

// LinkField describes one link field of a variant: its shape declaration,
// its group memberships, and the dispatch closures that read and write it
// on a concrete Node value.
type LinkField struct {
	Name   string
	Shape  Shape
	Groups []string
	Read   func(Node) View
	Write  func(Node, View)
}

// DataField describes one data (scalar) field of a variant: its static
// type tag and the closure that reads its current value.
type DataField struct {
	Name string
	Tag  string
	Read func(Node) any
}

func hasGroup(groups []string, g string) bool {
	for _, x := range groups {
		if x == g {
			return true
		}
	}
	return false
}
