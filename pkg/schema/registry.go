package schema

// BidirectionalPair declares that (AVariant, AField) and (BVariant,
// BField) must remain symmetric: a node of AVariant referencing y through
// AField implies y's BField references it back, and vice versa. Both
// fields must be Single or Set (never Sequence — see spec.md §4.6).
type BidirectionalPair struct {
	AVariant VariantID
	AField   string
	BVariant VariantID
	BField   string
}

// Peer returns the other side of the pair as seen from (v, field), and
// true if (v, field) is either side of p.
func (p BidirectionalPair) Peer(v VariantID, field string) (VariantID, string, bool) {
	if p.AVariant == v && p.AField == field {
		return p.BVariant, p.BField, true
	}
	if p.BVariant == v && p.BField == field {
		return p.AVariant, p.AField, true
	}
	return 0, "", false
}

// LinkTypeConstraint declares that every non-empty target of (Variant,
// Field) must belong to one of Permitted.
type LinkTypeConstraint struct {
	Variant   VariantID
	Field     string
	Permitted map[VariantID]bool
}

// Registry is the compiled, declaration-time-fixed metadata for one graph
// type: its variants, their groups, and the bidirectional/link-type
// declarations that will be consulted on every commit. A Registry is
// immutable once built by Builder.Build and is safe for concurrent read
// access from multiple Graphs and Transactions.
type Registry struct {
	variantOrder []VariantID
	variants     map[VariantID]*Variant
	byName       map[string]VariantID
	groupMembers map[string][]VariantID

	bidi      []BidirectionalPair
	linktypes []LinkTypeConstraint
}

// Variant looks up a variant by its ID.
func (r *Registry) Variant(id VariantID) (*Variant, bool) {
	v, ok := r.variants[id]
	return v, ok
}

// VariantByName looks up a variant by its declared name.
func (r *Registry) VariantByName(name string) (*Variant, bool) {
	id, ok := r.byName[name]
	if !ok {
		return nil, false
	}
	return r.variants[id], true
}

// Variants returns every declared variant in declaration order.
func (r *Registry) Variants() []*Variant {
	out := make([]*Variant, 0, len(r.variantOrder))
	for _, id := range r.variantOrder {
		out = append(out, r.variants[id])
	}
	return out
}

// VariantsInGroup returns the variants declared as members of group g, in
// declaration order.
func (r *Registry) VariantsInGroup(g string) []*Variant {
	ids := r.groupMembers[g]
	out := make([]*Variant, 0, len(ids))
	for _, id := range ids {
		out = append(out, r.variants[id])
	}
	return out
}

// BidirectionalPairs returns every declared bidirectional pair in
// declaration order (declaration order matters: spec.md's ambiguity rule
// has the earlier-listed pair win).
func (r *Registry) BidirectionalPairs() []BidirectionalPair {
	out := make([]BidirectionalPair, len(r.bidi))
	copy(out, r.bidi)
	return out
}

// PeerOf returns the bidirectional peer of (v, field), using the
// earliest-declared matching pair when more than one could apply.
func (r *Registry) PeerOf(v VariantID, field string) (VariantID, string, bool) {
	for _, p := range r.bidi {
		if bv, bf, ok := p.Peer(v, field); ok {
			return bv, bf, true
		}
	}
	return 0, "", false
}

// LinkTypeConstraints returns every declared link-type constraint.
func (r *Registry) LinkTypeConstraints() []LinkTypeConstraint {
	out := make([]LinkTypeConstraint, len(r.linktypes))
	copy(out, r.linktypes)
	return out
}

// ConstraintFor returns the link-type constraint declared for (v, field),
// if any.
func (r *Registry) ConstraintFor(v VariantID, field string) (LinkTypeConstraint, bool) {
	for _, c := range r.linktypes {
		if c.Variant == v && c.Field == field {
			return c, true
		}
	}
	return LinkTypeConstraint{}, false
}
