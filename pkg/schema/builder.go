package schema

// Builder assembles a Registry from variant declarations plus
// bidirectional-pair and link-type declarations, resolving variant-group
// references to their cross product at Build time — "a declaration-time
// rewrite, not a runtime concept" per spec.md §9.
//
// Builder is the Go-native replacement for the macro-like schema DSL
// spec.md declines to prescribe. See pkg/schema/yamlschema for a
// data-driven alternative that compiles down to the same Registry.
type Builder struct {
	nextID       VariantID
	variantOrder []VariantID
	variants     map[VariantID]*variantSpec
	byName       map[string]VariantID
	groupMembers map[string][]VariantID

	bidiSpecs     []bidiSpec
	linktypeSpecs []linktypeSpec
}

type variantSpec struct {
	id        VariantID
	name      string
	groups    []string
	linkOrder []string
	linkByKey map[string]LinkField
	dataOrder []string
	dataByKey map[string]DataField
}

type sideSpec struct {
	nameOrGroup string
	field       string
}

type bidiSpec struct {
	a, b sideSpec
}

type linktypeSpec struct {
	source    sideSpec
	permitted []string
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{
		variants:     make(map[VariantID]*variantSpec),
		byName:       make(map[string]VariantID),
		groupMembers: make(map[string][]VariantID),
	}
}

// Variant begins declaring a new variant named name, optionally tagged as
// a member of one or more variant-groups. Returns a VariantBuilder for
// declaring its fields; call End() to resume the parent Builder.
func (b *Builder) Variant(name string, groups ...string) *VariantBuilder {
	id := b.nextID
	b.nextID++

	spec := &variantSpec{
		id:        id,
		name:      name,
		groups:    append([]string(nil), groups...),
		linkByKey: make(map[string]LinkField),
		dataByKey: make(map[string]DataField),
	}
	b.variants[id] = spec
	b.variantOrder = append(b.variantOrder, id)
	b.byName[name] = id
	for _, g := range groups {
		b.groupMembers[g] = append(b.groupMembers[g], id)
	}

	return &VariantBuilder{b: b, spec: spec}
}

// Bidirectional declares that (aVariantOrGroup, aField) and
// (bVariantOrGroup, bField) must be kept symmetric. Either side may name a
// single variant or a variant-group; group references expand to the
// cross product of their members at Build time.
func (b *Builder) Bidirectional(aVariantOrGroup, aField, bVariantOrGroup, bField string) *Builder {
	b.bidiSpecs = append(b.bidiSpecs, bidiSpec{
		a: sideSpec{nameOrGroup: aVariantOrGroup, field: aField},
		b: sideSpec{nameOrGroup: bVariantOrGroup, field: bField},
	})
	return b
}

// LinkType declares that every non-empty target of (variantOrGroup,
// field) must be one of permittedVariantsOrGroups. Both the source and
// the permitted set may name variant-groups; both expand at Build time.
func (b *Builder) LinkType(variantOrGroup, field string, permittedVariantsOrGroups ...string) *Builder {
	b.linktypeSpecs = append(b.linktypeSpecs, linktypeSpec{
		source:    sideSpec{nameOrGroup: variantOrGroup, field: field},
		permitted: append([]string(nil), permittedVariantsOrGroups...),
	})
	return b
}

// expand resolves a variant name or group name to the variant IDs it
// denotes. A bare variant name expands to itself; a group name expands to
// its declared members.
func (b *Builder) expand(nameOrGroup string) ([]VariantID, error) {
	if ids, ok := b.groupMembers[nameOrGroup]; ok {
		return ids, nil
	}
	if id, ok := b.byName[nameOrGroup]; ok {
		return []VariantID{id}, nil
	}
	return nil, errf("unknown variant or group %q", nameOrGroup)
}

// Build compiles the declarations into an immutable Registry, validating
// field references and the Single/Set-only rule for bidirectional pairs.
func (b *Builder) Build() (*Registry, error) {
	declared := make(map[string]bool, len(b.variantOrder))
	for _, id := range b.variantOrder {
		name := b.variants[id].name
		if declared[name] {
			return nil, errf("duplicate variant name %q", name)
		}
		declared[name] = true
	}

	reg := &Registry{
		variantOrder: append([]VariantID(nil), b.variantOrder...),
		variants:     make(map[VariantID]*Variant, len(b.variants)),
		byName:       make(map[string]VariantID, len(b.byName)),
		groupMembers: make(map[string][]VariantID, len(b.groupMembers)),
	}
	for name, id := range b.byName {
		reg.byName[name] = id
	}
	for g, ids := range b.groupMembers {
		reg.groupMembers[g] = append([]VariantID(nil), ids...)
	}
	for id, spec := range b.variants {
		reg.variants[id] = &Variant{
			id:        spec.id,
			name:      spec.name,
			groups:    append([]string(nil), spec.groups...),
			linkOrder: append([]string(nil), spec.linkOrder...),
			linkByKey: spec.linkByKey,
			dataOrder: append([]string(nil), spec.dataOrder...),
			dataByKey: spec.dataByKey,
		}
	}

	for _, bs := range b.bidiSpecs {
		as, err := b.expand(bs.a.nameOrGroup)
		if err != nil {
			return nil, err
		}
		bsides, err := b.expand(bs.b.nameOrGroup)
		if err != nil {
			return nil, err
		}
		groupExpandedA := len(as) > 1 || b.isGroup(bs.a.nameOrGroup)
		groupExpandedB := len(bsides) > 1 || b.isGroup(bs.b.nameOrGroup)

		for _, va := range as {
			for _, vb := range bsides {
				lfA, okA := reg.variants[va].LinkField(bs.a.field)
				lfB, okB := reg.variants[vb].LinkField(bs.b.field)
				if !okA {
					if groupExpandedA {
						continue
					}
					return nil, errf("bidirectional: variant %q has no link field %q", reg.variants[va].name, bs.a.field)
				}
				if !okB {
					if groupExpandedB {
						continue
					}
					return nil, errf("bidirectional: variant %q has no link field %q", reg.variants[vb].name, bs.b.field)
				}
				if lfA.Shape == Sequence || lfB.Shape == Sequence {
					return nil, errf("bidirectional: %s.%s <-> %s.%s: Ordered-sequence fields cannot participate in a bidirectional pair",
						reg.variants[va].name, bs.a.field, reg.variants[vb].name, bs.b.field)
				}
				reg.bidi = append(reg.bidi, BidirectionalPair{
					AVariant: va, AField: bs.a.field,
					BVariant: vb, BField: bs.b.field,
				})
			}
		}
	}

	for _, ls := range b.linktypeSpecs {
		sources, err := b.expand(ls.source.nameOrGroup)
		if err != nil {
			return nil, err
		}
		groupExpandedSource := len(sources) > 1 || b.isGroup(ls.source.nameOrGroup)

		permitted := make(map[VariantID]bool)
		for _, p := range ls.permitted {
			ids, err := b.expand(p)
			if err != nil {
				return nil, err
			}
			for _, id := range ids {
				permitted[id] = true
			}
		}

		for _, v := range sources {
			if _, ok := reg.variants[v].LinkField(ls.source.field); !ok {
				if groupExpandedSource {
					continue
				}
				return nil, errf("link-type: variant %q has no link field %q", reg.variants[v].name, ls.source.field)
			}
			reg.linktypes = append(reg.linktypes, LinkTypeConstraint{
				Variant:   v,
				Field:     ls.source.field,
				Permitted: permitted,
			})
		}
	}

	return reg, nil
}

func (b *Builder) isGroup(name string) bool {
	_, ok := b.groupMembers[name]
	return ok
}

// VariantBuilder declares the data and link fields of one variant.
type VariantBuilder struct {
	b    *Builder
	spec *variantSpec
}

// Data declares a data field named name with static type tag and the
// closure that reads its current value from a Node of this variant.
func (vb *VariantBuilder) Data(name, tag string, read func(Node) any) *VariantBuilder {
	vb.spec.dataOrder = append(vb.spec.dataOrder, name)
	vb.spec.dataByKey[name] = DataField{Name: name, Tag: tag, Read: read}
	return vb
}

// Link declares a link field named name with the given shape, group
// memberships, and read/write dispatch closures.
func (vb *VariantBuilder) Link(name string, shape Shape, groups []string, read func(Node) View, write func(Node, View)) *VariantBuilder {
	vb.spec.linkOrder = append(vb.spec.linkOrder, name)
	vb.spec.linkByKey[name] = LinkField{Name: name, Shape: shape, Groups: groups, Read: read, Write: write}
	return vb
}

// End returns to the parent Builder to continue declaring variants or
// cross-variant rules.
func (vb *VariantBuilder) End() *Builder {
	return vb.b
}

// ID returns the VariantID assigned to this variant, for callers that
// need it before Build (e.g. to implement Node.VariantID on the
// corresponding Go type).
func (vb *VariantBuilder) ID() VariantID {
	return vb.spec.id
}
