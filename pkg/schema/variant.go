package schema

// Variant is one declared kind of node: a fixed, ordered list of data
// fields and link fields, plus the variant-group memberships it was
// declared with. Every node in a graph belongs to exactly one Variant.
type Variant struct {
	id     VariantID
	name   string
	groups []string

	linkOrder []string
	linkByKey map[string]LinkField

	dataOrder []string
	dataByKey map[string]DataField
}

// ID returns the variant's identifier within its Registry.
func (v *Variant) ID() VariantID { return v.id }

// Name returns the variant's declared name.
func (v *Variant) Name() string { return v.name }

// InGroup reports whether the variant was declared a member of group g.
func (v *Variant) InGroup(g string) bool { return hasGroup(v.groups, g) }

// Groups returns the variant's declared group memberships.
func (v *Variant) Groups() []string {
	out := make([]string, len(v.groups))
	copy(out, v.groups)
	return out
}

// LinkFields returns the variant's link fields in declaration order.
func (v *Variant) LinkFields() []LinkField {
	out := make([]LinkField, 0, len(v.linkOrder))
	for _, name := range v.linkOrder {
		out = append(out, v.linkByKey[name])
	}
	return out
}

// LinkField looks up a single link field by name.
func (v *Variant) LinkField(name string) (LinkField, bool) {
	f, ok := v.linkByKey[name]
	return f, ok
}

// DataFields returns the variant's data fields in declaration order.
func (v *Variant) DataFields() []DataField {
	out := make([]DataField, 0, len(v.dataOrder))
	for _, name := range v.dataOrder {
		out = append(out, v.dataByKey[name])
	}
	return out
}

// DataField looks up a single data field by name.
func (v *Variant) DataField(name string) (DataField, bool) {
	f, ok := v.dataByKey[name]
	return f, ok
}

// LinksInGroup returns the names of the variant's link fields tagged with
// group g, in declaration order.
func (v *Variant) LinksInGroup(g string) []string {
	var out []string
	for _, name := range v.linkOrder {
		if hasGroup(v.linkByKey[name].Groups, g) {
			out = append(out, name)
		}
	}
	return out
}
