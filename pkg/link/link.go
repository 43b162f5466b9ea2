// Package link is the uniform read side of spec.md §4.5: reading a data
// or link field by name, or every link-group's targets at once, across
// heterogeneous variants, without the caller needing to know which
// variant it is holding. Every lookup here bottoms out in the static
// dispatch table pkg/schema built at registration time — no reflect.
package link

import (
	"errors"
	"fmt"

	"github.com/cairnhq/cairn/pkg/graphid"
	"github.com/cairnhq/cairn/pkg/schema"
)

// ErrTypeMismatch is returned by ReadData when the caller's expected type
// tag doesn't match the field's declared tag. This is a programmer-error
// signal, not a commit error — spec.md §7 keeps it out of the typed
// commit-error taxonomy on purpose.
var ErrTypeMismatch = errors.New("link: data field type tag mismatch")

// ReadData reads n's data field named field, checking it against
// expectedTag. Returns ErrTypeMismatch if the field's declared tag
// differs.
func ReadData(reg *schema.Registry, n schema.Node, field, expectedTag string) (any, error) {
	v, ok := reg.Variant(n.VariantID())
	if !ok {
		return nil, fmt.Errorf("link: unregistered variant %d", n.VariantID())
	}
	df, ok := v.DataField(field)
	if !ok {
		return nil, fmt.Errorf("link: variant %q has no data field %q", v.Name(), field)
	}
	if df.Tag != expectedTag {
		return nil, ErrTypeMismatch
	}
	return df.Read(n), nil
}

// ReadLink reads n's link field named field as a shape-erased View.
func ReadLink(reg *schema.Registry, n schema.Node, field string) (schema.View, error) {
	v, ok := reg.Variant(n.VariantID())
	if !ok {
		return schema.View{}, fmt.Errorf("link: unregistered variant %d", n.VariantID())
	}
	lf, ok := v.LinkField(field)
	if !ok {
		return schema.View{}, fmt.Errorf("link: variant %q has no link field %q", v.Name(), field)
	}
	return lf.Read(n), nil
}

// LinksInGroup returns the targets of every link field of n tagged with
// group, concatenated in field declaration order.
func LinksInGroup(reg *schema.Registry, n schema.Node, group string) []graphid.ID {
	v, ok := reg.Variant(n.VariantID())
	if !ok {
		return nil
	}
	var out []graphid.ID
	for _, name := range v.LinksInGroup(group) {
		lf, ok := v.LinkField(name)
		if !ok {
			continue
		}
		out = append(out, lf.Read(n).All()...)
	}
	return out
}
