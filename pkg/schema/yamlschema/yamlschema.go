// Package yamlschema is the data-driven half of the declarative schema
// surface spec.md §6 asks for but declines to prescribe a syntax for. It
// parses a YAML document naming variants, their data/link fields, groups,
// bidirectional pairs, and link-type constraints (gopkg.in/yaml.v3, the
// same declarative-config dependency the teacher reaches for), then
// compiles the result into a *schema.Registry via schema.Builder.
//
// The document alone cannot supply a field's read/write dispatch
// closures — nothing here uses reflect, so those still come from Go code.
// Load takes the caller's closures, keyed by "Variant.field", and wires
// them onto the fields the document declares.
package yamlschema

import (
	"fmt"
	"strings"

	"github.com/cairnhq/cairn/pkg/schema"
	"gopkg.in/yaml.v3"
)

// Document is the parsed shape of a schema YAML file.
type Document struct {
	Variants      []VariantDoc   `yaml:"variants"`
	Bidirectional []PairDoc      `yaml:"bidirectional"`
	LinkTypes     []ConstraintDoc `yaml:"link_types"`
}

// VariantDoc declares one variant's name, group memberships, and fields.
type VariantDoc struct {
	Name       string         `yaml:"name"`
	Groups     []string       `yaml:"groups"`
	DataFields []DataFieldDoc `yaml:"data_fields"`
	LinkFields []LinkFieldDoc `yaml:"link_fields"`
}

// DataFieldDoc declares one data field's name and static type tag.
type DataFieldDoc struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
}

// LinkFieldDoc declares one link field's name, shape ("single",
// "sequence", or "set"), and group memberships.
type LinkFieldDoc struct {
	Name   string   `yaml:"name"`
	Shape  string   `yaml:"shape"`
	Groups []string `yaml:"groups"`
}

// PairDoc declares a bidirectional pair. A and B are "Variant.field" or
// "Group.field" references, expanded the same way schema.Builder.
// Bidirectional expands them.
type PairDoc struct {
	A string `yaml:"a"`
	B string `yaml:"b"`
}

// ConstraintDoc declares a link-type constraint. Source is a
// "Variant.field" or "Group.field" reference; Permitted names variants
// or groups.
type ConstraintDoc struct {
	Source    string   `yaml:"source"`
	Permitted []string `yaml:"permitted"`
}

// LinkAccessor is the read/write dispatch pair a caller supplies for one
// declared link field.
type LinkAccessor struct {
	Read  func(schema.Node) schema.View
	Write func(schema.Node, schema.View)
}

// DataAccessor is the read closure a caller supplies for one declared
// data field.
type DataAccessor struct {
	Read func(schema.Node) any
}

// Parse unmarshals a schema YAML document.
func Parse(data []byte) (Document, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Document{}, fmt.Errorf("yamlschema: parse: %w", err)
	}
	return doc, nil
}

// Load compiles doc into a *schema.Registry, wiring linkAccessors and
// dataAccessors (keyed by "Variant.field") onto the fields doc declares.
// Every declared field must have a matching accessor, or Load fails.
func Load(doc Document, linkAccessors map[string]LinkAccessor, dataAccessors map[string]DataAccessor) (*schema.Registry, error) {
	b := schema.NewBuilder()

	for _, vd := range doc.Variants {
		vb := b.Variant(vd.Name, vd.Groups...)

		for _, df := range vd.DataFields {
			key := vd.Name + "." + df.Name
			acc, ok := dataAccessors[key]
			if !ok {
				return nil, fmt.Errorf("yamlschema: no data accessor registered for %s", key)
			}
			vb.Data(df.Name, df.Type, acc.Read)
		}

		for _, lf := range vd.LinkFields {
			key := vd.Name + "." + lf.Name
			acc, ok := linkAccessors[key]
			if !ok {
				return nil, fmt.Errorf("yamlschema: no link accessor registered for %s", key)
			}
			shape, err := parseShape(lf.Shape)
			if err != nil {
				return nil, fmt.Errorf("yamlschema: %s: %w", key, err)
			}
			vb.Link(lf.Name, shape, lf.Groups, acc.Read, acc.Write)
		}

		vb.End()
	}

	for _, p := range doc.Bidirectional {
		aName, aField, err := splitRef(p.A)
		if err != nil {
			return nil, fmt.Errorf("yamlschema: bidirectional.a: %w", err)
		}
		bName, bField, err := splitRef(p.B)
		if err != nil {
			return nil, fmt.Errorf("yamlschema: bidirectional.b: %w", err)
		}
		b.Bidirectional(aName, aField, bName, bField)
	}

	for _, c := range doc.LinkTypes {
		srcName, srcField, err := splitRef(c.Source)
		if err != nil {
			return nil, fmt.Errorf("yamlschema: link_types.source: %w", err)
		}
		b.LinkType(srcName, srcField, c.Permitted...)
	}

	return b.Build()
}

func parseShape(s string) (schema.Shape, error) {
	switch s {
	case "single":
		return schema.Single, nil
	case "sequence":
		return schema.Sequence, nil
	case "set":
		return schema.Set, nil
	default:
		return 0, fmt.Errorf("unknown shape %q (want single, sequence, or set)", s)
	}
}

func splitRef(ref string) (name, field string, err error) {
	parts := strings.SplitN(ref, ".", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid field reference %q, want Variant.field or Group.field", ref)
	}
	return parts[0], parts[1], nil
}
