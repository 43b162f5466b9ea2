package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cairnhq/cairn/internal/fixture"
	"github.com/cairnhq/cairn/pkg/schema"
	"github.com/cairnhq/cairn/pkg/schema/yamlschema"
)

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [schema.yaml]",
		Short: "Parse a YAML schema document and build it into a Registry",
		Long: `validate parses a YAML schema document (pkg/schema/yamlschema) and
compiles it into a *schema.Registry, reporting every variant, group,
bidirectional pair, and link-type constraint it declares.

Field dispatch can't be discovered from YAML alone — it needs the
accessor closures a Go type supplies — so this command wires the
document's field references against cairn's own Worker/Factory/Product
example schema (internal/fixture). A document declaring fields other
than the fixture's will fail with "no data accessor registered" or "no
link accessor registered", which is itself useful feedback about what
the document declares.`,
		Args: cobra.ExactArgs(1),
		RunE: runValidate,
	}
}

func runValidate(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("reading %s: %w", args[0], err)
	}

	doc, err := yamlschema.Parse(data)
	if err != nil {
		return err
	}

	reg, err := yamlschema.Load(doc, fixtureLinkAccessors(), fixtureDataAccessors())
	if err != nil {
		return err
	}

	fmt.Printf("schema valid: %d variant(s)\n", len(reg.Variants()))
	for _, v := range reg.Variants() {
		fmt.Printf("  %s groups=%v\n", v.Name(), v.Groups())
		for _, df := range v.DataFields() {
			fmt.Printf("    data %s : %s\n", df.Name, df.Tag)
		}
		for _, lf := range v.LinkFields() {
			fmt.Printf("    link %s : %s\n", lf.Name, lf.Shape)
		}
	}
	for _, pair := range reg.BidirectionalPairs() {
		fmt.Printf("  bidirectional: %d.%s <-> %d.%s\n", pair.AVariant, pair.AField, pair.BVariant, pair.BField)
	}
	for _, c := range reg.LinkTypeConstraints() {
		fmt.Printf("  link-type: %d.%s\n", c.Variant, c.Field)
	}
	return nil
}

func fixtureLinkAccessors() map[string]yamlschema.LinkAccessor {
	return map[string]yamlschema.LinkAccessor{
		"Worker.factory": {
			Read:  func(n schema.Node) schema.View { return schema.NewSingleView(n.(*fixture.Worker).Factory) },
			Write: func(n schema.Node, v schema.View) { n.(*fixture.Worker).Factory = v.Single() },
		},
		"Worker.produced": {
			Read:  func(n schema.Node) schema.View { return schema.NewSetView(n.(*fixture.Worker).Produced) },
			Write: func(n schema.Node, v schema.View) { n.(*fixture.Worker).Produced = v.All() },
		},
		"Factory.workers": {
			Read:  func(n schema.Node) schema.View { return schema.NewSetView(n.(*fixture.Factory).Workers) },
			Write: func(n schema.Node, v schema.View) { n.(*fixture.Factory).Workers = v.All() },
		},
		"Product.madeBy": {
			Read:  func(n schema.Node) schema.View { return schema.NewSingleView(n.(*fixture.Product).MadeBy) },
			Write: func(n schema.Node, v schema.View) { n.(*fixture.Product).MadeBy = v.Single() },
		},
	}
}

func fixtureDataAccessors() map[string]yamlschema.DataAccessor {
	return map[string]yamlschema.DataAccessor{
		"Worker.name":  {Read: func(n schema.Node) any { return n.(*fixture.Worker).Name }},
		"Factory.name": {Read: func(n schema.Node) any { return n.(*fixture.Factory).Name }},
		"Product.sku":  {Read: func(n schema.Node) any { return n.(*fixture.Product).SKU }},
	}
}
