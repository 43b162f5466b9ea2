// Package fixture builds the Worker/Factory/Product schema used across
// this module's package tests — the same worked example SPEC_FULL.md §3
// carries through the design. It gives test files in pkg/graph, pkg/txn,
// pkg/bidi, pkg/linktype, and pkg/persist, and the cmd/cairn demo
// commands, a shared, realistic schema without each re-declaring it.
package fixture

import (
	"github.com/cairnhq/cairn/pkg/graphid"
	"github.com/cairnhq/cairn/pkg/schema"
)

// Variant IDs are fixed by the declaration order in Build below: Worker,
// Factory, Product. Only one Build'd registry should be in play within a
// single test binary run at a time — these vars are a test convenience,
// not a concurrency-safe global registry.
var (
	WorkerID  schema.VariantID
	FactoryID schema.VariantID
	ProductID schema.VariantID
)

// Worker is a node variant with a Single link to its Factory and a Set of
// Products it has produced.
type Worker struct {
	Name     string
	Factory  graphid.ID
	Produced []graphid.ID
}

// VariantID implements schema.Node.
func (w *Worker) VariantID() schema.VariantID { return WorkerID }

// Clone implements schema.Node.
func (w *Worker) Clone() schema.Node {
	c := *w
	c.Produced = append([]graphid.ID(nil), w.Produced...)
	return &c
}

// Factory is a node variant with a Set of Workers it employs.
type Factory struct {
	Name    string
	Workers []graphid.ID
}

// VariantID implements schema.Node.
func (f *Factory) VariantID() schema.VariantID { return FactoryID }

// Clone implements schema.Node.
func (f *Factory) Clone() schema.Node {
	c := *f
	c.Workers = append([]graphid.ID(nil), f.Workers...)
	return &c
}

// Product is a node variant with a Single link to the Worker that made it.
type Product struct {
	SKU    string
	MadeBy graphid.ID
}

// VariantID implements schema.Node.
func (p *Product) VariantID() schema.VariantID { return ProductID }

// Clone implements schema.Node.
func (p *Product) Clone() schema.Node {
	c := *p
	return &c
}

// Build compiles the Worker/Factory/Product registry: Factory.workers <->
// Worker.factory and Worker.produced <-> Product.madeBy are both
// bidirectional, and Factory.workers, Worker.produced and Product.madeBy
// carry link-type constraints (Worker.factory has none).
// Worker and Factory are both tagged members of the "FactoryFloor" group;
// Product is not.
func Build() (*schema.Registry, error) {
	b := schema.NewBuilder()

	worker := b.Variant("Worker", "FactoryFloor")
	WorkerID = worker.ID()
	worker.
		Data("name", "string", func(n schema.Node) any { return n.(*Worker).Name }).
		Link("factory", schema.Single, nil,
			func(n schema.Node) schema.View { return schema.NewSingleView(n.(*Worker).Factory) },
			func(n schema.Node, v schema.View) { n.(*Worker).Factory = v.Single() }).
		Link("produced", schema.Set, nil,
			func(n schema.Node) schema.View { return schema.NewSetView(n.(*Worker).Produced) },
			func(n schema.Node, v schema.View) { n.(*Worker).Produced = v.All() }).
		End()

	factory := b.Variant("Factory", "FactoryFloor")
	FactoryID = factory.ID()
	factory.
		Data("name", "string", func(n schema.Node) any { return n.(*Factory).Name }).
		Link("workers", schema.Set, nil,
			func(n schema.Node) schema.View { return schema.NewSetView(n.(*Factory).Workers) },
			func(n schema.Node, v schema.View) { n.(*Factory).Workers = v.All() }).
		End()

	product := b.Variant("Product")
	ProductID = product.ID()
	product.
		Data("sku", "string", func(n schema.Node) any { return n.(*Product).SKU }).
		Link("madeBy", schema.Single, nil,
			func(n schema.Node) schema.View { return schema.NewSingleView(n.(*Product).MadeBy) },
			func(n schema.Node, v schema.View) { n.(*Product).MadeBy = v.Single() }).
		End()

	b.Bidirectional("Factory", "workers", "Worker", "factory")
	b.Bidirectional("Worker", "produced", "Product", "madeBy")
	b.LinkType("Factory", "workers", "Worker")
	b.LinkType("Worker", "produced", "Product")
	b.LinkType("Product", "madeBy", "Worker")

	return b.Build()
}
