// Package graph is the committed-state container: the single-writer,
// multi-reader graph a caller opens transactions against. It corresponds
// to spec.md's "graph container" component and is grounded on the
// teacher's MemoryEngine (pkg/storage/memory.go) — one RWMutex guarding a
// node table plus secondary indexes, returning committed state only.
//
// Graph never mutates itself directly. All writes arrive through a
// pkg/txn.Transaction's Commit, which reaches back into Graph through the
// CommitPut/CommitDelete methods while holding Graph's exclusive lock.
package graph

import (
	"sync"

	"github.com/cairnhq/cairn/pkg/graphid"
	"github.com/cairnhq/cairn/pkg/schema"
	"github.com/cairnhq/cairn/pkg/store"
	"github.com/cairnhq/cairn/pkg/txn"
)

// Graph is an in-memory, strongly-typed collection of nodes conforming to
// one schema.Registry. The zero value is not usable; construct with New.
type Graph struct {
	mu  sync.RWMutex
	reg *schema.Registry
	ids *graphid.Context

	nodes     *store.Store[schema.Node]
	byVariant map[schema.VariantID]*store.Store[struct{}]
}

// New returns an empty Graph conforming to reg, with its own graphid.Context
// for allocating node identifiers.
func New(reg *schema.Registry) *Graph {
	return NewWithContext(reg, graphid.NewContext())
}

// NewWithContext returns an empty Graph conforming to reg that allocates
// identifiers from ids instead of a freshly minted Context. pkg/persist
// uses this to reopen a graph under a graphid.RestoreContext whose tag and
// counter match the identifiers being reloaded, so Context.Owns still
// recognizes them after Restore.
func NewWithContext(reg *schema.Registry, ids *graphid.Context) *Graph {
	g := &Graph{
		reg:       reg,
		ids:       ids,
		nodes:     store.New[schema.Node](),
		byVariant: make(map[schema.VariantID]*store.Store[struct{}]),
	}
	for _, v := range reg.Variants() {
		g.byVariant[v.ID()] = store.New[struct{}]()
	}
	return g
}

// Registry returns the schema.Registry this Graph conforms to.
func (g *Graph) Registry() *schema.Registry { return g.reg }

// IDContext returns the graphid.Context nodes created in this Graph are
// allocated from. A Transaction uses this to mint new identifiers that
// Context.Owns will recognize as belonging to this Graph.
func (g *Graph) IDContext() *graphid.Context { return g.ids }

// Get returns the committed node stored under id.
func (g *Graph) Get(id graphid.ID) (schema.Node, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.nodes.Get(id)
}

// GetLocked is Get without its own locking, for use by pkg/txn while it
// already holds the exclusive lock acquired via Lock.
func (g *Graph) GetLocked(id graphid.ID) (schema.Node, bool) {
	return g.nodes.Get(id)
}

// Contains reports whether id names a committed node.
func (g *Graph) Contains(id graphid.ID) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.nodes.Contains(id)
}

// ContainsLocked is Contains without its own locking; see GetLocked.
func (g *Graph) ContainsLocked(id graphid.ID) bool {
	return g.nodes.Contains(id)
}

// AllLocked returns a point-in-time copy of every committed node, keyed
// by id, without its own locking; see GetLocked. pkg/txn uses this during
// commit to validate invariants (dangling references, bidirectional
// symmetry) against the graph's full committed state, not just the nodes
// the transaction touched directly.
func (g *Graph) AllLocked() map[graphid.ID]schema.Node {
	return g.nodes.Snapshot()
}

// All returns a point-in-time copy of every committed node, keyed by id.
// Grounded on the teacher's AllNodes/GetAllNodes accessors
// (pkg/storage/badger.go) — pkg/persist uses this to export a snapshot.
func (g *Graph) All() map[graphid.ID]schema.Node {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.nodes.Snapshot()
}

// Len returns the total number of committed nodes across all variants.
func (g *Graph) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.nodes.Len()
}

// IterateVariant returns every committed node of variant v, in the order
// each was first committed (a later commit that overwrites a node keeps
// its position).
func (g *Graph) IterateVariant(v schema.VariantID) []schema.Node {
	g.mu.RLock()
	defer g.mu.RUnlock()
	idx, ok := g.byVariant[v]
	if !ok {
		return nil
	}
	out := make([]schema.Node, 0, idx.Len())
	for _, id := range idx.IDs() {
		if n, ok := g.nodes.Get(id); ok {
			out = append(out, n)
		}
	}
	return out
}

// IterateGroup returns every committed node whose variant belongs to
// variant-group name, in variant declaration order and then first-commit
// order within each variant.
func (g *Graph) IterateGroup(name string) []schema.Node {
	var out []schema.Node
	for _, v := range g.reg.VariantsInGroup(name) {
		out = append(out, g.IterateVariant(v.ID())...)
	}
	return out
}

// Lock acquires the Graph's exclusive lock. Held by a Transaction for the
// duration of Commit so readers see either all of a commit's writes or
// none of them.
func (g *Graph) Lock() { g.mu.Lock() }

// Unlock releases the Graph's exclusive lock.
func (g *Graph) Unlock() { g.mu.Unlock() }

// RLock acquires the Graph's shared lock.
func (g *Graph) RLock() { g.mu.RLock() }

// RUnlock releases the Graph's shared lock.
func (g *Graph) RUnlock() { g.mu.RUnlock() }

// CommitPut installs n under id as committed state. Callers outside
// pkg/txn must not call this directly: it assumes the exclusive lock is
// already held and performs no validation of its own.
func (g *Graph) CommitPut(id graphid.ID, n schema.Node) {
	g.nodes.Put(id, n)
	idx, ok := g.byVariant[n.VariantID()]
	if !ok {
		idx = store.New[struct{}]()
		g.byVariant[n.VariantID()] = idx
	}
	idx.Put(id, struct{}{})
}

// CommitDelete removes id from committed state. Callers outside pkg/txn
// must not call this directly; see CommitPut.
func (g *Graph) CommitDelete(id graphid.ID) {
	n, ok := g.nodes.Get(id)
	if !ok {
		return
	}
	g.nodes.Delete(id)
	if idx, ok := g.byVariant[n.VariantID()]; ok {
		idx.Delete(id)
	}
}

// Restore installs nodes as committed state, bypassing transaction
// validation entirely. It exists for pkg/persist to rebuild a Graph from
// a previously-written snapshot, the way the teacher's RecoverFromWAL
// replays entries straight into a fresh MemoryEngine
// (pkg/storage/wal.go) rather than re-deriving them through Commit.
// Callers are responsible for only ever restoring data that was itself
// produced by a successful commit.
func (g *Graph) Restore(nodes map[graphid.ID]schema.Node) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for id, n := range nodes {
		g.CommitPut(id, n)
	}
}

// Begin starts a new Transaction against this Graph.
func (g *Graph) Begin() *txn.Transaction {
	return txn.New(g, g.reg)
}

var _ txn.GraphHandle = (*Graph)(nil)
