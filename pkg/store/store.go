// Package store holds the tables a Graph is built from. Each Store[N] is
// an in-memory, insertion-order-preserving map from graphid.ID to N — the
// same indexed-map-plus-order-slice shape the teacher's MemoryEngine uses
// for its node table. pkg/graph keeps the nodes of every variant in one
// Store[schema.Node] and gives each variant its own Store[struct{}] of
// ids, so per-variant iteration only visits that variant's nodes; there
// is no separate node table per variant.
//
// Store itself does no locking: callers (pkg/graph, pkg/txn) hold a
// single RWMutex across the whole Graph, since a transaction's staged
// writes must become visible atomically across every Store it touched.
package store

import "github.com/cairnhq/cairn/pkg/graphid"

// Store is an ID-indexed map plus an order slice so iteration is
// deterministic and matches insertion order.
type Store[N any] struct {
	byID  map[graphid.ID]N
	order []graphid.ID
	index map[graphid.ID]int // position in order, for O(1) removal
}

// New returns an empty Store.
func New[N any]() *Store[N] {
	return &Store[N]{
		byID:  make(map[graphid.ID]N),
		index: make(map[graphid.ID]int),
	}
}

// Get returns the node stored under id, if any.
func (s *Store[N]) Get(id graphid.ID) (N, bool) {
	n, ok := s.byID[id]
	return n, ok
}

// Contains reports whether id is present.
func (s *Store[N]) Contains(id graphid.ID) bool {
	_, ok := s.byID[id]
	return ok
}

// Put inserts or overwrites the node stored under id. A fresh id is
// appended to the end of iteration order; overwriting an existing id
// leaves its position unchanged.
func (s *Store[N]) Put(id graphid.ID, n N) {
	if _, exists := s.byID[id]; !exists {
		s.index[id] = len(s.order)
		s.order = append(s.order, id)
	}
	s.byID[id] = n
}

// Delete removes id from the store. It is a no-op if id is absent.
func (s *Store[N]) Delete(id graphid.ID) {
	pos, ok := s.index[id]
	if !ok {
		return
	}
	delete(s.byID, id)
	delete(s.index, id)
	s.order = append(s.order[:pos], s.order[pos+1:]...)
	for i := pos; i < len(s.order); i++ {
		s.index[s.order[i]] = i
	}
}

// Len returns the number of nodes currently stored.
func (s *Store[N]) Len() int { return len(s.order) }

// All returns every stored node in insertion order. The returned slice is
// a fresh copy; mutating it does not affect the store.
func (s *Store[N]) All() []N {
	out := make([]N, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.byID[id])
	}
	return out
}

// IDs returns every stored ID in insertion order.
func (s *Store[N]) IDs() []graphid.ID {
	out := make([]graphid.ID, len(s.order))
	copy(out, s.order)
	return out
}

// Snapshot returns a fresh id-to-node map covering every stored entry.
// Used by pkg/graph to hand pkg/txn a point-in-time view of committed
// state during commit, when the per-key Get/Contains calls would
// otherwise need a lock already held by the caller.
func (s *Store[N]) Snapshot() map[graphid.ID]N {
	out := make(map[graphid.ID]N, len(s.byID))
	for k, v := range s.byID {
		out[k] = v
	}
	return out
}

// Clone returns a shallow copy of s: a new order slice and maps, but the
// same node values (value-typed nodes copy naturally; pointer-typed nodes
// still alias).
func (s *Store[N]) Clone() *Store[N] {
	c := &Store[N]{
		byID:  make(map[graphid.ID]N, len(s.byID)),
		order: make([]graphid.ID, len(s.order)),
		index: make(map[graphid.ID]int, len(s.index)),
	}
	for k, v := range s.byID {
		c.byID[k] = v
	}
	copy(c.order, s.order)
	for k, v := range s.index {
		c.index[k] = v
	}
	return c
}
