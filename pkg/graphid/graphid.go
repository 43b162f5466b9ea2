// Package graphid mints the opaque node identifiers shared across a graph
// family.
//
// An identifier is a single machine word: the low 48 bits are a
// monotonically increasing counter, the high 16 bits are the session tag
// of the Context that produced it. Packing the session tag into the value
// itself (rather than tracking it in a side table) means a Context can
// detect, from the identifier alone, whether it minted it — this is what
// backs the ContextMismatch check described in the package that builds on
// graphid.
package graphid

import (
	"fmt"
	"sync/atomic"
)

// ID is an opaque, totally ordered node identifier. The zero value is
// Empty and means "no target".
type ID uint64

const (
	// Empty is the distinguished identifier meaning "no target". It is
	// never returned by Context.New.
	Empty ID = 0

	counterBits = 48
	counterMask = (uint64(1) << counterBits) - 1
)

// Tag returns the session tag that produced id, or 0 for Empty.
func (id ID) Tag() uint16 {
	return uint16(uint64(id) >> counterBits)
}

// IsEmpty reports whether id is the Empty identifier.
func (id ID) IsEmpty() bool {
	return id == Empty
}

// Counter returns the counter portion of id, the part distinct from its
// session tag. A caller reconstructing a Context from previously-minted
// identifiers uses the maximum Counter observed to seed the new Context
// past every value already in use.
func (id ID) Counter() uint64 {
	return uint64(id) & counterMask
}

// String renders id for diagnostics; Empty renders as "<empty>".
func (id ID) String() string {
	if id.IsEmpty() {
		return "<empty>"
	}
	return fmt.Sprintf("#%d.%d", id.Tag(), uint64(id)&counterMask)
}

// Context owns a monotonic counter and a session tag. It allocates
// identifiers; it never recycles them. A Context must outlive any Graph or
// Transaction bound to it. Multiple graphs may share one Context; a
// Context is not intrinsically shared between independent graphs.
//
// Context is safe for concurrent use: allocation is a single atomic
// increment, matching the "shared-resource policy" of an effectively
// append-only counter.
type Context struct {
	tag     uint16
	counter atomic.Uint64
}

var nextTag atomic.Uint32

// NewContext creates a Context with a fresh session tag distinguishing it
// from every other Context created in this process. Tags wrap after 65536
// Contexts are created; wrapping is only a concern for very long-lived
// processes that churn through Contexts, not graphs.
func NewContext() *Context {
	tag := uint16(nextTag.Add(1))
	return &Context{tag: tag}
}

// RestoreContext reconstructs a Context carrying tag — the session tag
// stamped into identifiers a previous Context of the same process minted —
// with its counter seeded to floor, so the next New call returns
// floor+1. A persistence layer uses this to reopen a graph under the
// identity its stored identifiers already carry: without it, a freshly
// NewContext'd Context would mint a different tag, and every restored
// identifier would look foreign to Context.Owns from that point on.
//
// floor should be the highest Counter value observed among the
// identifiers being restored. RestoreContext does not reserve tag against
// future NewContext calls; callers that mix RestoreContext and NewContext
// in one process are responsible for keeping tags distinct themselves.
func RestoreContext(tag uint16, floor uint64) *Context {
	c := &Context{tag: tag}
	c.counter.Store(floor)
	return c
}

// New allocates a fresh identifier. Successive calls return distinct
// values; the Empty identifier is never returned.
func (c *Context) New() ID {
	n := c.counter.Add(1)
	return ID(uint64(c.tag)<<counterBits | (n & counterMask))
}

// Owns reports whether id was minted by c. An Empty identifier belongs to
// no Context and Owns reports false for it, matching "only Single-shape
// fields may be empty" semantics elsewhere: Empty never needs a Context
// check.
func (c *Context) Owns(id ID) bool {
	if id.IsEmpty() {
		return false
	}
	return id.Tag() == c.tag
}

// Tag returns this Context's session tag.
func (c *Context) Tag() uint16 {
	return c.tag
}
