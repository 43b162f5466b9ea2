package txn

import (
	"github.com/cairnhq/cairn/pkg/graphid"
	"github.com/cairnhq/cairn/pkg/schema"
)

// GraphHandle is the slice of *graph.Graph a Transaction needs to
// validate and apply a commit. It is declared here, not in pkg/graph, so
// that pkg/graph can import pkg/txn (to implement Begin) without a import
// cycle back the other way — pkg/graph's *Graph satisfies this interface
// structurally.
type GraphHandle interface {
	Registry() *schema.Registry
	IDContext() *graphid.Context

	Lock()
	Unlock()

	// GetLocked, ContainsLocked, and AllLocked assume the caller already
	// holds the exclusive lock acquired via Lock — exactly the state a
	// Transaction is in for the whole of commit.
	GetLocked(id graphid.ID) (schema.Node, bool)
	ContainsLocked(id graphid.ID) bool
	AllLocked() map[graphid.ID]schema.Node

	// CommitPut and CommitDelete make the given write visible as
	// committed state. Callers must hold the exclusive lock.
	CommitPut(id graphid.ID, n schema.Node)
	CommitDelete(id graphid.ID)
}
