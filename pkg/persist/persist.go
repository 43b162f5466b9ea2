// Package persist is a durable snapshot adapter for a pkg/graph.Graph. It
// is not a live backing store — the graph still lives entirely in memory,
// per spec.md §3's serialization-adapter note — only an export/import path
// plus an append-only log of commit outcomes, both backed by BadgerDB
// (github.com/dgraph-io/badger/v4), the engine the teacher's
// pkg/storage/badger.go wires in for its persistent Engine.
//
// A schema.Node is an arbitrary caller-supplied Go type, so Store cannot
// serialize one without help: callers supply a Codec keyed by
// schema.VariantID, the same division of labor pkg/schema/yamlschema uses
// for field dispatch closures.
package persist

import (
	"encoding/json"
	"fmt"
	"time"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/cairnhq/cairn/pkg/graph"
	"github.com/cairnhq/cairn/pkg/graphid"
	"github.com/cairnhq/cairn/pkg/schema"
)

// Codec encodes and decodes the concrete node types behind schema.Node for
// one schema.Registry. Store never inspects a node's fields itself.
type Codec interface {
	Encode(n schema.Node) ([]byte, error)
	Decode(variant schema.VariantID, data []byte) (schema.Node, error)
}

// NewJSONCodec builds a Codec that JSON-encodes nodes directly
// (encoding/json, exactly as the teacher's serializeNode/deserializeNode
// do in pkg/storage/badger_serialization.go) and decodes them through a
// constructor registered per variant — the same per-variant dispatch
// every other package in this module uses in place of reflect.
func NewJSONCodec(constructors map[schema.VariantID]func() schema.Node) Codec {
	return jsonCodec{constructors: constructors}
}

type jsonCodec struct {
	constructors map[schema.VariantID]func() schema.Node
}

func (c jsonCodec) Encode(n schema.Node) ([]byte, error) {
	return json.Marshal(n)
}

func (c jsonCodec) Decode(variant schema.VariantID, data []byte) (schema.Node, error) {
	ctor, ok := c.constructors[variant]
	if !ok {
		return nil, fmt.Errorf("persist: no constructor registered for variant %d", variant)
	}
	n := ctor()
	if err := json.Unmarshal(data, n); err != nil {
		return nil, fmt.Errorf("persist: unmarshal node: %w", err)
	}
	return n, nil
}

// Key prefixes for BadgerDB storage organization, mirroring the teacher's
// single-byte-prefix scheme (pkg/storage/badger.go prefixNode etc.)
const (
	prefixSnapshot = byte(0x01) // snapshot:variant(2):id(8) -> codec-encoded node
	prefixCommit   = byte(0x02) // commit:seq(8) -> json(commitEntry)
)

// Options configures a Store.
type Options struct {
	// DataDir is the directory BadgerDB stores its files under. Required
	// unless InMemory is set.
	DataDir string

	// InMemory runs BadgerDB in memory-only mode. Useful for testing;
	// data is not persisted.
	InMemory bool

	// SyncWrites forces fsync after each write. Slower but more durable.
	SyncWrites bool
}

// Store is a BadgerDB-backed durable store holding the last exported
// snapshot of a Graph plus the append-only log of commits recorded since
// that snapshot was taken.
type Store struct {
	db    *badger.DB
	codec Codec
}

// Open opens (creating if absent) a Store under opts, using codec to
// en/decode nodes.
func Open(opts Options, codec Codec) (*Store, error) {
	if codec == nil {
		return nil, fmt.Errorf("persist: codec is required")
	}

	badgerOpts := badger.DefaultOptions(opts.DataDir)
	if opts.InMemory {
		badgerOpts = badgerOpts.WithInMemory(true)
	}
	if opts.SyncWrites {
		badgerOpts = badgerOpts.WithSyncWrites(true)
	}
	badgerOpts = badgerOpts.WithLogger(nil)

	db, err := badger.Open(badgerOpts)
	if err != nil {
		return nil, fmt.Errorf("persist: open badger: %w", err)
	}

	return &Store{db: db, codec: codec}, nil
}

// Close releases the underlying BadgerDB handle.
func (s *Store) Close() error {
	return s.db.Close()
}

func snapshotKey(variant schema.VariantID, id graphid.ID) []byte {
	key := make([]byte, 0, 1+2+8)
	key = append(key, prefixSnapshot)
	key = append(key, byte(variant>>8), byte(variant))
	for shift := 56; shift >= 0; shift -= 8 {
		key = append(key, byte(uint64(id)>>shift))
	}
	return key
}

func commitKey(seq uint64) []byte {
	key := make([]byte, 0, 1+8)
	key = append(key, prefixCommit)
	for shift := 56; shift >= 0; shift -= 8 {
		key = append(key, byte(seq>>shift))
	}
	return key
}

// Snapshot overwrites the stored snapshot with g's full committed state
// and clears the commit log, since every prior commit is now folded into
// the snapshot. Grounded on the teacher's WAL.CreateSnapshot, which
// checkpoints the log before writing a fresh snapshot
// (pkg/storage/wal.go).
func (s *Store) Snapshot(g *graph.Graph) error {
	nodes := g.All()

	return s.db.Update(func(txn *badger.Txn) error {
		if err := dropPrefix(txn, prefixSnapshot); err != nil {
			return err
		}
		if err := dropPrefix(txn, prefixCommit); err != nil {
			return err
		}

		for id, n := range nodes {
			data, err := s.codec.Encode(n)
			if err != nil {
				return fmt.Errorf("persist: encode node %s: %w", id, err)
			}
			if err := txn.Set(snapshotKey(n.VariantID(), id), data); err != nil {
				return err
			}
		}
		return nil
	})
}

func dropPrefix(txn *badger.Txn, prefix byte) error {
	it := txn.NewIterator(badger.DefaultIteratorOptions)
	defer it.Close()

	var keys [][]byte
	for it.Seek([]byte{prefix}); it.ValidForPrefix([]byte{prefix}); it.Next() {
		k := it.Item().KeyCopy(nil)
		keys = append(keys, k)
	}
	for _, k := range keys {
		if err := txn.Delete(k); err != nil {
			return err
		}
	}
	return nil
}

// commitEntry is one record in the append-only commit log: the full set
// of puts and deletes one Transaction.Commit applied, mirroring the teacher's
// WALEntry (pkg/storage/wal.go) trimmed to this domain's two operation
// shapes.
type commitEntry struct {
	Sequence  uint64       `json:"sequence"`
	Timestamp time.Time    `json:"timestamp"`
	Puts      []putRecord  `json:"puts,omitempty"`
	Deletes   []graphid.ID `json:"deletes,omitempty"`
}

type putRecord struct {
	ID      graphid.ID       `json:"id"`
	Variant schema.VariantID `json:"variant"`
	Data    []byte           `json:"data"`
}

// RecordCommit appends one entry to the commit log, recording the puts
// and deletes a single Transaction.Commit just applied. Sequence numbers are
// one more than the highest already recorded, mirroring the monotonic
// Sequence field the teacher's WAL assigns per entry (pkg/storage/wal.go)
// — callers are expected to serialize their own commits the way
// spec.md's single-writer model already requires.
func (s *Store) RecordCommit(puts map[graphid.ID]schema.Node, deletes []graphid.ID) error {
	seq, err := s.nextSequence()
	if err != nil {
		return fmt.Errorf("persist: allocate commit sequence: %w", err)
	}

	entry := commitEntry{
		Sequence:  seq,
		Timestamp: time.Now().UTC(),
		Deletes:   deletes,
	}
	for id, n := range puts {
		data, err := s.codec.Encode(n)
		if err != nil {
			return fmt.Errorf("persist: encode node %s: %w", id, err)
		}
		entry.Puts = append(entry.Puts, putRecord{ID: id, Variant: n.VariantID(), Data: data})
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("persist: marshal commit entry: %w", err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(commitKey(seq), data)
	})
}

func (s *Store) nextSequence() (uint64, error) {
	var seq uint64
	err := s.db.Update(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.IteratorOptions{Reverse: true})
		defer it.Close()

		start := commitKey(^uint64(0))
		it.Seek(start)
		if it.ValidForPrefix([]byte{prefixCommit}) {
			item := it.Item()
			var entry commitEntry
			err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &entry)
			})
			if err != nil {
				return err
			}
			seq = entry.Sequence
		}
		seq++
		return nil
	})
	return seq, err
}

// Load rebuilds a *graph.Graph conforming to reg from the stored snapshot
// plus every commit-log entry recorded since. It is populated via
// Graph.Restore, not replayed through transactions (mirroring the
// teacher's RecoverFromWAL, pkg/storage/wal.go, which replays straight
// into a fresh MemoryEngine).
//
// The returned Graph's graphid.Context is reconstructed with the same
// session tag the restored identifiers already carry, and its counter
// seeded past the highest one in use (graphid.RestoreContext), matching
// spec.md's "stability of identifiers across load is preserved by seeding
// the Context counter beyond the maximum loaded identifier." Without
// this, a plain graphid.NewContext would mint a different tag, and every
// restored identifier would fail Context.Owns — making every populated
// link field in the reloaded graph look like a ContextMismatch the next
// time a Transaction commits against it.
func (s *Store) Load(reg *schema.Registry) (*graph.Graph, error) {
	nodes := make(map[graphid.ID]schema.Node)

	if err := s.decodeSnapshotInto(nodes); err != nil {
		return nil, err
	}
	if err := s.replayCommitsInto(nodes); err != nil {
		return nil, err
	}

	g := graph.NewWithContext(reg, restoredContext(nodes))
	g.Restore(nodes)
	return g, nil
}

// restoredContext derives the graphid.Context a reloaded graph should mint
// further identifiers from: the session tag carried by the restored node
// identifiers themselves, with the counter seeded past the highest one
// observed. Every link target among the restored nodes is itself a live
// node and therefore already a key in nodes, so scanning the keys alone is
// enough to find the ceiling. An empty graph gets a fresh Context, since
// there is no tag to recover.
func restoredContext(nodes map[graphid.ID]schema.Node) *graphid.Context {
	var (
		tag    uint16
		floor  uint64
		sawOne bool
	)
	for id := range nodes {
		if !sawOne {
			tag = id.Tag()
			sawOne = true
		}
		if c := id.Counter(); c > floor {
			floor = c
		}
	}
	if !sawOne {
		return graphid.NewContext()
	}
	return graphid.RestoreContext(tag, floor)
}

func (s *Store) decodeSnapshotInto(nodes map[graphid.ID]schema.Node) error {
	return s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek([]byte{prefixSnapshot}); it.ValidForPrefix([]byte{prefixSnapshot}); it.Next() {
			item := it.Item()
			key := item.Key()
			if len(key) < 1+2+8 {
				continue
			}
			variant := schema.VariantID(uint16(key[1])<<8 | uint16(key[2]))
			var id graphid.ID
			for _, b := range key[3:11] {
				id = id<<8 | graphid.ID(b)
			}

			err := item.Value(func(val []byte) error {
				n, err := s.codec.Decode(variant, val)
				if err != nil {
					return fmt.Errorf("persist: decode node %s: %w", id, err)
				}
				nodes[id] = n
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Store) replayCommitsInto(nodes map[graphid.ID]schema.Node) error {
	return s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek([]byte{prefixCommit}); it.ValidForPrefix([]byte{prefixCommit}); it.Next() {
			item := it.Item()
			err := item.Value(func(val []byte) error {
				var entry commitEntry
				if err := json.Unmarshal(val, &entry); err != nil {
					return fmt.Errorf("persist: unmarshal commit entry: %w", err)
				}
				for _, id := range entry.Deletes {
					delete(nodes, id)
				}
				for _, pr := range entry.Puts {
					n, err := s.codec.Decode(pr.Variant, pr.Data)
					if err != nil {
						return fmt.Errorf("persist: decode node %s: %w", pr.ID, err)
					}
					nodes[pr.ID] = n
				}
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
}
