// Package intern maps detail strings to dense indices. Parser jobs intern
// into private Local tables with no locking; the ingest coordinator merges
// each Local into the process-wide Global table, which owns the canonical
// name bytes in an arena. Both flavors reserve index 0 for the empty name.
package intern

import (
	"bytes"
	"sync"

	"github.com/cespare/xxhash/v2"

	"github.com/Sumatoshi-tech/tracefang/internal/arena"
	"github.com/Sumatoshi-tech/tracefang/internal/events"
)

// Local is a per-job interner. It is not safe for concurrent use and is
// discarded after its names are merged into the Global table.
type Local struct {
	names   []string
	buckets map[uint64][]events.DetailIndex
}

// NewLocal returns a Local with the empty name pre-interned at index 0.
func NewLocal() *Local {
	l := &Local{
		buckets: make(map[uint64][]events.DetailIndex),
	}
	l.Intern("")

	return l
}

// Intern returns the dense index for s, assigning the next free index on
// first sight.
func (l *Local) Intern(s string) events.DetailIndex {
	key := xxhash.Sum64String(s)

	for _, idx := range l.buckets[key] {
		if l.names[idx] == s {
			return idx
		}
	}

	idx := events.DetailIndex(len(l.names))
	l.names = append(l.names, s)
	l.buckets[key] = append(l.buckets[key], idx)

	return idx
}

// Name returns the string interned at idx.
func (l *Local) Name(idx events.DetailIndex) string {
	return l.names[idx]
}

// Len returns the number of interned names.
func (l *Local) Len() int {
	return len(l.names)
}

// Global is the process-wide interner. Name bytes live in the arena and
// are borrowed by the table for the lifetime of the process. All entry
// points serialize on one mutex, which also guards the arena.
type Global struct {
	mu      sync.Mutex
	arena   *arena.Arena
	names   [][]byte
	buckets map[uint64][]events.DetailIndex
}

// NewGlobal returns a Global backed by a fresh arena, with the empty name
// pre-interned at index 0.
func NewGlobal() *Global {
	g := &Global{
		arena:   arena.New(),
		buckets: make(map[uint64][]events.DetailIndex),
	}
	g.intern(nil)

	return g
}

// Intern returns the canonical index for the byte string b, copying it
// into the arena on first sight.
func (g *Global) Intern(b []byte) events.DetailIndex {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.intern(b)
}

// InternString is Intern for a string key.
func (g *Global) InternString(s string) events.DetailIndex {
	g.mu.Lock()
	defer g.mu.Unlock()

	for _, idx := range g.buckets[xxhash.Sum64String(s)] {
		if string(g.names[idx]) == s {
			return idx
		}
	}

	return g.insert([]byte(s), xxhash.Sum64String(s))
}

func (g *Global) intern(b []byte) events.DetailIndex {
	key := xxhash.Sum64(b)

	for _, idx := range g.buckets[key] {
		if bytes.Equal(g.names[idx], b) {
			return idx
		}
	}

	return g.insert(b, key)
}

func (g *Global) insert(b []byte, key uint64) events.DetailIndex {
	idx := events.DetailIndex(len(g.names))
	g.names = append(g.names, g.arena.Copy(b))
	g.buckets[key] = append(g.buckets[key], idx)

	return idx
}

// MergeLocal interns every name of l and returns the dense local-to-global
// remap table, indexed by local DetailIndex.
func (g *Global) MergeLocal(l *Local) []events.DetailIndex {
	g.mu.Lock()
	defer g.mu.Unlock()

	remap := make([]events.DetailIndex, len(l.names))
	for i, name := range l.names {
		remap[i] = g.intern([]byte(name))
	}

	return remap
}

// Name returns the bytes interned at idx. The slice borrows arena storage
// and must not be modified.
func (g *Global) Name(idx events.DetailIndex) []byte {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.names[idx]
}

// NameString returns the string interned at idx.
func (g *Global) NameString(idx events.DetailIndex) string {
	return string(g.Name(idx))
}

// Len returns the number of interned names.
func (g *Global) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()

	return len(g.names)
}
