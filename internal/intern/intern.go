// Package intern provides content-addressed interning for names, paths,
// and type structures, plus dense arenas with stable indices. Two
// interned values are equal iff their underlying content is equal;
// interning guarantees a single representative.
//
// The same "hash the canonical content, hand back a small stable
// handle" shape used for content-addressed AST node handles (a SHA-256
// digest of canonical path, span, kind, and child path) is generalized
// here into a concurrent string interner.
package intern

import (
	"sync"

	"golang.org/x/text/unicode/norm"
)

// ID is a small, copyable, content-addressed handle into an Interner.
// IDs are never re-used within a session and are compared by value,
// never by the string they stand for.
type ID uint32

// Interner is a concurrent content-addressed string table. It backs
// Name, Path-segment, and serialized-type-structure interning.
//
// Thread-safety: Lookup and Intern may be called concurrently by any
// number of query-engine readers; a sync.RWMutex protects the table,
// with the common (already-interned) case taking only a read lock.
type Interner struct {
	mu     sync.RWMutex
	byStr  map[string]ID
	values []string
}

// New creates an empty interner.
func New() *Interner {
	return &Interner{byStr: make(map[string]ID)}
}

// Intern returns the stable ID for s, normalizing to NFC first so that
// two differently-composed-but-canonically-equal identifier spellings
// intern to the same ID (the content-addressing invariant applied to
// Unicode identifiers).
func (in *Interner) Intern(s string) ID {
	s = norm.NFC.String(s)

	in.mu.RLock()
	if id, ok := in.byStr[s]; ok {
		in.mu.RUnlock()
		return id
	}
	in.mu.RUnlock()

	in.mu.Lock()
	defer in.mu.Unlock()
	// Re-check under the write lock: another writer may have raced us.
	if id, ok := in.byStr[s]; ok {
		return id
	}
	id := ID(len(in.values))
	in.values = append(in.values, s)
	in.byStr[s] = id
	return id
}

// Lookup returns the string a previously interned ID stands for.
// Panics on an ID that was never handed out by this interner — an
// internal bug, never a user-facing condition (ids never dangle).
func (in *Interner) Lookup(id ID) string {
	in.mu.RLock()
	defer in.mu.RUnlock()
	return in.values[id]
}

// Len returns how many distinct strings have been interned.
func (in *Interner) Len() int {
	in.mu.RLock()
	defer in.mu.RUnlock()
	return len(in.values)
}
