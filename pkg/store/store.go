package store

import (
	"fmt"
	"sync"
)

// Entry pairs a record with its version counter. The version starts at 1 and
// bumps on every replace, so caches keyed on (ID, Version) invalidate
// exactly when the record changes.
type Entry struct {
	Record  Record
	Version uint64
}

// Store is the identifier-keyed geometry arena. Mutations follow a
// single-writer contract: one caller performs replace-by-identifier at a
// time, and the mutex makes each swap atomic, so readers holding a Snapshot
// never observe a partial write.
type Store struct {
	mu      sync.RWMutex
	entries map[ID]Entry
}

// New creates an empty store.
func New() *Store {
	return &Store{entries: make(map[ID]Entry)}
}

// Add validates the record, mints a fresh identifier, and inserts it.
func (s *Store) Add(r Record) (ID, error) {
	if err := ValidateRecord(r); err != nil {
		return "", fmt.Errorf("store: add: %w", err)
	}
	id := NewID()
	s.mu.Lock()
	s.entries[id] = Entry{Record: r, Version: 1}
	s.mu.Unlock()
	return id, nil
}

// Update replaces the record stored under id and bumps its version. The
// prior value is never mutated, so callers holding it keep a valid snapshot.
// Updating an absent id is an error.
func (s *Store) Update(id ID, r Record) error {
	if err := ValidateRecord(r); err != nil {
		return fmt.Errorf("store: update %s: %w", id.Short(), err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, ok := s.entries[id]
	if !ok {
		return fmt.Errorf("store: update %s: no such record", id.Short())
	}
	s.entries[id] = Entry{Record: r, Version: prev.Version + 1}
	return nil
}

// Remove deletes the record under id. It fails, leaving the store unchanged,
// when the id is absent or when another record (Extrusion profile/path,
// B-Rep surface/curve reference) still refers to it. Callers owning external
// scene graphs must run their own reference check before calling.
func (s *Store) Remove(id ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[id]; !ok {
		return fmt.Errorf("store: remove %s: no such record", id.Short())
	}
	if refID, ok := s.findReferrer(id); ok {
		return fmt.Errorf("store: remove %s: still referenced by %s", id.Short(), refID.Short())
	}
	delete(s.entries, id)
	return nil
}

// findReferrer scans for a record holding a weak reference to id.
// Callers must hold at least a read lock.
func (s *Store) findReferrer(id ID) (ID, bool) {
	for rid, e := range s.entries {
		switch rec := e.Record.(type) {
		case Extrusion:
			if rec.Profile == id || rec.Path == id {
				return rid, true
			}
		case BRep:
			for _, f := range rec.Faces {
				if f.Surface == id {
					return rid, true
				}
			}
			for _, edge := range rec.Edges {
				if edge.Curve == id {
					return rid, true
				}
			}
		}
	}
	return "", false
}

// Get returns the record under id.
func (s *Store) Get(id ID) (Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[id]
	return e.Record, ok
}

// GetEntry returns the record and its version counter.
func (s *Store) GetEntry(id ID) (Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[id]
	return e, ok
}

// Version returns the version counter of id, or 0 when absent.
func (s *Store) Version(id ID) uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.entries[id].Version
}

// Len returns the number of records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Snapshot returns an immutable view of the current entries. Records are
// immutable values, so the shallow copy is a consistent point-in-time view
// that later store mutations cannot disturb.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entries := make(map[ID]Entry, len(s.entries))
	for id, e := range s.entries {
		entries[id] = e
	}
	return Snapshot{entries: entries}
}

// Snapshot is a point-in-time read-only view of the store.
type Snapshot struct {
	entries map[ID]Entry
}

// Get returns the record under id at snapshot time.
func (sn Snapshot) Get(id ID) (Record, bool) {
	e, ok := sn.entries[id]
	return e.Record, ok
}

// Version returns the version of id at snapshot time, or 0 when absent.
func (sn Snapshot) Version(id ID) uint64 {
	return sn.entries[id].Version
}

// Len returns the number of records in the snapshot.
func (sn Snapshot) Len() int { return len(sn.entries) }

// Each calls fn for every entry; iteration order is unspecified.
func (sn Snapshot) Each(fn func(ID, Entry)) {
	for id, e := range sn.entries {
		fn(id, e)
	}
}
