package symbol

import (
	"sync"
	"sync/atomic"

	"github.com/bartolli/codanna-go/internal/ids"
)

// snapshot is the immutable symbol table readers see. A new snapshot is
// built and atomically swapped in on every write; readers never see a
// partially-updated table, satisfying spec §5's "reader opened at time T
// sees exactly the committed state at T" guarantee for the symbol table.
type snapshot struct {
	byID  map[ids.SymbolId]*Symbol
	order []ids.SymbolId // insertion order, for deterministic Range
}

func emptySnapshot() *snapshot {
	return &snapshot{byID: make(map[ids.SymbolId]*Symbol)}
}

// Store is the SymbolStore from spec §2/§3: it exclusively owns symbol
// records. Reads are lock-free against the current snapshot (append-only,
// copy-on-grow, per spec §5); writes are serialized behind writeMu, which
// stands in for "behind the index writer" since Store has no separate
// text-index component of its own.
type Store struct {
	snap atomic.Pointer[snapshot]

	writeMu sync.Mutex

	relMu sync.RWMutex
	// forward[from] holds every relationship whose From == from; the
	// inverse is always also stored under forward[to] so traversal in
	// either direction is a single map lookup (spec §3's relationship
	// inverse invariant, maintained atomically by Store.AddRelationship).
	forward map[ids.SymbolId][]Relationship

	fileMu   sync.RWMutex
	files    map[ids.FileId]*FileRecord
	imports  map[ids.FileId][]Import
}

// NewStore creates an empty SymbolStore.
func NewStore() *Store {
	s := &Store{
		forward: make(map[ids.SymbolId][]Relationship),
		files:   make(map[ids.FileId]*FileRecord),
		imports: make(map[ids.FileId][]Import),
	}
	s.snap.Store(emptySnapshot())
	return s
}

// Get returns the symbol for id, or nil if absent. Lock-free.
func (s *Store) Get(id ids.SymbolId) *Symbol {
	return s.snap.Load().byID[id]
}

// Range iterates every live symbol in insertion order. The callback
// receives a snapshot-stable pointer; mutating the pointee is a caller
// bug (symbols are immutable after commit per spec §3's lifecycle note).
func (s *Store) Range(fn func(*Symbol) bool) {
	snap := s.snap.Load()
	for _, id := range snap.order {
		if sym, ok := snap.byID[id]; ok {
			if !fn(sym) {
				return
			}
		}
	}
}

// Len returns the number of live symbols.
func (s *Store) Len() int {
	return len(s.snap.Load().byID)
}

// Put inserts or replaces a symbol, building a new snapshot and
// atomically publishing it. Symbols are immutable after the pipeline's
// commit step calls this once per symbol; UpdateCoordinator calls it
// again only as part of a file's Modified/Added diff.
func (s *Store) Put(sym *Symbol) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	old := s.snap.Load()
	next := &snapshot{
		byID:  make(map[ids.SymbolId]*Symbol, len(old.byID)+1),
		order: make([]ids.SymbolId, 0, len(old.order)+1),
	}
	for id, v := range old.byID {
		next.byID[id] = v
	}
	_, existed := old.byID[sym.ID]
	for _, id := range old.order {
		next.order = append(next.order, id)
	}
	if !existed {
		next.order = append(next.order, sym.ID)
	}
	next.byID[sym.ID] = sym
	s.snap.Store(next)
}

// PutAll inserts a batch of symbols as a single atomic publish — the
// per-file commit boundary from spec §4.5/§5: "all of a file's symbols
// appear together or none do".
func (s *Store) PutAll(syms []*Symbol) {
	if len(syms) == 0 {
		return
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	old := s.snap.Load()
	next := &snapshot{
		byID:  make(map[ids.SymbolId]*Symbol, len(old.byID)+len(syms)),
		order: make([]ids.SymbolId, 0, len(old.order)+len(syms)),
	}
	for id, v := range old.byID {
		next.byID[id] = v
	}
	next.order = append(next.order, old.order...)
	for _, sym := range syms {
		if _, existed := next.byID[sym.ID]; !existed {
			next.order = append(next.order, sym.ID)
		}
		next.byID[sym.ID] = sym
	}
	s.snap.Store(next)
}

// Delete removes a symbol (used only as part of a file-update diff, per
// spec §3's lifecycle: "deleted only as part of a file update diff").
func (s *Store) Delete(id ids.SymbolId) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	old := s.snap.Load()
	if _, ok := old.byID[id]; !ok {
		return
	}
	next := &snapshot{
		byID:  make(map[ids.SymbolId]*Symbol, len(old.byID)),
		order: make([]ids.SymbolId, 0, len(old.order)),
	}
	for sid, v := range old.byID {
		if sid == id {
			continue
		}
		next.byID[sid] = v
	}
	for _, sid := range old.order {
		if sid != id {
			next.order = append(next.order, sid)
		}
	}
	s.snap.Store(next)

	s.relMu.Lock()
	delete(s.forward, id)
	for other, rels := range s.forward {
		kept := rels[:0]
		for _, r := range rels {
			if r.To != id {
				kept = append(kept, r)
			}
		}
		s.forward[other] = kept
	}
	s.relMu.Unlock()
}

// AddRelationship records (from, kind, to) and its inverse atomically:
// both directions become visible to readers together, or neither does
// (spec §3's relationship-inverse invariant).
func (s *Store) AddRelationship(r Relationship) {
	inv := r.Inverse()
	s.relMu.Lock()
	defer s.relMu.Unlock()
	s.forward[r.From] = append(s.forward[r.From], r)
	s.forward[inv.From] = append(s.forward[inv.From], inv)
}

// Relationships returns every relationship whose From == id (which, by
// the inverse invariant, includes the inverse of every edge pointing at
// id from elsewhere).
func (s *Store) Relationships(id ids.SymbolId) []Relationship {
	s.relMu.RLock()
	defer s.relMu.RUnlock()
	out := make([]Relationship, len(s.forward[id]))
	copy(out, s.forward[id])
	return out
}

// RelationshipsOfKind filters Relationships(id) to a single kind.
func (s *Store) RelationshipsOfKind(id ids.SymbolId, kind RelationshipKind) []Relationship {
	var out []Relationship
	for _, r := range s.Relationships(id) {
		if r.Kind == kind {
			out = append(out, r)
		}
	}
	return out
}

// PutFile records or updates a file's metadata.
func (s *Store) PutFile(f *FileRecord) {
	s.fileMu.Lock()
	defer s.fileMu.Unlock()
	s.files[f.FileID] = f
}

// File returns the file record for id, or nil.
func (s *Store) File(id ids.FileId) *FileRecord {
	s.fileMu.RLock()
	defer s.fileMu.RUnlock()
	return s.files[id]
}

// SetImports replaces the stored imports for a file (import paths are
// stored as-written, per spec §3; normalization happens in
// internal/langbehavior).
func (s *Store) SetImports(file ids.FileId, imps []Import) {
	s.fileMu.Lock()
	defer s.fileMu.Unlock()
	s.imports[file] = imps
}

// Imports returns the imports recorded for a file.
func (s *Store) Imports(file ids.FileId) []Import {
	s.fileMu.RLock()
	defer s.fileMu.RUnlock()
	return s.imports[file]
}

// SymbolsInFile returns every symbol whose FileID == file, in source
// order (Range() already iterates in insertion/commit order, which is
// source order within a file per spec §4.5).
func (s *Store) SymbolsInFile(file ids.FileId) []*Symbol {
	var out []*Symbol
	s.Range(func(sym *Symbol) bool {
		if sym.FileID == file {
			out = append(out, sym)
		}
		return true
	})
	return out
}

// ByName returns every live symbol with the given name (name is not
// unique: overloads, same-named methods on different types, etc.).
func (s *Store) ByName(name string) []*Symbol {
	var out []*Symbol
	s.Range(func(sym *Symbol) bool {
		if sym.Name == name {
			out = append(out, sym)
		}
		return true
	})
	return out
}
