package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/bartolli/codanna-go/internal/docindex"
	"github.com/bartolli/codanna-go/internal/errs"
	"github.com/bartolli/codanna-go/internal/ids"
	"github.com/bartolli/codanna-go/internal/symbol"
)

// ChangeKind classifies one symbol across an UpdateFile diff, the Go
// analogue of the ChangeType enum original_source/tests/vector_update_test.rs
// stubs out (Added/Removed/Modified), with Unchanged added explicitly
// since this implementation needs to count (not just skip) symbols that
// require no work.
type ChangeKind uint8

const (
	ChangeAdded ChangeKind = iota
	ChangeRemoved
	ChangeModified
	ChangeUnchanged
)

func (k ChangeKind) String() string {
	switch k {
	case ChangeAdded:
		return "added"
	case ChangeRemoved:
		return "removed"
	case ChangeModified:
		return "modified"
	case ChangeUnchanged:
		return "unchanged"
	default:
		return "unknown"
	}
}

// SymbolChange is one symbol's before/after state from an UpdateFile
// diff. Old is nil for Added, New is nil for Removed.
type SymbolChange struct {
	Name string
	Kind ChangeKind
	Old  *symbol.Symbol
	New  *symbol.Symbol
}

// UpdateStats summarizes one UpdateFile call. VectorsRegenerated counts
// only Added+Modified symbols, the "minimal re-embedding" spec §4.7
// calls for: Unchanged symbols keep their existing vector and document
// untouched.
type UpdateStats struct {
	Added              int
	Removed            int
	Modified           int
	Unchanged          int
	VectorsRegenerated int
}

// UpdateFile re-parses path and transactionally replaces its symbols in
// Symbols/Docs/Vectors with only the changed ones re-embedded. Mirrors
// the teacher's MasterIndex.UpdateFile (remove the file's old state,
// index the new content under the same FileId) but diffs by name plus
// content_hash first, so a symbol whose signature text is byte-identical
// never pays for a fresh embedding call.
//
// Every Added/Modified symbol is embedded before anything is written to
// Symbols/Docs/Vectors: embedding is the step most likely to fail (a
// slow or unreachable external provider), so a failure there aborts the
// call with no mutation at all, the all-or-nothing discipline
// vector_update_test.rs's rollback test exercises against its stub
// VectorUpdateTransaction.
func (p *Pipeline) UpdateFile(ctx context.Context, path string) (*UpdateStats, error) {
	content, err := readFile(path)
	if err != nil {
		return nil, errs.IO("pipeline.UpdateFile: read", path, err)
	}

	ext := filepath.Ext(path)
	parserImpl := p.parsers.ForExtension(ext)
	if parserImpl == nil {
		return nil, errs.Index("pipeline.UpdateFile", fmt.Errorf("no parser registered for extension %q", ext))
	}
	behavior := p.behaviors.For(parserImpl.Language())
	if behavior == nil {
		return nil, errs.Index("pipeline.UpdateFile", fmt.Errorf("no behavior registered for language %q", parserImpl.Language()))
	}

	p.mu.Lock()
	oldFileID, hadFile := p.filesByPath[path]
	p.mu.Unlock()

	var oldSymbols []*symbol.Symbol
	fileID := oldFileID
	if hadFile {
		oldSymbols = p.Symbols.SymbolsInFile(oldFileID)
	} else {
		fileID = ids.FileId(p.fileCounter.Next())
	}

	counter := ids.NewCounter[uint64]()
	p.mu.Lock()
	counter.Reset(p.updateCounter.Peek())
	syms, err := parserImpl.Parse(content, fileID, counter)
	if err == nil {
		p.updateCounter.Reset(counter.Peek())
	}
	p.mu.Unlock()
	if err != nil {
		return nil, errs.Index("pipeline.UpdateFile: parse", err)
	}

	modulePath, _ := behavior.ModulePathFromFile(path, p.cfg.Project.Root, parserImpl.Extensions())
	for _, s := range syms {
		s.LanguageID = parserImpl.Language()
		behavior.ConfigureSymbol(s, modulePath)
	}

	changes := diffSymbols(oldSymbols, syms)

	type staged struct {
		change SymbolChange
		vec    []float32
	}
	var toCommit []staged
	for _, ch := range changes {
		if ch.Kind != ChangeAdded && ch.Kind != ChangeModified {
			continue
		}
		vec, err := p.embedWithRetry(ctx, embedText(ch.New))
		if err != nil {
			return nil, errs.Vector("pipeline.UpdateFile: embed", err)
		}
		toCommit = append(toCommit, staged{change: ch, vec: vec})
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	seg := p.Vectors.Segment(p.segmentID)
	if seg == nil {
		seg = p.Vectors.CreateSegment(p.segmentID, p.embedder.Dimension())
	}

	stats := &UpdateStats{}
	for _, ch := range changes {
		switch ch.Kind {
		case ChangeRemoved:
			p.removeSymbolLocked(ch.Old)
			stats.Removed++
		case ChangeUnchanged:
			stats.Unchanged++
		}
	}
	for _, st := range toCommit {
		if st.change.Kind == ChangeModified {
			p.removeSymbolLocked(st.change.Old)
			stats.Modified++
		} else {
			stats.Added++
		}

		vectorID := ids.VectorId(p.vectorCounter.Next())
		if err := seg.Append(vectorID, ids.ClusterId(0), st.vec); err != nil {
			return nil, errs.Vector("pipeline.UpdateFile: append vector", err)
		}
		docID := p.Docs.Put(docindex.Doc{
			SymbolID:  st.change.New.ID,
			Name:      st.change.New.Name,
			Signature: st.change.New.Signature,
			DocText:   st.change.New.DocComment,
			ClusterID: ids.ClusterId(0),
			HasVector: true,
		})
		p.docIDs[st.change.New.ID] = docID
		p.vectorSymbols[vectorID] = st.change.New.ID
		p.Symbols.Put(st.change.New)
		stats.VectorsRegenerated++
	}

	p.Symbols.PutFile(&symbol.FileRecord{
		FileID:      fileID,
		Path:        path,
		ContentHash: xxhash.Sum64(content),
		Timestamp:   statTime(time.Now()),
		LanguageID:  parserImpl.Language(),
	})
	p.Symbols.SetImports(fileID, parserImpl.FindImports(content, fileID))
	p.filesByPath[path] = fileID

	return stats, nil
}

// RemoveFile deletes every symbol, document, and file record path
// previously committed for path. A path never indexed is a no-op,
// mirroring the teacher's RemoveFile.
func (p *Pipeline) RemoveFile(path string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	fileID, ok := p.filesByPath[path]
	if !ok {
		return nil
	}
	for _, s := range p.Symbols.SymbolsInFile(fileID) {
		p.removeSymbolLocked(s)
	}
	delete(p.filesByPath, path)
	return nil
}

// removeSymbolLocked drops a symbol from Symbols and, if it has one, its
// document from Docs. Callers must hold p.mu. There is no vector-segment
// removal: IVFFlatIndex.Build's next run is the compaction point, since
// vectorstore.Segment is append-only (matches the LSM-like segment
// discipline the teacher's own trigram/postings indices use — stale
// entries are filtered at query time, not eagerly compacted).
func (p *Pipeline) removeSymbolLocked(old *symbol.Symbol) {
	if old == nil {
		return
	}
	if docID, ok := p.docIDs[old.ID]; ok {
		p.Docs.Delete(docID)
		delete(p.docIDs, old.ID)
	}
	p.Symbols.Delete(old.ID)
}

// diffSymbols classifies every old/new symbol pair by name, the same
// shape vector_update_test.rs's SymbolChangeDetector uses (its Rust stub
// keys on symbol.name; content_hash here plays the role its
// symbols_are_identical helper does).
func diffSymbols(old, fresh []*symbol.Symbol) []SymbolChange {
	oldByName := make(map[string]*symbol.Symbol, len(old))
	for _, s := range old {
		oldByName[s.Name] = s
	}
	newByName := make(map[string]*symbol.Symbol, len(fresh))
	for _, s := range fresh {
		newByName[s.Name] = s
	}

	var changes []SymbolChange
	for name, o := range oldByName {
		if _, ok := newByName[name]; !ok {
			changes = append(changes, SymbolChange{Name: name, Kind: ChangeRemoved, Old: o})
		}
	}
	for name, n := range newByName {
		o, existed := oldByName[name]
		if !existed {
			changes = append(changes, SymbolChange{Name: name, Kind: ChangeAdded, New: n})
			continue
		}
		if symbol.ComputeContentHash(o.Name, o.Signature) != symbol.ComputeContentHash(n.Name, n.Signature) {
			changes = append(changes, SymbolChange{Name: name, Kind: ChangeModified, Old: o, New: n})
		} else {
			changes = append(changes, SymbolChange{Name: name, Kind: ChangeUnchanged, Old: o, New: n})
		}
	}
	return changes
}
