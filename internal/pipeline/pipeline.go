// Package pipeline implements IndexingPipeline (spec §4.5): a staged,
// bounded-concurrency walk from raw files to committed text + vector
// indices. Grounded on the teacher's internal/indexing package (its
// FileScanner/FileProcessor staged design, pipeline_types.go's
// doublestar-based include/exclude, debounced_rebuilder.go's debounce
// timer for watch mode) but restructured around golang.org/x/sync/errgroup
// for the worker pool rather than the teacher's hand-rolled
// channel-retry-with-backoff loops, since errgroup already gives
// cooperative cancellation and first-error propagation without that
// bookkeeping.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/bartolli/codanna-go/internal/config"
	"github.com/bartolli/codanna-go/internal/docindex"
	"github.com/bartolli/codanna-go/internal/embed"
	"github.com/bartolli/codanna-go/internal/errs"
	"github.com/bartolli/codanna-go/internal/ids"
	"github.com/bartolli/codanna-go/internal/ivfflat"
	"github.com/bartolli/codanna-go/internal/langbehavior"
	"github.com/bartolli/codanna-go/internal/langparser"
	"github.com/bartolli/codanna-go/internal/progress"
	"github.com/bartolli/codanna-go/internal/symbol"
	"github.com/bartolli/codanna-go/internal/vectorstore"
)

// symbolIDBlockSize is the id-space reserved per file's parse worker so
// concurrent workers can allocate SymbolIds from independent
// ids.Counter[uint64] instances without a shared lock (spec §3's stable,
// non-reused id requirement; see resolveRelationships for the block
// reserved for externally-stubbed symbols).
const symbolIDBlockSize = 1_000_000

// Pipeline owns the indexing run's shared, long-lived state: the symbol
// table, text index, and vector store every run commits into, plus the
// language registries and embedder used to populate them.
type Pipeline struct {
	cfg       *config.Config
	parsers   *langparser.Registry
	behaviors *langbehavior.Registry
	embedder  embed.Provider

	Symbols *symbol.Store
	Docs    *docindex.Index
	Vectors *vectorstore.Store

	vectorCounter *ids.Counter[uint64]
	fileCounter   *ids.Counter[uint32]
	segmentID     ids.SegmentId

	// mu guards the bookkeeping below, plus every UpdateFile/RemoveFile
	// call (internal/update.Coordinator holds one Pipeline per project
	// and serializes file-level updates through it, spec §4.7's
	// single-writer linearization requirement).
	mu            sync.Mutex
	filesByPath   map[string]ids.FileId
	docIDs        map[ids.SymbolId]docindex.DocId
	vectorSymbols map[ids.VectorId]ids.SymbolId
	updateCounter *ids.Counter[uint64]
}

// updateIDBlockStart reserves a SymbolId range far beyond anything a
// bulk Run could allocate (file-slot blocks are symbolIDBlockSize wide;
// no realistic project needs 10 million files in one generation) so
// ids minted by UpdateFile never collide with a concurrently-running or
// already-committed Run.
const updateIDBlockStart = symbolIDBlockSize * 10_000_000

// New builds a Pipeline over freshly created index components. Callers
// that need to share an existing Symbols/Docs/Vectors set (e.g. the
// update coordinator re-running a pipeline against a live index) should
// construct Pipeline directly instead.
func New(cfg *config.Config, vectorDir string) *Pipeline {
	return &Pipeline{
		cfg:           cfg,
		parsers:       langparser.NewRegistry(),
		behaviors:     langbehavior.NewRegistry(),
		embedder:      embed.New(embed.Config{Model: cfg.Embedder.Model, Dimension: cfg.Embedder.Dimension, Timeout: time.Duration(cfg.Pipeline.EmbedTimeoutMs) * time.Millisecond}),
		Symbols:       symbol.NewStore(),
		Docs:          docindex.New(),
		Vectors:       vectorstore.New(vectorDir),
		vectorCounter: ids.NewCounter[uint64](),
		fileCounter:   ids.NewCounter[uint32](),
		segmentID:     ids.SegmentId(1),
		filesByPath:   make(map[string]ids.FileId),
		docIDs:        make(map[ids.SymbolId]docindex.DocId),
		vectorSymbols: make(map[ids.VectorId]ids.SymbolId),
		updateCounter: func() *ids.Counter[uint64] {
			c := ids.NewCounter[uint64]()
			c.Reset(updateIDBlockStart)
			return c
		}(),
	}
}

// Result summarizes one Run.
type Result struct {
	FilesScanned  int
	FilesIndexed  int
	FilesSkipped  int
	SymbolsCommitted int
	Errors        []error
	Elapsed       time.Duration
}

// Run walks root end to end: scan, parse+configure, embed, commit, then
// resolve relationships and flush the vector segment to disk. It does not
// build the IVFFlat index; BuildIVFFlat does that. bars may be nil (no progress reporting, e.g.
// under test).
func (p *Pipeline) Run(ctx context.Context, root string, bars *progress.DualProgressBar) (*Result, error) {
	start := time.Now()

	gitignore, err := config.NewGitignoreMatcher(root)
	if err != nil {
		return nil, errs.IO("pipeline.Run: load gitignore", root, err)
	}

	taskBuf, parsedBuf := channelBuffers()
	taskChan := make(chan task, taskBuf)
	parsedChan := make(chan parsed, parsedBuf)

	sc := newScanner(p.cfg, gitignore, p.parsers)

	group, gctx := errgroup.WithContext(ctx)
	group.Go(func() error { return sc.scan(gctx, root, taskChan) })

	workers := p.cfg.Pipeline.ParallelWorkers
	if workers <= 0 {
		workers = max(1, runtime.NumCPU()-1)
	}

	var fileIndex int
	var fileIndexMu sync.Mutex
	nextFileSlot := func() (ids.FileId, int) {
		fileIndexMu.Lock()
		defer fileIndexMu.Unlock()
		slot := fileIndex
		fileIndex++
		return ids.FileId(p.fileCounter.Next()), slot
	}

	state := langbehavior.NewState()
	var stateMu sync.Mutex // guards State, which is not itself concurrency-safe

	for i := 0; i < workers; i++ {
		group.Go(func() error {
			counter := ids.NewCounter[uint64]()
			for {
				select {
				case <-gctx.Done():
					return gctx.Err()
				case t, ok := <-taskChan:
					if !ok {
						return nil
					}
					fileID, slot := nextFileSlot()
					counter.Reset(uint64(slot)*symbolIDBlockSize + 1)

					stateMu.Lock()
					pf := parseFile(t, fileID, p.parsers, p.behaviors, state, counter, root)
					stateMu.Unlock()

					if bars != nil {
						bars.Scan.Increment(t.RelPath)
					}

					select {
					case parsedChan <- pf:
					case <-gctx.Done():
						return gctx.Err()
					}
				}
			}
		})
	}

	go func() {
		_ = group.Wait() // errors surfacing here are picked up by the final group.Wait below
		close(parsedChan)
	}()

	result := &Result{}
	var allParsed []parsed
	for pf := range parsedChan {
		result.FilesScanned++
		if pf.err != nil {
			result.FilesSkipped++
			result.Errors = append(result.Errors, pf.err)
			if bars != nil {
				bars.Index.SetError(pf.err)
			}
			continue
		}
		if err := p.commitFile(ctx, pf); err != nil {
			result.FilesSkipped++
			result.Errors = append(result.Errors, err)
			if bars != nil {
				bars.Index.SetError(err)
			}
			continue
		}
		result.FilesIndexed++
		result.SymbolsCommitted += len(pf.symbols)
		allParsed = append(allParsed, pf)
		if bars != nil {
			bars.Index.Increment(pf.task.RelPath)
		}
	}

	if err := group.Wait(); err != nil && err != context.Canceled {
		return result, errs.Index("pipeline.Run: scan/parse", err)
	}

	externalCounter := ids.NewCounter[uint64]()
	externalCounter.Reset(uint64(fileIndex+1) * symbolIDBlockSize)
	resolveRelationships(p.Symbols, p.behaviors, allParsed, externalCounter)

	if err := p.Vectors.Flush(p.segmentID); err != nil {
		return result, errs.Vector("pipeline.Run: flush vectors", err)
	}

	if bars != nil {
		bars.Scan.Finish()
		bars.Index.Finish()
	}

	result.Elapsed = time.Since(start)
	return result, nil
}

// commitFile embeds and writes a single file's symbols into the text and
// vector indices, and then the symbol table. A symbol whose embedding (or
// vector append) fails gets no vector and no document but is still stored
// in the symbol table with the rest of the file; commitFile itself never
// returns an error.
func (p *Pipeline) commitFile(ctx context.Context, pf parsed) error {
	seg := p.Vectors.Segment(p.segmentID)
	if seg == nil {
		seg = p.Vectors.CreateSegment(p.segmentID, p.embedder.Dimension())
	}

	for _, sym := range pf.symbols {
		text := embedText(sym)
		vec, err := p.embedWithRetry(ctx, text)
		if err != nil {
			continue // spec §5: failed embeds are skipped, not fatal to the commit
		}

		vectorID := ids.VectorId(p.vectorCounter.Next())
		cluster := ids.ClusterId(0) // reassigned once IVFFlatIndex.Build runs over the full set
		if err := seg.Append(vectorID, cluster, vec); err != nil {
			continue
		}

		docID := p.Docs.Put(docindex.Doc{
			SymbolID:  sym.ID,
			Name:      sym.Name,
			Signature: sym.Signature,
			DocText:   sym.DocComment,
			ClusterID: cluster,
			HasVector: true,
		})

		p.mu.Lock()
		p.docIDs[sym.ID] = docID
		p.vectorSymbols[vectorID] = sym.ID
		p.mu.Unlock()
	}

	p.Symbols.PutAll(pf.symbols)
	p.Symbols.PutFile(&symbol.FileRecord{
		FileID:      pf.fileID,
		Path:        pf.task.Path,
		ContentHash: pf.contentHash,
		Timestamp:   statTime(time.Now()),
		LanguageID:  pf.task.Language,
	})
	p.Symbols.SetImports(pf.fileID, pf.imports)

	p.mu.Lock()
	p.filesByPath[pf.task.Path] = pf.fileID
	p.mu.Unlock()
	return nil
}

// embedWithRetry applies spec §5's "embedder calls have a configurable
// per-request timeout; on timeout the batch is retried once, then its
// items are marked skipped".
func (p *Pipeline) embedWithRetry(ctx context.Context, text string) ([]float32, error) {
	timeout := time.Duration(p.cfg.Pipeline.EmbedTimeoutMs) * time.Millisecond
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	for attempt := 0; attempt < 2; attempt++ {
		callCtx, cancel := context.WithTimeout(ctx, timeout)
		vec, err := p.embedder.Embed(callCtx, text)
		cancel()
		if err == nil {
			return vec, nil
		}
		if attempt == 1 {
			return nil, errs.Vector("pipeline.embedWithRetry", err)
		}
	}
	return nil, errs.Vector("pipeline.embedWithRetry", fmt.Errorf("unreachable"))
}

func embedText(sym *symbol.Symbol) string {
	if sym.DocComment != "" {
		return sym.Name + "\n" + sym.Signature + "\n" + sym.DocComment
	}
	return sym.Name + "\n" + sym.Signature
}

// BuildIVFFlat constructs the IVFFlatIndex over every vector in seg whose
// symbol is still live (vectors of removed symbols are left out) and atomically persists it to dir/ivfflat.idx (spec
// §4.6's deterministic, round-trippable serialization, written with the
// same temp-file-then-rename discipline as vectorstore.Store.Flush).
func (p *Pipeline) BuildIVFFlat(dir string) (*ivfflat.Index, error) {
	seg := p.Vectors.Segment(p.segmentID)
	if seg == nil {
		return nil, errs.Vector("pipeline.BuildIVFFlat", fmt.Errorf("no segment %v", p.segmentID))
	}

	vecs := make(map[ids.VectorId][]float32)
	for id := ids.VectorId(1); id <= ids.VectorId(p.vectorCounter.Peek()); id++ {
		v := seg.Get(id)
		if v == nil {
			continue
		}
		if sid, ok := p.SymbolForVector(id); ok && p.Symbols.Get(sid) == nil {
			continue // stale: its symbol was removed by a later update
		}
		vecs[id] = v
	}
	if len(vecs) == 0 {
		return nil, errs.Vector("pipeline.BuildIVFFlat", fmt.Errorf("no vectors to cluster"))
	}

	k := p.cfg.IVFFlat.K
	if k > len(vecs) {
		k = len(vecs)
	}
	idx, err := ivfflat.Build(vecs, ivfflat.Config{
		K:         k,
		Dim:       p.embedder.Dimension(),
		MaxIter:   p.cfg.IVFFlat.MaxIter,
		Tolerance: p.cfg.IVFFlat.Tolerance,
	})
	if err != nil {
		return nil, err
	}

	path := filepath.Join(dir, "ivfflat.idx")
	if err := writeAtomic(path, idx.Marshal()); err != nil {
		return nil, errs.IO("pipeline.BuildIVFFlat: persist", path, err)
	}
	return idx, nil
}

// SymbolForVector resolves a VectorId (as returned by ivfflat.Result)
// back to the SymbolId it embeds, the lookup QueryEngine's semantic mode
// needs to materialize a probe result via Symbols. There is no reverse
// index on vectorstore.Segment itself — Segment only knows VectorId ->
// []float32 — so Pipeline keeps this alongside docIDs, populated at the
// same commit point.
func (p *Pipeline) SymbolForVector(id ids.VectorId) (ids.SymbolId, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	sid, ok := p.vectorSymbols[id]
	return sid, ok
}

// DocForSymbol resolves a SymbolId to the DocId docindex.Index holds for
// it, if any (symbols that failed to embed have none).
func (p *Pipeline) DocForSymbol(id ids.SymbolId) (docindex.DocId, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	did, ok := p.docIDs[id]
	return did, ok
}

// FileIDForPath resolves an indexed path to its stable FileId, used by
// QueryEngine's caller-context visibility gating.
func (p *Pipeline) FileIDForPath(path string) (ids.FileId, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fid, ok := p.filesByPath[path]
	return fid, ok
}

// Behaviors exposes the language-behavior registry so callers outside
// this package (QueryEngine's visibility gating) can resolve the
// Behavior for a symbol's language without Pipeline re-implementing that
// dispatch itself.
func (p *Pipeline) Behaviors() *langbehavior.Registry { return p.behaviors }

// Embedder exposes the configured embed.Provider so QueryEngine's
// semantic mode embeds a query string with the exact same provider
// (model, dimension) the indexed vectors were produced with.
func (p *Pipeline) Embedder() embed.Provider { return p.embedder }

// SegmentID exposes the vector segment this Pipeline commits into, so
// callers (the CLI's Flush-then-BuildIVFFlat sequence) don't need to
// hardcode the same constant New already picked.
func (p *Pipeline) SegmentID() ids.SegmentId { return p.segmentID }

func writeAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func channelBuffers() (taskBuf, parsedBuf int) {
	cpu := runtime.NumCPU()
	return max(cpu*8, 16), max(cpu*16, 32)
}
