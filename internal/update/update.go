// Package update implements the incremental-update orchestration layer
// on top of internal/pipeline: per-file diff/commit already lives on
// Pipeline.UpdateFile/RemoveFile, so Coordinator's job is sequencing
// many file events from one source (a watch session, an explicit
// `codanna update` batch) and deciding when enough drift has
// accumulated to justify a full IVFFlat re-cluster. Grounded on the
// teacher's MasterIndex.handleFileChanged/handleWatchBatchStart +
// DebouncedRebuilder.ScheduleRebuild (internal/indexing/master_index.go,
// debounced_rebuilder.go): the teacher schedules a deferred rebuild per
// changed file; Coordinator generalizes that into a vector-count
// threshold so a burst of small edits triggers one re-cluster instead of
// one per file.
package update

import (
	"context"
	"sync"

	"github.com/bartolli/codanna-go/internal/config"
	"github.com/bartolli/codanna-go/internal/ivfflat"
	"github.com/bartolli/codanna-go/internal/pipeline"
)

// Coordinator routes UpdateFile/RemoveFile calls to one Pipeline and
// tracks their running Stats and re-cluster counter. The Pipeline calls
// themselves run outside Coordinator's lock (Pipeline commits each file
// under its own writer lock); Coordinator's lock guards only Stats and
// the counter, keeping them consistent across a debounced batch from
// watch mode, where the caller processes every changed path before
// deciding whether to rebuild.
type Coordinator struct {
	pipe *pipeline.Pipeline
	cfg  *config.Config

	mu               sync.Mutex
	vectorDir        string
	stats            Stats
	changedSinceBuild int
	rebuildThreshold  int
}

// Stats accumulates UpdateStats across every UpdateFile/RemoveFile call
// made through this Coordinator since it was created.
type Stats struct {
	FilesUpdated int
	FilesRemoved int
	pipeline.UpdateStats
	Rebuilds int
}

// New wraps pipe for sequenced incremental updates. vectorDir is where a
// triggered re-cluster persists ivfflat.idx (the same directory Pipeline
// itself writes vectors into). rebuildThreshold is the number of changed
// vectors (Added+Modified+Removed) accumulated before the next
// UpdateFile/RemoveFile call triggers a re-cluster; 0 picks a default
// scaled to the configured IVFFlat.K (spec §4.6 wants enough reassigned
// points per cluster to keep cluster quality from drifting, not a fixed
// global constant).
func New(pipe *pipeline.Pipeline, cfg *config.Config, vectorDir string, rebuildThreshold int) *Coordinator {
	if rebuildThreshold <= 0 {
		rebuildThreshold = max(cfg.IVFFlat.K*50, 500)
	}
	return &Coordinator{pipe: pipe, cfg: cfg, vectorDir: vectorDir, rebuildThreshold: rebuildThreshold}
}

// UpdateFile re-indexes path through the wrapped Pipeline and folds its
// UpdateStats into the running total. If the accumulated vector churn
// since the last re-cluster crosses rebuildThreshold, it rebuilds
// IVFFlat before returning (re-clustering is itself a commit-or-nothing
// operation: Pipeline.BuildIVFFlat only replaces ivfflat.idx once the
// new index is fully built, via the same write-temp-then-rename
// discipline as every other persisted artifact here).
func (c *Coordinator) UpdateFile(ctx context.Context, path string) (*pipeline.UpdateStats, error) {
	st, err := c.pipe.UpdateFile(ctx, path)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.stats.FilesUpdated++
	c.stats.Added += st.Added
	c.stats.Removed += st.Removed
	c.stats.Modified += st.Modified
	c.stats.Unchanged += st.Unchanged
	c.stats.VectorsRegenerated += st.VectorsRegenerated
	c.changedSinceBuild += st.Added + st.Modified + st.Removed

	if c.changedSinceBuild >= c.rebuildThreshold {
		if _, rebuildErr := c.pipe.BuildIVFFlat(c.vectorDir); rebuildErr != nil {
			return st, rebuildErr
		}
		c.stats.Rebuilds++
		c.changedSinceBuild = 0
	}

	return st, nil
}

// RemoveFile deletes path's symbols/documents through the wrapped
// Pipeline. Removed vectors count toward the rebuild threshold the same
// as UpdateFile's, since a deletion-heavy batch degrades cluster quality
// just as much as an addition-heavy one.
func (c *Coordinator) RemoveFile(path string) error {
	removed := 0
	if fileID, ok := c.pipe.FileIDForPath(path); ok {
		removed = len(c.pipe.Symbols.SymbolsInFile(fileID))
	}
	if err := c.pipe.RemoveFile(path); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stats.FilesRemoved++
	c.stats.Removed += removed
	c.changedSinceBuild += removed

	if c.changedSinceBuild >= c.rebuildThreshold {
		if _, rebuildErr := c.pipe.BuildIVFFlat(c.vectorDir); rebuildErr != nil {
			return rebuildErr
		}
		c.stats.Rebuilds++
		c.changedSinceBuild = 0
	}
	return nil
}

// Stats returns a snapshot of the cumulative counters.
func (c *Coordinator) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

// ForceRebuild re-clusters immediately regardless of the accumulated
// threshold, for callers that want an explicit, synchronous re-cluster
// rather than waiting for the next UpdateFile/RemoveFile call to cross it.
func (c *Coordinator) ForceRebuild() (*ivfflat.Index, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	idx, err := c.pipe.BuildIVFFlat(c.vectorDir)
	if err != nil {
		return nil, err
	}
	c.stats.Rebuilds++
	c.changedSinceBuild = 0
	return idx, nil
}
