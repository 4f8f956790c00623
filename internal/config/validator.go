package config

import (
	"fmt"

	"github.com/bartolli/codanna-go/internal/errs"
)

// Validate checks range invariants and fills in the cores-minus-one
// smart defaults the teacher's own validator applies, returning a typed
// config error (spec §7, exit code 6) on the first violation.
func Validate(cfg *Config) error {
	if cfg.Project.Root == "" {
		return errs.Config("validate", fmt.Errorf("project root cannot be empty"))
	}
	if cfg.Pipeline.MaxFileSize <= 0 {
		return errs.Config("validate", fmt.Errorf("pipeline.max_file_size must be positive, got %d", cfg.Pipeline.MaxFileSize))
	}
	if cfg.Pipeline.MaxFileCount <= 0 {
		return errs.Config("validate", fmt.Errorf("pipeline.max_file_count must be positive, got %d", cfg.Pipeline.MaxFileCount))
	}
	if cfg.Pipeline.ParallelWorkers < 0 {
		return errs.Config("validate", fmt.Errorf("pipeline.parallel_workers cannot be negative, got %d", cfg.Pipeline.ParallelWorkers))
	}
	if cfg.Pipeline.BatchSize <= 0 {
		return errs.Config("validate", fmt.Errorf("pipeline.batch_size must be positive, got %d", cfg.Pipeline.BatchSize))
	}

	if cfg.IVFFlat.K <= 0 {
		return errs.Config("validate", fmt.Errorf("ivfflat.k must be positive, got %d", cfg.IVFFlat.K))
	}
	if cfg.IVFFlat.NProbe <= 0 || cfg.IVFFlat.NProbe > cfg.IVFFlat.K {
		return errs.Config("validate", fmt.Errorf("ivfflat.nprobe must be in [1, k=%d], got %d", cfg.IVFFlat.K, cfg.IVFFlat.NProbe))
	}

	if cfg.Embedder.Dimension <= 0 {
		return errs.Config("validate", fmt.Errorf("embedder.dimension must be positive, got %d", cfg.Embedder.Dimension))
	}

	if cfg.Query.HybridRRFK <= 0 {
		return errs.Config("validate", fmt.Errorf("query.hybrid_rrf_k must be positive, got %d", cfg.Query.HybridRRFK))
	}

	cfg.Pipeline.ParallelWorkers = resolveWorkerCount(cfg.Pipeline.ParallelWorkers)
	return nil
}
