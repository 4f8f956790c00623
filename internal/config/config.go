// Package config loads the `.codanna.kdl` project file (spec's ambient
// configuration layer): defaults, then a project-root file, merged the
// same two-phase way the teacher's internal/config does (project
// overrides the user's `~/.codanna.kdl`, but the user file's exclusions
// are preserved alongside the project's own).
package config

import (
	"os"
	"path/filepath"
	"runtime"
)

// Config is the full resolved project configuration.
type Config struct {
	Version  int
	Project  Project
	Pipeline Pipeline
	IVFFlat  IVFFlat
	Embedder Embedder
	Query    Query
	Include  []string
	Exclude  []string
}

// Project names the root directory being indexed.
type Project struct {
	Root string
	Name string
}

// Pipeline controls the indexing pipeline's concurrency and file limits
// (spec §5's "pipeline pool sized to a configurable degree").
type Pipeline struct {
	MaxFileSize      int64
	MaxFileCount     int
	ParallelWorkers  int // 0 = auto-detect (NumCPU - 1)
	BatchSize        int // files per embed-stage batch
	EmbedTimeoutMs   int // per-request embedder timeout, spec §5
	RespectGitignore bool
	WatchMode        bool
	WatchDebounceMs  int
}

// IVFFlat mirrors the build/probe parameters from spec §4.6.
type IVFFlat struct {
	K         int
	NProbe    int
	MaxIter   int
	Tolerance float64
}

// Embedder configures the (external) embedding model the pipeline calls
// during the embed stage.
type Embedder struct {
	Model     string
	Dimension int
}

// Query configures QueryEngine defaults (spec §4.9).
type Query struct {
	DefaultK      int
	HybridRRFK    int // the "k" constant in RRF's 1/(k+rank) fusion
	FuzzyMaxEdits int
}

// Load resolves configuration for projectRoot, falling back to defaults
// when no `.codanna.kdl` file exists anywhere in the search chain.
func Load(projectRoot string) (*Config, error) {
	var base *Config
	if home, err := os.UserHomeDir(); err == nil {
		if homeCfg, err := LoadKDL(home); err == nil && homeCfg != nil {
			base = homeCfg
		}
	}

	project, err := LoadKDL(projectRoot)
	if err != nil {
		return nil, err
	}

	var cfg *Config
	switch {
	case base != nil && project != nil:
		cfg = mergeConfigs(base, project)
	case project != nil:
		cfg = project
	case base != nil:
		base.Project.Root = projectRoot
		cfg = base
	default:
		cfg = DefaultConfig()
		abs, err := filepath.Abs(projectRoot)
		if err == nil {
			cfg.Project.Root = abs
		} else {
			cfg.Project.Root = projectRoot
		}
	}

	cfg.Exclude = append(cfg.Exclude, DetectBuildOutputs(cfg.Project.Root)...)
	return cfg, nil
}

// DefaultConfig is the configuration used when no `.codanna.kdl` file is
// found anywhere in the search chain.
func DefaultConfig() *Config {
	return &Config{
		Version: 1,
		Project: Project{Name: "codanna"},
		Pipeline: Pipeline{
			MaxFileSize:      10 * 1024 * 1024,
			MaxFileCount:     50000,
			ParallelWorkers:  0,
			BatchSize:        64,
			EmbedTimeoutMs:   30000,
			RespectGitignore: true,
			WatchMode:        false,
			WatchDebounceMs:  300,
		},
		IVFFlat: IVFFlat{
			K:         64,
			NProbe:    8,
			MaxIter:   25,
			Tolerance: 1e-4,
		},
		Embedder: Embedder{
			Model:     "default",
			Dimension: 384,
		},
		Query: Query{
			DefaultK:      10,
			HybridRRFK:    60,
			FuzzyMaxEdits: 2,
		},
		Include: []string{},
		Exclude: defaultExclusions(),
	}
}

// mergeConfigs merges a base (e.g. user-global) config with a
// project-specific one; the project wins everywhere except exclusions,
// where the two sets are unioned so a user-global exclusion is never
// silently dropped by a project file that doesn't repeat it.
func mergeConfigs(base, project *Config) *Config {
	merged := *project

	if len(base.Exclude) > 0 {
		seen := make(map[string]struct{}, len(base.Exclude)+len(project.Exclude))
		merged.Exclude = merged.Exclude[:0]
		for _, pattern := range append(append([]string{}, base.Exclude...), project.Exclude...) {
			if _, ok := seen[pattern]; ok {
				continue
			}
			seen[pattern] = struct{}{}
			merged.Exclude = append(merged.Exclude, pattern)
		}
	}

	if len(project.Include) == 0 && len(base.Include) > 0 {
		merged.Include = base.Include
	}

	return &merged
}

// resolveWorkerCount applies the cores-minus-one smart default used
// throughout the teacher's performance config.
func resolveWorkerCount(configured int) int {
	if configured > 0 {
		return configured
	}
	return max(1, runtime.NumCPU()-1)
}

func defaultExclusions() []string {
	return []string{
		"**/.git/**",
		"**/.*/**",
		"**/node_modules/**",
		"**/vendor/**",
		"**/dist/**",
		"**/build/**",
		"**/out/**",
		"**/target/**",
		"**/bin/**",
		"**/obj/**",
		"**/*_test.go",
		"**/*.test.ts",
		"**/*.test.js",
		"**/*.spec.ts",
		"**/*.spec.js",
		"**/test/**",
		"**/tests/**",
		"**/testdata/**",
		"**/__pycache__/**",
		"**/*.pyc",
	}
}
