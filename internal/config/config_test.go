package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig_IsValid(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Project.Root = "/tmp/project"
	require.NoError(t, Validate(cfg))
}

func TestLoad_FallsBackToDefaultsWithoutKDLFile(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "codanna", cfg.Project.Name)
	assert.NotEmpty(t, cfg.Exclude)
}

func TestLoad_ParsesCodannaKDL(t *testing.T) {
	dir := t.TempDir()
	kdl := `project {
    name "myproj"
}
pipeline {
    parallel_workers 4
    batch_size 32
}
ivfflat {
    k 128
    nprobe 16
}
exclude {
    "**/fixtures/**"
}
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".codanna.kdl"), []byte(kdl), 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "myproj", cfg.Project.Name)
	assert.Equal(t, 4, cfg.Pipeline.ParallelWorkers)
	assert.Equal(t, 32, cfg.Pipeline.BatchSize)
	assert.Equal(t, 128, cfg.IVFFlat.K)
	assert.Equal(t, 16, cfg.IVFFlat.NProbe)
	assert.Contains(t, cfg.Exclude, "**/fixtures/**")
}

func TestMergeConfigs_UnionsExclusionsProjectWinsElsewhere(t *testing.T) {
	base := DefaultConfig()
	base.Exclude = []string{"**/base-only/**", "**/shared/**"}

	project := DefaultConfig()
	project.Project.Name = "project-name"
	project.Exclude = []string{"**/shared/**", "**/project-only/**"}

	merged := mergeConfigs(base, project)
	assert.Equal(t, "project-name", merged.Project.Name)
	assert.ElementsMatch(t, []string{"**/base-only/**", "**/shared/**", "**/project-only/**"}, merged.Exclude)
}

func TestValidate_RejectsBadIVFFlatParams(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Project.Root = "/tmp/project"
	cfg.IVFFlat.NProbe = cfg.IVFFlat.K + 1

	err := Validate(cfg)
	assert.Error(t, err)
}

func TestValidate_FillsWorkerCountDefault(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Project.Root = "/tmp/project"
	cfg.Pipeline.ParallelWorkers = 0

	require.NoError(t, Validate(cfg))
	assert.Greater(t, cfg.Pipeline.ParallelWorkers, 0)
}
