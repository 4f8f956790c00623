package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectBuildOutputs_NodePackageJSON(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "package.json"), []byte(`{"config":{"outDir":"lib"}}`), 0o644))

	patterns := DetectBuildOutputs(dir)
	assert.Contains(t, patterns, "**/lib/**")
}

func TestDetectBuildOutputs_CargoToml(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Cargo.toml"), []byte("[build]\ntarget-dir = \"out\"\n"), 0o644))

	patterns := DetectBuildOutputs(dir)
	assert.Contains(t, patterns, "**/out/**")
}

func TestDetectBuildOutputs_NoManifestsReturnsEmpty(t *testing.T) {
	dir := t.TempDir()
	assert.Empty(t, DetectBuildOutputs(dir))
}
