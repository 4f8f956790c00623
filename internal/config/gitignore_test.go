package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeGitignore(t *testing.T, dir, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".gitignore"), []byte(content), 0o644))
}

func TestGitignoreMatcher_MatchesSimplePattern(t *testing.T) {
	dir := t.TempDir()
	writeGitignore(t, dir, "node_modules\n*.log\n")

	m, err := NewGitignoreMatcher(dir)
	require.NoError(t, err)

	assert.True(t, m.Match("node_modules/foo.js"))
	assert.True(t, m.Match("debug.log"))
	assert.False(t, m.Match("main.go"))
}

func TestGitignoreMatcher_DirectoryOnlyPattern(t *testing.T) {
	dir := t.TempDir()
	writeGitignore(t, dir, "build/\n")

	m, err := NewGitignoreMatcher(dir)
	require.NoError(t, err)

	assert.True(t, m.Match("build/output.bin"))
}

func TestGitignoreMatcher_NegationOverridesLaterMatch(t *testing.T) {
	dir := t.TempDir()
	writeGitignore(t, dir, "*.log\n!important.log\n")

	m, err := NewGitignoreMatcher(dir)
	require.NoError(t, err)

	assert.True(t, m.Match("debug.log"))
	assert.False(t, m.Match("important.log"))
}

func TestGitignoreMatcher_MissingFileMatchesNothing(t *testing.T) {
	dir := t.TempDir()
	m, err := NewGitignoreMatcher(dir)
	require.NoError(t, err)
	assert.False(t, m.Match("anything.go"))
}
