package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bartolli/codanna-go/internal/symbol"
)

func TestDiffSymbols_ClassifiesAddedRemovedModifiedUnchanged(t *testing.T) {
	old := []*symbol.Symbol{
		{ID: 1, Name: "keepMe", Signature: "func keepMe()"},
		{ID: 2, Name: "changeMe", Signature: "func changeMe(a int)"},
		{ID: 3, Name: "dropMe", Signature: "func dropMe()"},
	}
	fresh := []*symbol.Symbol{
		{ID: 10, Name: "keepMe", Signature: "func keepMe()"},
		{ID: 11, Name: "changeMe", Signature: "func changeMe(a, b int)"},
		{ID: 12, Name: "newOne", Signature: "func newOne()"},
	}

	changes := diffSymbols(old, fresh)

	byKind := map[ChangeKind]int{}
	for _, c := range changes {
		byKind[c.Kind]++
	}
	assert.Equal(t, 1, byKind[ChangeAdded])
	assert.Equal(t, 1, byKind[ChangeRemoved])
	assert.Equal(t, 1, byKind[ChangeModified])
	assert.Equal(t, 1, byKind[ChangeUnchanged])
}

func TestPipeline_UpdateFileOnFirstSeenActsLikeAnInitialIndex(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "main.go")
	require.NoError(t, os.WriteFile(path, []byte(fixtureSource), 0o644))

	cfg := newTestPipelineConfig(root)
	p := New(cfg, t.TempDir())

	stats, err := p.UpdateFile(context.Background(), path)
	require.NoError(t, err)
	assert.Greater(t, stats.Added, 0)
	assert.Equal(t, 0, stats.Modified)
	assert.Equal(t, 0, stats.Removed)
}

func TestPipeline_UpdateFileSkipsReembeddingUnchangedSymbols(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "main.go")
	require.NoError(t, os.WriteFile(path, []byte(fixtureSource), 0o644))

	cfg := newTestPipelineConfig(root)
	p := New(cfg, t.TempDir())

	_, err := p.UpdateFile(context.Background(), path)
	require.NoError(t, err)

	// Rewrite with one added function; every existing symbol's signature
	// text is untouched.
	updated := fixtureSource + "\nfunc extra() {}\n"
	require.NoError(t, os.WriteFile(path, []byte(updated), 0o644))

	stats, err := p.UpdateFile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Added)
	assert.Equal(t, 0, stats.Modified)
	assert.Equal(t, 0, stats.Removed)
	assert.Greater(t, stats.Unchanged, 0)
	assert.Equal(t, 1, stats.VectorsRegenerated)
}

func TestPipeline_RemoveFileDropsAllOfItsSymbols(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "main.go")
	require.NoError(t, os.WriteFile(path, []byte(fixtureSource), 0o644))

	cfg := newTestPipelineConfig(root)
	p := New(cfg, t.TempDir())

	_, err := p.UpdateFile(context.Background(), path)
	require.NoError(t, err)
	before := p.Symbols.Len()
	assert.Greater(t, before, 0)

	require.NoError(t, p.RemoveFile(path))
	assert.Equal(t, 0, p.Symbols.Len())
}

func TestPipeline_RemoveFileOnUnknownPathIsNoop(t *testing.T) {
	cfg := newTestPipelineConfig(t.TempDir())
	p := New(cfg, t.TempDir())
	assert.NoError(t, p.RemoveFile("/never/indexed.go"))
}
