package update

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bartolli/codanna-go/internal/config"
	"github.com/bartolli/codanna-go/internal/pipeline"
)

const fixtureSource = `package fixture

// Greeter says hello.
type Greeter struct {
	Name string
}

// Greet returns a greeting for g.
func (g *Greeter) Greet() string {
	return hello(g.Name)
}

func hello(name string) string {
	return "hello, " + name
}
`

func newTestConfig(root string) *config.Config {
	cfg := config.DefaultConfig()
	cfg.Project.Root = root
	cfg.Pipeline.ParallelWorkers = 2
	cfg.Pipeline.RespectGitignore = false
	cfg.IVFFlat.K = 1
	return cfg
}

func TestCoordinator_UpdateFileTracksStatsWithoutCrossingThreshold(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "main.go")
	require.NoError(t, os.WriteFile(path, []byte(fixtureSource), 0o644))

	cfg := newTestConfig(root)
	vectorDir := t.TempDir()
	p := pipeline.New(cfg, vectorDir)
	c := New(p, cfg, vectorDir, 1000)

	_, err := c.UpdateFile(context.Background(), path)
	require.NoError(t, err)

	st := c.Stats()
	assert.Equal(t, 1, st.FilesUpdated)
	assert.Greater(t, st.Added, 0)
	assert.Equal(t, 0, st.Rebuilds)
}

func TestCoordinator_UpdateFileTriggersRebuildPastThreshold(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "main.go")
	require.NoError(t, os.WriteFile(path, []byte(fixtureSource), 0o644))

	cfg := newTestConfig(root)
	vectorDir := t.TempDir()
	p := pipeline.New(cfg, vectorDir)
	c := New(p, cfg, vectorDir, 1)

	_, err := c.UpdateFile(context.Background(), path)
	require.NoError(t, err)

	st := c.Stats()
	assert.Equal(t, 1, st.Rebuilds)
	assert.FileExists(t, filepath.Join(vectorDir, "ivfflat.idx"))
}

func TestCoordinator_RemoveFileTracksStats(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "main.go")
	require.NoError(t, os.WriteFile(path, []byte(fixtureSource), 0o644))

	cfg := newTestConfig(root)
	p := pipeline.New(cfg, t.TempDir())
	c := New(p, cfg, t.TempDir(), 1000)

	_, err := c.UpdateFile(context.Background(), path)
	require.NoError(t, err)

	require.NoError(t, c.RemoveFile(path))
	assert.Equal(t, 1, c.Stats().FilesRemoved)
}

func TestCoordinator_ForceRebuildResetsCounter(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "main.go")
	require.NoError(t, os.WriteFile(path, []byte(fixtureSource), 0o644))

	cfg := newTestConfig(root)
	vectorDir := t.TempDir()
	p := pipeline.New(cfg, vectorDir)
	c := New(p, cfg, vectorDir, 1000)

	_, err := c.UpdateFile(context.Background(), path)
	require.NoError(t, err)

	idx, err := c.ForceRebuild()
	require.NoError(t, err)
	assert.NotNil(t, idx)
	assert.Equal(t, 1, c.Stats().Rebuilds)
}

func TestNew_ZeroThresholdDefaultsFromIVFFlatK(t *testing.T) {
	cfg := newTestConfig(t.TempDir())
	cfg.IVFFlat.K = 20
	p := pipeline.New(cfg, t.TempDir())
	c := New(p, cfg, t.TempDir(), 0)
	assert.Equal(t, 1000, c.rebuildThreshold)
}
