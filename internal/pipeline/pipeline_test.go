package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bartolli/codanna-go/internal/config"
	"github.com/bartolli/codanna-go/internal/symbol"
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

func main() {
	g := &Greeter{Name: "world"}
	println(g.Greet())
}
`

func newTestPipelineConfig(root string) *config.Config {
	cfg := config.DefaultConfig()
	cfg.Project.Root = root
	cfg.Pipeline.ParallelWorkers = 2
	cfg.Pipeline.RespectGitignore = false
	cfg.IVFFlat.K = 1
	return cfg
}

func TestPipeline_RunIndexesASmallGoProject(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "main.go"), []byte(fixtureSource), 0o644))

	cfg := newTestPipelineConfig(root)
	vectorDir := t.TempDir()
	p := New(cfg, vectorDir)

	result, err := p.Run(context.Background(), root, nil)
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.Equal(t, 1, result.FilesIndexed)
	assert.Equal(t, 0, result.FilesSkipped)
	assert.Empty(t, result.Errors)
	assert.Greater(t, result.SymbolsCommitted, 0)

	var names []string
	p.Symbols.Range(func(s *symbol.Symbol) bool {
		names = append(names, s.Name)
		return true
	})
	assert.Contains(t, names, "Greeter")
	assert.Contains(t, names, "hello")
	assert.Contains(t, names, "main")
}

func TestPipeline_RunSkipsBinaryFiles(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "main.go"), []byte(fixtureSource), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "image.png"), []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}, 0o644))

	cfg := newTestPipelineConfig(root)
	p := New(cfg, t.TempDir())

	result, err := p.Run(context.Background(), root, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, result.FilesIndexed)
}

func TestPipeline_BuildIVFFlatPersistsIndexFile(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "main.go"), []byte(fixtureSource), 0o644))

	cfg := newTestPipelineConfig(root)
	vectorDir := t.TempDir()
	p := New(cfg, vectorDir)

	_, err := p.Run(context.Background(), root, nil)
	require.NoError(t, err)

	idx, err := p.BuildIVFFlat(vectorDir)
	require.NoError(t, err)
	assert.NotNil(t, idx)
	assert.FileExists(t, filepath.Join(vectorDir, "ivfflat.idx"))
}
