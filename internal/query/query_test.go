package query

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bartolli/codanna-go/internal/config"
	"github.com/bartolli/codanna-go/internal/pipeline"
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

func newTestConfig(root string) *config.Config {
	cfg := config.DefaultConfig()
	cfg.Project.Root = root
	cfg.Pipeline.ParallelWorkers = 2
	cfg.Pipeline.RespectGitignore = false
	cfg.IVFFlat.K = 1
	cfg.IVFFlat.NProbe = 1
	cfg.Query.DefaultK = 10
	cfg.Query.HybridRRFK = 60
	cfg.Query.FuzzyMaxEdits = 2
	return cfg
}

func setupIndexedPipeline(t *testing.T) (*pipeline.Pipeline, *config.Config, string) {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "main.go"), []byte(fixtureSource), 0o644))

	cfg := newTestConfig(root)
	vectorDir := t.TempDir()
	p := pipeline.New(cfg, vectorDir)

	_, err := p.Run(context.Background(), root, nil)
	require.NoError(t, err)
	return p, cfg, vectorDir
}

func TestEngine_NameFindsExactMatch(t *testing.T) {
	p, cfg, _ := setupIndexedPipeline(t)
	e := New(p, cfg, nil)

	hits := e.Name("Greeter", 10)
	require.NotEmpty(t, hits)
	assert.Equal(t, "Greeter", hits[0].Symbol.Name)
}

func TestEngine_NameFallsBackToFuzzyMatch(t *testing.T) {
	p, cfg, _ := setupIndexedPipeline(t)
	e := New(p, cfg, nil)

	hits := e.Name("Greetr", 10) // one char dropped
	require.NotEmpty(t, hits)
	var found bool
	for _, h := range hits {
		if h.Symbol.Name == "Greeter" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestEngine_SemanticReturnsNilWithoutAnIndex(t *testing.T) {
	p, cfg, _ := setupIndexedPipeline(t)
	e := New(p, cfg, nil)

	hits, err := e.Semantic(context.Background(), "greeting helper", 5)
	require.NoError(t, err)
	assert.Nil(t, hits)
}

func TestEngine_SemanticFindsSymbolsOnceIndexed(t *testing.T) {
	p, cfg, vectorDir := setupIndexedPipeline(t)
	idx, err := p.BuildIVFFlat(vectorDir)
	require.NoError(t, err)

	e := New(p, cfg, idx)
	hits, err := e.Semantic(context.Background(), "Greeter\nfunc (g *Greeter) Greet() string", 5)
	require.NoError(t, err)
	assert.NotEmpty(t, hits)
}

func TestEngine_HybridFusesNameAndSemanticRankings(t *testing.T) {
	p, cfg, vectorDir := setupIndexedPipeline(t)
	idx, err := p.BuildIVFFlat(vectorDir)
	require.NoError(t, err)

	e := New(p, cfg, idx)
	hits, err := e.Hybrid(context.Background(), "Greeter", 5)
	require.NoError(t, err)
	require.NotEmpty(t, hits)
	for i := 1; i < len(hits); i++ {
		assert.GreaterOrEqual(t, hits[i-1].Score, hits[i].Score)
	}
}

func TestEngine_RelationshipsTraversesCallsFromSymbolStore(t *testing.T) {
	p, cfg, _ := setupIndexedPipeline(t)
	e := New(p, cfg, nil)

	greet := p.Symbols.ByName("Greet")
	require.Len(t, greet, 1)

	callees := e.Relationships(greet[0].ID, symbol.Calls, 0)
	var calledHello bool
	for _, s := range callees {
		if s.Name == "hello" {
			calledHello = true
		}
	}
	assert.True(t, calledHello)
}
