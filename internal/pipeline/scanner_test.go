package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bartolli/codanna-go/internal/config"
	"github.com/bartolli/codanna-go/internal/langparser"
)

func newTestScanner(t *testing.T, cfg *config.Config, root string) *scanner {
	t.Helper()
	gi, err := config.NewGitignoreMatcher(root)
	require.NoError(t, err)
	return newScanner(cfg, gi, langparser.NewRegistry())
}

func TestScanner_ExcludesMatchingGlobsAndUnregisteredExtensions(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Exclude = []string{"**/vendor/**"}

	root := t.TempDir()
	s := newTestScanner(t, cfg, root)

	assert.True(t, s.excluded("vendor/pkg/mod.go"))
	assert.Nil(t, s.registry.ForExtension(".md")) // no parser registered for .md, so scan skips it
	assert.True(t, s.matches("main.go"))
}

func TestScanner_IncludeListRestrictsMatches(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Include = []string{"**/*.go"}

	root := t.TempDir()
	s := newTestScanner(t, cfg, root)

	assert.True(t, s.matches("pkg/main.go"))
	assert.False(t, s.matches("pkg/main.py"))
}

func TestScanner_ScanRespectsMaxFileCount(t *testing.T) {
	root := t.TempDir()
	for i := 0; i < 5; i++ {
		name := filepath.Join(root, "file"+string(rune('a'+i))+".go")
		require.NoError(t, os.WriteFile(name, []byte("package p\n"), 0o644))
	}

	cfg := config.DefaultConfig()
	cfg.Pipeline.MaxFileCount = 2
	s := newTestScanner(t, cfg, root)

	out := make(chan task, 10)
	err := s.scan(context.Background(), root, out)
	require.NoError(t, err)

	var found []task
	for tk := range out {
		found = append(found, tk)
	}
	assert.LessOrEqual(t, len(found), 2)
}

func TestScanner_SkipsFilesOverMaxSize(t *testing.T) {
	root := t.TempDir()
	big := make([]byte, 1024)
	require.NoError(t, os.WriteFile(filepath.Join(root, "big.go"), big, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "small.go"), []byte("package p\n"), 0o644))

	cfg := config.DefaultConfig()
	cfg.Pipeline.MaxFileSize = 100

	s := newTestScanner(t, cfg, root)
	out := make(chan task, 10)
	require.NoError(t, s.scan(context.Background(), root, out))

	var names []string
	for tk := range out {
		names = append(names, filepath.Base(tk.Path))
	}
	assert.Contains(t, names, "small.go")
	assert.NotContains(t, names, "big.go")
}
