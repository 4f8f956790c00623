package docindex

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bartolli/codanna-go/internal/ids"
)

func TestTokenize_SplitsCamelCaseAndSnakeCase(t *testing.T) {
	assert.Len(t, tokenize("parseSymbolTable"), 3)
	assert.Len(t, tokenize("read_file_content"), 3)
	assert.NotContains(t, tokenize("parseSymbolTable"), "parseSymbolTable")
}

func TestIndex_PutAndTermQuery(t *testing.T) {
	ix := New()
	id := ix.Put(Doc{Name: "ParseFile", Signature: "func ParseFile(path string) error", DocText: "parses a source file"})
	require.NotZero(t, id)

	docs := ix.TermQuery("parse")
	require.Len(t, docs, 1)
	assert.Equal(t, "ParseFile", docs[0].Name)

	assert.Empty(t, ix.TermQuery("nonexistent"))
}

func TestIndex_ExactName(t *testing.T) {
	ix := New()
	ix.Put(Doc{Name: "Resolve"})
	ix.Put(Doc{Name: "resolve"})

	docs := ix.ExactName("Resolve")
	assert.Len(t, docs, 2, "name lookup is case-insensitive")
}

func TestIndex_Delete(t *testing.T) {
	ix := New()
	id := ix.Put(Doc{Name: "Transient", DocText: "short lived"})
	require.Len(t, ix.TermQuery("transient"), 1)

	ix.Delete(id)
	assert.Empty(t, ix.TermQuery("transient"))
	assert.Empty(t, ix.ExactName("Transient"))
}

func TestIndex_NewSegmentKeepsOldDocsQueryable(t *testing.T) {
	ix := New()
	ix.Put(Doc{Name: "First"})
	ix.NewSegment()
	ix.Put(Doc{Name: "Second"})

	assert.Len(t, ix.ExactName("First"), 1)
	assert.Len(t, ix.ExactName("Second"), 1)
	assert.Len(t, ix.AllNames(), 2)
}

func TestIndex_FilterByCluster(t *testing.T) {
	ix := New()
	ix.Put(Doc{Name: "A", ClusterID: 1})
	ix.Put(Doc{Name: "B", ClusterID: 2})

	all := ix.AllNames()
	filtered := ix.FilterByCluster(all, ids.ClusterId(1))
	require.Len(t, filtered, 1)
	assert.Equal(t, "A", filtered[0].Name)
}
