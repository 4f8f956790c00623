package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bartolli/codanna-go/internal/ids"
	"github.com/bartolli/codanna-go/internal/langbehavior"
	"github.com/bartolli/codanna-go/internal/langparser"
	"github.com/bartolli/codanna-go/internal/symbol"
)

func TestResolveRelationships_LocalCallResolvesWithinStore(t *testing.T) {
	store := symbol.NewStore()
	behaviors := langbehavior.NewRegistry()

	caller := &symbol.Symbol{ID: 1, Name: "main", FileID: 1, LanguageID: ids.LangGo, Visibility: symbol.VisibilityPublic}
	callee := &symbol.Symbol{ID: 2, Name: "helper", FileID: 1, LanguageID: ids.LangGo, Visibility: symbol.VisibilityPublic}
	store.PutAll([]*symbol.Symbol{caller, callee})

	files := []parsed{
		{
			task:    task{Language: ids.LangGo},
			fileID:  1,
			symbols: []*symbol.Symbol{caller, callee},
			calls: []langparser.CallRef{
				{FromName: "main", ToName: "helper"},
			},
		},
	}

	counter := ids.NewCounter[uint64]()
	counter.Reset(1_000_000)
	resolveRelationships(store, behaviors, files, counter)

	rels := store.Relationships(caller.ID)
	if assert.Len(t, rels, 1) {
		assert.Equal(t, callee.ID, rels[0].To)
		assert.Equal(t, symbol.Calls, rels[0].Kind)
	}
}

func TestResolveRelationships_UnresolvedCallCreatesExternalStub(t *testing.T) {
	store := symbol.NewStore()
	behaviors := langbehavior.NewRegistry()

	caller := &symbol.Symbol{ID: 1, Name: "main", FileID: 1, LanguageID: ids.LangGo, Visibility: symbol.VisibilityPublic}
	store.PutAll([]*symbol.Symbol{caller})

	files := []parsed{
		{
			task:    task{Language: ids.LangGo},
			fileID:  1,
			symbols: []*symbol.Symbol{caller},
			calls: []langparser.CallRef{
				{FromName: "main", ToName: "fmt.Println"},
			},
		},
	}

	counter := ids.NewCounter[uint64]()
	counter.Reset(1_000_000)
	resolveRelationships(store, behaviors, files, counter)

	rels := store.Relationships(caller.ID)
	if assert.Len(t, rels, 1) {
		target := store.Get(rels[0].To)
		if assert.NotNil(t, target) {
			assert.Equal(t, "fmt.Println", target.Name)
		}
		assert.GreaterOrEqual(t, uint64(rels[0].To), uint64(1_000_000))
	}
}

func TestResolveRelationships_RepeatedExternalCallReusesSameStub(t *testing.T) {
	store := symbol.NewStore()
	behaviors := langbehavior.NewRegistry()

	a := &symbol.Symbol{ID: 1, Name: "a", FileID: 1, LanguageID: ids.LangGo, Visibility: symbol.VisibilityPublic}
	b := &symbol.Symbol{ID: 2, Name: "b", FileID: 1, LanguageID: ids.LangGo, Visibility: symbol.VisibilityPublic}
	store.PutAll([]*symbol.Symbol{a, b})

	files := []parsed{
		{
			task:    task{Language: ids.LangGo},
			fileID:  1,
			symbols: []*symbol.Symbol{a, b},
			calls: []langparser.CallRef{
				{FromName: "a", ToName: "os.Exit"},
				{FromName: "b", ToName: "os.Exit"},
			},
		},
	}

	counter := ids.NewCounter[uint64]()
	counter.Reset(1_000_000)
	resolveRelationships(store, behaviors, files, counter)

	relsA := store.Relationships(a.ID)
	relsB := store.Relationships(b.ID)
	if assert.Len(t, relsA, 1) && assert.Len(t, relsB, 1) {
		assert.Equal(t, relsA[0].To, relsB[0].To)
	}
}
