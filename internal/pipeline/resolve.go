package pipeline

import (
	"github.com/bartolli/codanna-go/internal/ids"
	"github.com/bartolli/codanna-go/internal/langbehavior"
	"github.com/bartolli/codanna-go/internal/symbol"
)

// resolveRelationships turns the raw name-reference batches collected
// during parsing into committed Relationship edges, once every file in
// the run has its symbols in SymbolStore (spec §4.3's "Resolution walks
// ... consulting SymbolStore for candidates", applied here at commit
// time rather than query time since calls/implements/etc. are positional
// facts about the indexed snapshot, not per-query state).
//
// Unresolved names (no symbol with that name anywhere in the store) are
// stubbed through behavior.ResolveExternalCallTarget and committed as
// external symbols, mirroring the teacher's "create_external_symbol"
// convention from spec §4.2 so a call to an unindexed stdlib/vendor
// function still has a stable target to point at.
func resolveRelationships(store *symbol.Store, behaviors *langbehavior.Registry, files []parsed, externalCounter *ids.Counter[uint64]) {
	byName := make(map[string][]*symbol.Symbol)
	store.Range(func(s *symbol.Symbol) bool {
		byName[s.Name] = append(byName[s.Name], s)
		return true
	})
	externalSeen := make(map[string]*symbol.Symbol)

	resolve := func(name string, lang ids.LanguageId, fromFile ids.FileId) ids.SymbolId {
		behavior := behaviors.For(lang)
		candidates := byName[name]
		for _, c := range candidates {
			if behavior == nil || behavior.IsSymbolVisibleFromFile(c, fromFile, c.FileID, true) {
				return c.ID
			}
		}
		if ext, ok := externalSeen[name]; ok {
			return ext.ID
		}
		if behavior == nil {
			return 0
		}
		stub := behavior.ResolveExternalCallTarget(name, fromFile)
		stub.ID = symbolIDFrom(externalCounter)
		store.Put(&stub)
		byName[stub.Name] = append(byName[stub.Name], &stub)
		externalSeen[name] = &stub
		return stub.ID
	}

	callerAt := func(f parsed, fromName string) ids.SymbolId {
		if fromName == "" {
			return 0
		}
		for _, s := range f.symbols {
			if s.Name == fromName {
				return s.ID
			}
		}
		return 0
	}

	for _, f := range files {
		if f.err != nil {
			continue
		}
		for _, c := range f.calls {
			from := callerAt(f, c.FromName)
			to := resolve(c.ToName, f.task.Language, f.fileID)
			if from != 0 && to != 0 {
				store.AddRelationship(symbol.Relationship{From: from, To: to, Kind: symbol.Calls, Range: c.Range})
			}
		}
		for _, mc := range f.methodCalls {
			from := callerAt(f, mc.FromName)
			to := resolve(mc.MethodName, f.task.Language, f.fileID)
			if from != 0 && to != 0 {
				store.AddRelationship(symbol.Relationship{From: from, To: to, Kind: symbol.Calls, Range: mc.Range})
			}
		}
		for _, impl := range f.impls {
			from := resolve(impl.TypeName, f.task.Language, f.fileID)
			to := resolve(impl.TargetName, f.task.Language, f.fileID)
			if from != 0 && to != 0 {
				store.AddRelationship(symbol.Relationship{From: from, To: to, Kind: symbol.Implements, Range: impl.Range})
			}
		}
		for _, ext := range f.extends {
			from := resolve(ext.ChildName, f.task.Language, f.fileID)
			to := resolve(ext.ParentName, f.task.Language, f.fileID)
			if from != 0 && to != 0 {
				store.AddRelationship(symbol.Relationship{From: from, To: to, Kind: symbol.Extends, Range: ext.Range})
			}
		}
		for _, use := range f.uses {
			from := callerAt(f, use.FromName)
			to := resolve(use.TypeName, f.task.Language, f.fileID)
			if from != 0 && to != 0 {
				store.AddRelationship(symbol.Relationship{From: from, To: to, Kind: symbol.Uses, Range: use.Range})
			}
		}
		for _, def := range f.defines {
			owner := resolve(def.OwnerName, f.task.Language, f.fileID)
			member := resolve(def.MemberName, f.task.Language, f.fileID)
			if owner != 0 && member != 0 {
				store.AddRelationship(symbol.Relationship{From: owner, To: member, Kind: symbol.Defines, Range: def.Range})
			}
		}
		for _, im := range f.inherentMethods {
			owner := resolve(im.TypeName, f.task.Language, f.fileID)
			member := resolve(im.MethodName, f.task.Language, f.fileID)
			if owner != 0 && member != 0 {
				store.AddRelationship(symbol.Relationship{From: owner, To: member, Kind: symbol.Defines})
			}
		}
	}
}

func symbolIDFrom(c *ids.Counter[uint64]) ids.SymbolId {
	return ids.SymbolId(c.Next())
}
