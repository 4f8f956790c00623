package langparser

import (
	sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/bartolli/codanna-go/internal/ids"
	"github.com/bartolli/codanna-go/internal/symbol"
)

// base wires a tree-sitter grammar + langSpec into the Parser contract.
// Every concrete language type embeds base and gets Parse/Find* for
// free; languages override only what genuinely differs (import syntax,
// inheritance edges, inherent-method grouping).
type base struct {
	spec langSpec
	lang *sitter.Language
	exts []string
}

func (b *base) newTSParser() *sitter.Parser {
	p := sitter.NewParser()
	_ = p.SetLanguage(b.lang)
	return p
}

func (b *base) parseTree(source []byte) *sitter.Tree {
	p := b.newTSParser()
	defer p.Close()
	return p.Parse(source, nil)
}

func (b *base) Language() ids.LanguageId { return b.spec.lang }
func (b *base) Extensions() []string     { return b.exts }

func (b *base) Parse(source []byte, file ids.FileId, counter *ids.Counter[uint64]) ([]*symbol.Symbol, error) {
	tree := b.parseTree(source)
	if tree == nil {
		// spec §4.1: parse failures produce an empty symbol set, not an error.
		return nil, nil
	}
	defer tree.Close()
	audit := newKindAudit()
	syms := Parse(b.spec, source, tree, file, counter, audit)
	b.record(audit)
	return syms, nil
}

// auditedKindsByLang accumulates every kind ever marked across calls to Parse,
// for the coverage-audit command.
var auditedKindsByLang = map[ids.LanguageId]map[string]struct{}{}

func (b *base) record(a *kindAudit) {
	set, ok := auditedKindsByLang[b.spec.lang]
	if !ok {
		set = make(map[string]struct{})
		auditedKindsByLang[b.spec.lang] = set
	}
	for _, k := range a.kinds() {
		set[k] = struct{}{}
	}
}

func (b *base) HandledKinds() []string {
	set := auditedKindsByLang[b.spec.lang]
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	for k := range b.spec.decls {
		out = append(out, k)
	}
	return out
}

func (b *base) FindCalls(source []byte, file ids.FileId) []CallRef {
	tree := b.parseTree(source)
	if tree == nil {
		return nil
	}
	defer tree.Close()
	calls, _ := collectCalls(b.spec, source, tree)
	return calls
}

func (b *base) FindMethodCalls(source []byte, file ids.FileId) []MethodCallRef {
	tree := b.parseTree(source)
	if tree == nil {
		return nil
	}
	defer tree.Close()
	_, methodCalls := collectCalls(b.spec, source, tree)
	return methodCalls
}

func (b *base) FindUses(source []byte, file ids.FileId) []UseRef {
	tree := b.parseTree(source)
	if tree == nil {
		return nil
	}
	defer tree.Close()
	return collectTypeUses(b.spec, source, tree)
}

// FindDefines derives Defines edges directly from the container/member
// relationship already encoded in declSpec — every member of a
// `container` decl defines it.
func (b *base) FindDefines(source []byte, file ids.FileId) []DefineRef {
	tree := b.parseTree(source)
	if tree == nil {
		return nil
	}
	defer tree.Close()
	audit := newKindAudit()
	counter := ids.NewCounter[uint64]()
	syms := Parse(b.spec, source, tree, file, counter, audit)
	var out []DefineRef
	for _, s := range syms {
		if s.ScopeContext.Kind == symbol.ScopeClassMember && s.ScopeContext.Class != "" {
			out = append(out, DefineRef{OwnerName: s.ScopeContext.Class, MemberName: s.Name})
		}
	}
	return out
}

// Defaults for the relationship queries that genuinely vary per language;
// concrete languages override these.
func (b *base) FindImplementations(source []byte, file ids.FileId) []ImplRef { return nil }
func (b *base) FindExtends(source []byte, file ids.FileId) []ExtendsRef     { return nil }
func (b *base) FindImports(source []byte, file ids.FileId) []symbol.Import  { return nil }
func (b *base) FindInherentMethods(source []byte, file ids.FileId) []InherentMethodRef {
	return nil
}
func (b *base) FindVariableTypes(source []byte, file ids.FileId) []VariableTypeRef { return nil }
