package langparser

import (
	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_rust "github.com/tree-sitter/tree-sitter-rust/bindings/go"

	"github.com/bartolli/codanna-go/internal/ids"
	"github.com/bartolli/codanna-go/internal/symbol"
)

// RustParser. impl_item is modeled as a transparent container (walk.go):
// it establishes ScopeClassMember{Class: <Self type>} for the functions
// nested in its body without itself becoming a Symbol, which is how both
// inherent impls (impl Type) and trait impls (impl Trait for Type) pick
// up a consistent owning-type scope.
type RustParser struct{ base }

func NewRustParser() *RustParser {
	lang := sitter.NewLanguage(tree_sitter_rust.Language())
	spec := langSpec{
		lang:         ids.LangRust,
		commentKinds: map[string]bool{"line_comment": true, "block_comment": true},
		decls: map[string]declSpec{
			"function_item": {kind: symbol.KindFunction, bodyField: "body", nameField: "name"},
			"struct_item":   {kind: symbol.KindStruct, bodyField: "body", nameField: "name"},
			"enum_item":     {kind: symbol.KindEnum, bodyField: "body", nameField: "name"},
			"trait_item":    {kind: symbol.KindTrait, bodyField: "body", nameField: "name", container: true},
			"type_item":     {kind: symbol.KindTypeAlias, nameField: "name"},
			"mod_item":      {kind: symbol.KindModule, bodyField: "body", nameField: "name", container: true},
			"impl_item":     {nameField: "type", transparent: true},
		},
		callKinds:     map[string]string{"call_expression": "function"},
		memberAccess:  "field_expression",
		typeUseFields: []string{"return_type"},
	}
	return &RustParser{base{spec: spec, lang: lang, exts: []string{".rs"}}}
}

func (p *RustParser) FindImports(source []byte, file ids.FileId) []symbol.Import {
	tree := p.parseTree(source)
	if tree == nil {
		return nil
	}
	defer tree.Close()
	var out []symbol.Import
	var rec func(node *sitter.Node)
	rec = func(node *sitter.Node) {
		if node == nil {
			return
		}
		if node.Kind() == "use_declaration" {
			if arg := node.ChildByFieldName("argument"); arg != nil {
				path := nodeText(arg, source)
				isGlob := arg.Kind() == "use_wildcard"
				out = append(out, symbol.Import{FileID: file, Path: path, IsGlob: isGlob})
			}
		}
		for i := uint(0); i < node.NamedChildCount(); i++ {
			rec(node.NamedChild(i))
		}
	}
	rec(tree.RootNode())
	return out
}

// FindImplementations reads `impl Trait for Type` blocks; plain inherent
// impls (no trait field) contribute nothing here.
func (p *RustParser) FindImplementations(source []byte, file ids.FileId) []ImplRef {
	tree := p.parseTree(source)
	if tree == nil {
		return nil
	}
	defer tree.Close()
	var out []ImplRef
	var rec func(node *sitter.Node)
	rec = func(node *sitter.Node) {
		if node == nil {
			return
		}
		if node.Kind() == "impl_item" {
			trait := node.ChildByFieldName("trait")
			typeNode := node.ChildByFieldName("type")
			if trait != nil && typeNode != nil {
				out = append(out, ImplRef{TypeName: nodeText(typeNode, source), TargetName: nodeText(trait, source), Range: nodeRange(node)})
			}
		}
		for i := uint(0); i < node.NamedChildCount(); i++ {
			rec(node.NamedChild(i))
		}
	}
	rec(tree.RootNode())
	return out
}

func (p *RustParser) FindInherentMethods(source []byte, file ids.FileId) []InherentMethodRef {
	counter := ids.NewCounter[uint64]()
	syms, _ := p.Parse(source, file, counter)
	var out []InherentMethodRef
	for _, s := range syms {
		if s.Kind == symbol.KindFunction && s.ScopeContext.Kind == symbol.ScopeClassMember {
			out = append(out, InherentMethodRef{TypeName: s.ScopeContext.Class, MethodName: s.Name})
		}
	}
	return out
}

func (p *RustParser) FindVariableTypes(source []byte, file ids.FileId) []VariableTypeRef {
	tree := p.parseTree(source)
	if tree == nil {
		return nil
	}
	defer tree.Close()
	var out []VariableTypeRef
	var rec func(node *sitter.Node)
	rec = func(node *sitter.Node) {
		if node == nil {
			return
		}
		if node.Kind() == "let_declaration" {
			pat := node.ChildByFieldName("pattern")
			t := node.ChildByFieldName("type")
			if pat != nil && t != nil && pat.Kind() == "identifier" {
				out = append(out, VariableTypeRef{VariableName: nodeText(pat, source), TypeName: nodeText(t, source)})
			}
		}
		for i := uint(0); i < node.NamedChildCount(); i++ {
			rec(node.NamedChild(i))
		}
	}
	rec(tree.RootNode())
	return out
}
