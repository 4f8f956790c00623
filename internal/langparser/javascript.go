package langparser

import (
	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_javascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
	tree_sitter_typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"

	"github.com/bartolli/codanna-go/internal/ids"
	"github.com/bartolli/codanna-go/internal/symbol"
)

func jsDecls() map[string]declSpec {
	return map[string]declSpec{
		"function_declaration":           {kind: symbol.KindFunction, bodyField: "body", nameField: "name"},
		"generator_function_declaration": {kind: symbol.KindFunction, bodyField: "body", nameField: "name"},
		"method_definition":              {kind: symbol.KindMethod, bodyField: "body", nameField: "name"},
		"class_declaration":              {kind: symbol.KindClass, bodyField: "body", nameField: "name", container: true},
		"interface_declaration":          {kind: symbol.KindInterface, bodyField: "body", nameField: "name", container: true},
		"type_alias_declaration":         {kind: symbol.KindTypeAlias, nameField: "name"},
		"enum_declaration":               {kind: symbol.KindEnum, bodyField: "body", nameField: "name", container: true},
	}
}

// JavaScriptParser and TypeScriptParser share one langSpec and one set of
// relationship finders (TypeScript is JavaScript's grammar superset here,
// same shared-walker grounding the teacher uses a single query-builder
// function for both in parser_language_setup.go).
type JavaScriptParser struct{ base }

func NewJavaScriptParser() *JavaScriptParser {
	lang := sitter.NewLanguage(tree_sitter_javascript.Language())
	spec := langSpec{
		lang:          ids.LangJavaScript,
		commentKinds:  map[string]bool{"comment": true},
		decls:         jsDecls(),
		callKinds:     map[string]string{"call_expression": "function"},
		memberAccess:  "member_expression",
		typeUseFields: []string{"return_type"},
	}
	return &JavaScriptParser{base{spec: spec, lang: lang, exts: []string{".js", ".jsx", ".mjs"}}}
}

func (p *JavaScriptParser) FindImports(source []byte, file ids.FileId) []symbol.Import {
	return jsFindImports(&p.base, source, file)
}
func (p *JavaScriptParser) FindExtends(source []byte, file ids.FileId) []ExtendsRef {
	return jsFindExtends(&p.base, source, file)
}
func (p *JavaScriptParser) FindImplementations(source []byte, file ids.FileId) []ImplRef {
	return jsFindImplements(&p.base, source, file)
}
func (p *JavaScriptParser) FindInherentMethods(source []byte, file ids.FileId) []InherentMethodRef {
	return jsFindInherentMethods(&p.base, source, file)
}

type TypeScriptParser struct{ base }

func NewTypeScriptParser() *TypeScriptParser {
	lang := sitter.NewLanguage(tree_sitter_typescript.LanguageTypescript())
	spec := langSpec{
		lang:          ids.LangTypeScript,
		commentKinds:  map[string]bool{"comment": true},
		decls:         jsDecls(),
		callKinds:     map[string]string{"call_expression": "function"},
		memberAccess:  "member_expression",
		typeUseFields: []string{"return_type"},
	}
	return &TypeScriptParser{base{spec: spec, lang: lang, exts: []string{".ts"}}}
}

func (p *TypeScriptParser) FindImports(source []byte, file ids.FileId) []symbol.Import {
	return jsFindImports(&p.base, source, file)
}
func (p *TypeScriptParser) FindExtends(source []byte, file ids.FileId) []ExtendsRef {
	return jsFindExtends(&p.base, source, file)
}
func (p *TypeScriptParser) FindImplementations(source []byte, file ids.FileId) []ImplRef {
	return jsFindImplements(&p.base, source, file)
}
func (p *TypeScriptParser) FindInherentMethods(source []byte, file ids.FileId) []InherentMethodRef {
	return jsFindInherentMethods(&p.base, source, file)
}

// TSXParser reuses TypeScript's grammar mode for .tsx — JSX syntax only
// changes how expressions parse, not the declaration/class shapes this
// package cares about.
type TSXParser struct{ TypeScriptParser }

func NewTSXParser() *TSXParser {
	lang := sitter.NewLanguage(tree_sitter_typescript.LanguageTSX())
	spec := langSpec{
		lang:          ids.LangTypeScript,
		commentKinds:  map[string]bool{"comment": true},
		decls:         jsDecls(),
		callKinds:     map[string]string{"call_expression": "function"},
		memberAccess:  "member_expression",
		typeUseFields: []string{"return_type"},
	}
	return &TSXParser{TypeScriptParser{base{spec: spec, lang: lang, exts: []string{".tsx"}}}}
}

func jsFindImports(b *base, source []byte, file ids.FileId) []symbol.Import {
	tree := b.parseTree(source)
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
		if node.Kind() == "import_statement" {
			imp := symbol.Import{FileID: file}
			if s := node.ChildByFieldName("source"); s != nil {
				imp.Path = trimQuotes(nodeText(s, source))
			}
			for i := uint(0); i < node.NamedChildCount(); i++ {
				c := node.NamedChild(i)
				if c == nil {
					continue
				}
				switch c.Kind() {
				case "namespace_import":
					imp.IsGlob = true
				case "import_clause":
					if t := c.ChildByFieldName("name"); t != nil {
						imp.Alias = nodeText(t, source)
					}
				}
			}
			out = append(out, imp)
		}
		for i := uint(0); i < node.NamedChildCount(); i++ {
			rec(node.NamedChild(i))
		}
	}
	rec(tree.RootNode())
	return out
}

// jsFindExtends/jsFindImplements: a class_declaration's heritage is the
// class_heritage child wrapping an extends clause and, in TypeScript, an
// implements clause. Grammar differences between the JS and TS heritage
// shapes are tolerated by scanning descendant kinds rather than a single
// fixed field path.
func jsFindExtends(b *base, source []byte, file ids.FileId) []ExtendsRef {
	tree := b.parseTree(source)
	if tree == nil {
		return nil
	}
	defer tree.Close()
	var out []ExtendsRef
	var rec func(node *sitter.Node)
	rec = func(node *sitter.Node) {
		if node == nil {
			return
		}
		if node.Kind() == "class_declaration" || node.Kind() == "class" {
			name := node.ChildByFieldName("name")
			if name == nil {
				return
			}
			child := nodeText(name, source)
			for i := uint(0); i < node.NamedChildCount(); i++ {
				h := node.NamedChild(i)
				if h == nil || h.Kind() != "class_heritage" {
					continue
				}
				for j := uint(0); j < h.NamedChildCount(); j++ {
					c := h.NamedChild(j)
					if c == nil {
						continue
					}
					if c.Kind() == "extends_clause" || c.Kind() == "identifier" {
						target := c
						if c.Kind() == "extends_clause" && c.NamedChildCount() > 0 {
							target = c.NamedChild(0)
						}
						if target != nil {
							out = append(out, ExtendsRef{ChildName: child, ParentName: nodeText(target, source), Range: nodeRange(target)})
						}
					}
				}
			}
		}
		for i := uint(0); i < node.NamedChildCount(); i++ {
			rec(node.NamedChild(i))
		}
	}
	rec(tree.RootNode())
	return out
}

func jsFindImplements(b *base, source []byte, file ids.FileId) []ImplRef {
	tree := b.parseTree(source)
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
		if node.Kind() == "class_declaration" {
			name := node.ChildByFieldName("name")
			if name == nil {
				return
			}
			child := nodeText(name, source)
			for i := uint(0); i < node.NamedChildCount(); i++ {
				h := node.NamedChild(i)
				if h == nil || h.Kind() != "class_heritage" {
					continue
				}
				for j := uint(0); j < h.NamedChildCount(); j++ {
					c := h.NamedChild(j)
					if c == nil || c.Kind() != "implements_clause" {
						continue
					}
					for k := uint(0); k < c.NamedChildCount(); k++ {
						t := c.NamedChild(k)
						if t != nil {
							out = append(out, ImplRef{TypeName: child, TargetName: nodeText(t, source), Range: nodeRange(t)})
						}
					}
				}
			}
		}
		for i := uint(0); i < node.NamedChildCount(); i++ {
			rec(node.NamedChild(i))
		}
	}
	rec(tree.RootNode())
	return out
}

func jsFindInherentMethods(b *base, source []byte, file ids.FileId) []InherentMethodRef {
	tree := b.parseTree(source)
	if tree == nil {
		return nil
	}
	defer tree.Close()
	audit := newKindAudit()
	counter := ids.NewCounter[uint64]()
	syms := Parse(b.spec, source, tree, file, counter, audit)
	var out []InherentMethodRef
	for _, s := range syms {
		if s.Kind == symbol.KindMethod && s.ScopeContext.Kind == symbol.ScopeClassMember {
			out = append(out, InherentMethodRef{TypeName: s.ScopeContext.Class, MethodName: s.Name})
		}
	}
	return out
}
