package langparser

import (
	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_python "github.com/tree-sitter/tree-sitter-python/bindings/go"

	"github.com/bartolli/codanna-go/internal/ids"
	"github.com/bartolli/codanna-go/internal/symbol"
)

// PythonParser drives the shared declaration walker against Python's
// grammar. Python has no distinct method-node kind: a function_definition
// inside a class_definition's body is a method purely by nesting, so
// Kind stays KindFunction for both and ScopeContext.Class carries the
// distinction (same convention the teacher's go_resolver applies to
// Go receiver methods, generalized here to nesting instead of receivers).
type PythonParser struct{ base }

func NewPythonParser() *PythonParser {
	lang := sitter.NewLanguage(tree_sitter_python.Language())
	spec := langSpec{
		lang:         ids.LangPython,
		commentKinds: map[string]bool{"comment": true},
		decls: map[string]declSpec{
			"function_definition": {kind: symbol.KindFunction, bodyField: "body", nameField: "name"},
			"class_definition":    {kind: symbol.KindClass, bodyField: "body", nameField: "name", container: true},
		},
		callKinds:     map[string]string{"call": "function"},
		memberAccess:  "attribute",
		typeUseFields: []string{"return_type"},
	}
	return &PythonParser{base{spec: spec, lang: lang, exts: []string{".py"}}}
}

func (p *PythonParser) FindImports(source []byte, file ids.FileId) []symbol.Import {
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
		switch node.Kind() {
		case "import_statement":
			for i := uint(0); i < node.NamedChildCount(); i++ {
				c := node.NamedChild(i)
				if c == nil {
					continue
				}
				switch c.Kind() {
				case "dotted_name":
					out = append(out, symbol.Import{FileID: file, Path: nodeText(c, source)})
				case "aliased_import":
					if n := c.ChildByFieldName("name"); n != nil {
						imp := symbol.Import{FileID: file, Path: nodeText(n, source)}
						if a := c.ChildByFieldName("alias"); a != nil {
							imp.Alias = nodeText(a, source)
						}
						out = append(out, imp)
					}
				}
			}
		case "import_from_statement":
			modName := ""
			if m := node.ChildByFieldName("module_name"); m != nil {
				modName = nodeText(m, source)
			}
			isGlob := false
			for i := uint(0); i < node.NamedChildCount(); i++ {
				c := node.NamedChild(i)
				if c == nil {
					continue
				}
				if c.Kind() == "wildcard_import" {
					isGlob = true
				}
			}
			if isGlob {
				out = append(out, symbol.Import{FileID: file, Path: modName, IsGlob: true})
			} else {
				out = append(out, symbol.Import{FileID: file, Path: modName})
			}
		}
		for i := uint(0); i < node.NamedChildCount(); i++ {
			rec(node.NamedChild(i))
		}
	}
	rec(tree.RootNode())
	return out
}

// FindExtends follows class_definition's superclasses argument_list;
// Python's dynamic, duck-typed interfaces mean FindImplementations stays
// a no-op default (base's).
func (p *PythonParser) FindExtends(source []byte, file ids.FileId) []ExtendsRef {
	tree := p.parseTree(source)
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
		if node.Kind() == "class_definition" {
			name := node.ChildByFieldName("name")
			supers := node.ChildByFieldName("superclasses")
			if name != nil && supers != nil {
				child := nodeText(name, source)
				for i := uint(0); i < supers.NamedChildCount(); i++ {
					a := supers.NamedChild(i)
					if a == nil || a.Kind() == "keyword_argument" {
						continue
					}
					out = append(out, ExtendsRef{ChildName: child, ParentName: nodeText(a, source), Range: nodeRange(a)})
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

func (p *PythonParser) FindInherentMethods(source []byte, file ids.FileId) []InherentMethodRef {
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

func (p *PythonParser) FindVariableTypes(source []byte, file ids.FileId) []VariableTypeRef {
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
		if node.Kind() == "assignment" {
			left := node.ChildByFieldName("left")
			t := node.ChildByFieldName("type")
			if left != nil && t != nil && left.Kind() == "identifier" {
				out = append(out, VariableTypeRef{VariableName: nodeText(left, source), TypeName: nodeText(t, source)})
			}
		}
		for i := uint(0); i < node.NamedChildCount(); i++ {
			rec(node.NamedChild(i))
		}
	}
	rec(tree.RootNode())
	return out
}
