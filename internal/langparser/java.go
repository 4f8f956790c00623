package langparser

import (
	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_java "github.com/tree-sitter/tree-sitter-java/bindings/go"

	"github.com/bartolli/codanna-go/internal/ids"
	"github.com/bartolli/codanna-go/internal/symbol"
)

// JavaParser. Java's method_invocation node carries the receiver and the
// method name as direct fields rather than nesting a separate
// member-access node the way Go/JS/Rust do, so FindCalls/FindMethodCalls
// are overridden instead of reusing collectCalls.
type JavaParser struct{ base }

func NewJavaParser() *JavaParser {
	lang := sitter.NewLanguage(tree_sitter_java.Language())
	spec := langSpec{
		lang:          ids.LangJava,
		commentKinds:  map[string]bool{"line_comment": true, "block_comment": true},
		decls: map[string]declSpec{
			"method_declaration":      {kind: symbol.KindMethod, bodyField: "body", nameField: "name"},
			"constructor_declaration": {kind: symbol.KindMethod, bodyField: "body", nameField: "name"},
			"class_declaration":       {kind: symbol.KindClass, bodyField: "body", nameField: "name", container: true},
			"interface_declaration":   {kind: symbol.KindInterface, bodyField: "body", nameField: "name", container: true},
			"enum_declaration":        {kind: symbol.KindEnum, bodyField: "body", nameField: "name", container: true},
		},
		typeUseFields: []string{"type"},
	}
	return &JavaParser{base{spec: spec, lang: lang, exts: []string{".java"}}}
}

func (p *JavaParser) FindImports(source []byte, file ids.FileId) []symbol.Import {
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
		if node.Kind() == "import_declaration" {
			isGlob := false
			var pathParts string
			for i := uint(0); i < node.NamedChildCount(); i++ {
				c := node.NamedChild(i)
				if c == nil {
					continue
				}
				switch c.Kind() {
				case "asterisk":
					isGlob = true
				case "scoped_identifier", "identifier":
					pathParts = nodeText(c, source)
				}
			}
			out = append(out, symbol.Import{FileID: file, Path: pathParts, IsGlob: isGlob})
		}
		for i := uint(0); i < node.NamedChildCount(); i++ {
			rec(node.NamedChild(i))
		}
	}
	rec(tree.RootNode())
	return out
}

func (p *JavaParser) FindExtends(source []byte, file ids.FileId) []ExtendsRef {
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
		if node.Kind() == "class_declaration" || node.Kind() == "interface_declaration" {
			name := node.ChildByFieldName("name")
			sup := node.ChildByFieldName("superclass")
			if name != nil && sup != nil {
				out = append(out, ExtendsRef{ChildName: nodeText(name, source), ParentName: nodeText(sup, source), Range: nodeRange(sup)})
			}
		}
		for i := uint(0); i < node.NamedChildCount(); i++ {
			rec(node.NamedChild(i))
		}
	}
	rec(tree.RootNode())
	return out
}

func (p *JavaParser) FindImplementations(source []byte, file ids.FileId) []ImplRef {
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
		if node.Kind() == "class_declaration" {
			name := node.ChildByFieldName("name")
			ifaces := node.ChildByFieldName("interfaces")
			if name != nil && ifaces != nil {
				child := nodeText(name, source)
				for i := uint(0); i < ifaces.NamedChildCount(); i++ {
					t := ifaces.NamedChild(i)
					if t != nil {
						out = append(out, ImplRef{TypeName: child, TargetName: nodeText(t, source), Range: nodeRange(t)})
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

func (p *JavaParser) FindInherentMethods(source []byte, file ids.FileId) []InherentMethodRef {
	counter := ids.NewCounter[uint64]()
	syms, _ := p.Parse(source, file, counter)
	var out []InherentMethodRef
	for _, s := range syms {
		if s.Kind == symbol.KindMethod && s.ScopeContext.Kind == symbol.ScopeClassMember {
			out = append(out, InherentMethodRef{TypeName: s.ScopeContext.Class, MethodName: s.Name})
		}
	}
	return out
}

func (p *JavaParser) FindCalls(source []byte, file ids.FileId) []CallRef {
	calls, _ := javaFindCalls(p.parseTree(source), source)
	return calls
}

func (p *JavaParser) FindMethodCalls(source []byte, file ids.FileId) []MethodCallRef {
	_, mcalls := javaFindCalls(p.parseTree(source), source)
	return mcalls
}

func javaFindCalls(tree *sitter.Tree, source []byte) ([]CallRef, []MethodCallRef) {
	if tree == nil {
		return nil, nil
	}
	defer tree.Close()
	var calls []CallRef
	var methodCalls []MethodCallRef
	var rec func(node *sitter.Node, enclosing string)
	rec = func(node *sitter.Node, enclosing string) {
		if node == nil {
			return
		}
		switch node.Kind() {
		case "method_declaration", "constructor_declaration":
			if n := node.ChildByFieldName("name"); n != nil {
				enclosing = nodeText(n, source)
			}
		case "method_invocation":
			name := node.ChildByFieldName("name")
			obj := node.ChildByFieldName("object")
			if name != nil {
				if obj != nil {
					methodCalls = append(methodCalls, MethodCallRef{
						FromName: enclosing, ReceiverName: nodeText(obj, source),
						MethodName: nodeText(name, source), Range: nodeRange(node),
					})
				} else {
					calls = append(calls, CallRef{FromName: enclosing, ToName: nodeText(name, source), Range: nodeRange(node)})
				}
			}
		}
		for i := uint(0); i < node.NamedChildCount(); i++ {
			rec(node.NamedChild(i), enclosing)
		}
	}
	rec(tree.RootNode(), "")
	return calls, methodCalls
}

func (p *JavaParser) FindVariableTypes(source []byte, file ids.FileId) []VariableTypeRef {
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
		if node.Kind() == "local_variable_declaration" {
			t := node.ChildByFieldName("type")
			if t != nil {
				for i := uint(0); i < node.NamedChildCount(); i++ {
					c := node.NamedChild(i)
					if c == nil || c.Kind() != "variable_declarator" {
						continue
					}
					if n := c.ChildByFieldName("name"); n != nil {
						out = append(out, VariableTypeRef{VariableName: nodeText(n, source), TypeName: nodeText(t, source)})
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
