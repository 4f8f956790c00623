package langparser

import (
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_csharp "github.com/tree-sitter/tree-sitter-c-sharp/bindings/go"

	"github.com/bartolli/codanna-go/internal/ids"
	"github.com/bartolli/codanna-go/internal/symbol"
)

// CSharpParser. C#'s base_list syntax does not distinguish a base class
// from an implemented interface grammatically; this follows the common
// convention (and the teacher's own naming bias toward "I"-prefixed
// interface types) of routing capitalized-I-prefixed base-list entries to
// Implements and everything else to Extends.
type CSharpParser struct{ base }

func NewCSharpParser() *CSharpParser {
	lang := sitter.NewLanguage(tree_sitter_csharp.Language())
	spec := langSpec{
		lang:         ids.LangCSharp,
		commentKinds: map[string]bool{"comment": true},
		decls: map[string]declSpec{
			"method_declaration":      {kind: symbol.KindMethod, bodyField: "body", nameField: "name"},
			"constructor_declaration": {kind: symbol.KindMethod, bodyField: "body", nameField: "name"},
			"class_declaration":       {kind: symbol.KindClass, bodyField: "body", nameField: "name", container: true},
			"interface_declaration":   {kind: symbol.KindInterface, bodyField: "body", nameField: "name", container: true},
			"struct_declaration":      {kind: symbol.KindStruct, bodyField: "body", nameField: "name", container: true},
			"enum_declaration":        {kind: symbol.KindEnum, bodyField: "body", nameField: "name", container: true},
			"property_declaration":    {kind: symbol.KindField, nameField: "name"},
		},
		callKinds:     map[string]string{"invocation_expression": "function"},
		memberAccess:  "member_access_expression",
		typeUseFields: []string{"type"},
	}
	return &CSharpParser{base{spec: spec, lang: lang, exts: []string{".cs"}}}
}

func (p *CSharpParser) FindImports(source []byte, file ids.FileId) []symbol.Import {
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
		if node.Kind() == "using_directive" {
			for i := uint(0); i < node.NamedChildCount(); i++ {
				c := node.NamedChild(i)
				if c == nil {
					continue
				}
				if c.Kind() == "qualified_name" || c.Kind() == "identifier" {
					out = append(out, symbol.Import{FileID: file, Path: nodeText(c, source)})
					break
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

func isInterfaceName(name string) bool {
	return len(name) >= 2 && name[0] == 'I' && name[1] >= 'A' && name[1] <= 'Z'
}

func (p *CSharpParser) baseListEntries(node *sitter.Node, source []byte) (name string, bases []*sitter.Node) {
	n := node.ChildByFieldName("name")
	if n == nil {
		return "", nil
	}
	bl := node.ChildByFieldName("bases")
	if bl == nil {
		return nodeText(n, source), nil
	}
	for i := uint(0); i < bl.NamedChildCount(); i++ {
		if c := bl.NamedChild(i); c != nil {
			bases = append(bases, c)
		}
	}
	return nodeText(n, source), bases
}

func (p *CSharpParser) FindExtends(source []byte, file ids.FileId) []ExtendsRef {
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
		switch node.Kind() {
		case "class_declaration":
			name, bases := p.baseListEntries(node, source)
			for _, b := range bases {
				txt := nodeText(b, source)
				if !isInterfaceName(strings.TrimSpace(txt)) {
					out = append(out, ExtendsRef{ChildName: name, ParentName: txt, Range: nodeRange(b)})
				}
			}
		case "interface_declaration":
			name, bases := p.baseListEntries(node, source)
			for _, b := range bases {
				out = append(out, ExtendsRef{ChildName: name, ParentName: nodeText(b, source), Range: nodeRange(b)})
			}
		}
		for i := uint(0); i < node.NamedChildCount(); i++ {
			rec(node.NamedChild(i))
		}
	}
	rec(tree.RootNode())
	return out
}

func (p *CSharpParser) FindImplementations(source []byte, file ids.FileId) []ImplRef {
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
		if node.Kind() == "class_declaration" || node.Kind() == "struct_declaration" {
			name, bases := p.baseListEntries(node, source)
			for _, b := range bases {
				txt := nodeText(b, source)
				if isInterfaceName(strings.TrimSpace(txt)) {
					out = append(out, ImplRef{TypeName: name, TargetName: txt, Range: nodeRange(b)})
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

func (p *CSharpParser) FindInherentMethods(source []byte, file ids.FileId) []InherentMethodRef {
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

func (p *CSharpParser) FindVariableTypes(source []byte, file ids.FileId) []VariableTypeRef {
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
		if node.Kind() == "variable_declaration" {
			t := node.ChildByFieldName("type")
			if t != nil {
				for i := uint(0); i < node.NamedChildCount(); i++ {
					c := node.NamedChild(i)
					if c == nil || c.Kind() != "variable_declarator" {
						continue
					}
					nameNode := c.NamedChild(0)
					if nameNode != nil {
						out = append(out, VariableTypeRef{VariableName: nodeText(nameNode, source), TypeName: nodeText(t, source)})
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
