package langparser

import (
	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_go "github.com/tree-sitter/tree-sitter-go/bindings/go"

	"github.com/bartolli/codanna-go/internal/ids"
	"github.com/bartolli/codanna-go/internal/symbol"
)

// goCommentKinds: Go doc comments are a contiguous run
// of `//` line comments immediately above the declaration (spec §4.1's
// backward-walk convention); Go has no "modifier" node to look through.
var goCommentKinds = map[string]bool{"comment": true}

// GoParser implements the LanguageParser contract directly (not via the
// shared generic walker: Go's type_declaration/type_spec/struct_type
// split — name lives one level up from the struct body — does not fit
// the walker's single-node name+body model, so this follows the
// teacher's own hand-rolled GoExtractor shape instead).
type GoParser struct {
	lang *sitter.Language
}

func NewGoParser() *GoParser {
	return &GoParser{lang: sitter.NewLanguage(tree_sitter_go.Language())}
}

func (g *GoParser) Language() ids.LanguageId { return ids.LangGo }
func (g *GoParser) Extensions() []string     { return []string{".go"} }

func (g *GoParser) parseTree(source []byte) *sitter.Tree {
	p := sitter.NewParser()
	defer p.Close()
	_ = p.SetLanguage(g.lang)
	return p.Parse(source, nil)
}

func (g *GoParser) Parse(source []byte, file ids.FileId, counter *ids.Counter[uint64]) ([]*symbol.Symbol, error) {
	tree := g.parseTree(source)
	if tree == nil {
		return nil, nil
	}
	defer tree.Close()
	root := tree.RootNode()
	if root == nil {
		return nil, nil
	}

	audit := newKindAudit()
	var out []*symbol.Symbol
	emit := func(kind string, s *symbol.Symbol) {
		audit.mark(kind)
		s.ID = ids.SymbolId(counter.Next())
		s.LanguageID = ids.LangGo
		s.ContentHash = symbol.ComputeContentHash(s.Name, s.Signature)
		out = append(out, s)
	}

	for i := uint(0); i < root.NamedChildCount(); i++ {
		g.walkTop(root.NamedChild(i), source, file, emit, 0)
	}
	g.record(audit)
	return out, nil
}

var goAuditedKinds = map[string]struct{}{}

func (g *GoParser) record(a *kindAudit) {
	for _, k := range a.kinds() {
		goAuditedKinds[k] = struct{}{}
	}
}

func (g *GoParser) HandledKinds() []string {
	out := make([]string, 0, len(goAuditedKinds))
	for k := range goAuditedKinds {
		out = append(out, k)
	}
	return out
}

func (g *GoParser) walkTop(node *sitter.Node, source []byte, file ids.FileId, emit func(string, *symbol.Symbol), depth int) {
	if node == nil || depth > maxRecursionDepth {
		return
	}
	switch node.Kind() {
	case "function_declaration":
		g.emitFunc(node, source, file, emit, false)
	case "method_declaration":
		g.emitFunc(node, source, file, emit, true)
	case "type_declaration":
		for i := uint(0); i < node.NamedChildCount(); i++ {
			g.emitType(node.NamedChild(i), source, file, emit)
		}
	case "var_declaration":
		g.emitVarConst(node, source, file, emit, symbol.KindVariable)
	case "const_declaration":
		g.emitVarConst(node, source, file, emit, symbol.KindConstant)
	}
}

func (g *GoParser) emitFunc(node *sitter.Node, source []byte, file ids.FileId, emit func(string, *symbol.Symbol), isMethod bool) {
	name := node.ChildByFieldName("name")
	if name == nil {
		return
	}
	class := ""
	if isMethod {
		if recv := node.ChildByFieldName("receiver"); recv != nil {
			class = receiverTypeName(recv, source)
		}
	}
	body := node.ChildByFieldName("body")
	sig := headerText(node, body, source)
	kind := symbol.KindFunction
	ctx := symbol.ScopeContext{Kind: symbol.ScopeModule}
	if isMethod {
		kind = symbol.KindMethod
		ctx = symbol.ScopeContext{Kind: symbol.ScopeClassMember, Class: class}
	}
	emit(node.Kind(), &symbol.Symbol{
		Name: nodeText(name, source), Kind: kind, FileID: file, Range: nodeRange(node),
		Signature: sig, DocComment: docCommentBefore(node, source, goCommentKinds, nil), ScopeContext: ctx,
	})
}

func receiverTypeName(recv *sitter.Node, source []byte) string {
	for i := uint(0); i < recv.NamedChildCount(); i++ {
		p := recv.NamedChild(i)
		if p == nil || p.Kind() != "parameter_declaration" {
			continue
		}
		t := p.ChildByFieldName("type")
		if t == nil {
			continue
		}
		txt := nodeText(t, source)
		for len(txt) > 0 && txt[0] == '*' {
			txt = txt[1:]
		}
		return txt
	}
	return ""
}

func headerText(node, body *sitter.Node, source []byte) string {
	if body == nil {
		return trimRight(nodeText(node, source))
	}
	start, end := node.StartByte(), body.StartByte()
	if end <= start || end > uint(len(source)) {
		return trimRight(nodeText(node, source))
	}
	return trimRight(string(source[start:end]))
}

func (g *GoParser) emitType(spec *sitter.Node, source []byte, file ids.FileId, emit func(string, *symbol.Symbol)) {
	if spec == nil || spec.Kind() != "type_spec" {
		return
	}
	name := spec.ChildByFieldName("name")
	typeNode := spec.ChildByFieldName("type")
	if name == nil || typeNode == nil {
		return
	}
	typeName := nodeText(name, source)
	switch typeNode.Kind() {
	case "struct_type":
		emit("type_spec:struct", &symbol.Symbol{
			Name: typeName, Kind: symbol.KindStruct, FileID: file, Range: nodeRange(spec),
			Signature: "type " + typeName + " struct", DocComment: docCommentBefore(spec, source, goCommentKinds, nil),
			ScopeContext: symbol.ScopeContext{Kind: symbol.ScopeModule},
		})
		g.emitFields(typeNode, source, file, typeName, emit)
	case "interface_type":
		emit("type_spec:interface", &symbol.Symbol{
			Name: typeName, Kind: symbol.KindInterface, FileID: file, Range: nodeRange(spec),
			Signature: "type " + typeName + " interface", DocComment: docCommentBefore(spec, source, goCommentKinds, nil),
			ScopeContext: symbol.ScopeContext{Kind: symbol.ScopeModule},
		})
		g.emitInterfaceMethods(typeNode, source, file, typeName, emit)
	default:
		emit("type_spec:alias", &symbol.Symbol{
			Name: typeName, Kind: symbol.KindTypeAlias, FileID: file, Range: nodeRange(spec),
			Signature:    "type " + typeName + " " + nodeText(typeNode, source),
			DocComment:   docCommentBefore(spec, source, goCommentKinds, nil),
			ScopeContext: symbol.ScopeContext{Kind: symbol.ScopeModule},
		})
	}
}

func (g *GoParser) emitFields(structType *sitter.Node, source []byte, file ids.FileId, owner string, emit func(string, *symbol.Symbol)) {
	list := fieldChildByKind(structType, "field_declaration_list")
	if list == nil {
		return
	}
	for i := uint(0); i < list.NamedChildCount(); i++ {
		fd := list.NamedChild(i)
		if fd == nil || fd.Kind() != "field_declaration" {
			continue
		}
		fname := fd.ChildByFieldName("name")
		if fname == nil {
			continue
		}
		emit("field_declaration", &symbol.Symbol{
			Name: nodeText(fname, source), Kind: symbol.KindField, FileID: file, Range: nodeRange(fd),
			Signature: trimRight(nodeText(fd, source)), ScopeContext: symbol.ScopeContext{Kind: symbol.ScopeClassMember, Class: owner},
		})
	}
}

func (g *GoParser) emitInterfaceMethods(ifaceType *sitter.Node, source []byte, file ids.FileId, owner string, emit func(string, *symbol.Symbol)) {
	for i := uint(0); i < ifaceType.NamedChildCount(); i++ {
		m := ifaceType.NamedChild(i)
		if m == nil || m.Kind() != "method_elem" {
			continue
		}
		name := m.ChildByFieldName("name")
		if name == nil {
			continue
		}
		emit("method_elem", &symbol.Symbol{
			Name: nodeText(name, source), Kind: symbol.KindMethod, FileID: file, Range: nodeRange(m),
			Signature: trimRight(nodeText(m, source)), ScopeContext: symbol.ScopeContext{Kind: symbol.ScopeClassMember, Class: owner},
		})
	}
}

func (g *GoParser) emitVarConst(node *sitter.Node, source []byte, file ids.FileId, emit func(string, *symbol.Symbol), kind symbol.Kind) {
	specKind := "var_spec"
	if kind == symbol.KindConstant {
		specKind = "const_spec"
	}
	for i := uint(0); i < node.NamedChildCount(); i++ {
		spec := node.NamedChild(i)
		if spec == nil || spec.Kind() != specKind {
			continue
		}
		for j := uint(0); j < spec.NamedChildCount(); j++ {
			c := spec.NamedChild(j)
			if c != nil && c.Kind() == "identifier" {
				emit(specKind, &symbol.Symbol{
					Name: nodeText(c, source), Kind: kind, FileID: file, Range: nodeRange(spec),
					Signature: trimRight(nodeText(spec, source)), ScopeContext: symbol.ScopeContext{Kind: symbol.ScopeModule},
				})
			}
		}
	}
}

func fieldChildByKind(node *sitter.Node, kind string) *sitter.Node {
	for i := uint(0); i < node.NamedChildCount(); i++ {
		c := node.NamedChild(i)
		if c != nil && c.Kind() == kind {
			return c
		}
	}
	return nil
}

func (g *GoParser) FindImports(source []byte, file ids.FileId) []symbol.Import {
	tree := g.parseTree(source)
	if tree == nil {
		return nil
	}
	defer tree.Close()
	root := tree.RootNode()
	var out []symbol.Import
	for i := uint(0); i < root.NamedChildCount(); i++ {
		decl := root.NamedChild(i)
		if decl == nil || decl.Kind() != "import_declaration" {
			continue
		}
		for j := uint(0); j < decl.NamedChildCount(); j++ {
			spec := decl.NamedChild(j)
			if spec == nil || spec.Kind() != "import_spec" {
				continue
			}
			var path, alias string
			for k := uint(0); k < spec.NamedChildCount(); k++ {
				c := spec.NamedChild(k)
				if c == nil {
					continue
				}
				switch c.Kind() {
				case "interpreted_string_literal":
					path = trimQuotes(nodeText(c, source))
				case "package_identifier", "dot", "blank_identifier":
					alias = nodeText(c, source)
				}
			}
			out = append(out, symbol.Import{FileID: file, Path: path, Alias: alias})
		}
	}
	return out
}

func trimQuotes(s string) string {
	if len(s) >= 2 && (s[0] == '"' || s[0] == '`') {
		return s[1 : len(s)-1]
	}
	return s
}

func (g *GoParser) FindCalls(source []byte, file ids.FileId) []CallRef {
	calls, _ := g.findCalls(source)
	return calls
}

func (g *GoParser) FindMethodCalls(source []byte, file ids.FileId) []MethodCallRef {
	_, methodCalls := g.findCalls(source)
	return methodCalls
}

func (g *GoParser) findCalls(source []byte) ([]CallRef, []MethodCallRef) {
	tree := g.parseTree(source)
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
		case "function_declaration", "method_declaration":
			if n := node.ChildByFieldName("name"); n != nil {
				enclosing = nodeText(n, source)
			}
		case "call_expression":
			fn := node.ChildByFieldName("function")
			if fn != nil {
				if fn.Kind() == "selector_expression" {
					recv := fn.ChildByFieldName("operand")
					method := fn.ChildByFieldName("field")
					if recv != nil && method != nil {
						methodCalls = append(methodCalls, MethodCallRef{
							FromName: enclosing, ReceiverName: nodeText(recv, source),
							MethodName: nodeText(method, source), Range: nodeRange(node),
						})
					}
				} else {
					calls = append(calls, CallRef{FromName: enclosing, ToName: nodeText(fn, source), Range: nodeRange(node)})
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

// FindImplementations: Go has no explicit `implements` syntax (structural
// typing), so this is always empty; no structural method-set comparison
// is made elsewhere either, so Go types get no Implements edges.
func (g *GoParser) FindImplementations(source []byte, file ids.FileId) []ImplRef { return nil }

// FindExtends: Go struct embedding is the closest analogue to extends —
// an embedded field (one with no explicit name, i.e. name == type) wires
// an Extends edge.
func (g *GoParser) FindExtends(source []byte, file ids.FileId) []ExtendsRef {
	tree := g.parseTree(source)
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
		if node.Kind() == "type_spec" {
			name := node.ChildByFieldName("name")
			typeNode := node.ChildByFieldName("type")
			if name != nil && typeNode != nil && typeNode.Kind() == "struct_type" {
				owner := nodeText(name, source)
				if list := fieldChildByKind(typeNode, "field_declaration_list"); list != nil {
					for i := uint(0); i < list.NamedChildCount(); i++ {
						fd := list.NamedChild(i)
						if fd == nil || fd.Kind() != "field_declaration" {
							continue
						}
						if fd.ChildByFieldName("name") == nil {
							if t := fd.ChildByFieldName("type"); t != nil {
								parent := trimStar(nodeText(t, source))
								out = append(out, ExtendsRef{ChildName: owner, ParentName: parent, Range: nodeRange(fd)})
							}
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

func trimStar(s string) string {
	for len(s) > 0 && s[0] == '*' {
		s = s[1:]
	}
	return s
}

func (g *GoParser) FindUses(source []byte, file ids.FileId) []UseRef {
	tree := g.parseTree(source)
	if tree == nil {
		return nil
	}
	defer tree.Close()
	var out []UseRef
	var rec func(node *sitter.Node, enclosing string)
	rec = func(node *sitter.Node, enclosing string) {
		if node == nil {
			return
		}
		switch node.Kind() {
		case "function_declaration", "method_declaration":
			if n := node.ChildByFieldName("name"); n != nil {
				enclosing = nodeText(n, source)
			}
			if params := node.ChildByFieldName("parameters"); params != nil {
				for i := uint(0); i < params.NamedChildCount(); i++ {
					p := params.NamedChild(i)
					if p == nil {
						continue
					}
					if t := p.ChildByFieldName("type"); t != nil {
						out = append(out, UseRef{FromName: enclosing, TypeName: trimStar(nodeText(t, source)), Range: nodeRange(t)})
					}
				}
			}
			if result := node.ChildByFieldName("result"); result != nil {
				out = append(out, UseRef{FromName: enclosing, TypeName: trimStar(nodeText(result, source)), Range: nodeRange(result)})
			}
		}
		for i := uint(0); i < node.NamedChildCount(); i++ {
			rec(node.NamedChild(i), enclosing)
		}
	}
	rec(tree.RootNode(), "")
	return out
}

func (g *GoParser) FindDefines(source []byte, file ids.FileId) []DefineRef {
	var out []DefineRef
	c := ids.NewCounter[uint64]()
	syms, _ := g.Parse(source, file, c)
	for _, s := range syms {
		if s.ScopeContext.Kind == symbol.ScopeClassMember && s.ScopeContext.Class != "" {
			out = append(out, DefineRef{OwnerName: s.ScopeContext.Class, MemberName: s.Name})
		}
	}
	return out
}

func (g *GoParser) FindInherentMethods(source []byte, file ids.FileId) []InherentMethodRef {
	var out []DefineRef
	c := ids.NewCounter[uint64]()
	syms, _ := g.Parse(source, file, c)
	_ = out
	var res []InherentMethodRef
	for _, s := range syms {
		if s.Kind == symbol.KindMethod && s.ScopeContext.Kind == symbol.ScopeClassMember {
			res = append(res, InherentMethodRef{TypeName: s.ScopeContext.Class, MethodName: s.Name})
		}
	}
	return res
}

func (g *GoParser) FindVariableTypes(source []byte, file ids.FileId) []VariableTypeRef {
	tree := g.parseTree(source)
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
		if node.Kind() == "var_spec" {
			t := node.ChildByFieldName("type")
			if t != nil {
				for i := uint(0); i < node.NamedChildCount(); i++ {
					c := node.NamedChild(i)
					if c != nil && c.Kind() == "identifier" {
						out = append(out, VariableTypeRef{VariableName: nodeText(c, source), TypeName: trimStar(nodeText(t, source))})
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
