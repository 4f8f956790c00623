package langparser

import (
	sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/bartolli/codanna-go/internal/ids"
	"github.com/bartolli/codanna-go/internal/symbol"
)

// declSpec describes how one grammar node kind maps onto a Symbol.
type declSpec struct {
	kind       symbol.Kind
	bodyField  string // field holding the node's body; signature = text before it
	nameField  string // field holding the declared name; "" falls back to "name" then first identifier child
	container  bool   // true if this node's descendants are members of it (class/struct/interface/impl bodies)
	transparent bool  // true for nodes (Rust impl blocks) that establish a container scope for their children without themselves becoming a Symbol
}

// langSpec is the per-language configuration the shared walker consumes.
// It plays the role the teacher's BaseExtractor + per-language extractor
// pair plays, but keeps the declaration table as data instead of
// duplicating the walk for every language.
type langSpec struct {
	lang          ids.LanguageId
	commentKinds  map[string]bool
	modifierKinds map[string]bool
	decls         map[string]declSpec
	callKinds     map[string]string // call-expression node kind -> field holding the callee
	memberAccess  string            // node kind for `recv.Method(...)` style call target, e.g. "selector_expression"
	importKinds   map[string]bool
	typeUseFields []string // field names on decl nodes whose text is a type use (param/return types)
}

type walker struct {
	spec    langSpec
	source  []byte
	file    ids.FileId
	counter *ids.Counter[uint64]
	audit   *kindAudit
	out     []*symbol.Symbol
}

// Parse is the shared tree-walk entry point every language implementation
// calls after parsing source into a tree. It recurses depth-bounded
// (spec §4.1), skips malformed subtrees at the node level rather than
// failing the whole file, and stamps ScopeContext from nesting: top
// level is ScopeModule, inside a container is ScopeClassMember{class},
// inside a function body is ScopeLocal.
func Parse(spec langSpec, source []byte, tree *sitter.Tree, file ids.FileId, counter *ids.Counter[uint64], audit *kindAudit) []*symbol.Symbol {
	if tree == nil {
		return nil
	}
	root := tree.RootNode()
	if root == nil {
		return nil
	}
	w := &walker{spec: spec, source: source, file: file, counter: counter, audit: audit}
	w.walk(root, 0, "", symbol.ScopeContext{Kind: symbol.ScopeModule})
	return w.out
}

func (w *walker) declName(node *sitter.Node, ds declSpec) string {
	field := ds.nameField
	if field == "" {
		field = "name"
	}
	if n := node.ChildByFieldName(field); n != nil {
		return nodeText(n, w.source)
	}
	// fall back to the first identifier-ish named child
	for i := uint(0); i < node.NamedChildCount(); i++ {
		c := node.NamedChild(i)
		if c == nil {
			continue
		}
		k := c.Kind()
		if k == "identifier" || k == "type_identifier" || k == "field_identifier" || k == "property_identifier" {
			return nodeText(c, w.source)
		}
	}
	return ""
}

func (w *walker) signature(node *sitter.Node, ds declSpec) string {
	if ds.bodyField == "" {
		return nodeText(node, w.source)
	}
	body := node.ChildByFieldName(ds.bodyField)
	if body == nil {
		return nodeText(node, w.source)
	}
	start, end := node.StartByte(), body.StartByte()
	if end <= start || end > uint(len(w.source)) {
		return nodeText(node, w.source)
	}
	return trimRight(string(w.source[start:end]))
}

func trimRight(s string) string {
	i := len(s)
	for i > 0 && (s[i-1] == ' ' || s[i-1] == '\n' || s[i-1] == '\t' || s[i-1] == '\r') {
		i--
	}
	return s[:i]
}

func (w *walker) walk(node *sitter.Node, depth int, className string, ctx symbol.ScopeContext) {
	if node == nil || depth > maxRecursionDepth {
		return
	}

	kind := node.Kind()
	if ds, ok := w.spec.decls[kind]; ok {
		w.audit.mark(kind)
		name := w.declName(node, ds)
		if name != "" && ds.transparent {
			childCtx := symbol.ScopeContext{Kind: symbol.ScopeClassMember, Class: name}
			for i := uint(0); i < node.NamedChildCount(); i++ {
				w.walk(node.NamedChild(i), depth+1, name, childCtx)
			}
			return
		}
		if name != "" {
			sym := &symbol.Symbol{
				ID:           ids.SymbolId(w.counter.Next()),
				Name:         name,
				Kind:         ds.kind,
				FileID:       w.file,
				Range:        nodeRange(node),
				Signature:    w.signature(node, ds),
				DocComment:   docCommentBefore(node, w.source, w.spec.commentKinds, w.spec.modifierKinds),
				ScopeContext: ctx,
				LanguageID:   w.spec.lang,
			}
			sym.ContentHash = symbol.ComputeContentHash(sym.Name, sym.Signature)
			w.out = append(w.out, sym)

			childCtx := symbol.ScopeContext{Kind: symbol.ScopeLocal}
			nextClass := className
			if ds.container {
				childCtx = symbol.ScopeContext{Kind: symbol.ScopeClassMember, Class: name}
				nextClass = name
			}
			for i := uint(0); i < node.NamedChildCount(); i++ {
				w.walk(node.NamedChild(i), depth+1, nextClass, childCtx)
			}
			return
		}
	}

	for i := uint(0); i < node.NamedChildCount(); i++ {
		w.walk(node.NamedChild(i), depth+1, className, ctx)
	}
}

// collectTypeUses walks decl nodes looking for spec.typeUseFields content,
// producing UseRef entries (shared implementation for FindUses).
func collectTypeUses(spec langSpec, source []byte, tree *sitter.Tree) []UseRef {
	if tree == nil || tree.RootNode() == nil {
		return nil
	}
	var out []UseRef
	var rec func(node *sitter.Node, enclosing string)
	rec = func(node *sitter.Node, enclosing string) {
		if node == nil {
			return
		}
		kind := node.Kind()
		if ds, ok := spec.decls[kind]; ok {
			name := ""
			field := ds.nameField
			if field == "" {
				field = "name"
			}
			if n := node.ChildByFieldName(field); n != nil {
				name = nodeText(n, source)
			}
			for _, tf := range spec.typeUseFields {
				if tn := node.ChildByFieldName(tf); tn != nil {
					out = append(out, UseRef{FromName: name, TypeName: nodeText(tn, source), Range: nodeRange(tn)})
				}
			}
			if name != "" {
				enclosing = name
			}
		}
		for i := uint(0); i < node.NamedChildCount(); i++ {
			rec(node.NamedChild(i), enclosing)
		}
	}
	rec(tree.RootNode(), "")
	return out
}

// collectCalls walks the tree for call-expression kinds, recording the
// innermost enclosing function/method name as the caller.
func collectCalls(spec langSpec, source []byte, tree *sitter.Tree) ([]CallRef, []MethodCallRef) {
	if tree == nil || tree.RootNode() == nil {
		return nil, nil
	}
	var calls []CallRef
	var methodCalls []MethodCallRef
	var rec func(node *sitter.Node, enclosing string)
	rec = func(node *sitter.Node, enclosing string) {
		if node == nil {
			return
		}
		kind := node.Kind()
		if ds, ok := spec.decls[kind]; ok {
			field := ds.nameField
			if field == "" {
				field = "name"
			}
			if n := node.ChildByFieldName(field); n != nil {
				if t := nodeText(n, source); t != "" {
					enclosing = t
				}
			}
		}
		if field, ok := spec.callKinds[kind]; ok {
			callee := node.ChildByFieldName(field)
			if callee != nil {
				if callee.Kind() == spec.memberAccess {
					recv := callee.ChildByFieldName("operand")
					if recv == nil {
						recv = callee.NamedChild(0)
					}
					method := callee.ChildByFieldName("field")
					if method == nil && callee.NamedChildCount() > 1 {
						method = callee.NamedChild(1)
					}
					if recv != nil && method != nil {
						methodCalls = append(methodCalls, MethodCallRef{
							FromName: enclosing, ReceiverName: nodeText(recv, source),
							MethodName: nodeText(method, source), Range: nodeRange(node),
						})
					}
				} else {
					calls = append(calls, CallRef{FromName: enclosing, ToName: nodeText(callee, source), Range: nodeRange(node)})
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
