// Package langparser implements the LanguageParser contract from spec
// §4.1: given UTF-8 source and a file id plus a continuing symbol
// counter, produce symbols (with range/signature/doc_comment/scope
// context pre-filled, visibility and module_path left for the
// LanguageBehavior to fill in) and, on demand, the relationship-finding
// queries (calls, method calls, implementations, extends, uses, defines,
// imports, inherent methods, variable types).
//
// Each language implementation walks its grammar's concrete tree
// recursively node by node, recognizing a fixed, per-language set of node
// kinds. Every handled kind is registered in a kindAudit so a coverage-gap
// report can be produced per grammar
// (spec §9's "audit of handled node kinds").
package langparser

import (
	sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/bartolli/codanna-go/internal/ids"
	"github.com/bartolli/codanna-go/internal/symbol"
)

// maxRecursionDepth bounds the tree walk so a pathological, deeply
// nested input cannot blow the Go stack (spec §4.1: "recursion is
// depth-bounded").
const maxRecursionDepth = 512

// CallRef is a found call site: the caller symbol (if known from
// enclosing scope), the callee name as written, and its range.
type CallRef struct {
	FromName string // enclosing function/method name, "" if at top level
	ToName   string
	Range    symbol.Range
}

// MethodCallRef is a call through a receiver: `recv.Method()`.
type MethodCallRef struct {
	FromName     string
	ReceiverName string
	MethodName   string
	Range        symbol.Range
}

// ImplRef records a type implementing/conforming to another.
type ImplRef struct {
	TypeName   string
	TargetName string
	Range      symbol.Range
}

// ExtendsRef records a type extending/inheriting another.
type ExtendsRef struct {
	ChildName  string
	ParentName string
	Range      symbol.Range
}

// UseRef records a type use (parameter type, field type, return type).
type UseRef struct {
	FromName string
	TypeName string
	Range    symbol.Range
}

// DefineRef records a symbol defining a member (class defines method).
type DefineRef struct {
	OwnerName  string
	MemberName string
	Range      symbol.Range
}

// InherentMethodRef records a method defined directly on a type, not via
// inheritance (Go receiver methods, Rust `impl Type { fn ... }` blocks,
// Swift/Kotlin extension methods).
type InherentMethodRef struct {
	TypeName   string
	MethodName string
}

// VariableTypeRef records the declared or inferred type of a variable,
// used by ResolutionScope to resolve member access through a local.
type VariableTypeRef struct {
	VariableName string
	TypeName     string
}

// Parser is the per-language contract from spec §4.1.
type Parser interface {
	Language() ids.LanguageId
	Extensions() []string

	// Parse produces symbols for source. The counter is advanced for
	// every symbol created so callers can continue a single counter
	// across files within one index generation, per spec §3.
	Parse(source []byte, file ids.FileId, counter *ids.Counter[uint64]) ([]*symbol.Symbol, error)

	FindCalls(source []byte, file ids.FileId) []CallRef
	FindMethodCalls(source []byte, file ids.FileId) []MethodCallRef
	FindImplementations(source []byte, file ids.FileId) []ImplRef
	FindExtends(source []byte, file ids.FileId) []ExtendsRef
	FindUses(source []byte, file ids.FileId) []UseRef
	FindDefines(source []byte, file ids.FileId) []DefineRef
	FindImports(source []byte, file ids.FileId) []symbol.Import
	FindInherentMethods(source []byte, file ids.FileId) []InherentMethodRef
	FindVariableTypes(source []byte, file ids.FileId) []VariableTypeRef

	// HandledKinds returns the grammar node kinds this parser recognizes,
	// for the coverage audit (spec §9).
	HandledKinds() []string
}

// nodeText returns the UTF-8 slice of source covered by node.
func nodeText(node *sitter.Node, source []byte) string {
	if node == nil {
		return ""
	}
	start, end := node.StartByte(), node.EndByte()
	if end > uint(len(source)) || start > end {
		return ""
	}
	return string(source[start:end])
}

func nodeRange(node *sitter.Node) symbol.Range {
	if node == nil {
		return symbol.Range{}
	}
	s, e := node.StartPosition(), node.EndPosition()
	return symbol.Range{
		StartLine: int(s.Row) + 1,
		StartCol:  int(s.Column),
		EndLine:   int(e.Row) + 1,
		EndCol:    int(e.Column),
	}
}

// kindAudit is a per-parser set of node kinds encountered during a walk,
// populated by mark and read by the audit command (spec §9).
type kindAudit struct {
	seen map[string]struct{}
}

func newKindAudit() *kindAudit { return &kindAudit{seen: make(map[string]struct{})} }

func (a *kindAudit) mark(kind string) { a.seen[kind] = struct{}{} }

func (a *kindAudit) kinds() []string {
	out := make([]string, 0, len(a.seen))
	for k := range a.seen {
		out = append(out, k)
	}
	return out
}

// docCommentBefore walks backward over immediately preceding comment
// siblings — a contiguous block, stopping at the first non-comment,
// non-modifier node — per spec §4.1's doc-comment convention. commentKind
// names the grammar's line/block comment node kind(s); modifierKinds
// names node kinds (e.g. Java/C# annotations/attributes) that are
// transparent to the walk.
func docCommentBefore(node *sitter.Node, source []byte, commentKinds, modifierKinds map[string]bool) string {
	if node == nil || node.Parent() == nil {
		return ""
	}
	var lines []string
	cur := node.PrevSibling()
	for cur != nil {
		k := cur.Kind()
		if commentKinds[k] {
			lines = append([]string{nodeText(cur, source)}, lines...)
			cur = cur.PrevSibling()
			continue
		}
		if modifierKinds[k] {
			cur = cur.PrevSibling()
			continue
		}
		break
	}
	if len(lines) == 0 {
		return ""
	}
	out := lines[0]
	for _, l := range lines[1:] {
		out += "\n" + l
	}
	return out
}
