// Package symbol holds the language-neutral data model from spec §3:
// Symbol, Relationship, Import, FileRecord, plus the Store that owns
// symbol records exclusively (indexes elsewhere hold SymbolId references
// only, per spec §3's ownership rule).
package symbol

import (
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/bartolli/codanna-go/internal/ids"
)

// Kind is the closed set of symbol kinds from spec §3.
type Kind uint8

const (
	KindFunction Kind = iota
	KindMethod
	KindClass
	KindStruct
	KindEnum
	KindInterface
	KindTrait
	KindModule
	KindField
	KindVariable
	KindConstant
	KindMacro
	KindTypeAlias
)

func (k Kind) String() string {
	switch k {
	case KindFunction:
		return "function"
	case KindMethod:
		return "method"
	case KindClass:
		return "class"
	case KindStruct:
		return "struct"
	case KindEnum:
		return "enum"
	case KindInterface:
		return "interface"
	case KindTrait:
		return "trait"
	case KindModule:
		return "module"
	case KindField:
		return "field"
	case KindVariable:
		return "variable"
	case KindConstant:
		return "constant"
	case KindMacro:
		return "macro"
	case KindTypeAlias:
		return "type_alias"
	default:
		return "unknown"
	}
}

// Visibility is the closed set of visibility tiers from spec §3 / §4.2.
type Visibility uint8

const (
	VisibilityPublic Visibility = iota
	VisibilityPrivate
	VisibilityModule
	VisibilityCrate
)

// ScopeContext is the symbol's declaration environment (spec §3, GLOSSARY).
type ScopeContextKind uint8

const (
	ScopeModule ScopeContextKind = iota
	ScopeGlobal
	ScopePackage
	ScopeLocal
	ScopeParameter
	ScopeClassMember
)

// ScopeContext carries the declaration-environment kind plus the two
// payloads that only apply to some kinds: Hoisted for ScopeLocal (JS/TS
// var/function hoisting) and Class for ScopeClassMember (owning type
// name, when known at parse time).
type ScopeContext struct {
	Kind    ScopeContextKind
	Hoisted bool
	Class   string
}

// Range is a half-open-by-convention source span: [Start, End), 1-based
// lines, 0-based columns, matching tree-sitter's own point convention.
type Range struct {
	StartLine, StartCol int
	EndLine, EndCol     int
}

// Symbol is the language-neutral record from spec §3.
type Symbol struct {
	ID            ids.SymbolId
	Name          string
	Kind          Kind
	FileID        ids.FileId
	Range         Range
	Signature     string
	DocComment    string
	Visibility    Visibility
	ModulePath    string
	ScopeContext  ScopeContext
	LanguageID    ids.LanguageId
	ContentHash   uint64
}

// ComputeContentHash implements spec §3's invariant:
// content_hash = H(name ⧺ signature), stable while text is semantically
// unchanged (whitespace reformatting of the same signature yields the
// same hash).
func ComputeContentHash(name, signature string) uint64 {
	h := xxhash.New()
	_, _ = h.WriteString(name)
	_, _ = h.WriteString("\x00")
	_, _ = h.WriteString(strings.Join(strings.Fields(signature), " "))
	return h.Sum64()
}

// RelationshipKind is the closed enumeration from spec §3. Every forward
// kind has exactly one inverse; Inverse() is total over this type.
type RelationshipKind uint8

const (
	Calls RelationshipKind = iota
	CalledBy
	Extends
	ExtendedBy
	Implements
	ImplementedBy
	Uses
	UsedBy
	Defines
	DefinedIn
	References
	ReferencedBy
)

// Inverse returns the inverse relationship kind. This is an exhaustive
// tagged-variant mapping, not a string lookup, per spec §9's design note
// on tagged relationship kinds.
func (k RelationshipKind) Inverse() RelationshipKind {
	switch k {
	case Calls:
		return CalledBy
	case CalledBy:
		return Calls
	case Extends:
		return ExtendedBy
	case ExtendedBy:
		return Extends
	case Implements:
		return ImplementedBy
	case ImplementedBy:
		return Implements
	case Uses:
		return UsedBy
	case UsedBy:
		return Uses
	case Defines:
		return DefinedIn
	case DefinedIn:
		return Defines
	case References:
		return ReferencedBy
	case ReferencedBy:
		return References
	default:
		panic("symbol: RelationshipKind.Inverse: unexhausted variant")
	}
}

func (k RelationshipKind) String() string {
	switch k {
	case Calls:
		return "calls"
	case CalledBy:
		return "called_by"
	case Extends:
		return "extends"
	case ExtendedBy:
		return "extended_by"
	case Implements:
		return "implements"
	case ImplementedBy:
		return "implemented_by"
	case Uses:
		return "uses"
	case UsedBy:
		return "used_by"
	case Defines:
		return "defines"
	case DefinedIn:
		return "defined_in"
	case References:
		return "references"
	case ReferencedBy:
		return "referenced_by"
	default:
		return "unknown"
	}
}

// Relationship is the language-neutral edge type from spec §3.
type Relationship struct {
	From  ids.SymbolId
	To    ids.SymbolId
	Kind  RelationshipKind
	Range Range
}

// Inverse returns the inverse edge: (To, Kind.Inverse(), From).
func (r Relationship) Inverse() Relationship {
	return Relationship{From: r.To, To: r.From, Kind: r.Kind.Inverse(), Range: r.Range}
}

// Import is stored as-written; path normalization is the behavior's job
// (spec §3).
type Import struct {
	FileID     ids.FileId
	Path       string
	Alias      string
	IsGlob     bool
	IsTypeOnly bool
}

// FileRecord is the per-file metadata row from spec §3.
type FileRecord struct {
	FileID      ids.FileId
	Path        string
	ContentHash uint64
	Timestamp   int64 // unix seconds; stamped by the caller, never time.Now() internally
	LanguageID  ids.LanguageId
}
