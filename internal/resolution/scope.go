// Package resolution implements ResolutionScope and InheritanceResolver
// from spec §4.3/§4.4: a stacked, scope-typed symbol table and a
// directed multigraph over type names, both driven by a per-language
// lookup order supplied by internal/langbehavior.
package resolution

import (
	"github.com/bartolli/codanna-go/internal/ids"
	"github.com/bartolli/codanna-go/internal/symbol"
)

// Level is the scope level a binding lives at (spec §4.3).
type Level uint8

const (
	LevelLocal Level = iota
	LevelModule
	LevelPackage
	LevelGlobal
)

// Type is a pushed/popped scope kind (spec §4.3).
type Type uint8

const (
	TypeGlobal Type = iota
	TypeModule
	TypeClass
	TypeFunction
	TypeBlock
)

// ImportBinding records a name introduced into scope by an import,
// carrying enough of the original Import to re-derive visibility.
type ImportBinding struct {
	LocalName  string
	Path       string
	IsTypeOnly bool
}

type binding struct {
	id    ids.SymbolId
	level Level
}

type frame struct {
	kind    Type
	locals  map[string][]binding
	hoisted map[string][]binding // JS/TS function/var hoisting bucket
}

func newFrame(kind Type) *frame {
	return &frame{kind: kind, locals: make(map[string][]binding), hoisted: make(map[string][]binding)}
}

// LookupOrder is a language's resolve() search order, expressed as a list
// of bucket selectors evaluated in sequence (spec §4.3's per-language
// canonical orders).
type LookupOrder []Bucket

// Bucket names one of the places resolve() consults.
type Bucket uint8

const (
	BucketLocal Bucket = iota
	BucketHoisted
	BucketClassMembers
	BucketFile
	BucketImported
	BucketModule
	BucketPackage
	BucketGlobal
	BucketEnclosing
	BucketBuiltins
)

// Scope is the ResolutionScope from spec §4.3: a stack of frames plus the
// file-level symbol table, imports, and a language-supplied lookup order.
type Scope struct {
	file    ids.FileId
	order   LookupOrder
	stack   []*frame
	fileSym map[string][]ids.SymbolId // symbols declared in this file, by name
	module  map[string][]ids.SymbolId // symbols sharing this file's module path
	global  map[string][]ids.SymbolId // every public symbol project-wide
	imports map[string]ImportBinding
}

// NewScope creates an empty ResolutionScope for file, searched in order.
func NewScope(file ids.FileId, order LookupOrder) *Scope {
	return &Scope{
		file:    file,
		order:   order,
		stack:   []*frame{newFrame(TypeGlobal)},
		fileSym: make(map[string][]ids.SymbolId),
		module:  make(map[string][]ids.SymbolId),
		global:  make(map[string][]ids.SymbolId),
		imports: make(map[string]ImportBinding),
	}
}

// EnterScope pushes a new frame.
func (s *Scope) EnterScope(kind Type) { s.stack = append(s.stack, newFrame(kind)) }

// ExitScope pops the innermost frame. Exiting the outermost frame is a no-op.
func (s *Scope) ExitScope() {
	if len(s.stack) > 1 {
		s.stack = s.stack[:len(s.stack)-1]
	}
}

// ClearLocalScope empties the current frame's locals without popping it —
// used on leaving a function body while staying within its enclosing class.
func (s *Scope) ClearLocalScope() {
	top := s.stack[len(s.stack)-1]
	top.locals = make(map[string][]binding)
	top.hoisted = make(map[string][]binding)
}

// AddSymbol inserts name into the current frame at level.
func (s *Scope) AddSymbol(name string, id ids.SymbolId, level Level) {
	top := s.stack[len(s.stack)-1]
	top.locals[name] = append(top.locals[name], binding{id: id, level: level})
	switch level {
	case LevelModule:
		s.module[name] = append(s.module[name], id)
	case LevelGlobal:
		s.global[name] = append(s.global[name], id)
	}
	s.fileSym[name] = append(s.fileSym[name], id)
}

// AddSymbolWithContext places a symbol using its parser-assigned
// ScopeContext, implementing JS/TS/Python hoisting without re-walking the
// AST (spec §4.3).
func (s *Scope) AddSymbolWithContext(name string, id ids.SymbolId, ctx symbol.ScopeContext) {
	top := s.stack[len(s.stack)-1]
	switch ctx.Kind {
	case symbol.ScopeLocal:
		if ctx.Hoisted {
			top.hoisted[name] = append(top.hoisted[name], binding{id: id, level: LevelLocal})
		} else {
			top.locals[name] = append(top.locals[name], binding{id: id, level: LevelLocal})
		}
	case symbol.ScopeClassMember:
		top.locals[name] = append(top.locals[name], binding{id: id, level: LevelLocal})
	default:
		s.AddSymbol(name, id, LevelModule)
		return
	}
	s.fileSym[name] = append(s.fileSym[name], id)
}

// PopulateImports records a file's imports as resolvable bindings. The
// local name is the import's alias when it has one, else the last path
// segment.
func (s *Scope) PopulateImports(imports []symbol.Import) {
	for _, imp := range imports {
		local := imp.Alias
		if local == "" {
			local = lastSegment(imp.Path)
		}
		s.RegisterImportBinding(ImportBinding{LocalName: local, Path: imp.Path, IsTypeOnly: imp.IsTypeOnly})
	}
}

func lastSegment(path string) string {
	last := path
	for i := len(path) - 1; i >= 0; i-- {
		switch path[i] {
		case '/', '.', ':':
			return path[i+1:]
		}
	}
	return last
}

// RegisterImportBinding records one resolvable import-introduced name.
func (s *Scope) RegisterImportBinding(b ImportBinding) { s.imports[b.LocalName] = b }

// ImportBindingFor returns the import binding for name, if any.
func (s *Scope) ImportBindingFor(name string) (ImportBinding, bool) {
	b, ok := s.imports[name]
	return b, ok
}

// Resolve looks up name following the language's LookupOrder, returning
// the first match's SymbolId. Buckets are tried strictly in order; within
// BucketLocal/BucketHoisted, frames are searched innermost-first.
func (s *Scope) Resolve(name string) (ids.SymbolId, bool) {
	for _, b := range s.order {
		if id, ok := s.resolveBucket(b, name); ok {
			return id, true
		}
	}
	return 0, false
}

func (s *Scope) resolveBucket(b Bucket, name string) (ids.SymbolId, bool) {
	switch b {
	case BucketLocal:
		for i := len(s.stack) - 1; i >= 0; i-- {
			if binds, ok := s.stack[i].locals[name]; ok && len(binds) > 0 {
				return binds[len(binds)-1].id, true
			}
		}
	case BucketHoisted:
		for i := len(s.stack) - 1; i >= 0; i-- {
			if binds, ok := s.stack[i].hoisted[name]; ok && len(binds) > 0 {
				return binds[len(binds)-1].id, true
			}
		}
	case BucketClassMembers:
		if len(s.stack) >= 2 {
			if binds, ok := s.stack[len(s.stack)-1].locals[name]; ok && len(binds) > 0 {
				return binds[0].id, true
			}
		}
	case BucketEnclosing:
		for i := len(s.stack) - 2; i >= 0; i-- {
			if binds, ok := s.stack[i].locals[name]; ok && len(binds) > 0 {
				return binds[len(binds)-1].id, true
			}
		}
	case BucketFile:
		if ids2, ok := s.fileSym[name]; ok && len(ids2) > 0 {
			return ids2[0], true
		}
	case BucketImported:
		if _, ok := s.imports[name]; ok {
			return 0, false // the import resolves via behavior.ResolveExternalCallTarget, not a local id
		}
	case BucketModule, BucketPackage:
		if ids2, ok := s.module[name]; ok && len(ids2) > 0 {
			return ids2[0], true
		}
	case BucketGlobal, BucketBuiltins:
		if ids2, ok := s.global[name]; ok && len(ids2) > 0 {
			return ids2[0], true
		}
	}
	return 0, false
}

// ResolveRelationship resolves a "calls through member access" pattern
// (Class.method, alias.member): it first tries the full dotted name. If
// that fails and the receiver (everything before the last dot) is an
// imported name, it reports no match, leaving the caller to create an
// external-symbol stub; members are not looked up inside the imported
// module, so alias.member through a namespace import does not resolve
// here. For any other receiver it resolves the final segment alone.
func (s *Scope) ResolveRelationship(fromName, toName string, kind symbol.RelationshipKind) (ids.SymbolId, bool) {
	if id, ok := s.Resolve(toName); ok {
		return id, true
	}
	if dot := lastDot(toName); dot >= 0 {
		receiver, member := toName[:dot], toName[dot+1:]
		if _, ok := s.imports[receiver]; ok {
			return 0, false // external receiver; caller creates an external-symbol stub
		}
		if id, ok := s.Resolve(member); ok {
			return id, true
		}
	}
	return 0, false
}

func lastDot(s string) int {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == '.' {
			return i
		}
	}
	return -1
}

// IsCompatibleRelationship rejects type-system-impossible edges (a Field
// cannot Extends a Function, etc.) per spec §4.3.
func IsCompatibleRelationship(fromKind, toKind symbol.Kind, rel symbol.RelationshipKind) bool {
	typeLike := func(k symbol.Kind) bool {
		switch k {
		case symbol.KindClass, symbol.KindStruct, symbol.KindInterface, symbol.KindTrait, symbol.KindEnum:
			return true
		}
		return false
	}
	callable := func(k symbol.Kind) bool {
		return k == symbol.KindFunction || k == symbol.KindMethod
	}
	switch rel {
	case symbol.Extends, symbol.ExtendedBy:
		return typeLike(fromKind) && typeLike(toKind)
	case symbol.Implements, symbol.ImplementedBy:
		return typeLike(fromKind) && typeLike(toKind)
	case symbol.Calls, symbol.CalledBy:
		return callable(fromKind)
	case symbol.Defines, symbol.DefinedIn:
		return typeLike(fromKind) || typeLike(toKind)
	}
	return true
}
