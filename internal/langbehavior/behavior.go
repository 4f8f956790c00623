// Package langbehavior implements LanguageBehavior from spec §4.2: the
// bridge from parser output to the shared indexing pipeline. Each
// language's behavior owns its own BehaviorState and supplies the
// module-path, visibility, and import-matching conventions the rest of
// the pipeline treats as opaque per-language policy.
package langbehavior

import (
	"strings"

	"github.com/bartolli/codanna-go/internal/ids"
	"github.com/bartolli/codanna-go/internal/resolution"
	"github.com/bartolli/codanna-go/internal/symbol"
)

// Behavior is the per-language capability object from spec §4.2.
type Behavior interface {
	LanguageID() ids.LanguageId
	ModuleSeparator() string
	SupportsTraits() bool
	SupportsInherentMethods() bool
	InheritanceRelationName() string

	ModulePathFromFile(path, projectRoot string, extensions []string) (string, bool)
	FormatModulePath(base, symbolName string) string
	ParseVisibility(signature string) symbol.Visibility
	ConfigureSymbol(sym *symbol.Symbol, modulePath string)
	ImportMatchesSymbol(importPath, symbolModulePath, importingModule string) bool
	IsResolvableSymbol(sym *symbol.Symbol) bool
	IsSymbolVisibleFromFile(sym *symbol.Symbol, fromFile, declFile ids.FileId, sameModule bool) bool

	CreateResolutionContext(file ids.FileId) *resolution.Scope
	CreateInheritanceResolver() *resolution.InheritanceResolver

	ResolveExternalCallTarget(name string, file ids.FileId) symbol.Symbol
}

// State is BehaviorState from spec §4.2: FileId -> (path, module_path)
// and FileId -> imports, populated during ingest and read during
// resolution. Lifetime is process-wide; there is no teardown beyond
// letting the value drop.
type State struct {
	paths       map[ids.FileId]string
	modulePaths map[ids.FileId]string
	imports     map[ids.FileId][]symbol.Import
}

// NewState creates an empty BehaviorState.
func NewState() *State {
	return &State{
		paths:       make(map[ids.FileId]string),
		modulePaths: make(map[ids.FileId]string),
		imports:     make(map[ids.FileId][]symbol.Import),
	}
}

func (s *State) Set(file ids.FileId, path, modulePath string) {
	s.paths[file] = path
	s.modulePaths[file] = modulePath
}

func (s *State) Path(file ids.FileId) string       { return s.paths[file] }
func (s *State) ModulePath(file ids.FileId) string { return s.modulePaths[file] }

func (s *State) SetImports(file ids.FileId, imps []symbol.Import) { s.imports[file] = imps }
func (s *State) Imports(file ids.FileId) []symbol.Import          { return s.imports[file] }

// base carries the three-tier visibility model shared by every language:
// same file always visible, same module visible unless Private,
// cross-module requires Public (spec §4.2). Concrete behaviors embed
// base and override IsSymbolVisibleFromFile only when a language departs
// from it (Rust does: crate-visible symbols are visible everywhere).
type base struct{}

func (base) visible(sym *symbol.Symbol, fromFile, declFile ids.FileId, sameModule bool) bool {
	if fromFile == declFile {
		return true
	}
	if sameModule {
		return sym.Visibility != symbol.VisibilityPrivate
	}
	return sym.Visibility == symbol.VisibilityPublic
}

// createExternalSymbol stamps a stub Symbol in the virtual external/
// namespace for an imported-but-not-indexed reference (spec §4.2's
// "resolve_external_call_target / create_external_symbol").
func createExternalSymbol(name string, file ids.FileId, lang ids.LanguageId) symbol.Symbol {
	return symbol.Symbol{
		Name:       name,
		Kind:       symbol.KindFunction,
		FileID:     file,
		ModulePath: "external/" + name,
		Visibility: symbol.VisibilityPublic,
		LanguageID: lang,
	}
}

// normalizeRelative collapses `./`/`../` segments against base, the
// shared core of every language's relative-import handling.
func normalizeRelative(base, rel string, sep string) string {
	if !strings.HasPrefix(rel, ".") {
		return rel
	}
	baseParts := strings.Split(strings.TrimSuffix(base, sep), sep)
	relParts := strings.Split(rel, sep)
	for _, p := range relParts {
		switch p {
		case ".", "":
			// no-op
		case "..":
			if len(baseParts) > 0 {
				baseParts = baseParts[:len(baseParts)-1]
			}
		default:
			baseParts = append(baseParts, p)
		}
	}
	return strings.Join(baseParts, sep)
}
