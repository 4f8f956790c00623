package langbehavior

import (
	"path"
	"strings"

	"github.com/bartolli/codanna-go/internal/ids"
	"github.com/bartolli/codanna-go/internal/resolution"
	"github.com/bartolli/codanna-go/internal/symbol"
)

// jsShared holds the logic JavaScriptBehavior and TypeScriptBehavior
// share; TypeScript's behavior additionally treats `export type`/
// `import type` as type-only bindings (IsTypeOnly on Import).
type jsShared struct{ base }

func (jsShared) ModuleSeparator() string         { return "/" }
func (jsShared) SupportsTraits() bool            { return false }
func (jsShared) SupportsInherentMethods() bool   { return false }
func (jsShared) InheritanceRelationName() string { return "extends" }

func (jsShared) ModulePathFromFile(filePath, projectRoot string, extensions []string) (string, bool) {
	rel := strings.TrimPrefix(filePath, projectRoot)
	rel = strings.TrimPrefix(rel, "/")
	base := path.Base(rel)
	dir := path.Dir(rel)
	if base == "index.ts" || base == "index.js" || base == "index.tsx" || base == "index.jsx" {
		rel = dir
	} else {
		for _, ext := range extensions {
			rel = strings.TrimSuffix(rel, ext)
		}
	}
	if rel == "." {
		return "", true
	}
	return "./" + rel, true
}

func (jsShared) FormatModulePath(base, symbolName string) string { return base }

func (jsShared) ParseVisibility(signature string) symbol.Visibility {
	s := strings.TrimSpace(signature)
	if strings.HasPrefix(s, "export ") || strings.Contains(s, "export default") {
		return symbol.VisibilityPublic
	}
	return symbol.VisibilityModule
}

func (b jsShared) ConfigureSymbol(sym *symbol.Symbol, modulePath string) {
	sym.ModulePath = modulePath
	sym.Visibility = b.ParseVisibility(sym.Signature)
}

func (jsShared) ImportMatchesSymbol(importPath, symbolModulePath, importingModule string) bool {
	rel := normalizeRelative(importingModule, importPath, "/")
	return rel == symbolModulePath || strings.TrimPrefix(rel, "./") == strings.TrimPrefix(symbolModulePath, "./")
}

func (jsShared) IsResolvableSymbol(sym *symbol.Symbol) bool { return true }

func (b jsShared) IsSymbolVisibleFromFile(sym *symbol.Symbol, fromFile, declFile ids.FileId, sameModule bool) bool {
	return b.visible(sym, fromFile, declFile, sameModule)
}

// jsLookupOrder implements spec's JS/TS canonical order: Local (let/const)
// -> Hoisted (functions/var) -> Imported -> Module -> Global.
func jsLookupOrder() resolution.LookupOrder {
	return resolution.LookupOrder{
		resolution.BucketLocal, resolution.BucketHoisted, resolution.BucketImported,
		resolution.BucketModule, resolution.BucketGlobal,
	}
}

type JavaScriptBehavior struct{ jsShared }

func NewJavaScriptBehavior() *JavaScriptBehavior { return &JavaScriptBehavior{} }

func (JavaScriptBehavior) LanguageID() ids.LanguageId { return ids.LangJavaScript }

func (JavaScriptBehavior) CreateResolutionContext(file ids.FileId) *resolution.Scope {
	return resolution.NewScope(file, jsLookupOrder())
}

func (JavaScriptBehavior) CreateInheritanceResolver() *resolution.InheritanceResolver {
	return resolution.NewInheritanceResolver()
}

func (JavaScriptBehavior) ResolveExternalCallTarget(name string, file ids.FileId) symbol.Symbol {
	return createExternalSymbol(name, file, ids.LangJavaScript)
}

// TypeScriptBehavior additionally consults a separate type-space per spec
// §4.3; since this build keeps one ResolutionScope per file rather than a
// parallel type-scope table, type-only lookups fall back to the same
// scope (a documented simplification — see DESIGN.md).
type TypeScriptBehavior struct{ jsShared }

func NewTypeScriptBehavior() *TypeScriptBehavior { return &TypeScriptBehavior{} }

func (TypeScriptBehavior) LanguageID() ids.LanguageId { return ids.LangTypeScript }

func (TypeScriptBehavior) CreateResolutionContext(file ids.FileId) *resolution.Scope {
	return resolution.NewScope(file, jsLookupOrder())
}

func (TypeScriptBehavior) CreateInheritanceResolver() *resolution.InheritanceResolver {
	return resolution.NewInheritanceResolver()
}

func (TypeScriptBehavior) ResolveExternalCallTarget(name string, file ids.FileId) symbol.Symbol {
	return createExternalSymbol(name, file, ids.LangTypeScript)
}
