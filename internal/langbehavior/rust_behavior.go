package langbehavior

import (
	"path"
	"strings"

	"github.com/bartolli/codanna-go/internal/ids"
	"github.com/bartolli/codanna-go/internal/resolution"
	"github.com/bartolli/codanna-go/internal/symbol"
)

// RustBehavior: module path follows the crate's `::`-separated module
// tree, derived from the directory path with `mod.rs`/`lib.rs`/`main.rs`
// collapsing to their parent (the index-file convention, generalized
// from JS's `index.ts` handling).
type RustBehavior struct{ base }

func NewRustBehavior() *RustBehavior { return &RustBehavior{} }

func (RustBehavior) LanguageID() ids.LanguageId      { return ids.LangRust }
func (RustBehavior) ModuleSeparator() string         { return "::" }
func (RustBehavior) SupportsTraits() bool            { return true }
func (RustBehavior) SupportsInherentMethods() bool    { return true }
func (RustBehavior) InheritanceRelationName() string { return "implements" }

func (RustBehavior) ModulePathFromFile(filePath, projectRoot string, extensions []string) (string, bool) {
	rel := strings.TrimPrefix(filePath, projectRoot)
	rel = strings.TrimPrefix(rel, "/")
	base := path.Base(rel)
	dir := path.Dir(rel)
	if base == "mod.rs" || base == "lib.rs" || base == "main.rs" {
		rel = dir
	} else {
		rel = strings.TrimSuffix(rel, ".rs")
	}
	rel = strings.TrimPrefix(rel, "src/")
	if rel == "." || rel == "" {
		return "crate", true
	}
	return "crate::" + strings.ReplaceAll(rel, "/", "::"), true
}

func (RustBehavior) FormatModulePath(base, symbolName string) string { return base }

func (RustBehavior) ParseVisibility(signature string) symbol.Visibility {
	s := strings.TrimSpace(signature)
	if strings.HasPrefix(s, "pub(crate)") {
		return symbol.VisibilityCrate
	}
	if strings.HasPrefix(s, "pub") {
		return symbol.VisibilityPublic
	}
	return symbol.VisibilityModule
}

func (b RustBehavior) ConfigureSymbol(sym *symbol.Symbol, modulePath string) {
	sym.ModulePath = modulePath
	sym.Visibility = b.ParseVisibility(sym.Signature)
}

func (RustBehavior) ImportMatchesSymbol(importPath, symbolModulePath, importingModule string) bool {
	importPath = strings.TrimPrefix(importPath, "crate::")
	importPath = strings.TrimPrefix(importPath, "self::")
	sym := strings.TrimPrefix(symbolModulePath, "crate::")
	return importPath == sym || strings.HasSuffix(sym, "::"+importPath)
}

func (RustBehavior) IsResolvableSymbol(sym *symbol.Symbol) bool { return sym.Name != "_" }

func (b RustBehavior) IsSymbolVisibleFromFile(sym *symbol.Symbol, fromFile, declFile ids.FileId, sameModule bool) bool {
	if sym.Visibility == symbol.VisibilityCrate {
		return true // crate-visibility is project-wide by definition
	}
	return b.visible(sym, fromFile, declFile, sameModule)
}

func (RustBehavior) CreateResolutionContext(file ids.FileId) *resolution.Scope {
	return resolution.NewScope(file, resolution.LookupOrder{
		resolution.BucketLocal, resolution.BucketClassMembers, resolution.BucketFile,
		resolution.BucketImported, resolution.BucketPackage, resolution.BucketGlobal,
	})
}

func (RustBehavior) CreateInheritanceResolver() *resolution.InheritanceResolver {
	return resolution.NewInheritanceResolver()
}

func (RustBehavior) ResolveExternalCallTarget(name string, file ids.FileId) symbol.Symbol {
	return createExternalSymbol(name, file, ids.LangRust)
}
