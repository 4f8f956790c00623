package langbehavior

import (
	"path"
	"strings"

	"github.com/bartolli/codanna-go/internal/ids"
	"github.com/bartolli/codanna-go/internal/resolution"
	"github.com/bartolli/codanna-go/internal/symbol"
)

// CSharpBehavior: module path is the (possibly file-scoped) namespace.
// Falls back to the directory path when no namespace declaration is
// parsed, same ladder as Java.
type CSharpBehavior struct{ base }

func NewCSharpBehavior() *CSharpBehavior { return &CSharpBehavior{} }

func (CSharpBehavior) LanguageID() ids.LanguageId      { return ids.LangCSharp }
func (CSharpBehavior) ModuleSeparator() string         { return "." }
func (CSharpBehavior) SupportsTraits() bool            { return false }
func (CSharpBehavior) SupportsInherentMethods() bool   { return false }
func (CSharpBehavior) InheritanceRelationName() string { return "extends" }

func (CSharpBehavior) ModulePathFromFile(filePath, projectRoot string, extensions []string) (string, bool) {
	rel := strings.TrimPrefix(filePath, projectRoot)
	rel = strings.TrimPrefix(rel, "/")
	dir := path.Dir(rel)
	if dir == "." {
		return "", true
	}
	return strings.ReplaceAll(dir, "/", "."), true
}

func (CSharpBehavior) FormatModulePath(base, symbolName string) string { return base }

func (CSharpBehavior) ParseVisibility(signature string) symbol.Visibility {
	s := strings.TrimSpace(signature)
	switch {
	case strings.Contains(s, "private "):
		return symbol.VisibilityPrivate
	case strings.Contains(s, "internal "):
		return symbol.VisibilityModule
	case strings.Contains(s, "public "):
		return symbol.VisibilityPublic
	default:
		return symbol.VisibilityPrivate // C# default member access is private
	}
}

func (b CSharpBehavior) ConfigureSymbol(sym *symbol.Symbol, modulePath string) {
	sym.ModulePath = modulePath
	sym.Visibility = b.ParseVisibility(sym.Signature)
}

func (CSharpBehavior) ImportMatchesSymbol(importPath, symbolModulePath, importingModule string) bool {
	return importPath == symbolModulePath || strings.HasPrefix(symbolModulePath, importPath+".")
}

func (CSharpBehavior) IsResolvableSymbol(sym *symbol.Symbol) bool { return true }

func (b CSharpBehavior) IsSymbolVisibleFromFile(sym *symbol.Symbol, fromFile, declFile ids.FileId, sameModule bool) bool {
	return b.visible(sym, fromFile, declFile, sameModule)
}

func (CSharpBehavior) CreateResolutionContext(file ids.FileId) *resolution.Scope {
	return resolution.NewScope(file, resolution.LookupOrder{
		resolution.BucketLocal, resolution.BucketClassMembers, resolution.BucketFile,
		resolution.BucketImported, resolution.BucketPackage, resolution.BucketGlobal,
	})
}

func (CSharpBehavior) CreateInheritanceResolver() *resolution.InheritanceResolver {
	return resolution.NewInheritanceResolver()
}

func (CSharpBehavior) ResolveExternalCallTarget(name string, file ids.FileId) symbol.Symbol {
	return createExternalSymbol(name, file, ids.LangCSharp)
}
