package langbehavior

import (
	"path"
	"strings"

	"github.com/bartolli/codanna-go/internal/ids"
	"github.com/bartolli/codanna-go/internal/resolution"
	"github.com/bartolli/codanna-go/internal/symbol"
)

// javaLikeOrder implements spec's Rust/C++/Java/C#/Kotlin/Swift order:
// Local -> Type/Class members -> File -> Imported -> Package/Global.
func javaLikeOrder() resolution.LookupOrder {
	return resolution.LookupOrder{
		resolution.BucketLocal, resolution.BucketClassMembers, resolution.BucketFile,
		resolution.BucketImported, resolution.BucketPackage, resolution.BucketGlobal,
	}
}

// JavaBehavior: module path is the package declaration (dotted), not the
// directory — Java's package statement is authoritative over layout.
type JavaBehavior struct{ base }

func NewJavaBehavior() *JavaBehavior { return &JavaBehavior{} }

func (JavaBehavior) LanguageID() ids.LanguageId      { return ids.LangJava }
func (JavaBehavior) ModuleSeparator() string         { return "." }
func (JavaBehavior) SupportsTraits() bool            { return false }
func (JavaBehavior) SupportsInherentMethods() bool   { return false }
func (JavaBehavior) InheritanceRelationName() string { return "extends" }

// ModulePathFromFile falls back to the directory-derived dotted path;
// the pipeline overrides this with the parsed `package` declaration when
// one is present (java.io-style authoritative source), matching the
// behavior's documented "honors source roots" clause.
func (JavaBehavior) ModulePathFromFile(filePath, projectRoot string, extensions []string) (string, bool) {
	rel := strings.TrimPrefix(filePath, projectRoot)
	rel = strings.TrimPrefix(rel, "/")
	rel = strings.TrimSuffix(rel, ".java")
	for _, root := range []string{"src/main/java/", "src/test/java/", "src/"} {
		if strings.HasPrefix(rel, root) {
			rel = strings.TrimPrefix(rel, root)
			break
		}
	}
	dir := path.Dir(rel)
	if dir == "." {
		return "", true
	}
	return strings.ReplaceAll(dir, "/", "."), true
}

func (JavaBehavior) FormatModulePath(base, symbolName string) string { return base }

func (JavaBehavior) ParseVisibility(signature string) symbol.Visibility {
	s := strings.TrimSpace(signature)
	switch {
	case strings.Contains(s, "private "):
		return symbol.VisibilityPrivate
	case strings.Contains(s, "protected "):
		return symbol.VisibilityModule
	case strings.Contains(s, "public "):
		return symbol.VisibilityPublic
	default:
		return symbol.VisibilityModule // package-private
	}
}

func (b JavaBehavior) ConfigureSymbol(sym *symbol.Symbol, modulePath string) {
	sym.ModulePath = modulePath
	sym.Visibility = b.ParseVisibility(sym.Signature)
}

func (JavaBehavior) ImportMatchesSymbol(importPath, symbolModulePath, importingModule string) bool {
	if idx := strings.LastIndex(importPath, "."); idx >= 0 {
		importPath = importPath[:idx]
	}
	return importPath == symbolModulePath
}

func (JavaBehavior) IsResolvableSymbol(sym *symbol.Symbol) bool { return true }

func (b JavaBehavior) IsSymbolVisibleFromFile(sym *symbol.Symbol, fromFile, declFile ids.FileId, sameModule bool) bool {
	return b.visible(sym, fromFile, declFile, sameModule)
}

func (JavaBehavior) CreateResolutionContext(file ids.FileId) *resolution.Scope {
	return resolution.NewScope(file, javaLikeOrder())
}

func (JavaBehavior) CreateInheritanceResolver() *resolution.InheritanceResolver {
	return resolution.NewInheritanceResolver()
}

func (JavaBehavior) ResolveExternalCallTarget(name string, file ids.FileId) symbol.Symbol {
	return createExternalSymbol(name, file, ids.LangJava)
}
