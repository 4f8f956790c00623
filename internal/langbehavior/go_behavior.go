package langbehavior

import (
	"path"
	"strings"
	"unicode"

	"github.com/bartolli/codanna-go/internal/ids"
	"github.com/bartolli/codanna-go/internal/resolution"
	"github.com/bartolli/codanna-go/internal/symbol"
)

// GoBehavior: module path is the package import path (directory path
// relative to the module root); visibility is the exported-identifier
// convention (leading uppercase).
type GoBehavior struct{ base }

func NewGoBehavior() *GoBehavior { return &GoBehavior{} }

func (GoBehavior) LanguageID() ids.LanguageId         { return ids.LangGo }
func (GoBehavior) ModuleSeparator() string            { return "/" }
func (GoBehavior) SupportsTraits() bool               { return false }
func (GoBehavior) SupportsInherentMethods() bool      { return true }
func (GoBehavior) InheritanceRelationName() string    { return "embeds" }

func (GoBehavior) ModulePathFromFile(filePath, projectRoot string, extensions []string) (string, bool) {
	rel := strings.TrimPrefix(filePath, projectRoot)
	rel = strings.TrimPrefix(rel, "/")
	dir := path.Dir(rel)
	if dir == "." {
		return "", true
	}
	return dir, true
}

func (GoBehavior) FormatModulePath(base, symbolName string) string { return base }

func (GoBehavior) ParseVisibility(signature string) symbol.Visibility {
	name := firstIdentifierAfterKeyword(signature)
	if name == "" || !unicode.IsUpper(rune(name[0])) {
		return symbol.VisibilityPrivate
	}
	return symbol.VisibilityPublic
}

// firstIdentifierAfterKeyword extracts the declared name from a Go
// signature like "func Foo(...)" or "type Bar struct" for the exported
// check; falls back to the first identifier run in the text.
func firstIdentifierAfterKeyword(sig string) string {
	fields := strings.Fields(sig)
	for i, f := range fields {
		if f == "func" || f == "type" || f == "var" || f == "const" {
			if i+1 < len(fields) {
				name := fields[i+1]
				if idx := strings.IndexAny(name, "([*"); idx >= 0 {
					name = name[:idx]
				}
				return name
			}
		}
	}
	if len(fields) > 0 {
		return fields[0]
	}
	return ""
}

func (b GoBehavior) ConfigureSymbol(sym *symbol.Symbol, modulePath string) {
	sym.ModulePath = modulePath
	sym.Visibility = b.ParseVisibility(sym.Signature)
}

func (GoBehavior) ImportMatchesSymbol(importPath, symbolModulePath, importingModule string) bool {
	importPath = strings.Trim(importPath, `"`+"`")
	return importPath == symbolModulePath || strings.HasSuffix(importPath, "/"+symbolModulePath)
}

func (GoBehavior) IsResolvableSymbol(sym *symbol.Symbol) bool { return sym.Name != "_" }

func (b GoBehavior) IsSymbolVisibleFromFile(sym *symbol.Symbol, fromFile, declFile ids.FileId, sameModule bool) bool {
	return b.visible(sym, fromFile, declFile, sameModule)
}

func (GoBehavior) CreateResolutionContext(file ids.FileId) *resolution.Scope {
	return resolution.NewScope(file, resolution.LookupOrder{
		resolution.BucketLocal, resolution.BucketClassMembers, resolution.BucketFile,
		resolution.BucketImported, resolution.BucketPackage, resolution.BucketGlobal,
	})
}

func (GoBehavior) CreateInheritanceResolver() *resolution.InheritanceResolver {
	return resolution.NewInheritanceResolver()
}

func (GoBehavior) ResolveExternalCallTarget(name string, file ids.FileId) symbol.Symbol {
	return createExternalSymbol(name, file, ids.LangGo)
}
