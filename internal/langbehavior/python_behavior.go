package langbehavior

import (
	"path"
	"strings"

	"github.com/bartolli/codanna-go/internal/ids"
	"github.com/bartolli/codanna-go/internal/resolution"
	"github.com/bartolli/codanna-go/internal/symbol"
)

// PythonBehavior: module path is the dotted package path; `__init__.py`
// collapses to its containing package, matching the index-file
// convention spec §4.2 calls out by name.
type PythonBehavior struct{ base }

func NewPythonBehavior() *PythonBehavior { return &PythonBehavior{} }

func (PythonBehavior) LanguageID() ids.LanguageId      { return ids.LangPython }
func (PythonBehavior) ModuleSeparator() string         { return "." }
func (PythonBehavior) SupportsTraits() bool            { return false }
func (PythonBehavior) SupportsInherentMethods() bool   { return true }
func (PythonBehavior) InheritanceRelationName() string { return "extends" }

func (PythonBehavior) ModulePathFromFile(filePath, projectRoot string, extensions []string) (string, bool) {
	rel := strings.TrimPrefix(filePath, projectRoot)
	rel = strings.TrimPrefix(rel, "/")
	base := path.Base(rel)
	dir := path.Dir(rel)
	if base == "__init__.py" {
		rel = dir
	} else {
		rel = strings.TrimSuffix(rel, ".py")
	}
	if rel == "." || rel == "" {
		return "", true
	}
	return strings.ReplaceAll(rel, "/", "."), true
}

func (PythonBehavior) FormatModulePath(base, symbolName string) string { return base }

func (PythonBehavior) ParseVisibility(signature string) symbol.Visibility {
	name := pyDeclName(signature)
	if strings.HasPrefix(name, "__") && !strings.HasSuffix(name, "__") {
		return symbol.VisibilityPrivate
	}
	if strings.HasPrefix(name, "_") {
		return symbol.VisibilityModule
	}
	return symbol.VisibilityPublic
}

func pyDeclName(sig string) string {
	fields := strings.Fields(sig)
	for i, f := range fields {
		if f == "def" || f == "class" {
			if i+1 < len(fields) {
				name := fields[i+1]
				if idx := strings.IndexAny(name, "(:"); idx >= 0 {
					name = name[:idx]
				}
				return name
			}
		}
	}
	return ""
}

func (b PythonBehavior) ConfigureSymbol(sym *symbol.Symbol, modulePath string) {
	sym.ModulePath = modulePath
	sym.Visibility = b.ParseVisibility(sym.Signature)
}

func (PythonBehavior) ImportMatchesSymbol(importPath, symbolModulePath, importingModule string) bool {
	rel := normalizeRelative(importingModule, importPath, ".")
	return rel == symbolModulePath
}

func (PythonBehavior) IsResolvableSymbol(sym *symbol.Symbol) bool { return true }

func (b PythonBehavior) IsSymbolVisibleFromFile(sym *symbol.Symbol, fromFile, declFile ids.FileId, sameModule bool) bool {
	return b.visible(sym, fromFile, declFile, sameModule)
}

func (PythonBehavior) CreateResolutionContext(file ids.FileId) *resolution.Scope {
	return resolution.NewScope(file, resolution.LookupOrder{
		resolution.BucketLocal, resolution.BucketEnclosing, resolution.BucketModule,
		resolution.BucketImported, resolution.BucketBuiltins,
	})
}

func (PythonBehavior) CreateInheritanceResolver() *resolution.InheritanceResolver {
	return resolution.NewInheritanceResolver()
}

func (PythonBehavior) ResolveExternalCallTarget(name string, file ids.FileId) symbol.Symbol {
	return createExternalSymbol(name, file, ids.LangPython)
}
