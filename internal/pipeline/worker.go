package pipeline

import (
	"fmt"

	"github.com/cespare/xxhash/v2"

	"github.com/bartolli/codanna-go/internal/ids"
	"github.com/bartolli/codanna-go/internal/langbehavior"
	"github.com/bartolli/codanna-go/internal/langparser"
	"github.com/bartolli/codanna-go/internal/symbol"
)

// parsed is one file's output from the parse+configure stage (spec
// §4.5's step (a)+(b)): symbols already carry module_path/visibility,
// plus the raw name-reference batches the resolve stage will turn into
// Relationship edges once every file's symbols are committed.
type parsed struct {
	task        task
	fileID      ids.FileId
	content     []byte
	contentHash uint64
	symbols     []*symbol.Symbol
	imports     []symbol.Import

	calls           []langparser.CallRef
	methodCalls     []langparser.MethodCallRef
	impls           []langparser.ImplRef
	extends         []langparser.ExtendsRef
	uses            []langparser.UseRef
	defines         []langparser.DefineRef
	inherentMethods []langparser.InherentMethodRef

	err error
}

// parseFile runs one file through its language's Parser and Behavior.
// Symbol ids are drawn from counter, the calling worker's own counter,
// which Run resets to the start of the file's reserved
// symbolIDBlockSize-wide block so ids stay unique across the run without
// workers sharing a counter.
func parseFile(
	t task,
	fileID ids.FileId,
	parsers *langparser.Registry,
	behaviors *langbehavior.Registry,
	state *langbehavior.State,
	counter *ids.Counter[uint64],
	projectRoot string,
) parsed {
	result := parsed{task: t, fileID: fileID}

	content, err := readFile(t.Path)
	if err != nil {
		result.err = fmt.Errorf("pipeline: reading %s: %w", t.Path, err)
		return result
	}
	result.content = content
	result.contentHash = xxhash.Sum64(content)

	p := parsers.ForLanguage(t.Language)
	if p == nil {
		result.err = fmt.Errorf("pipeline: no parser registered for language %q", t.Language)
		return result
	}
	behavior := behaviors.For(t.Language)
	if behavior == nil {
		result.err = fmt.Errorf("pipeline: no behavior registered for language %q", t.Language)
		return result
	}

	syms, err := p.Parse(content, fileID, counter)
	if err != nil {
		result.err = fmt.Errorf("pipeline: parsing %s: %w", t.Path, err)
		return result
	}

	modulePath, _ := behavior.ModulePathFromFile(t.Path, projectRoot, p.Extensions())
	for _, sym := range syms {
		sym.LanguageID = t.Language
		behavior.ConfigureSymbol(sym, modulePath)
	}
	result.symbols = syms

	imports := p.FindImports(content, fileID)
	result.imports = imports
	state.Set(fileID, t.Path, modulePath)
	state.SetImports(fileID, imports)

	result.calls = p.FindCalls(content, fileID)
	result.methodCalls = p.FindMethodCalls(content, fileID)
	result.impls = p.FindImplementations(content, fileID)
	result.extends = p.FindExtends(content, fileID)
	result.uses = p.FindUses(content, fileID)
	result.defines = p.FindDefines(content, fileID)
	result.inherentMethods = p.FindInherentMethods(content, fileID)

	return result
}
