package langbehavior

import "github.com/bartolli/codanna-go/internal/ids"

// Registry maps a language id to its Behavior, mirroring
// internal/langparser.Registry.
type Registry struct {
	byLang map[ids.LanguageId]Behavior
}

func NewRegistry() *Registry {
	behaviors := []Behavior{
		NewGoBehavior(),
		NewRustBehavior(),
		NewPythonBehavior(),
		NewJavaScriptBehavior(),
		NewTypeScriptBehavior(),
		NewJavaBehavior(),
		NewCSharpBehavior(),
	}
	r := &Registry{byLang: make(map[ids.LanguageId]Behavior, len(behaviors))}
	for _, b := range behaviors {
		r.byLang[b.LanguageID()] = b
	}
	return r
}

func (r *Registry) For(lang ids.LanguageId) Behavior { return r.byLang[lang] }
