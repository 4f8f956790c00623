package resolution

// EdgeKind is a per-language inheritance edge kind (spec §4.4): `extends`,
// `implements`, `conforms` (Swift protocol conformance), `protocol`
// (Swift protocol-extension default methods).
type EdgeKind uint8

const (
	EdgeExtends EdgeKind = iota
	EdgeImplements
	EdgeConforms
	EdgeProtocolDefault
)

type edge struct {
	parent string
	kind   EdgeKind
}

// InheritanceResolver is a directed multigraph over type names (spec
// §4.4): nodes are type names, edges point from child to parent tagged
// with the language-specific edge kind that produced them.
type InheritanceResolver struct {
	parents map[string][]edge
	methods map[string]map[string]bool // type -> method name -> declared inherently
}

// NewInheritanceResolver creates an empty graph.
func NewInheritanceResolver() *InheritanceResolver {
	return &InheritanceResolver{
		parents: make(map[string][]edge),
		methods: make(map[string]map[string]bool),
	}
}

// AddInheritance records a child -> parent edge of kind.
func (r *InheritanceResolver) AddInheritance(child, parent string, kind EdgeKind) {
	r.parents[child] = append(r.parents[child], edge{parent: parent, kind: kind})
}

// AddTypeMethods records the methods type declares inherently (not via
// inheritance) — spec's "type-extension methods added after declaration"
// case also routes through here with the extending type as `typ`.
func (r *InheritanceResolver) AddTypeMethods(typ string, methods []string) {
	set, ok := r.methods[typ]
	if !ok {
		set = make(map[string]bool)
		r.methods[typ] = set
	}
	for _, m := range methods {
		set[m] = true
	}
}

// ResolveMethod searches breadth-first from typ for the nearest ancestor
// that declares method inherently, returning its type name; ancestors at
// the same depth are tried in edge-insertion order. Cycle-safe via a
// visited set.
func (r *InheritanceResolver) ResolveMethod(typ, method string) (string, bool) {
	visited := map[string]bool{typ: true}
	queue := []string{typ}
	for len(queue) > 0 {
		t := queue[0]
		queue = queue[1:]
		if set, ok := r.methods[t]; ok && set[method] {
			return t, true
		}
		for _, e := range r.parents[t] {
			if !visited[e.parent] {
				visited[e.parent] = true
				queue = append(queue, e.parent)
			}
		}
	}
	return "", false
}

// GetInheritanceChain enumerates every ancestor of typ via DFS,
// cycle-safe, in discovery order (does not include typ itself).
func (r *InheritanceResolver) GetInheritanceChain(typ string) []string {
	visited := map[string]bool{typ: true}
	var chain []string
	var dfs func(t string)
	dfs = func(t string) {
		for _, e := range r.parents[t] {
			if visited[e.parent] {
				continue
			}
			visited[e.parent] = true
			chain = append(chain, e.parent)
			dfs(e.parent)
		}
	}
	dfs(typ)
	return chain
}

// IsSubtype reports whether parent appears anywhere in child's
// transitive ancestor set.
func (r *InheritanceResolver) IsSubtype(child, parent string) bool {
	if child == parent {
		return true
	}
	for _, t := range r.GetInheritanceChain(child) {
		if t == parent {
			return true
		}
	}
	return false
}

// GetAllMethods unions the inherent methods of typ and every ancestor in
// its transitive closure.
func (r *InheritanceResolver) GetAllMethods(typ string) []string {
	seen := make(map[string]bool)
	var out []string
	add := func(t string) {
		for m := range r.methods[t] {
			if !seen[m] {
				seen[m] = true
				out = append(out, m)
			}
		}
	}
	add(typ)
	for _, t := range r.GetInheritanceChain(typ) {
		add(t)
	}
	return out
}
