package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	kdl "github.com/sblinch/kdl-go"
	"github.com/sblinch/kdl-go/document"
)

// LoadKDL reads `.codanna.kdl` from projectRoot, returning (nil, nil)
// when the file is simply absent — the caller falls back to defaults.
func LoadKDL(projectRoot string) (*Config, error) {
	path := filepath.Join(projectRoot, ".codanna.kdl")
	content, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	cfg, err := parseKDL(string(content))
	if err != nil {
		return nil, err
	}

	if cfg.Project.Root == "" {
		abs, err := filepath.Abs(projectRoot)
		if err == nil {
			cfg.Project.Root = abs
		} else {
			cfg.Project.Root = projectRoot
		}
	} else if !filepath.IsAbs(cfg.Project.Root) {
		cfg.Project.Root = filepath.Clean(filepath.Join(projectRoot, cfg.Project.Root))
	}

	return cfg, nil
}

func parseKDL(content string) (*Config, error) {
	cfg := DefaultConfig()

	doc, err := kdl.Parse(strings.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("failed to parse .codanna.kdl: %w", err)
	}

	for _, n := range doc.Nodes {
		switch nodeName(n) {
		case "project":
			for _, cn := range n.Children {
				assignSimpleString(cn, "root", func(v string) { cfg.Project.Root = v })
				assignSimpleString(cn, "name", func(v string) { cfg.Project.Name = v })
			}
		case "pipeline":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "max_file_size":
					if v, ok := firstIntArg(cn); ok {
						cfg.Pipeline.MaxFileSize = int64(v)
					}
				case "max_file_count":
					if v, ok := firstIntArg(cn); ok {
						cfg.Pipeline.MaxFileCount = v
					}
				case "parallel_workers":
					if v, ok := firstIntArg(cn); ok {
						cfg.Pipeline.ParallelWorkers = v
					}
				case "batch_size":
					if v, ok := firstIntArg(cn); ok {
						cfg.Pipeline.BatchSize = v
					}
				case "embed_timeout_ms":
					if v, ok := firstIntArg(cn); ok {
						cfg.Pipeline.EmbedTimeoutMs = v
					}
				case "respect_gitignore":
					if b, ok := firstBoolArg(cn); ok {
						cfg.Pipeline.RespectGitignore = b
					}
				case "watch_mode":
					if b, ok := firstBoolArg(cn); ok {
						cfg.Pipeline.WatchMode = b
					}
				case "watch_debounce_ms":
					if v, ok := firstIntArg(cn); ok {
						cfg.Pipeline.WatchDebounceMs = v
					}
				}
			}
		case "ivfflat":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "k":
					if v, ok := firstIntArg(cn); ok {
						cfg.IVFFlat.K = v
					}
				case "nprobe":
					if v, ok := firstIntArg(cn); ok {
						cfg.IVFFlat.NProbe = v
					}
				case "max_iter":
					if v, ok := firstIntArg(cn); ok {
						cfg.IVFFlat.MaxIter = v
					}
				case "tolerance":
					if v, ok := firstFloatArg(cn); ok {
						cfg.IVFFlat.Tolerance = v
					}
				}
			}
		case "embedder":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "model":
					if s, ok := firstStringArg(cn); ok {
						cfg.Embedder.Model = s
					}
				case "dimension":
					if v, ok := firstIntArg(cn); ok {
						cfg.Embedder.Dimension = v
					}
				}
			}
		case "query":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "default_k":
					if v, ok := firstIntArg(cn); ok {
						cfg.Query.DefaultK = v
					}
				case "hybrid_rrf_k":
					if v, ok := firstIntArg(cn); ok {
						cfg.Query.HybridRRFK = v
					}
				case "fuzzy_max_edits":
					if v, ok := firstIntArg(cn); ok {
						cfg.Query.FuzzyMaxEdits = v
					}
				}
			}
		case "include":
			cfg.Include = append(cfg.Include, collectStringArgs(n)...)
		case "exclude":
			cfg.Exclude = collectStringArgs(n)
		}
	}

	return cfg, nil
}

func nodeName(n *document.Node) string {
	if n == nil || n.Name == nil {
		return ""
	}
	return n.Name.NodeNameString()
}

func firstIntArg(n *document.Node) (int, bool) {
	if len(n.Arguments) == 0 {
		return 0, false
	}
	switch v := n.Arguments[0].Value.(type) {
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}

func firstFloatArg(n *document.Node) (float64, bool) {
	if len(n.Arguments) == 0 {
		return 0, false
	}
	switch v := n.Arguments[0].Value.(type) {
	case float64:
		return v, true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}

func firstStringArg(n *document.Node) (string, bool) {
	if len(n.Arguments) == 0 {
		return "", false
	}
	s, ok := n.Arguments[0].Value.(string)
	return s, ok
}

func firstBoolArg(n *document.Node) (bool, bool) {
	if len(n.Arguments) == 0 {
		return false, false
	}
	b, ok := n.Arguments[0].Value.(bool)
	return b, ok
}

func collectStringArgs(n *document.Node) []string {
	if n == nil {
		return nil
	}
	out := make([]string, 0, len(n.Arguments))
	for _, a := range n.Arguments {
		if s, ok := a.Value.(string); ok {
			out = append(out, s)
		}
	}
	if len(out) == 0 && len(n.Children) > 0 {
		out = make([]string, 0, len(n.Children))
		for _, child := range n.Children {
			if s, ok := firstStringArg(child); ok {
				out = append(out, s)
			} else if child.Name != nil {
				if s, ok := child.Name.Value.(string); ok {
					out = append(out, s)
				}
			}
		}
	}
	return out
}

func assignSimpleString(n *document.Node, target string, set func(string)) {
	if nodeName(n) == target {
		if s, ok := firstStringArg(n); ok {
			set(s)
		}
	}
}
