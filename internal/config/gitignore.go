package config

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// GitignoreMatcher holds the patterns parsed from a project's
// `.gitignore`, translated into doublestar glob syntax so the same
// matcher the pipeline's file scanner uses for Include/Exclude also
// serves gitignore exclusions (spec's "respect_gitignore" pipeline
// option).
type GitignoreMatcher struct {
	patterns []gitignorePattern
}

type gitignorePattern struct {
	glob   string
	negate bool
}

// NewGitignoreMatcher loads and compiles `<root>/.gitignore`. A missing
// file is not an error — the matcher simply matches nothing.
func NewGitignoreMatcher(root string) (*GitignoreMatcher, error) {
	m := &GitignoreMatcher{}
	f, err := os.Open(filepath.Join(root, ".gitignore"))
	if os.IsNotExist(err) {
		return m, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		m.patterns = append(m.patterns, compileGitignoreLine(line))
	}
	return m, scanner.Err()
}

// compileGitignoreLine turns one gitignore line into a doublestar glob.
// Gitignore's own syntax is a near-subset of doublestar's: a pattern
// with no `/` matches at any depth (prefixed with `**/`), a trailing
// `/` is a directory-only marker (matched by suffixing `/**`), and a
// leading `!` negates the pattern.
func compileGitignoreLine(line string) gitignorePattern {
	negate := false
	if strings.HasPrefix(line, "!") {
		negate = true
		line = line[1:]
	}

	dirOnly := strings.HasSuffix(line, "/")
	line = strings.TrimSuffix(line, "/")

	anchored := strings.HasPrefix(line, "/")
	line = strings.TrimPrefix(line, "/")

	glob := line
	if !anchored && !strings.Contains(line, "/") {
		glob = "**/" + glob
	} else if !anchored {
		glob = "**/" + glob
	}
	if dirOnly {
		glob += "/**"
	}
	return gitignorePattern{glob: glob, negate: negate}
}

// Match reports whether path (relative to the project root, forward
// slashes) is excluded by the loaded gitignore, applying later patterns
// over earlier ones the way git itself resolves negation order.
func (m *GitignoreMatcher) Match(path string) bool {
	excluded := false
	for _, p := range m.patterns {
		ok, err := doublestar.Match(p.glob, path)
		if err == nil && !ok {
			// a pattern naming a directory also covers everything beneath it
			ok, err = doublestar.Match(p.glob+"/**", path)
		}
		if err != nil || !ok {
			continue
		}
		excluded = !p.negate
	}
	return excluded
}
