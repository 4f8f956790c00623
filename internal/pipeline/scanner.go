package pipeline

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/bartolli/codanna-go/internal/config"
	"github.com/bartolli/codanna-go/internal/ids"
	"github.com/bartolli/codanna-go/internal/langparser"
)

// task is one file found by the scan stage and handed to the parse
// stage. Mirrors the teacher's FileTask (internal/indexing/pipeline_types.go)
// narrowed to what the parse stage actually needs.
type task struct {
	Path     string
	RelPath  string
	Language ids.LanguageId
	Size     int64
}

// scanner walks a project root applying include/exclude globs and
// .gitignore, the same early-prune strategy as the teacher's
// FileScanner.ScanDirectory (directories are pruned before descending,
// files are filtered before being queued), generalized from the
// teacher's own compiled-pattern fields to this package's config shape.
type scanner struct {
	cfg        *config.Config
	gitignore  *config.GitignoreMatcher
	registry   *langparser.Registry
}

func newScanner(cfg *config.Config, gitignore *config.GitignoreMatcher, registry *langparser.Registry) *scanner {
	return &scanner{cfg: cfg, gitignore: gitignore, registry: registry}
}

// scan walks root and sends a task per matching file to out, honoring
// ctx cancellation at every directory-entry boundary (spec §5's
// "cancellation flag is checked at every stage boundary"). out is closed
// before scan returns, successfully or not.
func (s *scanner) scan(ctx context.Context, root string, out chan<- task) error {
	defer close(out)

	var fileCount int
	var totalBytes int64

	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if err != nil {
			return nil
		}

		relPath, relErr := filepath.Rel(root, path)
		if relErr != nil {
			relPath = path
		}
		relPath = filepath.ToSlash(relPath)

		if d.IsDir() {
			if path == root {
				return nil
			}
			if s.excluded(relPath + "/") {
				return filepath.SkipDir
			}
			return nil
		}

		if !s.matches(relPath) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return nil
		}
		if s.cfg.Pipeline.MaxFileSize > 0 && info.Size() > s.cfg.Pipeline.MaxFileSize {
			return nil
		}

		ext := filepath.Ext(path)
		parser := s.registry.ForExtension(ext)
		if parser == nil {
			return nil
		}

		fileCount++
		totalBytes += info.Size()
		if s.cfg.Pipeline.MaxFileCount > 0 && fileCount > s.cfg.Pipeline.MaxFileCount {
			return filepath.SkipAll
		}

		t := task{Path: path, RelPath: relPath, Language: parser.Language(), Size: info.Size()}
		select {
		case out <- t:
		case <-ctx.Done():
			return ctx.Err()
		}
		return nil
	})
}

// matches applies include patterns (if any; empty means "everything
// passes") then exclude patterns (exclude always wins), plus .gitignore
// when RespectGitignore is set. Matches the teacher's shouldIncludeFast
// then shouldExcludeFast ordering from pipeline_types.go/pipeline.go.
func (s *scanner) matches(relPath string) bool {
	if len(s.cfg.Include) > 0 && !globAny(s.cfg.Include, relPath) {
		return false
	}
	return !s.excluded(relPath)
}

func (s *scanner) excluded(relPath string) bool {
	if globAny(s.cfg.Exclude, relPath) {
		return true
	}
	if s.cfg.Pipeline.RespectGitignore && s.gitignore != nil && s.gitignore.Match(relPath) {
		return true
	}
	return false
}

func globAny(patterns []string, path string) bool {
	for _, p := range patterns {
		if matched, err := doublestar.Match(p, path); err == nil && matched {
			return true
		}
	}
	return false
}

// readFile loads content for parsing, refusing anything that still looks
// binary after the scanner's extension-based filtering let it through.
func readFile(path string) ([]byte, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if looksBinary(content) {
		return nil, errBinaryFile
	}
	return content, nil
}

var errBinaryFile = &binaryFileError{}

type binaryFileError struct{}

func (*binaryFileError) Error() string { return "pipeline: binary file content" }

// statTime converts the time its caller passes into the FileRecord
// timestamp (unix seconds); both callers pass time.Now() at the moment
// the file is committed.
func statTime(t time.Time) int64 { return t.Unix() }
