package pipeline

import (
	"context"
	"io/fs"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher debounces filesystem change events into a single rebuild
// trigger, the same timer-reset discipline as the teacher's
// DebouncedRebuilder (internal/indexing/debounced_rebuilder.go), adapted
// here to fsnotify events instead of the teacher's own ReferenceTracker
// hook and to call back into a caller-supplied rebuild function (the
// update coordinator's per-file update, not a full pipeline re-run).
type Watcher struct {
	debounce time.Duration
	onFire   func(paths []string)

	mu      sync.Mutex
	timer   *time.Timer
	pending map[string]struct{}
}

// NewWatcher creates a Watcher that calls onFire once per debounce
// window with the set of changed paths collected during that window.
func NewWatcher(debounceMs int, onFire func(paths []string)) *Watcher {
	if debounceMs <= 0 {
		debounceMs = 300
	}
	return &Watcher{
		debounce: time.Duration(debounceMs) * time.Millisecond,
		onFire:   onFire,
		pending:  make(map[string]struct{}),
	}
}

func (w *Watcher) schedule(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pending[path] = struct{}{}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.fire)
}

func (w *Watcher) fire() {
	w.mu.Lock()
	paths := make([]string, 0, len(w.pending))
	for p := range w.pending {
		paths = append(paths, p)
	}
	w.pending = make(map[string]struct{})
	w.mu.Unlock()

	if len(paths) > 0 && w.onFire != nil {
		w.onFire(paths)
	}
}

// Run watches root recursively (best-effort: directories created after
// Run starts are added as fsnotify reports their parent's Create event)
// until ctx is canceled.
func (w *Watcher) Run(ctx context.Context, root string) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fsw.Close()

	if err := addRecursive(fsw, root); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			w.mu.Lock()
			if w.timer != nil {
				w.timer.Stop()
			}
			w.mu.Unlock()
			return ctx.Err()
		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) != 0 {
				w.schedule(ev.Name)
			}
			if ev.Op&fsnotify.Create != 0 {
				_ = fsw.Add(ev.Name) // best-effort: every created path, directory or file, is added to the watch
			}
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			_ = err // surfaced only via the next triggered rebuild's own error path
		}
	}
}

func addRecursive(fsw *fsnotify.Watcher, root string) error {
	return walkDirs(root, func(dir string) error {
		return fsw.Add(dir)
	})
}

// walkDirs visits every directory under root except .git, calling fn on
// each. Fine-grained exclusion (gitignore, config excludes) is the
// scanner's job at rebuild time; watch registration only needs a coarse
// cut to avoid drowning fsnotify in .git's object-store churn.
func walkDirs(root string, fn func(dir string) error) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if d.Name() == ".git" && path != root {
			return filepath.SkipDir
		}
		return fn(path)
	})
}
