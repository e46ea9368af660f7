package invalidate

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/cloo-solutions/pillarpress/internal/domain"
	"github.com/cloo-solutions/pillarpress/internal/logfields"
)

// Watcher marks file-backed pages stale when their documents change on disk.
// Events are debounced so an editor's save burst produces one signal.
type Watcher struct {
	root     string
	signaler Signaler
	watcher  *fsnotify.Watcher
	debounce time.Duration
}

// NewWatcher watches the kind directories that exist under root.
func NewWatcher(root string, signaler Signaler, debounce time.Duration) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		_ = fw.Close()
		return nil, fmt.Errorf("failed to resolve content dir: %w", err)
	}

	watched := 0
	for _, kind := range domain.Kinds {
		dir := filepath.Join(absRoot, kind.Plural())
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			continue
		}
		if err := fw.Add(dir); err != nil {
			_ = fw.Close()
			return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
		}
		watched++
	}
	if watched == 0 {
		slog.Warn("no content directories to watch", "root", absRoot)
	}

	return &Watcher{root: absRoot, signaler: signaler, watcher: fw, debounce: debounce}, nil
}

// Run processes events until ctx is cancelled, then closes the watcher.
func (w *Watcher) Run(ctx context.Context) error {
	defer func() { _ = w.watcher.Close() }()

	pending := map[string]bool{}
	timer := time.NewTimer(time.Hour)
	timer.Stop()

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			paths, ok := PathsForFile(w.root, event.Name)
			if !ok {
				continue
			}
			for _, p := range paths {
				pending[p] = true
			}
			timer.Reset(w.debounce)

		case <-timer.C:
			w.flush(ctx, pending)
			pending = map[string]bool{}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			slog.Error("content watcher error", logfields.Error(err))
		}
	}
}

func (w *Watcher) flush(ctx context.Context, pending map[string]bool) {
	if len(pending) == 0 {
		return
	}
	paths := make([]string, 0, len(pending))
	for p := range pending {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	if err := w.signaler.MarkStale(ctx, paths); err != nil {
		slog.ErrorContext(ctx, "failed to signal stale paths", logfields.Paths(paths), logfields.Error(err))
	}
}

// PathsForFile maps a changed file under root to the pages it backs. Files
// outside a kind directory or without a content extension are ignored.
func PathsForFile(root, name string) ([]string, bool) {
	rel, err := filepath.Rel(root, name)
	if err != nil {
		return nil, false
	}
	dir, file, ok := strings.Cut(filepath.ToSlash(rel), "/")
	if !ok || strings.Contains(file, "/") {
		return nil, false
	}

	kind, err := domain.ParseKind(dir)
	if err != nil || kind.Plural() != dir {
		return nil, false
	}

	ext := filepath.Ext(file)
	if ext != ".md" && ext != ".mdx" {
		return nil, false
	}
	slug := strings.TrimSuffix(file, ext)
	if !domain.IsValidSlug(slug) {
		return nil, false
	}
	return PathsFor(kind, "", slug), true
}
