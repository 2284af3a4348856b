package workspace

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/parchlabs/sitesmith/internal/logger"
	"github.com/parchlabs/sitesmith/internal/project"
)

// How long a file has to stay quiet before its edit is imported. Editors
// tend to fire several events per save.
const settleInterval = 250 * time.Millisecond

// Watcher watches an exported project directory and turns manual edits into
// file.put events. It catches changes from any source (editors, scripts,
// build tools) and skips paths on the ignore list.
type Watcher struct {
	watcher *fsnotify.Watcher
	store   project.FileStore
	proj    string
	dir     string
	ignore  *ignoreList
	pending map[string]time.Time // relative path -> last event time
	mu      sync.Mutex
	done    chan struct{}
	stopped chan struct{}
}

// Watch starts watching dir and imports edits into the store until ctx is
// cancelled or Stop is called. The .gitignore in dir is honored on top of
// the built-in exclusions.
func Watch(ctx context.Context, store project.FileStore, projectName, dir string) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		watcher: fsw,
		store:   store,
		proj:    projectName,
		dir:     dir,
		ignore:  loadIgnoreList(dir),
		pending: make(map[string]time.Time),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}

	if err := w.addRecursive(dir); err != nil {
		fsw.Close()
		return nil, err
	}

	go w.loop(ctx)
	logger.Info("Watching %s for manual edits to project '%s'", dir, projectName)
	return w, nil
}

// Stop shuts down the watcher and waits for the import loop to exit.
func (w *Watcher) Stop() error {
	close(w.done)
	<-w.stopped
	return w.watcher.Close()
}

// addRecursive walks the directory tree and adds watches for all
// non-ignored directories.
func (w *Watcher) addRecursive(root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if info != nil && info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !info.IsDir() {
			return nil
		}

		rel, relErr := filepath.Rel(w.dir, path)
		if relErr == nil && rel != "." && w.ignore.Match(rel) {
			return filepath.SkipDir
		}

		if err := w.watcher.Add(path); err != nil {
			logger.Warn("Watcher: failed to watch %s: %v", path, err)
			if strings.Contains(err.Error(), "no space left on device") ||
				strings.Contains(err.Error(), "too many open files") {
				logger.Error("Watcher: inotify watch limit reached. Increase fs.inotify.max_user_watches")
				return filepath.SkipDir
			}
		}
		return nil
	})
}

// loop processes fsnotify events and imports settled edits until the
// context is cancelled or Stop is called.
func (w *Watcher) loop(ctx context.Context) {
	defer close(w.stopped)

	ticker := time.NewTicker(settleInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-w.done:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logger.Warn("Watcher error: %v", err)

		case <-ticker.C:
			w.importSettled(ctx)
		}
	}
}

// handleEvent records a single fsnotify event for later import.
func (w *Watcher) handleEvent(event fsnotify.Event) {
	// Only care about Create, Write, Rename
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) && !event.Has(fsnotify.Rename) {
		return
	}

	path := event.Name

	relPath, err := filepath.Rel(w.dir, path)
	if err != nil {
		return
	}

	// Skip if it resolves outside the watched directory
	if strings.HasPrefix(relPath, "..") {
		return
	}

	if w.ignore.Match(relPath) {
		return
	}

	isDir := false
	if info, statErr := os.Stat(path); statErr == nil {
		isDir = info.IsDir()
	}

	// If a new directory was created, add it to the watch list
	if event.Has(fsnotify.Create) && isDir {
		if err := w.addRecursive(path); err != nil {
			logger.Warn("Watcher: failed to watch new dir %s: %v", path, err)
		}
		return
	}
	if isDir {
		return
	}

	w.mu.Lock()
	w.pending[relPath] = time.Now()
	w.mu.Unlock()
}

// importSettled imports every pending path whose last event is at least one
// settle interval old.
func (w *Watcher) importSettled(ctx context.Context) {
	cutoff := time.Now().Add(-settleInterval)

	w.mu.Lock()
	var ripe []string
	for rel, last := range w.pending {
		if last.Before(cutoff) {
			ripe = append(ripe, rel)
			delete(w.pending, rel)
		}
	}
	w.mu.Unlock()

	if len(ripe) == 0 {
		return
	}

	existing, err := w.store.Files(ctx, w.proj)
	if err != nil {
		logger.Warn("Watcher: failed to load project files: %v", err)
		return
	}
	byName := make(map[string]project.GeneratedFile, len(existing))
	for _, f := range existing {
		byName[f.Name] = f
	}

	for _, rel := range ripe {
		w.importFile(ctx, rel, byName)
	}
}

// importFile reads one changed file and appends a file.put event for it.
// The previous purpose is kept and writes that match the stored contents
// are skipped, so re-exports never loop back as edits.
func (w *Watcher) importFile(ctx context.Context, rel string, byName map[string]project.GeneratedFile) {
	data, err := os.ReadFile(filepath.Join(w.dir, rel))
	if err != nil {
		// Renamed away or deleted before the import ran; nothing to record
		return
	}

	name := filepath.ToSlash(rel)
	prev, exists := byName[name]
	if exists && prev.Code == string(data) {
		return
	}

	err = w.store.PutFile(ctx, w.proj, project.PutFileParams{
		Name:    name,
		Code:    string(data),
		UsedFor: prev.UsedFor,
	})
	if err != nil {
		logger.Warn("Watcher: failed to import %s: %v", name, err)
		return
	}

	logger.Info("Imported manual edit to %s", name)
}
