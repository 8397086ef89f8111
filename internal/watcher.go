package internal

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// RunFunc performs one complete conversion run
type RunFunc func(ctx context.Context) error

// Watcher re-runs the conversion whenever something under the source root
// changes. Runs happen on the watcher goroutine, one at a time, with no
// debouncing: every non-directory event triggers a full run.
type Watcher struct {
	cfg     *Config
	run     RunFunc
	initial bool
	ignore  []string

	ready     chan struct{}
	readyOnce sync.Once
}

// NewWatcher creates a watcher that runs conv on every change
func NewWatcher(cfg *Config, conv *Converter) *Watcher {
	return NewWatcherFunc(cfg, func(ctx context.Context) error {
		_, err := conv.Run(ctx)
		return err
	})
}

// NewWatcherFunc creates a watcher that calls run on every change
func NewWatcherFunc(cfg *Config, run RunFunc) *Watcher {
	return &Watcher{
		cfg:   cfg,
		run:   run,
		ready: make(chan struct{}),
	}
}

// WithInitialRun makes Run convert once before waiting for events
func (w *Watcher) WithInitialRun(initial bool) *Watcher {
	w.initial = initial
	return w
}

// Ready is closed once the source tree is subscribed by the first Run
func (w *Watcher) Ready() <-chan struct{} {
	return w.ready
}

// Run watches until ctx is cancelled. Conversion failures are logged and
// never end the loop.
func (w *Watcher) Run(ctx context.Context) error {
	source, err := filepath.Abs(w.cfg.Source)
	if err != nil {
		return err
	}
	w.ignore = w.ignoredRoots()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("cannot create FS watcher: %w", err)
	}
	defer func() {
		if err := watcher.Close(); err != nil {
			LogWarn("Cannot close FS watcher: %v", err)
		}
	}()

	if _, err := w.addTree(watcher, source); err != nil {
		return fmt.Errorf("cannot watch %s: %w", source, err)
	}
	LogInfo("Watching %s...", w.cfg.Source)
	w.readyOnce.Do(func() { close(w.ready) })

	if w.initial {
		w.trigger(ctx)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			w.handle(ctx, watcher, event)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			LogError("FS watcher error: %v", err)
		}
	}
}

func (w *Watcher) handle(ctx context.Context, watcher *fsnotify.Watcher, event fsnotify.Event) {
	if w.ignored(event.Name) {
		return
	}

	if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
		// New directories need their own subscription. A directory moved in
		// with notebooks already inside produces no file events, so convert.
		if event.Has(fsnotify.Create) {
			files, err := w.addTree(watcher, event.Name)
			if err != nil {
				LogWarn("Cannot watch %s: %v", event.Name, err)
			}
			if files > 0 {
				LogInfo("Change detected: %s", event.Name)
				w.trigger(ctx)
			}
		}
		return
	}

	LogInfo("Change detected: %s", event.Name)
	w.trigger(ctx)
}

func (w *Watcher) trigger(ctx context.Context) {
	if err := w.run(ctx); err != nil {
		LogError("Conversion failed: %v", err)
	}
}

// addTree subscribes root and every directory below it and returns the
// number of regular files found.
func (w *Watcher) addTree(watcher *fsnotify.Watcher, root string) (int, error) {
	files := 0
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			files++
			return nil
		}
		if (w.cfg.SkipCheckpoints && d.Name() == checkpointDir) || w.ignored(path) {
			return filepath.SkipDir
		}
		LogDebug("Watching directory %s", path)
		return watcher.Add(path)
	})
	return files, err
}

// ignoredRoots are our own outputs; watching them would loop when they live
// inside the source tree.
func (w *Watcher) ignoredRoots() []string {
	var roots []string
	for _, p := range []string{w.cfg.Destination, w.cfg.Manifest} {
		if p == "" {
			continue
		}
		if abs, err := filepath.Abs(p); err == nil {
			roots = append(roots, abs)
		}
	}
	return roots
}

func (w *Watcher) ignored(path string) bool {
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	for _, root := range w.ignore {
		if isWithin(abs, root) {
			return true
		}
	}
	return false
}

func isWithin(path, root string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}
