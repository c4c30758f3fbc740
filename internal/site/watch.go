package site

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/gateswong/wowplaybook/internal/walker"
)

// DefaultDebounce collapses bursts of file events into one rebuild.
const DefaultDebounce = 200 * time.Millisecond

// Watcher calls OnChange after files under Dir change. Events arriving
// within Debounce of each other trigger a single call.
type Watcher struct {
	Dir      string
	Debounce time.Duration
	OnChange func(ctx context.Context) error
	Logger   *slog.Logger
}

// Run watches until ctx is canceled. Errors from OnChange are logged and
// do not stop the watcher.
func (w *Watcher) Run(ctx context.Context) error {
	logger := w.Logger
	if logger == nil {
		logger = slog.Default()
	}
	debounce := w.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer fw.Close()

	if err := addTree(fw, w.Dir); err != nil {
		return err
	}

	timer := time.NewTimer(debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()
	pending := false

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if ev.Has(fsnotify.Create) {
				// fsnotify is not recursive; follow new directories.
				_ = addTree(fw, ev.Name)
			}
			if !relevant(ev) {
				continue
			}
			logger.Debug("docs changed", "path", ev.Name, "op", ev.Op.String())
			if pending && !timer.Stop() {
				<-timer.C
			}
			timer.Reset(debounce)
			pending = true

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error", "error", err)

		case <-timer.C:
			pending = false
			if w.OnChange == nil {
				continue
			}
			if err := w.OnChange(ctx); err != nil {
				logger.Error("rebuild failed", "error", err)
			}
		}
	}
}

// relevant reports whether ev touches a page or asset.
func relevant(ev fsnotify.Event) bool {
	if ev.Op == fsnotify.Chmod {
		return false
	}
	if ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename) {
		return true
	}
	return walker.DetectKind(ev.Name) != walker.KindUnknown
}

// addTree watches root and every directory below it that the walker would
// descend into. Missing or non-directory roots are ignored.
func addTree(fw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if p != root && walker.IsExcludedDir(d.Name()) {
			return filepath.SkipDir
		}
		if err := fw.Add(p); err != nil {
			return fmt.Errorf("watching %s: %w", p, err)
		}
		return nil
	})
}
