// Package watch re-runs a callback when guide documents change.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period after the last event before the
// callback runs.
const DefaultDebounce = 500 * time.Millisecond

// Watcher watches directory trees for markdown changes.
type Watcher struct {
	dirs     []string
	onChange func()
	debounce time.Duration
	log      *slog.Logger
}

// New returns a watcher over dirs (recursively) that calls onChange after
// each burst of changes. Missing directories are skipped.
func New(dirs []string, onChange func(), logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		dirs:     dirs,
		onChange: onChange,
		debounce: DefaultDebounce,
		log:      logger,
	}
}

// SetDebounce overrides DefaultDebounce.
func (w *Watcher) SetDebounce(d time.Duration) {
	if d > 0 {
		w.debounce = d
	}
}

// Run watches until ctx is cancelled. onChange runs on the calling
// goroutine, so runs never overlap.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create file watcher: %w", err)
	}
	defer func() { _ = fw.Close() }()

	watched := 0
	for _, dir := range w.dirs {
		n, err := addTree(fw, dir)
		if err != nil {
			return err
		}
		watched += n
	}
	if watched == 0 {
		return fmt.Errorf("no directories to watch")
	}
	w.log.Debug("watching guides", "dirs", watched)

	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if _, err := addTree(fw, event.Name); err != nil {
						w.log.Warn("cannot watch new directory", "path", event.Name, "error", err)
					}
					continue
				}
			}
			if !relevant(event) {
				continue
			}
			w.log.Debug("guide changed", "path", event.Name, "op", event.Op.String())
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			w.onChange()

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("file watcher error", "error", err)
		}
	}
}

func relevant(e fsnotify.Event) bool {
	if !strings.HasSuffix(e.Name, ".md") {
		return false
	}
	return e.Has(fsnotify.Create) || e.Has(fsnotify.Write) || e.Has(fsnotify.Remove) || e.Has(fsnotify.Rename)
}

// addTree watches root and every directory below it. A missing root adds
// nothing.
func addTree(fw *fsnotify.Watcher, root string) (int, error) {
	n := 0
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) && path == root {
				return filepath.SkipDir
			}
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if err := fw.Add(path); err != nil {
			return fmt.Errorf("watch %q: %w", path, err)
		}
		n++
		return nil
	})
	return n, err
}
