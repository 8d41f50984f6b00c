// Package watch reports batches of changed paths under a directory tree.
//
// Directories are registered recursively with fsnotify, directories created
// later are added as they appear, and bursts of events are coalesced with a
// debounce timer so a save that touches several files yields one batch.
package watch

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is used when Options.Debounce is not positive
const DefaultDebounce = 250 * time.Millisecond

// Options configures Run
type Options struct {
	// Debounce is the quiet period after the last event before a batch is delivered
	Debounce time.Duration

	// Ignore reports whether path should be neither watched nor reported
	Ignore func(path string, isDir bool) bool

	// Ready is closed once the initial directories are registered
	Ready chan<- struct{}
}

// Run watches root until ctx is cancelled, calling onChange with the sorted,
// de-duplicated paths touched since the previous batch. onChange runs on the
// watching goroutine, so events arriving meanwhile are queued by fsnotify.
func Run(ctx context.Context, root string, opts Options, onChange func(paths []string)) error {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return err
	}
	absRoot = filepath.Clean(absRoot)

	info, err := os.Stat(absRoot)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		absRoot = filepath.Dir(absRoot)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := addRecursive(watcher, absRoot, absRoot, opts.Ignore); err != nil {
		return err
	}
	if opts.Ready != nil {
		close(opts.Ready)
	}

	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	timer := time.NewTimer(time.Hour)
	stopTimer(timer)
	pending := map[string]bool{}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}

			path := filepath.Clean(event.Name)
			isDir := false
			if event.Op&fsnotify.Create != 0 {
				if st, statErr := os.Stat(path); statErr == nil && st.IsDir() {
					isDir = true
					if !ignored(opts.Ignore, absRoot, path, true) {
						_ = addRecursive(watcher, path, absRoot, opts.Ignore)
					}
				}
			}
			if ignored(opts.Ignore, absRoot, path, isDir) {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}

			pending[path] = true
			stopTimer(timer)
			timer.Reset(debounce)
		case <-timer.C:
			if len(pending) == 0 {
				continue
			}
			changed := make([]string, 0, len(pending))
			for path := range pending {
				changed = append(changed, path)
			}
			sort.Strings(changed)
			pending = map[string]bool{}
			onChange(changed)
		case watchErr, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return watchErr
		}
	}
}

// stopTimer stops t and drains a pending tick
func stopTimer(t *time.Timer) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
}

func addRecursive(watcher *fsnotify.Watcher, dir, root string, ignore func(string, bool) bool) error {
	return filepath.WalkDir(dir, func(path string, entry os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if !entry.IsDir() {
			return nil
		}
		if path != root && ignored(ignore, root, path, true) {
			return filepath.SkipDir
		}
		return watcher.Add(path)
	})
}

func ignored(ignore func(string, bool) bool, root, path string, isDir bool) bool {
	base := filepath.Base(path)
	if isDir && path != root && (base == ".git" || base == "__pycache__" || base == "node_modules") {
		return true
	}
	if !isDir && (strings.HasSuffix(base, ".swp") || strings.HasPrefix(base, ".#") || base == ".DS_Store") {
		return true
	}
	return ignore != nil && ignore(path, isDir)
}
