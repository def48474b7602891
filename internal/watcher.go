package internal

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period after the last change before the
// callback runs
const DefaultDebounce = 2 * time.Second

var watchedSuffixes = []string{".jsonl", ".json", ".db", ".db-wal"}

// SourceWatcher watches source directories and calls onChange once writes
// settle. The callback runs on the watcher goroutine, never concurrently.
type SourceWatcher struct {
	watcher  *fsnotify.Watcher
	debounce time.Duration
	onChange func()
	trigger  chan struct{}
}

// NewSourceWatcher watches every existing root recursively. Missing roots are
// skipped; it fails if none can be watched.
func NewSourceWatcher(roots []string, debounce time.Duration, onChange func()) (*SourceWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	w := &SourceWatcher{
		watcher:  watcher,
		debounce: debounce,
		onChange: onChange,
		trigger:  make(chan struct{}, 1),
	}

	watched := 0
	for _, root := range roots {
		if !dirExists(root) {
			LogWarn("not watching %s: directory does not exist", root)
			continue
		}
		n, err := w.addRecursive(root)
		if err != nil {
			LogWarn("failed to watch some directories under %s: %v", root, err)
		}
		watched += n
	}

	if watched == 0 {
		watcher.Close()
		return nil, errors.New("no source directory could be watched")
	}
	LogDebug("watching %d directories", watched)
	return w, nil
}

// addRecursive adds root and every directory below it
func (w *SourceWatcher) addRecursive(root string) (int, error) {
	added := 0
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if d != nil && d.IsDir() && path != root {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if err := w.watcher.Add(path); err != nil {
			LogDebug("failed to watch %s: %v", path, err)
			return nil
		}
		added++
		return nil
	})
	return added, err
}

// Run processes events until ctx is cancelled
func (w *SourceWatcher) Run(ctx context.Context) error {
	defer w.watcher.Close()

	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !w.handleEvent(event) {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(w.debounce, func() {
				select {
				case w.trigger <- struct{}{}:
				default:
				}
			})

		case <-w.trigger:
			w.onChange()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			LogWarn("file watcher error: %v", err)
		}
	}
}

// handleEvent starts watching new directories and reports whether the event
// touched a history file
func (w *SourceWatcher) handleEvent(event fsnotify.Event) bool {
	if event.Op&fsnotify.Create == fsnotify.Create && dirExists(event.Name) {
		if n, err := w.addRecursive(event.Name); err == nil && n > 0 {
			LogDebug("now watching new directory %s", event.Name)
		}
		// Files written before the watch was added are otherwise missed
		return true
	}

	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
		return false
	}
	for _, suffix := range watchedSuffixes {
		if strings.HasSuffix(event.Name, suffix) {
			return true
		}
	}
	return false
}
