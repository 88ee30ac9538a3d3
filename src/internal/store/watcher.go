package store

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/maksimkurb/proxycfg/src/internal/log"
)

const debounceDelay = 100 * time.Millisecond

// Watcher reloads a FileStore when its file is changed by another writer.
type Watcher struct {
	store    *FileStore
	watcher  *fsnotify.Watcher
	onChange func()
}

// NewWatcher watches the directory holding the store file, so the watch
// survives the file being replaced by rename.
func NewWatcher(fs *FileStore) (*Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	if err := watcher.Add(filepath.Dir(fs.Path())); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch store directory: %w", err)
	}

	return &Watcher{
		store:   fs,
		watcher: watcher,
	}, nil
}

// OnChange registers a callback run after every successful reload.
func (w *Watcher) OnChange(fn func()) {
	w.onChange = fn
}

// Start blocks until ctx is done or the underlying watcher fails.
func (w *Watcher) Start(ctx context.Context) error {
	log.Infof("Watching store file %s", w.store.Path())

	// Editors often write several times in a row.
	debounceTimer := time.NewTimer(0)
	debounceTimer.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Debugf("Store watcher stopped")
			return w.watcher.Close()

		case event, ok := <-w.watcher.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}
			if filepath.Clean(event.Name) != w.store.Path() {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				debounceTimer.Reset(debounceDelay)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			log.Errorf("Store watcher error: %v", err)

		case <-debounceTimer.C:
			if err := w.store.Reload(); err != nil {
				log.Errorf("Failed to reload store: %v", err)
				continue
			}
			log.Infof("Store reloaded from %s", w.store.Path())
			if w.onChange != nil {
				w.onChange()
			}
		}
	}
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	if w.watcher != nil {
		return w.watcher.Close()
	}
	return nil
}
