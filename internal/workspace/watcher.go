// internal/workspace/watcher.go
package workspace

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"uigen/internal/logging"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Sink receives the content of a file that was created or written on disk.
type Sink func(ctx context.Context, path, content string) error

// Watcher mirrors disk edits under a root into a Sink.
type Watcher struct {
	root    string
	watcher *fsnotify.Watcher
	sink    Sink
	logger  *logging.Logger
}

func NewWatcher(root string, sink Sink, logger *logging.Logger) (*Watcher, error) {
	if logger == nil {
		logger = logging.Nop()
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating file watcher: %w", err)
	}

	w := &Watcher{root: root, watcher: fw, sink: sink, logger: logger}
	if err := w.addTree(root); err != nil {
		fw.Close()
		return nil, err
	}
	return w, nil
}

func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(w.root, path)
		if err != nil {
			return err
		}
		if ShouldIgnore(rel) {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			return fmt.Errorf("adding directory to watcher: %w", err)
		}
		return nil
	})
}

// Run processes events until ctx is done or the watcher is closed.
func (w *Watcher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			w.handle(ctx, event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) handle(ctx context.Context, event fsnotify.Event) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return
	}
	rel, err := filepath.Rel(w.root, event.Name)
	if err != nil || ShouldIgnore(rel) {
		return
	}

	info, err := os.Stat(event.Name)
	if err != nil {
		return
	}
	if info.IsDir() {
		if err := w.addTree(event.Name); err != nil {
			w.logger.Error("watching new directory", zap.String("dir", event.Name), zap.Error(err))
		}
		return
	}

	content, ok, err := readText(event.Name)
	if err != nil || !ok {
		return
	}
	path := "/" + filepath.ToSlash(rel)
	if err := w.sink(ctx, path, content); err != nil {
		w.logger.Warn("syncing file", zap.String("path", path), zap.Error(err))
		return
	}
	w.logger.Debug("synced file", zap.String("path", path))
}

func (w *Watcher) Close() error {
	return w.watcher.Close()
}
