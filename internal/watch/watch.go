// Package watch flags the session stale when its source files change on disk.
package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher records whether any watched target changed since the last check.
// The console polls Changed before each command instead of reacting to
// events, so reloads only happen between commands.
type Watcher struct {
	fs    *fsnotify.Watcher
	log   *zap.Logger
	stale atomic.Bool
	done  chan struct{}
	once  sync.Once
	dirs  map[string]struct{} // watched wholesale
	files map[string]struct{} // watched through their parent directory
}

// New watches targets until ctx is cancelled or Close is called.
// A directory target reports changes to any entry; a file target is watched
// through its parent directory so editors that replace the file on save are
// still seen.
func New(ctx context.Context, log *zap.Logger, targets ...string) (*Watcher, error) {
	if log == nil {
		log = zap.NewNop()
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: create watcher: %w", err)
	}

	w := &Watcher{
		fs:    fsw,
		log:   log,
		done:  make(chan struct{}),
		dirs:  make(map[string]struct{}),
		files: make(map[string]struct{}),
	}

	added := make(map[string]struct{})
	for _, target := range targets {
		target = filepath.Clean(target)
		info, err := os.Stat(target)
		if err != nil {
			fsw.Close()
			return nil, fmt.Errorf("watch: %w", err)
		}

		dir := target
		if info.IsDir() {
			w.dirs[target] = struct{}{}
		} else {
			w.files[target] = struct{}{}
			dir = filepath.Dir(target)
		}
		if _, ok := added[dir]; ok {
			continue
		}
		if err := fsw.Add(dir); err != nil {
			fsw.Close()
			return nil, fmt.Errorf("watch %s: %w", dir, err)
		}
		added[dir] = struct{}{}
	}

	go w.loop(ctx)
	return w, nil
}

func (w *Watcher) loop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			w.Close()
			return
		case <-w.done:
			return
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			// An overflowed queue may hide a change, so assume one happened
			w.log.Warn("file watcher error", zap.Error(err))
			w.stale.Store(true)
		case evt, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if evt.Op == fsnotify.Chmod || !w.relevant(evt.Name) {
				continue
			}
			w.log.Debug("source changed", zap.String("path", evt.Name), zap.String("op", evt.Op.String()))
			w.stale.Store(true)
		}
	}
}

// relevant reports whether path is covered by a watched target.
func (w *Watcher) relevant(path string) bool {
	path = filepath.Clean(path)
	if _, ok := w.files[path]; ok {
		return true
	}
	_, ok := w.dirs[filepath.Dir(path)]
	return ok
}

// Changed reports whether a target changed since the previous call.
func (w *Watcher) Changed() bool {
	return w.stale.Swap(false)
}

// Close stops watching. It is safe to call more than once.
func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.done)
		err = w.fs.Close()
	})
	return err
}
