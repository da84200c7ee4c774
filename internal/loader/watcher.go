package loader

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/signalstage/core/errors"
	"github.com/signalstage/core/logger"
	"github.com/signalstage/core/node"
)

// ReloadFunc is invoked with the freshly-loaded GraphState after a debounced
// file change; an error from it is logged but does not stop the watcher.
type ReloadFunc func(*node.GraphState) error

// Watcher watches a local graph snapshot file and reloads it on change,
// debouncing rapid successive writes the way an editor's "save" often
// produces. Grounded on the teacher's am.ConfigWatcher (am/watcher.go), the
// same debounce-timer-over-fsnotify shape applied to graph snapshots instead
// of TOML config.
type Watcher struct {
	path     string
	format   string
	fs       *fsnotify.Watcher
	callback ReloadFunc

	mu       sync.Mutex
	debounce *time.Timer
	period   time.Duration
}

// NewWatcher opens an fsnotify watch on path's containing directory (so
// editors that replace-via-rename still trigger a reload) and begins
// delivering debounced reloads to onReload.
func NewWatcher(path, format string, onReload ReloadFunc) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create fsnotify watcher")
	}
	dir := filepath.Dir(path)
	if err := fsWatcher.Add(dir); err != nil {
		fsWatcher.Close()
		return nil, errors.Wrapf(err, "failed to watch directory %s", dir)
	}

	w := &Watcher{
		path:     path,
		format:   format,
		fs:       fsWatcher,
		callback: onReload,
		period:   300 * time.Millisecond,
	}
	go w.loop()
	return w, nil
}

func (w *Watcher) loop() {
	for {
		select {
		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			w.scheduleReload()
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			logger.Logger.Warnw("graph watcher error", "err", err)
		}
	}
}

func (w *Watcher) scheduleReload() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.debounce != nil {
		w.debounce.Stop()
	}
	w.debounce = time.AfterFunc(w.period, w.reload)
}

func (w *Watcher) reload() {
	state, err := Load(w.path, w.format)
	if err != nil {
		logger.Logger.Warnw("graph snapshot reload failed", "path", w.path, "err", err)
		return
	}
	if err := w.callback(state); err != nil {
		logger.Logger.Warnw("graph reload callback failed", "path", w.path, "err", err)
	}
}

// Stop closes the underlying fsnotify watcher and stops delivering reloads.
func (w *Watcher) Stop() error {
	err := w.fs.Close()
	w.mu.Lock()
	if w.debounce != nil {
		w.debounce.Stop()
	}
	w.mu.Unlock()
	return err
}
