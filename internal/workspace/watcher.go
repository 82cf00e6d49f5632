package workspace

import (
	"fmt"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const reloadDebounce = 200 * time.Millisecond

// ManifestWatcher reloads manifests when they change on disk, so editor
// diagnostics track external edits to runedoc.yml without a restart.
// Writes are debounced: editors commonly fire several events per save.
type ManifestWatcher struct {
	state   *State
	watcher *fsnotify.Watcher

	mu      sync.Mutex
	watched map[string]bool
	timers  map[string]*time.Timer

	done chan struct{}
}

// NewManifestWatcher creates a watcher bound to the state store and
// registers itself for future manifest loads.
func NewManifestWatcher(state *State) (*ManifestWatcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create manifest watcher: %w", err)
	}

	w := &ManifestWatcher{
		state:   state,
		watcher: fsw,
		watched: make(map[string]bool),
		timers:  make(map[string]*time.Timer),
		done:    make(chan struct{}),
	}

	state.OnManifestLoaded(func(path string) {
		if err := w.Watch(path); err != nil {
			log.Errorf("failed to watch manifest %s: %s", path, err)
		}
	})
	for _, path := range state.ManifestPaths() {
		if err := w.Watch(path); err != nil {
			log.Errorf("failed to watch manifest %s: %s", path, err)
		}
	}

	go w.run()
	return w, nil
}

// Watch adds a manifest path to the watch set. Already-watched paths are
// ignored.
func (w *ManifestWatcher) Watch(path string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.watched[path] {
		return nil
	}
	if err := w.watcher.Add(path); err != nil {
		return fmt.Errorf("failed to watch %s: %w", path, err)
	}
	w.watched[path] = true
	return nil
}

func (w *ManifestWatcher) run() {
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			w.scheduleReload(event.Name)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Errorf("manifest watcher error: %s", err)
		}
	}
}

func (w *ManifestWatcher) scheduleReload(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if timer, ok := w.timers[path]; ok {
		timer.Reset(reloadDebounce)
		return
	}
	w.timers[path] = time.AfterFunc(reloadDebounce, func() {
		w.mu.Lock()
		delete(w.timers, path)
		w.mu.Unlock()

		if err := w.state.ReloadManifest(path); err != nil {
			// Keep serving the previous manifest; an in-progress save can
			// leave the file transiently unparsable.
			log.Errorf("manifest %s failed to reload: %s", path, err)
			return
		}
		log.Infof("reloaded manifest %s", path)
	})
}

// Close stops the watcher.
func (w *ManifestWatcher) Close() error {
	close(w.done)

	w.mu.Lock()
	for _, timer := range w.timers {
		timer.Stop()
	}
	w.timers = make(map[string]*time.Timer)
	w.mu.Unlock()

	return w.watcher.Close()
}
