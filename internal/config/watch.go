package config

import (
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watcher reports writes to config.toml. The directory is watched rather
// than the file so that editors which save by rename are noticed too.
type Watcher struct {
	w    *fsnotify.Watcher
	path string
	done chan struct{}
}

// Watch starts watching the config file and calls onChange from the
// watcher goroutine each time it is written, created or renamed into place.
func Watch(onChange func(), onError func(error)) (*Watcher, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(filepath.Dir(path)); err != nil {
		_ = fw.Close()
		return nil, err
	}
	w := &Watcher{w: fw, path: path, done: make(chan struct{})}
	go w.loop(onChange, onError)
	return w, nil
}

func (w *Watcher) loop(onChange func(), onError func(error)) {
	defer close(w.done)
	for {
		select {
		case ev, ok := <-w.w.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename) {
				onChange()
			}
		case err, ok := <-w.w.Errors:
			if !ok {
				return
			}
			if onError != nil {
				onError(err)
			}
		}
	}
}

// Close stops the watcher and waits for its goroutine to exit.
func (w *Watcher) Close() error {
	err := w.w.Close()
	<-w.done
	return err
}
