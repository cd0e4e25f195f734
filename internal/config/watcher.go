package config

import (
	"bytes"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Watcher reloads a config file whenever it is written and delivers each
// valid result on Changes. Invalid or empty contents are logged and skipped.
type Watcher struct {
	path    string
	overlay func(*Config)
	fs      *fsnotify.Watcher
	changes chan Config
	done    chan struct{}
	once    sync.Once
}

// NewWatcher starts watching path. overlay is applied to every reload before
// validation, the same way Load applies it.
func NewWatcher(path string, overlay func(*Config)) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}

	// The directory is watched so that editors replacing the file by rename
	// are still seen.
	if err := fw.Add(filepath.Dir(path)); err != nil {
		fw.Close()
		return nil, fmt.Errorf("watch %s: %w", path, err)
	}

	w := &Watcher{
		path:    filepath.Clean(path),
		overlay: overlay,
		fs:      fw,
		changes: make(chan Config, 1),
		done:    make(chan struct{}),
	}
	go w.loop()
	return w, nil
}

// Changes delivers reloaded configurations. It is closed after Close.
func (w *Watcher) Changes() <-chan Config {
	return w.changes
}

// Close stops watching.
func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.done)
		err = w.fs.Close()
	})
	return err
}

func (w *Watcher) loop() {
	defer close(w.changes)

	for {
		select {
		case <-w.done:
			return

		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}

			cfg, ok := w.reload()
			if !ok {
				continue
			}

			select {
			case w.changes <- cfg:
			case <-w.done:
				return
			}

		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			log.Printf("config: watch error: %v", err)
		}
	}
}

func (w *Watcher) reload() (Config, bool) {
	data, err := os.ReadFile(w.path)
	if err != nil {
		log.Printf("config: reload %s: %v", w.path, err)
		return Config{}, false
	}
	// Truncate-then-write shows up as an empty file first.
	if len(bytes.TrimSpace(data)) == 0 {
		return Config{}, false
	}

	cfg, err := Parse(data, Default())
	if err == nil {
		cfg, err = finish(cfg, w.overlay)
	}
	if err != nil {
		log.Printf("config: ignoring reload of %s: %v", w.path, err)
		return Config{}, false
	}
	return cfg, true
}
