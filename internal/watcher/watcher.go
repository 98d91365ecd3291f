// Package watcher provides file system watching with debouncing for the
// registry tree, backing validate --watch.
package watcher

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher monitors a registry file and the pack files around it, and sends
// a signal when any YAML document in the tree changes.
type Watcher struct {
	fsWatcher    *fsnotify.Watcher
	registryPath string
	debounce     time.Duration
	onChange     chan struct{}
	done         chan struct{}
}

// Config holds watcher configuration options.
type Config struct {
	RegistryPath string
	DebounceDur  time.Duration
}

// DefaultConfig returns sensible defaults for the watcher.
func DefaultConfig(registryPath string) Config {
	return Config{
		RegistryPath: registryPath,
		DebounceDur:  500 * time.Millisecond,
	}
}

// New creates a registry tree watcher.
func New(cfg Config) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating fsnotify watcher: %w", err)
	}

	return &Watcher{
		fsWatcher:    fsw,
		registryPath: cfg.RegistryPath,
		debounce:     cfg.DebounceDur,
		onChange:     make(chan struct{}, 1),
		done:         make(chan struct{}),
	}, nil
}

// Start begins watching the registry's directory tree. Returns a channel
// that receives a signal, debounced, when any YAML file changes. Pack files
// live in subdirectories of the registry, so every directory under it is
// watched.
func (w *Watcher) Start() (<-chan struct{}, error) {
	root := filepath.Dir(w.registryPath)
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		return w.fsWatcher.Add(path)
	})
	if err != nil {
		return nil, fmt.Errorf("watching registry tree %s: %w", root, err)
	}

	go w.loop()

	return w.onChange, nil
}

// Stop terminates the watcher and releases resources.
func (w *Watcher) Stop() error {
	close(w.done)
	return w.fsWatcher.Close()
}

// loop processes file system events with debouncing.
func (w *Watcher) loop() {
	var (
		timer   *time.Timer
		pending bool
	)

	for {
		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}

			if !w.isRelevantEvent(event) {
				continue
			}

			// A new directory may carry new pack files.
			if event.Op&fsnotify.Create != 0 && filepath.Ext(event.Name) == "" {
				_ = w.fsWatcher.Add(event.Name)
			}

			if timer == nil {
				timer = time.NewTimer(w.debounce)
				pending = true
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.debounce)
				pending = true
			}

		case <-func() <-chan time.Time {
			if timer != nil {
				return timer.C
			}
			return nil
		}():
			if pending {
				// Non-blocking send - drop if channel full
				select {
				case w.onChange <- struct{}{}:
				default:
				}
				pending = false
			}

		case _, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			// Callers can wrap the watcher if they need error visibility.

		case <-w.done:
			if timer != nil {
				timer.Stop()
			}
			return
		}
	}
}

// isRelevantEvent checks if the event should trigger a re-validation.
func (w *Watcher) isRelevantEvent(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}

	switch filepath.Ext(event.Name) {
	case ".yaml", ".yml":
		return true
	}
	// Directory creation carries no extension but may introduce pack files.
	return event.Op&fsnotify.Create != 0 && filepath.Ext(event.Name) == ""
}
