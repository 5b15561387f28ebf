// Package watcher reports debounced file-system changes under a workspace
// root (spec.md §4.8, C8): one batch of added/changed/deleted relative
// paths per settled burst of activity, handed to the engine's refresh_paths
// operation.
package watcher

import (
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ChangeKind classifies one path's change within a batch.
type ChangeKind string

const (
	ChangeAdded   ChangeKind = "added"
	ChangeChanged ChangeKind = "changed"
	ChangeDeleted ChangeKind = "deleted"
)

// Batch is a debounced set of changes ready to hand to refresh_paths.
type Batch struct {
	Added   []string
	Changed []string
	Deleted []string
}

// IsEmpty reports whether the batch carries no changes.
func (b Batch) IsEmpty() bool {
	return len(b.Added) == 0 && len(b.Changed) == 0 && len(b.Deleted) == 0
}

// ShouldWatch decides whether a path is eligible to trigger a refresh —
// the same extension allow-list and excluded-dir rules the walker applies,
// so the watcher never reports a change the engine would ignore anyway.
type ShouldWatch func(relPath string, isDir bool) bool

// Watcher recursively watches root and emits debounced Batches on Changes.
type Watcher struct {
	root        string
	fsw         *fsnotify.Watcher
	shouldWatch ShouldWatch
	debounce    time.Duration

	Changes chan Batch

	mu      sync.Mutex
	pending map[string]ChangeKind
	timer   *time.Timer

	done chan struct{}
}

// New creates a Watcher over root. shouldWatch filters events the same way
// the walker filters files; debounce is the quiet period required before a
// batch is emitted.
func New(root string, shouldWatch ShouldWatch, debounce time.Duration) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	w := &Watcher{
		root:        root,
		fsw:         fsw,
		shouldWatch: shouldWatch,
		debounce:    debounce,
		Changes:     make(chan Batch, 1),
		pending:     make(map[string]ChangeKind),
		done:        make(chan struct{}),
	}
	return w, nil
}

// Start adds root (and its subdirectories) to the watch set and begins
// processing events. Call Stop to release resources.
func (w *Watcher) Start() error {
	if err := w.addRecursive(w.root); err != nil {
		return fmt.Errorf("failed to watch workspace root: %w", err)
	}
	go w.eventLoop()
	return nil
}

// Stop shuts the watcher down and closes Changes.
func (w *Watcher) Stop() error {
	close(w.done)
	return w.fsw.Close()
}

func (w *Watcher) addRecursive(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		rel, relErr := filepath.Rel(w.root, path)
		if relErr != nil {
			rel = path
		}
		if rel != "." && !w.shouldWatch(filepath.ToSlash(rel), true) {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			log.Printf("watcher: failed to watch %s: %v", path, err)
		}
		return nil
	})
}

func (w *Watcher) eventLoop() {
	for {
		select {
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			log.Printf("watcher: error on %s: %v", w.root, err)

		case <-w.done:
			return
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	rel, err := filepath.Rel(w.root, event.Name)
	if err != nil {
		return
	}
	rel = filepath.ToSlash(rel)

	isDir := event.Op&fsnotify.Create == fsnotify.Create && isDirectory(event.Name)
	if isDir {
		if err := w.addRecursive(event.Name); err != nil {
			log.Printf("watcher: failed to add new directory %s: %v", event.Name, err)
		}
		return
	}

	if !w.shouldWatch(rel, false) {
		return
	}

	kind := ChangeChanged
	switch {
	case event.Op&fsnotify.Remove == fsnotify.Remove, event.Op&fsnotify.Rename == fsnotify.Rename:
		kind = ChangeDeleted
	case event.Op&fsnotify.Create == fsnotify.Create:
		kind = ChangeAdded
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	w.pending[rel] = kind
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.flush)
}

// flush emits the accumulated pending changes as one Batch. Runs on the
// debounce timer's own goroutine.
func (w *Watcher) flush() {
	w.mu.Lock()
	if len(w.pending) == 0 {
		w.mu.Unlock()
		return
	}
	batch := Batch{}
	for path, kind := range w.pending {
		switch kind {
		case ChangeAdded:
			batch.Added = append(batch.Added, path)
		case ChangeChanged:
			batch.Changed = append(batch.Changed, path)
		case ChangeDeleted:
			batch.Deleted = append(batch.Deleted, path)
		}
	}
	w.pending = make(map[string]ChangeKind)
	w.mu.Unlock()

	select {
	case w.Changes <- batch:
	case <-w.done:
	default:
		// A previous batch is still waiting to be consumed; merge into it
		// rather than dropping this one on the floor.
		select {
		case prev := <-w.Changes:
			w.Changes <- mergeBatches(prev, batch)
		default:
			w.Changes <- batch
		}
	}
}

func mergeBatches(a, b Batch) Batch {
	return Batch{
		Added:   append(a.Added, b.Added...),
		Changed: append(a.Changed, b.Changed...),
		Deleted: append(a.Deleted, b.Deleted...),
	}
}

// MergeBatches combines two batches into one, for callers (like the engine's
// pause-aware watch loop) that need to hold several debounced batches
// together before acting on them.
func MergeBatches(a, b Batch) Batch {
	return mergeBatches(a, b)
}

func isDirectory(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
