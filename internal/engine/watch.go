package engine

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/vybe/cloudindexer/internal/walker"
	"github.com/vybe/cloudindexer/internal/watcher"
	"github.com/vybe/cloudindexer/pkg/ignore"
)

// ensureWatcher starts a file watcher for ws if one isn't already running
// and the feature is enabled (WatcherDebounce > 0). Changes it detects are
// folded into the workspace's index via RefreshPaths (spec.md §4.8).
func (e *Engine) ensureWatcher(ws Workspace, st *workspaceState) {
	if e.cfg.WatcherDebounce <= 0 {
		return
	}

	st.mu.Lock()
	alreadyWatching := st.watcherStop != nil
	st.mu.Unlock()
	if alreadyWatching {
		return
	}

	w, err := watcher.New(ws.Path, e.shouldWatchPath, e.cfg.WatcherDebounce)
	if err != nil {
		slog.Warn("failed to start file watcher", "workspace", ws.Path, "error", err)
		return
	}
	if err := w.Start(); err != nil {
		slog.Warn("failed to start file watcher", "workspace", ws.Path, "error", err)
		return
	}

	e.SetWatcherStop(ws, w.Stop)
	go e.watchLoop(ws, st, w)
}

// watchLoop folds every debounced batch the watcher emits into ws's index
// until the watcher is stopped (its Changes channel closes). While the
// workspace is paused, batches are held and merged rather than handed to
// RefreshPaths; files RefreshPaths returns as skipped because a pause landed
// mid-call are held the same way. Held changes are flushed as soon as the
// workspace is no longer paused, within one PausedPollInterval of Resume.
func (e *Engine) watchLoop(ws Workspace, st *workspaceState, w *watcher.Watcher) {
	var pending watcher.Batch

	for {
		st.mu.Lock()
		paused := st.paused
		st.mu.Unlock()

		if paused {
			select {
			case batch, ok := <-w.Changes:
				if !ok {
					return
				}
				pending = watcher.MergeBatches(pending, batch)
			case <-time.After(e.cfg.PausedPollInterval):
			}
			continue
		}

		if !pending.IsEmpty() {
			skipped := e.flushWatchBatch(ws, pending)
			pending = watcher.Batch{}
			for _, f := range skipped {
				pending = watcher.MergeBatches(pending, watcher.Batch{Added: []string{f.RelativePath}})
			}
		}

		if !pending.IsEmpty() {
			select {
			case batch, ok := <-w.Changes:
				if !ok {
					return
				}
				pending = watcher.MergeBatches(pending, batch)
			case <-time.After(e.cfg.PausedPollInterval):
			}
			continue
		}

		batch, ok := <-w.Changes
		if !ok {
			return
		}
		pending = watcher.MergeBatches(pending, batch)
	}
}

// flushWatchBatch re-indexes batch's added/changed paths via RefreshPaths,
// returning any files RefreshPaths left unprocessed because the workspace
// became paused mid-call, so watchLoop can hold them for the next flush
// instead of losing them.
func (e *Engine) flushWatchBatch(ws Workspace, batch watcher.Batch) []walker.File {
	if batch.IsEmpty() {
		return nil
	}

	files := make([]walker.File, 0, len(batch.Added)+len(batch.Changed))
	seen := make(map[string]bool, len(batch.Added)+len(batch.Changed))
	for _, rel := range append(append([]string{}, batch.Added...), batch.Changed...) {
		if seen[rel] {
			continue
		}
		seen[rel] = true
		files = append(files, walker.File{
			AbsolutePath: filepath.Join(ws.Path, rel),
			RelativePath: rel,
		})
	}

	var skipped []walker.File
	if len(files) > 0 {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		var err error
		_, skipped, err = e.RefreshPaths(ctx, ws, files)
		cancel()
		if err != nil {
			slog.Warn("watcher-triggered refresh failed", "workspace", ws.Path, "error", err)
		}
	}

	if len(batch.Deleted) > 0 {
		slog.Info("watcher observed deleted paths; leaving their vectors until the next full build",
			"workspace", ws.Path, "count", len(batch.Deleted))
	}

	return skipped
}

// shouldWatchPath applies the same extension allow-list, excluded-dir, and
// ignore-pattern rules the walker uses, so the watcher never reports a change the engine
// would have skipped during a full walk anyway.
func (e *Engine) shouldWatchPath(relPath string, isDir bool) bool {
	for _, part := range strings.Split(filepath.ToSlash(relPath), "/") {
		if part == "" || part == "." {
			continue
		}
		if strings.HasPrefix(part, ".") {
			return false
		}
		for _, excluded := range e.cfg.ExcludedDirs {
			if part == excluded {
				return false
			}
		}
	}

	if len(e.cfg.IgnorePatterns) > 0 && ignore.NewMatcher(e.cfg.IgnorePatterns).ShouldIgnore(filepath.ToSlash(relPath)) {
		return false
	}

	if isDir {
		return true
	}

	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(relPath)), ".")
	if ext == "" {
		return false
	}
	for _, allowed := range e.cfg.ExtensionAllowList {
		if ext == allowed {
			return true
		}
	}
	return false
}
