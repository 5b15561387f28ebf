// Package checkpoint persists and resumes per-workspace indexing progress
// (spec.md §4.2, C2). A checkpoint is a single versioned JSON record per
// workspace, read and written through an external KV store scoped to that
// workspace, holding enough of a run's bookkeeping (totals, run state, and
// the completed-file set) to resume a paused or interrupted build without
// re-embedding files already indexed.
package checkpoint

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"sort"
	"strings"
	"time"
)

// currentVersion is the checkpoint schema version this package writes.
// Version 1 checkpoints (no run_id/run_state fields) are still read; see
// Load.
const currentVersion = 2

// InlineThreshold is the point above which the completed-file set is
// collapsed to an FNV-1a digest instead of listed inline (spec.md §4.2,
// testable property #11).
const InlineThreshold = 5000

// RunState mirrors spec.md §3's Indexing run.run_state, persisted onto the
// checkpoint so a resumed engine knows how the prior run ended.
type RunState string

const (
	RunStateRunning     RunState = "running"
	RunStatePaused      RunState = "paused"
	RunStateComplete    RunState = "complete"
	RunStateInterrupted RunState = "interrupted"
)

// Store is the narrow persistence collaborator a checkpoint needs — the
// per-workspace-scoped KV get/put/delete named in spec.md §6.
type Store interface {
	Get(key string) (string, bool, error)
	Put(key, value string) error
	Delete(key string) error
}

// Checkpoint is the persisted record for one workspace, matching spec.md
// §3's Checkpoint (persisted) shape.
type Checkpoint struct {
	Version int `json:"version"`

	TotalFiles     int `json:"total_files"`
	IndexedFiles   int `json:"indexed_files"`
	TotalChunks    int `json:"total_chunks"`
	EmbeddedChunks int `json:"embedded_chunks"`

	LastFullScanTime *time.Time `json:"last_full_scan_time,omitempty"`
	LastIndexedTime  *time.Time `json:"last_indexed_time,omitempty"`
	LastUpdated      time.Time  `json:"last_updated"`

	RunID    string   `json:"run_id,omitempty"`
	RunState RunState `json:"run_state,omitempty"`

	// CompletedFilePaths lists relative paths fully indexed in this run,
	// present only while the set is small enough to store inline.
	CompletedFilePaths []string `json:"completed_file_paths,omitempty"`
	// CompletedFileSetHash is an FNV-1a digest of the sorted completed set,
	// used once the set exceeds InlineThreshold entries.
	CompletedFileSetHash string `json:"completed_file_set_hash,omitempty"`
}

// IsZero reports whether c carries no progress at all — an empty
// checkpoint. Saving a zero checkpoint is a no-op (spec.md §4.2).
func (c *Checkpoint) IsZero() bool {
	return c.TotalFiles == 0 && c.IndexedFiles == 0 && c.TotalChunks == 0 && c.EmbeddedChunks == 0
}

// New builds an empty checkpoint for run runID.
func New(runID string) *Checkpoint {
	return &Checkpoint{Version: currentVersion, RunID: runID, RunState: RunStateRunning}
}

// MarkFileCompleted records relPath as fully indexed: increments
// IndexedFiles and folds relPath into the completed set, switching to
// digest mode once the set crosses InlineThreshold.
func (c *Checkpoint) MarkFileCompleted(relPath string) {
	c.IndexedFiles++

	if c.CompletedFileSetHash != "" {
		c.CompletedFileSetHash = rehash(c.CompletedFileSetHash, relPath)
		return
	}

	c.CompletedFilePaths = append(c.CompletedFilePaths, relPath)
	if len(c.CompletedFilePaths) > InlineThreshold {
		c.CompletedFileSetHash = digestOf(c.CompletedFilePaths)
		c.CompletedFilePaths = nil
	}
}

// HasCompletedFile reports whether relPath was recorded as completed. In
// digest mode this always returns false — callers in digest mode cannot
// answer membership from a hash alone and must treat every file as
// not-yet-completed for resume purposes.
func (c *Checkpoint) HasCompletedFile(relPath string) bool {
	if c.CompletedFileSetHash != "" {
		return false
	}
	for _, f := range c.CompletedFilePaths {
		if f == relPath {
			return true
		}
	}
	return false
}

// digestOf returns a stable FNV-1a hex digest of the sorted file set.
func digestOf(files []string) string {
	sorted := append([]string(nil), files...)
	sort.Strings(sorted)
	h := fnv.New64a()
	h.Write([]byte(strings.Join(sorted, "\x00")))
	return hex.EncodeToString(h.Sum(nil))
}

// rehash folds one more completed path into an existing digest.
func rehash(prev, relPath string) string {
	h := fnv.New64a()
	h.Write([]byte(prev))
	h.Write([]byte{0})
	h.Write([]byte(relPath))
	return hex.EncodeToString(h.Sum(nil))
}

// Load reads and parses the checkpoint for key from store. A missing,
// malformed, or unknown-version record returns (nil, false), and a store
// read error is treated the same way — callers treat it the same as "no prior run" (spec.md
// §4.2: "returns None for absent/malformed/unknown-version records").
func Load(store Store, key string) (*Checkpoint, bool) {
	raw, ok, err := store.Get(key)
	if err != nil || !ok || raw == "" {
		return nil, false
	}

	var cp Checkpoint
	if err := json.Unmarshal([]byte(raw), &cp); err != nil {
		return nil, false
	}
	if cp.Version == 0 {
		cp.Version = 1
	}
	if cp.Version != 1 && cp.Version != 2 {
		return nil, false
	}
	return &cp, true
}

// Save persists c under key. Saving a zero checkpoint is a no-op (spec.md
// §4.2). Failures are swallowed by the caller's best-effort policy — Save
// itself returns the error so the caller can log it, but it is never
// fatal to the operation that triggered the save.
func Save(store Store, key string, c *Checkpoint) error {
	if c.IsZero() {
		return nil
	}
	c.LastUpdated = timeNow()

	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode checkpoint: %w", err)
	}
	if err := store.Put(key, string(data)); err != nil {
		return fmt.Errorf("failed to persist checkpoint: %w", err)
	}
	return nil
}

// Clear removes any checkpoint at key.
func Clear(store Store, key string) error {
	if err := store.Delete(key); err != nil {
		return fmt.Errorf("failed to clear checkpoint: %w", err)
	}
	return nil
}

// timeNow is a seam so tests can't accidentally depend on wall-clock time
// ordering; production code always uses the real clock.
var timeNow = func() time.Time { return time.Now() }
