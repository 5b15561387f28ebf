// Package status tracks and fans out per-workspace indexing status
// (spec.md §4.9, C9): one current snapshot per workspace, broadcast to
// observer channels, throttled so a busy build doesn't flood subscribers.
package status

import (
	"sync"
	"time"
)

// State is the indexing engine's run state for one workspace.
type State string

const (
	StateIdle      State = "idle"
	StateRunning   State = "running"
	StatePaused    State = "paused"
	StateCompleted State = "completed"
	StateFailed    State = "failed"
	StateCanceled  State = "canceled"
)

// Snapshot is the status published for one workspace at a point in time.
type Snapshot struct {
	Namespace      string
	State          State
	RunID          string
	FilesTotal     int
	FilesCompleted int
	ChunksUpserted int
	LastError      string
	UpdatedAt      time.Time
}

// isTransition reports whether b represents a state change from a, which
// always bypasses throttling (spec.md §4.9: "state transitions always
// publish immediately regardless of the throttle window").
func isTransition(a, b Snapshot) bool {
	return a.State != b.State
}

// Board holds the latest snapshot per workspace and fans updates out to
// subscribers.
type Board struct {
	mu            sync.Mutex
	snapshots     map[string]Snapshot
	subscribers   map[string][]chan Snapshot
	lastPublished map[string]time.Time
	publishEvery  time.Duration
	publishFiles  int
	lastFileCount map[string]int
}

// NewBoard creates a Board that throttles steady-state publishes to at most
// one per publishEvery, or one per publishFiles newly completed files,
// whichever comes first.
func NewBoard(publishEvery time.Duration, publishFiles int) *Board {
	return &Board{
		snapshots:     make(map[string]Snapshot),
		subscribers:   make(map[string][]chan Snapshot),
		lastPublished: make(map[string]time.Time),
		lastFileCount: make(map[string]int),
		publishEvery:  publishEvery,
		publishFiles:  publishFiles,
	}
}

// Subscribe returns a channel receiving every snapshot published for
// namespace from now on. The channel is buffered by 1 so a slow subscriber
// never blocks the publisher; Unsubscribe must be called when done.
func (b *Board) Subscribe(namespace string) chan Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan Snapshot, 1)
	b.subscribers[namespace] = append(b.subscribers[namespace], ch)
	return ch
}

// Unsubscribe removes and closes ch.
func (b *Board) Unsubscribe(namespace string, ch chan Snapshot) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.subscribers[namespace]
	for i, c := range subs {
		if c == ch {
			b.subscribers[namespace] = append(subs[:i], subs[i+1:]...)
			close(ch)
			return
		}
	}
}

// Get returns the latest known snapshot for namespace.
func (b *Board) Get(namespace string) (Snapshot, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	s, ok := b.snapshots[namespace]
	return s, ok
}

// Publish records snap as the latest snapshot for its namespace and
// broadcasts it to subscribers, subject to throttling — unless snap
// represents a state transition from the previous snapshot, in which case
// it always goes out immediately.
func (b *Board) Publish(snap Snapshot) {
	b.mu.Lock()

	prev, hadPrev := b.snapshots[snap.Namespace]
	b.snapshots[snap.Namespace] = snap

	transition := !hadPrev || isTransition(prev, snap)
	shouldPublish := transition

	if !shouldPublish {
		last := b.lastPublished[snap.Namespace]
		if time.Since(last) >= b.publishEvery {
			shouldPublish = true
		} else if snap.FilesCompleted-b.lastFileCount[snap.Namespace] >= b.publishFiles {
			shouldPublish = true
		}
	}

	if !shouldPublish {
		b.mu.Unlock()
		return
	}

	b.lastPublished[snap.Namespace] = time.Now()
	b.lastFileCount[snap.Namespace] = snap.FilesCompleted
	subs := append([]chan Snapshot(nil), b.subscribers[snap.Namespace]...)
	b.mu.Unlock()

	for _, ch := range subs {
		select {
		case ch <- snap:
		default:
			// Drop the stale pending value and replace it with the fresh
			// one rather than blocking the publisher on a slow subscriber.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- snap:
			default:
			}
		}
	}
}
