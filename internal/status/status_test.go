package status

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishAlwaysDeliversFirstSnapshot(t *testing.T) {
	b := NewBoard(time.Hour, 1000)
	ch := b.Subscribe("ws_1")

	b.Publish(Snapshot{Namespace: "ws_1", State: StateRunning})

	select {
	case got := <-ch:
		assert.Equal(t, StateRunning, got.State)
	case <-time.After(time.Second):
		t.Fatal("expected initial snapshot to publish immediately")
	}
}

func TestPublishThrottlesSteadyStateUpdates(t *testing.T) {
	b := NewBoard(time.Hour, 1000)
	ch := b.Subscribe("ws_1")

	b.Publish(Snapshot{Namespace: "ws_1", State: StateRunning, FilesCompleted: 1})
	<-ch

	b.Publish(Snapshot{Namespace: "ws_1", State: StateRunning, FilesCompleted: 2})

	select {
	case <-ch:
		t.Fatal("expected second same-state update within the window to be throttled")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestPublishStateTransitionBypassesThrottle(t *testing.T) {
	b := NewBoard(time.Hour, 1000)
	ch := b.Subscribe("ws_1")

	b.Publish(Snapshot{Namespace: "ws_1", State: StateRunning})
	<-ch

	b.Publish(Snapshot{Namespace: "ws_1", State: StateCompleted})

	select {
	case got := <-ch:
		assert.Equal(t, StateCompleted, got.State)
	case <-time.After(time.Second):
		t.Fatal("expected state transition to publish immediately despite throttle window")
	}
}

func TestPublishFlushesAfterFileCountThreshold(t *testing.T) {
	b := NewBoard(time.Hour, 3)
	ch := b.Subscribe("ws_1")

	b.Publish(Snapshot{Namespace: "ws_1", State: StateRunning, FilesCompleted: 0})
	<-ch

	b.Publish(Snapshot{Namespace: "ws_1", State: StateRunning, FilesCompleted: 3})

	select {
	case got := <-ch:
		assert.Equal(t, 3, got.FilesCompleted)
	case <-time.After(time.Second):
		t.Fatal("expected publish after crossing the file-count threshold")
	}
}

func TestGetReturnsLatestSnapshot(t *testing.T) {
	b := NewBoard(time.Millisecond, 1)
	b.Publish(Snapshot{Namespace: "ws_1", State: StateRunning, FilesCompleted: 5})

	snap, ok := b.Get("ws_1")
	require.True(t, ok)
	assert.Equal(t, 5, snap.FilesCompleted)
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	b := NewBoard(time.Millisecond, 1)
	ch := b.Subscribe("ws_1")
	b.Unsubscribe("ws_1", ch)

	b.Publish(Snapshot{Namespace: "ws_1", State: StateRunning})

	_, open := <-ch
	assert.False(t, open, "channel should be closed after unsubscribe")
}
