package engine

import (
	"context"

	"github.com/vybe/cloudindexer/internal/checkpoint"
	"github.com/vybe/cloudindexer/internal/status"
)

// MaybeAutoTrigger starts a full build for ws at most once per process
// lifetime, and only when the workspace has never been indexed (spec.md
// §4.10, C10). Callers invoke this once per workspace when a host process
// opens it. started reports whether this call actually kicked off a build;
// false means either the guard had already fired for this workspace or the
// workspace already carries a checkpoint, so the caller's existing status
// stands (testable property #12, auto-trigger fires at most once).
func (e *Engine) MaybeAutoTrigger(ctx context.Context, ws Workspace) (snap status.Snapshot, started bool, err error) {
	st := e.stateFor(ws)

	st.mu.Lock()
	if st.triggered {
		st.mu.Unlock()
		return e.currentStatus(st.namespace), false, nil
	}
	st.triggered = true
	st.mu.Unlock()

	if _, found := checkpoint.Load(e.kv, e.checkpointKey(ws.Namespace())); found {
		return e.currentStatus(ws.Namespace()), false, nil
	}

	snap, err = e.BuildFullIndex(ctx, ws)
	return snap, true, err
}
