// Package engine implements the indexing engine's state machine (spec.md
// §4.7, C7): full builds with resume, incremental refresh driven by the
// watcher, pause/cancel, status publication, and diagnostics. It is the
// component that ties together the walker (C3), chunker (C4), embedder
// (C5), vector store (C6), checkpoint store (C2), and status fan-out (C9)
// named elsewhere in this module.
package engine

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/vybe/cloudindexer/internal/checkpoint"
	"github.com/vybe/cloudindexer/internal/chunker"
	"github.com/vybe/cloudindexer/internal/embedder"
	"github.com/vybe/cloudindexer/internal/identity"
	"github.com/vybe/cloudindexer/internal/status"
	"github.com/vybe/cloudindexer/internal/vectorstore"
	"github.com/vybe/cloudindexer/internal/walker"
)

// Workspace identifies one indexing target: a root on disk, owned by a
// stable per-installation user.
type Workspace struct {
	Path   string
	UserID string
}

// Namespace derives the opaque string scoping this workspace's vectors
// (spec.md §4.1).
func (w Workspace) Namespace() string { return identity.Namespace(w.UserID, w.Path) }

// Embedder is the narrow embedding collaborator the engine depends on.
type Embedder interface {
	Embed(ctx context.Context, texts []string, purpose embedder.Purpose) ([][]float32, error)
}

// VectorStore is the narrow vector-store collaborator the engine depends on.
type VectorStore interface {
	Upsert(ctx context.Context, records []vectorstore.Record) error
	DeleteNamespace(ctx context.Context, namespace string) error
	Stats(ctx context.Context, namespace string) (vectorstore.Stats, error)
	Query(ctx context.Context, namespace string, vector []float32, topK int) ([]vectorstore.Record, error)
}

// Config bounds and paces the engine loop; values come from
// config.IndexingConfig / ChunkingConfig / EmbeddingsConfig / StorageConfig.
type Config struct {
	Enabled bool

	ChunkSizeLines     int
	EmbeddingBatchSize int

	InterFileDelay     time.Duration
	StatusPublishEvery time.Duration
	StatusPublishFiles int
	CheckpointEvery    time.Duration
	CheckpointFiles    int
	PausedPollInterval time.Duration
	BuildCooldown      time.Duration

	KeyPrefix string

	ExcludedDirs       []string
	ExtensionAllowList []string
	IgnorePatterns     []string
	MaxFiles           int
	MaxDepth           int

	// WatcherDebounce is the quiet period the file watcher waits for before
	// emitting a batch (spec.md §4.8). Zero disables the watcher: a
	// workspace is only ever refreshed by an explicit build or RefreshPaths
	// call.
	WatcherDebounce time.Duration
}

// Engine is the per-process owner of every workspace's indexing state.
// One Engine typically serves every workspace a host process has open.
type Engine struct {
	cfg   Config
	board *status.Board
	kv    checkpoint.Store
	vs    VectorStore
	emb   Embedder

	sf singleflight.Group

	mu         sync.Mutex
	workspaces map[string]*workspaceState
}

type workspaceState struct {
	mu            sync.Mutex
	namespace     string
	workspacePath string
	paused        bool
	pausedReason  string
	cancel        context.CancelFunc
	lastBuildEnd  time.Time
	triggered     bool
	watcherStop   func() error
}

// New builds an Engine. board, kv, vs, and emb are the collaborators named
// in spec.md §6; Config carries the fixed pacing and bounds from §4 and §5.
func New(cfg Config, board *status.Board, kv checkpoint.Store, vs VectorStore, emb Embedder) *Engine {
	return &Engine{
		cfg:        cfg,
		board:      board,
		kv:         kv,
		vs:         vs,
		emb:        emb,
		workspaces: make(map[string]*workspaceState),
	}
}

func (e *Engine) stateFor(ws Workspace) *workspaceState {
	namespace := ws.Namespace()

	e.mu.Lock()
	defer e.mu.Unlock()

	st, ok := e.workspaces[namespace]
	if !ok {
		st = &workspaceState{namespace: namespace, workspacePath: ws.Path}
		e.workspaces[namespace] = st
	}
	return st
}

func (e *Engine) checkpointKey(namespace string) string {
	return identity.StorageKey(e.cfg.KeyPrefix, namespace)
}

// currentStatus returns whatever snapshot is on the board for this
// workspace, or an Idle placeholder if none exists yet.
func (e *Engine) currentStatus(namespace string) status.Snapshot {
	if snap, ok := e.board.Get(namespace); ok {
		return snap
	}
	return status.Snapshot{Namespace: namespace, State: status.StateIdle}
}

// BuildFullIndex runs (or joins) a full index build for ws (spec.md §4.7's
// build_full_index). When the feature switch is off, it is a no-op that
// returns the current status unchanged. A call landing within the build
// cooldown of the previous run's completion also returns the current
// status without starting new work. Concurrent callers for the same
// workspace share one in-flight run (single-flight, spec.md §7).
func (e *Engine) BuildFullIndex(ctx context.Context, ws Workspace) (status.Snapshot, error) {
	if !e.cfg.Enabled {
		return e.currentStatus(ws.Namespace()), nil
	}

	st := e.stateFor(ws)

	st.mu.Lock()
	inCooldown := !st.lastBuildEnd.IsZero() &&
		st.cancel == nil &&
		time.Since(st.lastBuildEnd) < e.cfg.BuildCooldown
	st.mu.Unlock()

	if inCooldown {
		return e.currentStatus(st.namespace), nil
	}

	result, err, _ := e.sf.Do(st.namespace, func() (interface{}, error) {
		return e.runBuild(ctx, ws, st)
	})
	if err != nil {
		return status.Snapshot{}, err
	}

	snap := result.(status.Snapshot)
	if snap.State == status.StateCompleted {
		e.ensureWatcher(ws, st)
	}
	return snap, nil
}

func (e *Engine) runBuild(ctx context.Context, ws Workspace, st *workspaceState) (status.Snapshot, error) {
	namespace := st.namespace
	key := e.checkpointKey(namespace)

	runCtx, cancel := context.WithCancel(ctx)
	st.mu.Lock()
	st.cancel = cancel
	st.mu.Unlock()
	defer func() {
		st.mu.Lock()
		st.cancel = nil
		st.lastBuildEnd = time.Now()
		st.mu.Unlock()
	}()

	runID := fmt.Sprintf("%d", time.Now().UnixMilli())

	cp, found := checkpoint.Load(e.kv, key)
	resumeMode := found && cp != nil &&
		(cp.RunState == checkpoint.RunStateRunning || cp.RunState == checkpoint.RunStatePaused || cp.RunState == checkpoint.RunStateInterrupted) &&
		len(cp.CompletedFilePaths) > 0

	completed := map[string]struct{}{}
	cur := checkpoint.New(runID)
	if resumeMode {
		for _, f := range cp.CompletedFilePaths {
			completed[f] = struct{}{}
		}
		cur.IndexedFiles = cp.IndexedFiles
		cur.EmbeddedChunks = cp.EmbeddedChunks
		cur.TotalChunks = cp.TotalChunks
		cur.CompletedFilePaths = append([]string(nil), cp.CompletedFilePaths...)
	} else {
		if err := e.vs.DeleteNamespace(runCtx, namespace); err != nil {
			slog.Warn("delete_namespace before fresh build failed, proceeding anyway", "namespace", namespace, "error", err)
		}
	}

	e.publish(status.Snapshot{
		Namespace: namespace,
		State:     status.StateRunning,
		RunID:     runID,
		UpdatedAt: time.Now(),
	})

	walkResult, err := walker.Walk(ws.Path, walker.Options{
		ExcludedDirs:       e.cfg.ExcludedDirs,
		ExtensionAllowList: e.cfg.ExtensionAllowList,
		MaxFiles:           e.cfg.MaxFiles,
		MaxDepth:           e.cfg.MaxDepth,
		IgnorePatterns:     e.cfg.IgnorePatterns,
	})
	if err != nil {
		e.publish(status.Snapshot{Namespace: namespace, State: status.StateFailed, LastError: err.Error(), UpdatedAt: time.Now()})
		return status.Snapshot{}, fmt.Errorf("failed to walk workspace: %w", err)
	}

	var remaining []walker.File
	for _, f := range walkResult.Files {
		if _, done := completed[f.RelativePath]; done {
			continue
		}
		remaining = append(remaining, f)
	}

	cur.TotalFiles = len(walkResult.Files)

	snap := status.Snapshot{
		Namespace:      namespace,
		State:          status.StateRunning,
		RunID:          runID,
		FilesTotal:     cur.TotalFiles,
		FilesCompleted: cur.IndexedFiles,
		ChunksUpserted: cur.EmbeddedChunks,
		UpdatedAt:      time.Now(),
	}
	e.publish(snap)

	lastStatusPublish := time.Now()
	lastCheckpointSave := time.Now()
	filesSinceStatusPublish := 0
	filesSinceCheckpointSave := 0

	outcome := e.processFiles(runCtx, ws, namespace, remaining, cur, st, &lastStatusPublish, &lastCheckpointSave, &filesSinceStatusPublish, &filesSinceCheckpointSave, key)

	return e.finalize(runCtx, ws, namespace, cur, key, outcome)
}

type buildOutcome int

const (
	outcomeComplete buildOutcome = iota
	outcomePaused
	outcomeCancelled
	// outcomePartial is returned when the run reached the end of its file
	// list without being paused or cancelled, but one or more files failed
	// to index (spec.md §7: per-file exceptions are counted as failures for
	// the file only and the loop continues). It must never be classified
	// as outcomeComplete: invariant #4 requires indexed_files = total_files
	// whenever run_state = complete.
	outcomePartial
)

func (e *Engine) processFiles(
	ctx context.Context,
	ws Workspace,
	namespace string,
	files []walker.File,
	cur *checkpoint.Checkpoint,
	st *workspaceState,
	lastStatusPublish, lastCheckpointSave *time.Time,
	filesSinceStatusPublish, filesSinceCheckpointSave *int,
	key string,
) buildOutcome {
	for _, f := range files {
		for {
			st.mu.Lock()
			paused := st.paused
			reason := st.pausedReason
			st.mu.Unlock()

			if !paused {
				break
			}

			e.publish(status.Snapshot{
				Namespace:      namespace,
				State:          status.StatePaused,
				RunID:          cur.RunID,
				FilesTotal:     cur.TotalFiles,
				FilesCompleted: cur.IndexedFiles,
				ChunksUpserted: cur.EmbeddedChunks,
				LastError:      reason,
				UpdatedAt:      time.Now(),
			})
			cur.RunState = checkpoint.RunStatePaused
			if err := checkpoint.Save(e.kv, key, cur); err != nil {
				log.Printf("engine: checkpoint save failed while paused for %s: %v", namespace, err)
			}

			select {
			case <-ctx.Done():
				return outcomeCancelled
			case <-time.After(e.cfg.PausedPollInterval):
			}
		}

		select {
		case <-ctx.Done():
			return outcomeCancelled
		default:
		}

		chunkCount, err := e.indexFile(ctx, ws, namespace, f)
		if err != nil {
			log.Printf("engine: failed to index %s in %s: %v", f.RelativePath, namespace, err)
		} else {
			cur.MarkFileCompleted(f.RelativePath)
			cur.TotalChunks += chunkCount
			cur.EmbeddedChunks += chunkCount
			*filesSinceStatusPublish++
			*filesSinceCheckpointSave++
		}

		if time.Since(*lastStatusPublish) >= e.cfg.StatusPublishEvery || *filesSinceStatusPublish >= e.cfg.StatusPublishFiles {
			e.publish(status.Snapshot{
				Namespace:      namespace,
				State:          status.StateRunning,
				RunID:          cur.RunID,
				FilesTotal:     cur.TotalFiles,
				FilesCompleted: cur.IndexedFiles,
				ChunksUpserted: cur.EmbeddedChunks,
				UpdatedAt:      time.Now(),
			})
			*lastStatusPublish = time.Now()
			*filesSinceStatusPublish = 0
		}

		if time.Since(*lastCheckpointSave) >= e.cfg.CheckpointEvery || *filesSinceCheckpointSave >= e.cfg.CheckpointFiles {
			cur.RunState = checkpoint.RunStateRunning
			if err := checkpoint.Save(e.kv, key, cur); err != nil {
				log.Printf("engine: checkpoint save failed for %s: %v", namespace, err)
			}
			*lastCheckpointSave = time.Now()
			*filesSinceCheckpointSave = 0
		}

		select {
		case <-ctx.Done():
			return outcomeCancelled
		case <-time.After(e.cfg.InterFileDelay):
		}
	}

	st.mu.Lock()
	paused := st.paused
	st.mu.Unlock()
	if paused {
		return outcomePaused
	}
	if cur.IndexedFiles < cur.TotalFiles {
		return outcomePartial
	}
	return outcomeComplete
}

func (e *Engine) finalize(ctx context.Context, ws Workspace, namespace string, cur *checkpoint.Checkpoint, key string, outcome buildOutcome) (status.Snapshot, error) {
	switch outcome {
	case outcomePaused:
		cur.RunState = checkpoint.RunStatePaused
		if err := checkpoint.Save(e.kv, key, cur); err != nil {
			log.Printf("engine: checkpoint save failed for %s: %v", namespace, err)
		}
		snap := status.Snapshot{
			Namespace:      namespace,
			State:          status.StatePaused,
			RunID:          cur.RunID,
			FilesTotal:     cur.TotalFiles,
			FilesCompleted: cur.IndexedFiles,
			ChunksUpserted: cur.EmbeddedChunks,
			UpdatedAt:      time.Now(),
		}
		e.publish(snap)
		return snap, nil

	case outcomeCancelled:
		cur.RunState = checkpoint.RunStateInterrupted
		if err := checkpoint.Save(e.kv, key, cur); err != nil {
			log.Printf("engine: checkpoint save failed for %s: %v", namespace, err)
		}
		snap := status.Snapshot{
			Namespace:      namespace,
			State:          status.StateCanceled,
			RunID:          cur.RunID,
			FilesTotal:     cur.TotalFiles,
			FilesCompleted: cur.IndexedFiles,
			ChunksUpserted: cur.EmbeddedChunks,
			LastError:      "indexing was cancelled before all files completed",
			UpdatedAt:      time.Now(),
		}
		e.publish(snap)
		return snap, nil

	case outcomePartial:
		cur.RunState = checkpoint.RunStateInterrupted
		if err := checkpoint.Save(e.kv, key, cur); err != nil {
			log.Printf("engine: checkpoint save failed for %s: %v", namespace, err)
		}
		snap := status.Snapshot{
			Namespace:      namespace,
			State:          status.StateFailed,
			RunID:          cur.RunID,
			FilesTotal:     cur.TotalFiles,
			FilesCompleted: cur.IndexedFiles,
			ChunksUpserted: cur.EmbeddedChunks,
			LastError:      fmt.Sprintf("index incomplete: %d of %d files indexed; re-run build to finish", cur.IndexedFiles, cur.TotalFiles),
			UpdatedAt:      time.Now(),
		}
		e.publish(snap)
		return snap, nil

	default: // outcomeComplete
		now := time.Now()
		cur.LastFullScanTime = &now
		cur.LastIndexedTime = &now
		cur.RunState = checkpoint.RunStateComplete
		if err := checkpoint.Save(e.kv, key, cur); err != nil {
			log.Printf("engine: checkpoint save failed for %s: %v", namespace, err)
		}

		if stats, err := e.vs.Stats(ctx, namespace); err != nil {
			slog.Warn("validation stats call failed", "namespace", namespace, "error", err)
		} else if stats.VectorCount != cur.TotalChunks {
			slog.Warn("validation mismatch: vector store count does not match embedded chunk count",
				"namespace", namespace, "vector_count", stats.VectorCount, "total_chunks", cur.TotalChunks)
		}

		snap := status.Snapshot{
			Namespace:      namespace,
			State:          status.StateCompleted,
			RunID:          cur.RunID,
			FilesTotal:     cur.TotalFiles,
			FilesCompleted: cur.IndexedFiles,
			ChunksUpserted: cur.EmbeddedChunks,
			UpdatedAt:      now,
		}
		e.publish(snap)
		return snap, nil
	}
}

// IndexFile embeds and upserts one file's chunks (spec.md §4.7's
// index_file). It is exported so refresh_paths can call it directly
// outside a full build.
func (e *Engine) IndexFile(ctx context.Context, ws Workspace, f walker.File) (int, error) {
	return e.indexFile(ctx, ws, ws.Namespace(), f)
}

func (e *Engine) indexFile(ctx context.Context, ws Workspace, namespace string, f walker.File) (int, error) {
	content, err := readFile(f.AbsolutePath)
	if err != nil {
		return 0, fmt.Errorf("failed to read %s: %w", f.RelativePath, err)
	}

	chunks := chunker.Split(content, e.cfg.ChunkSizeLines)
	if len(chunks) == 0 {
		return 0, nil
	}

	var records []vectorstore.Record
	batchSize := e.cfg.EmbeddingBatchSize
	if batchSize <= 0 {
		batchSize = len(chunks)
	}

	for i := 0; i < len(chunks); i += batchSize {
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		default:
		}

		end := i + batchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[i:end]

		texts := make([]string, len(batch))
		for j, c := range batch {
			texts[j] = c.Content
		}

		vectors, err := e.emb.Embed(ctx, texts, embedder.PurposeDocument)
		if err != nil {
			return 0, fmt.Errorf("failed to embed chunks [%d:%d] of %s: %w", i, end, f.RelativePath, err)
		}

		for j, c := range batch {
			records = append(records, vectorstore.Record{
				ID:            identity.VectorID(ws.Path, f.RelativePath, c.Ordinal),
				Namespace:     namespace,
				WorkspacePath: ws.Path,
				RelativePath:  f.RelativePath,
				Ordinal:       c.Ordinal,
				StartLine:     c.StartLine,
				EndLine:       c.EndLine,
				Content:       c.Content,
				ContentHash:   f.ContentHash,
				Vector:        vectors[j],
			})
		}
	}

	if len(records) > 0 {
		if err := e.vs.Upsert(ctx, records); err != nil {
			return 0, fmt.Errorf("failed to upsert records for %s: %w", f.RelativePath, err)
		}
	}

	return len(chunks), nil
}

// RefreshPaths re-indexes exactly the given relative paths under a
// transient Running status, returning to the workspace's steady Ready
// state on completion (spec.md §4.7's refresh_paths). It does not
// participate in the full-build single-flight guard.
//
// If the workspace becomes paused partway through (a race against
// watch.go's own pre-call pause check, which is the normal guard), the
// remaining files are left unprocessed and returned as skipped rather than
// silently dropped, so a caller can hold and retry them once the workspace
// resumes.
func (e *Engine) RefreshPaths(ctx context.Context, ws Workspace, files []walker.File) (status.Snapshot, []walker.File, error) {
	if !e.cfg.Enabled {
		return e.currentStatus(ws.Namespace()), nil, nil
	}

	namespace := ws.Namespace()
	st := e.stateFor(ws)

	e.publish(status.Snapshot{Namespace: namespace, State: status.StateRunning, UpdatedAt: time.Now()})

	var chunkTotal int
	var firstErr error
	for i, f := range files {
		st.mu.Lock()
		paused := st.paused
		st.mu.Unlock()
		if paused {
			snap := status.Snapshot{Namespace: namespace, State: status.StateCompleted, ChunksUpserted: chunkTotal, UpdatedAt: time.Now()}
			e.publish(snap)
			return snap, files[i:], firstErr
		}

		n, err := e.indexFile(ctx, ws, namespace, f)
		if err != nil {
			log.Printf("engine: refresh failed for %s in %s: %v", f.RelativePath, namespace, err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		chunkTotal += n
	}

	snap := status.Snapshot{Namespace: namespace, State: status.StateCompleted, ChunksUpserted: chunkTotal, UpdatedAt: time.Now()}
	e.publish(snap)
	return snap, nil, firstErr
}

// DeleteIndex removes a workspace's remote namespace, stops its watcher,
// and clears its checkpoint (spec.md §4.7's delete_index).
func (e *Engine) DeleteIndex(ctx context.Context, ws Workspace) error {
	namespace := ws.Namespace()
	st := e.stateFor(ws)

	if err := e.vs.DeleteNamespace(ctx, namespace); err != nil {
		return fmt.Errorf("failed to delete namespace %s: %w", namespace, err)
	}

	st.mu.Lock()
	if st.watcherStop != nil {
		if err := st.watcherStop(); err != nil {
			log.Printf("engine: failed to stop watcher for %s: %v", namespace, err)
		}
		st.watcherStop = nil
	}
	st.paused = false
	st.pausedReason = ""
	st.mu.Unlock()

	if err := checkpoint.Clear(e.kv, e.checkpointKey(namespace)); err != nil {
		log.Printf("engine: checkpoint clear failed for %s: %v", namespace, err)
	}

	e.publish(status.Snapshot{Namespace: namespace, State: status.StateIdle, UpdatedAt: time.Now()})
	return nil
}

// Pause requests that the active build for ws suspend between files
// (spec.md §4.7's pause).
func (e *Engine) Pause(ws Workspace, reason string) {
	st := e.stateFor(ws)
	st.mu.Lock()
	st.paused = true
	st.pausedReason = reason
	st.mu.Unlock()
}

// Resume clears a prior pause request for ws.
func (e *Engine) Resume(ws Workspace) {
	st := e.stateFor(ws)
	st.mu.Lock()
	st.paused = false
	st.pausedReason = ""
	st.mu.Unlock()
}

// Cancel requests that the active build for ws stop at the next
// cancellation checkpoint.
func (e *Engine) Cancel(ws Workspace) {
	st := e.stateFor(ws)
	st.mu.Lock()
	if st.cancel != nil {
		st.cancel()
	}
	st.mu.Unlock()
}

// SetWatcherStop records the stop function for ws's file watcher, so
// DeleteIndex and future lifecycle operations can shut it down.
func (e *Engine) SetWatcherStop(ws Workspace, stop func() error) {
	st := e.stateFor(ws)
	st.mu.Lock()
	st.watcherStop = stop
	st.mu.Unlock()
}

// GetStatus returns the current status for ws, hydrating from checkpoint
// when no in-memory status exists yet (spec.md §4.7's get_status).
func (e *Engine) GetStatus(ctx context.Context, ws Workspace) status.Snapshot {
	namespace := ws.Namespace()

	if snap, ok := e.board.Get(namespace); ok {
		return snap
	}

	if stats, err := e.vs.Stats(ctx, namespace); err == nil && stats.VectorCount == 0 {
		if err := checkpoint.Clear(e.kv, e.checkpointKey(namespace)); err != nil {
			log.Printf("engine: checkpoint clear failed while hydrating status for %s: %v", namespace, err)
		}
		return status.Snapshot{Namespace: namespace, State: status.StateIdle}
	}

	cp, found := checkpoint.Load(e.kv, e.checkpointKey(namespace))
	if !found {
		return status.Snapshot{Namespace: namespace, State: status.StateIdle}
	}

	snap := status.Snapshot{
		Namespace:      namespace,
		FilesTotal:     cp.TotalFiles,
		FilesCompleted: cp.IndexedFiles,
		ChunksUpserted: cp.EmbeddedChunks,
	}

	switch {
	case cp.RunState == checkpoint.RunStateComplete:
		snap.State = status.StateCompleted
	case cp.RunState == checkpoint.RunStatePaused:
		snap.State = status.StatePaused
	case cp.RunState == checkpoint.RunStateInterrupted || cp.RunState == checkpoint.RunStateRunning:
		snap.State = status.StateFailed
		snap.LastError = fmt.Sprintf("index incomplete: %d of %d files indexed; re-run build to finish", cp.IndexedFiles, cp.TotalFiles)
	case cp.IndexedFiles > 0:
		snap.State = status.StateFailed
		snap.LastError = "index incomplete"
	default:
		snap.State = status.StateIdle
	}

	return snap
}

// Diagnostics is the structure returned by GetDiagnostics (spec.md §4.7's
// get_diagnostics).
type Diagnostics struct {
	status.Snapshot
	Namespace            string
	VectorCount          int
	VectorStoreConnected bool
	CheckpointRunID      string
	CheckpointRunState   checkpoint.RunState
	CheckpointFilesCount int
	SampleQueryHitCount  int
}

// GetDiagnostics reports everything GetStatus does, plus vector-store
// connectivity, checkpoint bookkeeping, and a sample-query probe.
func (e *Engine) GetDiagnostics(ctx context.Context, ws Workspace) Diagnostics {
	namespace := ws.Namespace()
	snap := e.GetStatus(ctx, ws)

	diag := Diagnostics{Snapshot: snap, Namespace: namespace}

	stats, err := e.vs.Stats(ctx, namespace)
	diag.VectorStoreConnected = err == nil
	if err == nil {
		diag.VectorCount = stats.VectorCount
	}

	if cp, found := checkpoint.Load(e.kv, e.checkpointKey(namespace)); found {
		diag.CheckpointRunID = cp.RunID
		diag.CheckpointRunState = cp.RunState
		diag.CheckpointFilesCount = cp.IndexedFiles
	}

	if diag.VectorCount > 0 {
		probeVectors, err := e.emb.Embed(ctx, []string{"test query"}, embedder.PurposeQuery)
		if err == nil && len(probeVectors) == 1 {
			results, err := e.vs.Query(ctx, namespace, probeVectors[0], 5)
			if err == nil {
				diag.SampleQueryHitCount = len(results)
			}
		}
	}

	return diag
}

func (e *Engine) publish(snap status.Snapshot) {
	e.board.Publish(snap)
}

func readFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// sortedRelativePaths returns the files' relative paths in lexical order.
// Nothing in this package calls it.
func sortedRelativePaths(files []walker.File) []string {
	paths := make([]string, len(files))
	for i, f := range files {
		paths[i] = f.RelativePath
	}
	sort.Strings(paths)
	return paths
}
