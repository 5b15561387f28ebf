// Command mcpserver runs the workspace indexer as an MCP server over
// stdio, exposing build/status/pause/resume/cancel/delete/diagnostics as
// tools a host editor or agent can call.
package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/vybe/cloudindexer/internal/embedder"
	"github.com/vybe/cloudindexer/internal/engine"
	"github.com/vybe/cloudindexer/internal/identity"
	"github.com/vybe/cloudindexer/internal/kvstore"
	"github.com/vybe/cloudindexer/internal/mcpserver"
	"github.com/vybe/cloudindexer/internal/status"
	"github.com/vybe/cloudindexer/internal/vectorstore"
	"github.com/vybe/cloudindexer/pkg/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	setupLogging(cfg)

	slog.Info("starting mcp server", "name", cfg.Server.Name, "version", cfg.Server.Version)

	db, err := kvstore.Open(cfg.Storage.Path)
	if err != nil {
		log.Fatalf("failed to open state store: %v", err)
	}
	defer db.Close()

	identityStore := kvstore.NewWorkspaceScoped(db, "identity")
	userID, err := identity.UserID(identityStore)
	if err != nil {
		log.Fatalf("failed to resolve user id: %v", err)
	}

	vs, err := vectorstore.New(vectorstore.Config{
		Host:           cfg.VectorDB.Host,
		Port:           cfg.VectorDB.Port,
		CollectionName: cfg.VectorDB.CollectionName,
		DistanceMetric: cfg.VectorDB.DistanceMetric,
		UseTLS:         cfg.VectorDB.UseTLS,
		Dimensions:     cfg.Embeddings.Dimensions,
	})
	if err != nil {
		log.Fatalf("failed to connect to vector store: %v", err)
	}
	defer vs.Close()

	checkpointStore := kvstore.NewWorkspaceScoped(db, "checkpoint")
	board := status.NewBoard(cfg.Indexing.StatusPublishEvery, cfg.Indexing.StatusPublishFiles)

	emb := newEmbedderClient(cfg)

	eng := engine.New(engineConfig(cfg), board, checkpointStore, vs, emb)

	srv := mcpserver.New(cfg, eng, userID)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		slog.Info("received shutdown signal")
		cancel()
	}()

	if err := srv.Start(ctx); err != nil {
		log.Fatalf("mcp server error: %v", err)
	}
}

func setupLogging(cfg *config.Config) {
	level := slog.LevelInfo
	switch cfg.Logging.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

func newEmbedderClient(cfg *config.Config) *embedder.Client {
	return embedder.New(embedder.Config{
		ProviderURL:   cfg.Embeddings.ProviderURL,
		Model:         cfg.Embeddings.Model,
		BatchSize:     cfg.Embeddings.BatchSize,
		RequestPacing: cfg.Embeddings.RequestPacing,
		Dimensions:    cfg.Embeddings.Dimensions,
	})
}

func engineConfig(cfg *config.Config) engine.Config {
	return engine.Config{
		Enabled:            cfg.Indexing.Enabled,
		ChunkSizeLines:     cfg.Chunking.WindowSizeLines,
		EmbeddingBatchSize: cfg.Embeddings.BatchSize,
		InterFileDelay:     cfg.Indexing.InterFileDelay,
		StatusPublishEvery: cfg.Indexing.StatusPublishEvery,
		StatusPublishFiles: cfg.Indexing.StatusPublishFiles,
		CheckpointEvery:    cfg.Indexing.CheckpointEvery,
		CheckpointFiles:    cfg.Indexing.CheckpointFiles,
		PausedPollInterval: cfg.Indexing.PausedPollInterval,
		BuildCooldown:      cfg.Indexing.BuildCooldown,
		KeyPrefix:          cfg.Storage.KeyPrefix,
		ExcludedDirs:       cfg.Indexing.ExcludedDirs,
		ExtensionAllowList: cfg.Indexing.ExtensionAllowList,
		IgnorePatterns:     cfg.Indexing.IgnorePatterns,
		MaxFiles:           cfg.Indexing.MaxFilesPerRoot,
		MaxDepth:           cfg.Indexing.MaxWalkDepth,
		WatcherDebounce:    cfg.Watcher.DebounceWindow,
	}
}
