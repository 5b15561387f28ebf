// Command indexer is a CLI front-end over the same indexing engine the MCP
// server uses: build, status, pause, resume, cancel, delete, and
// diagnostics, all scoped to a workspace path given as the command's
// argument (defaulting to the current directory).
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/vybe/cloudindexer/internal/embedder"
	"github.com/vybe/cloudindexer/internal/engine"
	"github.com/vybe/cloudindexer/internal/identity"
	"github.com/vybe/cloudindexer/internal/kvstore"
	"github.com/vybe/cloudindexer/internal/status"
	"github.com/vybe/cloudindexer/internal/vectorstore"
	"github.com/vybe/cloudindexer/pkg/config"
)

type app struct {
	cfg    *config.Config
	db     *kvstore.DB
	vs     *vectorstore.Store
	eng    *engine.Engine
	userID string
}

func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	db, err := kvstore.Open(cfg.Storage.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open state store: %w", err)
	}

	userID, err := identity.UserID(kvstore.NewWorkspaceScoped(db, "identity"))
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to resolve user id: %w", err)
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
		db.Close()
		return nil, fmt.Errorf("failed to connect to vector store: %w", err)
	}

	emb := embedder.New(embedder.Config{
		ProviderURL:   cfg.Embeddings.ProviderURL,
		Model:         cfg.Embeddings.Model,
		BatchSize:     cfg.Embeddings.BatchSize,
		RequestPacing: cfg.Embeddings.RequestPacing,
		Dimensions:    cfg.Embeddings.Dimensions,
	})

	board := status.NewBoard(cfg.Indexing.StatusPublishEvery, cfg.Indexing.StatusPublishFiles)
	checkpointStore := kvstore.NewWorkspaceScoped(db, "checkpoint")

	eng := engine.New(engine.Config{
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
	}, board, checkpointStore, vs, emb)

	return &app{cfg: cfg, db: db, vs: vs, eng: eng, userID: userID}, nil
}

func (a *app) close() {
	a.vs.Close()
	a.db.Close()
}

func (a *app) workspace(args []string) engine.Workspace {
	path := "."
	if len(args) > 0 {
		path = args[0]
	}
	abs, err := filepath.Abs(path)
	if err == nil {
		path = abs
	}
	return engine.Workspace{Path: path, UserID: a.userID}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "indexer",
		Short: "Build and manage a workspace's semantic code index",
	}

	root.AddCommand(newBuildCmd())
	root.AddCommand(newStatusCmd())
	root.AddCommand(newPauseCmd())
	root.AddCommand(newResumeCmd())
	root.AddCommand(newCancelCmd())
	root.AddCommand(newDeleteCmd())
	root.AddCommand(newDiagnosticsCmd())

	return root
}

func newBuildCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "build [path]",
		Short: "Build or resume the full index for a workspace",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			ws := a.workspace(args)
			slog.Info("building index", "workspace", ws.Path)

			snap, err := a.eng.BuildFullIndex(cmd.Context(), ws)
			if err != nil {
				return fmt.Errorf("build failed: %w", err)
			}
			printSnapshot(cmd, snap)
			return nil
		},
	}
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status [path]",
		Short: "Show a workspace's indexing status",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			printSnapshot(cmd, a.eng.GetStatus(cmd.Context(), a.workspace(args)))
			return nil
		},
	}
}

func newPauseCmd() *cobra.Command {
	var reason string
	cmd := &cobra.Command{
		Use:   "pause [path]",
		Short: "Set the pause flag in this invocation's engine; a build running in another process is not affected",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			a.eng.Pause(a.workspace(args), reason)
			fmt.Fprintln(cmd.OutOrStdout(), "pause requested")
			return nil
		},
	}
	cmd.Flags().StringVar(&reason, "reason", "", "reason surfaced in status while paused")
	return cmd
}

func newResumeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resume [path]",
		Short: "Clear the pause flag in this invocation's engine; a build running in another process is not affected",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			a.eng.Resume(a.workspace(args))
			fmt.Fprintln(cmd.OutOrStdout(), "resume requested")
			return nil
		},
	}
}

func newCancelCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cancel [path]",
		Short: "Cancel a build in this invocation's engine; a build running in another process is not affected",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			a.eng.Cancel(a.workspace(args))
			fmt.Fprintln(cmd.OutOrStdout(), "cancel requested")
			return nil
		},
	}
}

func newDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete [path]",
		Short: "Delete a workspace's index entirely",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			if err := a.eng.DeleteIndex(cmd.Context(), a.workspace(args)); err != nil {
				return fmt.Errorf("delete failed: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "index deleted")
			return nil
		},
	}
}

func newDiagnosticsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "diagnostics [path]",
		Short: "Show detailed diagnostics for a workspace",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			diag := a.eng.GetDiagnostics(cmd.Context(), a.workspace(args))
			fmt.Fprintf(cmd.OutOrStdout(), "%+v\n", diag)
			return nil
		},
	}
}

func printSnapshot(cmd *cobra.Command, snap status.Snapshot) {
	fmt.Fprintf(cmd.OutOrStdout(), "state=%s files=%d/%d chunks=%d\n",
		snap.State, snap.FilesCompleted, snap.FilesTotal, snap.ChunksUpserted)
	if snap.LastError != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "note: %s\n", snap.LastError)
	}
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		log.Fatal(err)
		os.Exit(1)
	}
}
