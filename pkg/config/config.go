// Package config loads and defaults the Workspace Code Indexer's configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vybe/cloudindexer/pkg/ignore"
)

// Config holds all configuration for the workspace indexer.
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Indexing    IndexingConfig    `yaml:"indexing"`
	Chunking    ChunkingConfig    `yaml:"chunking"`
	Embeddings  EmbeddingsConfig  `yaml:"embeddings"`
	VectorDB    VectorDBConfig    `yaml:"vectordb"`
	Storage     StorageConfig     `yaml:"storage"`
	Watcher     WatcherConfig     `yaml:"watcher"`
	AutoTrigger AutoTriggerConfig `yaml:"auto_trigger"`
	Logging     LoggingConfig     `yaml:"logging"`
}

type ServerConfig struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
}

// IndexingConfig controls the master switch and per-run pacing (spec.md §6).
type IndexingConfig struct {
	Enabled            bool          `yaml:"enabled"`
	MaxFilesPerRoot    int           `yaml:"max_files_per_root"`
	MaxWalkDepth       int           `yaml:"max_walk_depth"`
	InterFileDelay     time.Duration `yaml:"inter_file_delay"`
	StatusPublishEvery time.Duration `yaml:"status_publish_every"`
	StatusPublishFiles int           `yaml:"status_publish_files"`
	CheckpointEvery    time.Duration `yaml:"checkpoint_every"`
	CheckpointFiles    int           `yaml:"checkpoint_files"`
	PausedPollInterval time.Duration `yaml:"paused_poll_interval"`
	BuildCooldown      time.Duration `yaml:"build_cooldown"`
	ExcludedDirs       []string      `yaml:"excluded_dirs"`
	ExtensionAllowList []string      `yaml:"extension_allow_list"`
	IgnorePatterns     []string      `yaml:"ignore_patterns"`
}

// ChunkingConfig controls the line-bounded chunker (C4).
type ChunkingConfig struct {
	WindowSizeLines int `yaml:"window_size_lines"`
}

// EmbeddingsConfig controls the embedder client adapter (C5).
type EmbeddingsConfig struct {
	ProviderURL   string        `yaml:"provider_url"`
	Model         string        `yaml:"model"`
	BatchSize     int           `yaml:"batch_size"`
	RequestPacing time.Duration `yaml:"request_pacing"`
	Dimensions    int           `yaml:"dimensions"`
}

// VectorDBConfig controls the vector store adapter (C6).
type VectorDBConfig struct {
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`
	CollectionName string `yaml:"collection_name"`
	DistanceMetric string `yaml:"distance_metric"`
	UseTLS         bool   `yaml:"use_tls"`
}

// StorageConfig controls the checkpoint/identity KV store (C1/C2).
type StorageConfig struct {
	Path           string `yaml:"path"`
	KeyPrefix      string `yaml:"key_prefix"`
	MaxInlineFiles int    `yaml:"max_inline_files"`
}

// WatcherConfig controls the debounced file watcher (C8).
type WatcherConfig struct {
	DebounceWindow time.Duration `yaml:"debounce_window"`
}

// AutoTriggerConfig holds the auto-trigger's file-system grace period.
// Engine.MaybeAutoTrigger does not read it and does not wait before
// starting a build.
type AutoTriggerConfig struct {
	FilesystemGrace time.Duration `yaml:"filesystem_grace"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Load loads configuration from file (if present) or returns defaults.
func Load() (*Config, error) {
	cfg := DefaultConfig()

	if path := getConfigPath(); path != "" {
		if err := loadFromFile(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	}

	applyEnvOverrides(cfg)
	cfg.Storage.Path = expandPath(cfg.Storage.Path)

	return cfg, nil
}

// DefaultConfig returns the default configuration, matching spec.md §6's
// fixed extension allow-list and excluded-directory list.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Name:    "vybe-cloud-indexer",
			Version: "0.1.0",
		},
		Indexing: IndexingConfig{
			Enabled:            true,
			MaxFilesPerRoot:    20000,
			MaxWalkDepth:       20,
			InterFileDelay:     50 * time.Millisecond,
			StatusPublishEvery: 100 * time.Millisecond,
			StatusPublishFiles: 10,
			CheckpointEvery:    10 * time.Second,
			CheckpointFiles:    100,
			PausedPollInterval: 100 * time.Millisecond,
			BuildCooldown:      60 * time.Second,
			ExcludedDirs:       []string{"node_modules", ".git", ".vscode", "dist", "build"},
			ExtensionAllowList: []string{
				"ts", "tsx", "js", "jsx", "py", "java", "go", "rs", "cpp", "c", "h", "hpp",
				"cs", "php", "rb", "swift", "kt", "scala", "md", "txt", "json", "yaml", "yml",
				"xml", "html", "css", "scss", "less",
			},
			IgnorePatterns: ignore.DefaultPatterns(),
		},
		Chunking: ChunkingConfig{
			WindowSizeLines: 200,
		},
		Embeddings: EmbeddingsConfig{
			ProviderURL:   "http://localhost:11434",
			Model:         "nomic-embed-text",
			BatchSize:     50,
			RequestPacing: 30 * time.Millisecond,
			Dimensions:    768,
		},
		VectorDB: VectorDBConfig{
			Host:           "localhost",
			Port:           6334,
			CollectionName: "vybe_code_index",
			DistanceMetric: "cosine",
			UseTLS:         false,
		},
		Storage: StorageConfig{
			Path:           "~/.vybe/indexer/state.db",
			KeyPrefix:      "vybe.cloudIndexing.status.",
			MaxInlineFiles: 5000,
		},
		Watcher: WatcherConfig{
			DebounceWindow: 300 * time.Millisecond,
		},
		AutoTrigger: AutoTriggerConfig{
			FilesystemGrace: 2 * time.Second,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

func getConfigPath() string {
	if path := os.Getenv("VYBE_INDEXER_CONFIG"); path != "" {
		return path
	}
	if _, err := os.Stat("indexer.yaml"); err == nil {
		return "indexer.yaml"
	}
	return ""
}

func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

func applyEnvOverrides(cfg *Config) {
	if url := os.Getenv("VYBE_EMBEDDINGS_URL"); url != "" {
		cfg.Embeddings.ProviderURL = url
	}
	if model := os.Getenv("VYBE_EMBEDDINGS_MODEL"); model != "" {
		cfg.Embeddings.Model = model
	}
	if host := os.Getenv("VYBE_QDRANT_HOST"); host != "" {
		cfg.VectorDB.Host = host
	}
}

func expandPath(path string) string {
	if len(path) > 0 && path[0] == '~' {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}
