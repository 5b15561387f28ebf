package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigCarriesFixedAllowListAndExcludes(t *testing.T) {
	cfg := DefaultConfig()

	assert.Contains(t, cfg.Indexing.ExtensionAllowList, "go")
	assert.Contains(t, cfg.Indexing.ExcludedDirs, "node_modules")
	assert.NotEmpty(t, cfg.Indexing.IgnorePatterns)
	assert.True(t, cfg.Indexing.Enabled)
}

func TestLoadWithNoFileReturnsDefaults(t *testing.T) {
	t.Setenv("VYBE_INDEXER_CONFIG", "")
	t.Setenv("VYBE_EMBEDDINGS_URL", "")
	t.Setenv("VYBE_EMBEDDINGS_MODEL", "")
	t.Setenv("VYBE_QDRANT_HOST", "")

	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	defer os.Chdir(wd)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "nomic-embed-text", cfg.Embeddings.Model)
}

func TestLoadAppliesEnvOverrides(t *testing.T) {
	t.Setenv("VYBE_INDEXER_CONFIG", "")
	t.Setenv("VYBE_EMBEDDINGS_URL", "http://example.internal:9999")
	t.Setenv("VYBE_EMBEDDINGS_MODEL", "custom-model")
	t.Setenv("VYBE_QDRANT_HOST", "qdrant.internal")

	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	defer os.Chdir(wd)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://example.internal:9999", cfg.Embeddings.ProviderURL)
	assert.Equal(t, "custom-model", cfg.Embeddings.Model)
	assert.Equal(t, "qdrant.internal", cfg.VectorDB.Host)
}

func TestLoadReadsYAMLFileWhenPresent(t *testing.T) {
	t.Setenv("VYBE_EMBEDDINGS_URL", "")
	t.Setenv("VYBE_EMBEDDINGS_MODEL", "")
	t.Setenv("VYBE_QDRANT_HOST", "")

	dir := t.TempDir()
	path := filepath.Join(dir, "indexer.yaml")
	require.NoError(t, os.WriteFile(path, []byte("chunking:\n  window_size_lines: 42\n"), 0o644))
	t.Setenv("VYBE_INDEXER_CONFIG", path)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 42, cfg.Chunking.WindowSizeLines)
}

func TestExpandPathExpandsHomeDirectory(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	got := expandPath("~/.vybe/indexer/state.db")
	assert.Equal(t, filepath.Join(home, ".vybe/indexer/state.db"), got)
}
