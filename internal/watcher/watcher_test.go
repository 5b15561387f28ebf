package watcher

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func allowGoFiles(rel string, isDir bool) bool {
	if isDir {
		return rel != "node_modules" && rel != ".git"
	}
	return filepath.Ext(rel) == ".go"
}

func TestWatcherEmitsBatchOnWrite(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "main.go")
	require.NoError(t, os.WriteFile(path, []byte("package main"), 0o644))

	w, err := New(root, allowGoFiles, 20*time.Millisecond)
	require.NoError(t, err)
	require.NoError(t, w.Start())
	defer w.Stop()

	require.NoError(t, os.WriteFile(path, []byte("package main\n// edited"), 0o644))

	select {
	case batch := <-w.Changes:
		assert.Contains(t, batch.Changed, "main.go")
	case <-time.After(2 * time.Second):
		t.Fatal("expected a debounced batch after the write")
	}
}

func TestWatcherIgnoresUnmatchedExtensions(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "image.png")
	require.NoError(t, os.WriteFile(path, []byte("binary"), 0o644))

	w, err := New(root, allowGoFiles, 20*time.Millisecond)
	require.NoError(t, err)
	require.NoError(t, w.Start())
	defer w.Stop()

	require.NoError(t, os.WriteFile(path, []byte("binary2"), 0o644))

	select {
	case batch := <-w.Changes:
		t.Fatalf("expected no batch for an ignored extension, got %+v", batch)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestBatchIsEmpty(t *testing.T) {
	assert.True(t, Batch{}.IsEmpty())
	assert.False(t, Batch{Added: []string{"a.go"}}.IsEmpty())
}

func TestMergeBatchesCombinesAllKinds(t *testing.T) {
	a := Batch{Added: []string{"a.go"}, Changed: []string{"b.go"}}
	b := Batch{Changed: []string{"c.go"}, Deleted: []string{"d.go"}}

	merged := mergeBatches(a, b)
	assert.ElementsMatch(t, []string{"a.go"}, merged.Added)
	assert.ElementsMatch(t, []string{"b.go", "c.go"}, merged.Changed)
	assert.ElementsMatch(t, []string{"d.go"}, merged.Deleted)
}
