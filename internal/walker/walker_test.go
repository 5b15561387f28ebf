package walker

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func defaultOpts() Options {
	return Options{
		ExcludedDirs:       []string{"node_modules", ".git"},
		ExtensionAllowList: []string{"go", "py", "md"},
		MaxFiles:           1000,
		MaxDepth:           20,
	}
}

func TestWalkFindsAllowedFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "main.go", "package main")
	writeFile(t, root, "readme.md", "# hi")
	writeFile(t, root, "image.png", "binary")

	res, err := Walk(root, defaultOpts())
	require.NoError(t, err)

	var rels []string
	for _, f := range res.Files {
		rels = append(rels, f.RelativePath)
	}
	assert.ElementsMatch(t, []string{"main.go", "readme.md"}, rels)
}

func TestWalkSkipsExcludedDirs(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "node_modules/pkg/index.go", "package pkg")
	writeFile(t, root, "src/main.go", "package main")
	writeFile(t, root, ".git/config.go", "package git")

	res, err := Walk(root, defaultOpts())
	require.NoError(t, err)

	var rels []string
	for _, f := range res.Files {
		rels = append(rels, f.RelativePath)
	}
	assert.Equal(t, []string{"src/main.go"}, rels)
}

func TestWalkRespectsMaxFiles(t *testing.T) {
	root := t.TempDir()
	for i := 0; i < 10; i++ {
		writeFile(t, root, filepathJoinName(i), "package main")
	}

	opts := defaultOpts()
	opts.MaxFiles = 3

	res, err := Walk(root, opts)
	require.NoError(t, err)
	assert.Len(t, res.Files, 3)
	assert.True(t, res.Truncated)
}

func TestWalkRespectsMaxDepth(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a/b/c/d/deep.go", "package deep")
	writeFile(t, root, "shallow.go", "package shallow")

	opts := defaultOpts()
	opts.MaxDepth = 1

	res, err := Walk(root, opts)
	require.NoError(t, err)

	var rels []string
	for _, f := range res.Files {
		rels = append(rels, f.RelativePath)
	}
	assert.Contains(t, rels, "shallow.go")
	assert.NotContains(t, rels, "a/b/c/d/deep.go")
}

func TestWalkComputesContentHash(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "main.go", "package main")

	res, err := Walk(root, defaultOpts())
	require.NoError(t, err)
	require.Len(t, res.Files, 1)

	expected, err := HashFile(filepath.Join(root, "main.go"))
	require.NoError(t, err)
	assert.Equal(t, expected, res.Files[0].ContentHash)
}

func TestWalkRejectsNonDirectoryRoot(t *testing.T) {
	root := t.TempDir()
	filePath := filepath.Join(root, "file.go")
	require.NoError(t, os.WriteFile(filePath, []byte("package main"), 0o644))

	_, err := Walk(filePath, defaultOpts())
	assert.Error(t, err)
}

func TestWalkAppliesIgnorePatterns(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "src/main.go", "package main")
	writeFile(t, root, "dist/bundle.go", "package dist")
	writeFile(t, root, "vendor/lib/thing.go", "package lib")

	opts := defaultOpts()
	opts.IgnorePatterns = []string{"dist/**", "vendor/**"}

	res, err := Walk(root, opts)
	require.NoError(t, err)

	var rels []string
	for _, f := range res.Files {
		rels = append(rels, f.RelativePath)
	}
	assert.Equal(t, []string{"src/main.go"}, rels)
}

func filepathJoinName(i int) string {
	const letters = "abcdefghijklmnop"
	return string(letters[i%len(letters)]) + ".go"
}
