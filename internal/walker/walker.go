// Package walker enumerates a workspace's indexable source files (spec.md
// §4.3, C3): a bounded, depth-limited directory walk honoring an extension
// allow-list and a directory exclude-list, tolerant of per-entry errors.
package walker

import (
	"crypto/sha256"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/vybe/cloudindexer/pkg/ignore"
)

// File describes one indexable file discovered by a walk.
type File struct {
	// AbsolutePath is the file's path on disk.
	AbsolutePath string
	// RelativePath is AbsolutePath relative to the workspace root, with
	// forward slashes regardless of platform.
	RelativePath string
	// SizeBytes is the file's size at walk time.
	SizeBytes int64
	// ContentHash is a sha256 hex digest of the file's bytes. The engine
	// stores it in each chunk's vector record; it does not compare it
	// against earlier runs to skip unchanged files.
	ContentHash string
}

// Result is the outcome of walking one workspace root.
type Result struct {
	Files []File
	// Truncated is true if MaxFiles was reached before the walk finished;
	// the walker logs the truncation. The engine does not report it in
	// status or diagnostics.
	Truncated bool
	// Errors records per-entry errors that did not abort the walk (unreadable
	// directories, stat failures). The walk never fails outright on these.
	Errors []error
}

// Options bounds one walk, mirroring the fixed fields of
// config.IndexingConfig that govern C3.
type Options struct {
	ExcludedDirs       []string
	ExtensionAllowList []string
	MaxFiles           int
	MaxDepth           int

	// IgnorePatterns are gitignore-style globs (e.g. "**/*.min.js",
	// "target/**") checked against each relative path in addition to
	// ExcludedDirs. A nil slice disables this layer entirely.
	IgnorePatterns []string
}

// Walk enumerates root's indexable files per opts. Directories in
// ExcludedDirs (matched by base name) and all dot-directories are pruned;
// only files whose extension (sans dot) appears in ExtensionAllowList are
// returned. The walk never descends past MaxDepth directories below root,
// and stops adding files once MaxFiles is reached.
func Walk(root string, opts Options) (*Result, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("failed to stat workspace root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("workspace root is not a directory: %s", root)
	}

	excluded := make(map[string]struct{}, len(opts.ExcludedDirs))
	for _, d := range opts.ExcludedDirs {
		excluded[d] = struct{}{}
	}
	allowed := make(map[string]struct{}, len(opts.ExtensionAllowList))
	for _, ext := range opts.ExtensionAllowList {
		allowed[strings.ToLower(ext)] = struct{}{}
	}

	var ignoreMatcher *ignore.Matcher
	if len(opts.IgnorePatterns) > 0 {
		ignoreMatcher = ignore.NewMatcher(opts.IgnorePatterns)
	}

	res := &Result{Files: make([]File, 0, 256)}

	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			res.Errors = append(res.Errors, fmt.Errorf("failed to access %s: %w", path, err))
			return nil
		}

		if res.Truncated {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}

		if path == root {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			rel = path
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if shouldExcludeDir(d.Name(), excluded) {
				return fs.SkipDir
			}
			if ignoreMatcher != nil && ignoreMatcher.ShouldIgnore(rel) {
				return fs.SkipDir
			}
			if depthOf(rel) >= opts.MaxDepth {
				return fs.SkipDir
			}
			return nil
		}

		if !allowedExtension(path, allowed) {
			return nil
		}
		if ignoreMatcher != nil && ignoreMatcher.ShouldIgnore(rel) {
			return nil
		}

		fileInfo, err := d.Info()
		if err != nil {
			res.Errors = append(res.Errors, fmt.Errorf("failed to stat %s: %w", path, err))
			return nil
		}

		hash, err := hashFile(path)
		if err != nil {
			res.Errors = append(res.Errors, fmt.Errorf("failed to hash %s: %w", path, err))
			return nil
		}

		res.Files = append(res.Files, File{
			AbsolutePath: path,
			RelativePath: rel,
			SizeBytes:    fileInfo.Size(),
			ContentHash:  hash,
		})

		if len(res.Files) >= opts.MaxFiles {
			log.Printf("walker: %s reached max file cap (%d), truncating", root, opts.MaxFiles)
			res.Truncated = true
		}

		return nil
	})
	if walkErr != nil {
		return nil, fmt.Errorf("failed to walk workspace root: %w", walkErr)
	}

	return res, nil
}

func shouldExcludeDir(name string, excluded map[string]struct{}) bool {
	if strings.HasPrefix(name, ".") {
		return true
	}
	_, ok := excluded[name]
	return ok
}

func allowedExtension(path string, allowed map[string]struct{}) bool {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	if ext == "" {
		return false
	}
	_, ok := allowed[ext]
	return ok
}

func depthOf(rel string) int {
	if rel == "." || rel == "" {
		return 0
	}
	return strings.Count(rel, "/") + 1
}

// HashFile computes a file's content hash the same way the walker does, so
// the engine can re-check a single path (e.g. on a watcher event) without
// re-walking the whole tree.
func HashFile(path string) (string, error) {
	return hashFile(path)
}

func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return fmt.Sprintf("%x", h.Sum(nil)), nil
}
