// Package identity derives stable, collision-resistant identifiers used to
// route and key everything downstream: the per-installation user id, the
// per-workspace namespace, deterministic vector ids, and checkpoint storage
// keys. See spec.md §4.1 (C1).
package identity

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// UserStore persists the lazily-initialized per-installation user id.
// A real host wires this to the same KV collaborator the checkpoint store
// uses; it is deliberately narrow so tests can substitute an in-memory one.
type UserStore interface {
	Get(key string) (string, bool, error)
	Put(key, value string) error
}

const userIDKey = "vybe.cloudIndexing.userId"

// UserID returns a stable per-installation identifier, generating and
// persisting one on first call. Subsequent calls (including across process
// restarts sharing the same store) return the same value.
func UserID(store UserStore) (string, error) {
	if existing, ok, err := store.Get(userIDKey); err != nil {
		return "", fmt.Errorf("failed to read user id: %w", err)
	} else if ok && existing != "" {
		return existing, nil
	}

	id := uuid.New().String()
	if err := store.Put(userIDKey, id); err != nil {
		return "", fmt.Errorf("failed to persist user id: %w", err)
	}
	return id, nil
}

// Namespace derives a deterministic, collision-resistant, key-safe string
// scoping vectors for (userID, workspacePath) in the remote vector store.
// It is a pure function: for fixed inputs it returns byte-identical output
// across restarts and machines sharing the same userID (spec.md §4.1).
func Namespace(userID, workspacePath string) string {
	sum := sha256.Sum256([]byte(userID + "\x00" + normalizeWorkspacePath(workspacePath)))
	return "ws_" + hex.EncodeToString(sum[:16])
}

// VectorID derives a deterministic, namespace-unique string identifying the
// chunk at (workspacePath, relativePath, ordinal). Stable across runs so
// re-indexing an unchanged file reproduces the same ids (spec.md invariant 6).
func VectorID(workspacePath, relativePath string, ordinal int) string {
	sum := sha256.Sum256([]byte(normalizeWorkspacePath(workspacePath) + "\x00" + relativePath + "\x00" + fmt.Sprintf("%d", ordinal)))
	return hex.EncodeToString(sum[:])
}

// StorageKey builds the KV key holding a workspace's checkpoint, replacing
// any key-unsafe characters in the namespace (spec.md §4.1, §6).
func StorageKey(prefix, namespace string) string {
	return prefix + sanitize(namespace)
}

// sanitize replaces characters that are unsafe in KV keys (":" in particular)
// with "_".
func sanitize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch r {
		case ':', '/', '\\', ' ':
			b.WriteByte('_')
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// normalizeWorkspacePath forces forward slashes and strips a trailing
// separator so the same workspace on different platforms (or referenced
// with/without a trailing slash) derives the same namespace.
func normalizeWorkspacePath(path string) string {
	p := strings.ReplaceAll(path, "\\", "/")
	for len(p) > 1 && strings.HasSuffix(p, "/") {
		p = p[:len(p)-1]
	}
	return p
}
