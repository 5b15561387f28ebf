package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct{ m map[string]string }

func newMemStore() *memStore { return &memStore{m: make(map[string]string)} }

func (s *memStore) Get(key string) (string, bool, error) {
	v, ok := s.m[key]
	return v, ok, nil
}

func (s *memStore) Put(key, value string) error {
	s.m[key] = value
	return nil
}

func TestUserIDStableAcrossCalls(t *testing.T) {
	store := newMemStore()

	first, err := UserID(store)
	require.NoError(t, err)
	require.NotEmpty(t, first)

	second, err := UserID(store)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestUserIDSurvivesRestartSharingStore(t *testing.T) {
	store := newMemStore()
	first, err := UserID(store)
	require.NoError(t, err)

	// Simulate a fresh process reading the same persisted store.
	fresh, err := UserID(store)
	require.NoError(t, err)
	assert.Equal(t, first, fresh)
}

func TestNamespaceDeterministic(t *testing.T) {
	a := Namespace("user-1", "/home/dev/project")
	b := Namespace("user-1", "/home/dev/project")
	assert.Equal(t, a, b)

	c := Namespace("user-1", "/home/dev/project/")
	assert.Equal(t, a, c, "trailing separator should not change namespace")

	d := Namespace("user-2", "/home/dev/project")
	assert.NotEqual(t, a, d)
}

func TestVectorIDStable(t *testing.T) {
	a := VectorID("/ws", "src/main.go", 3)
	b := VectorID("/ws", "src/main.go", 3)
	assert.Equal(t, a, b)

	c := VectorID("/ws", "src/main.go", 4)
	assert.NotEqual(t, a, c)
}

func TestStorageKeySanitizesUnsafeChars(t *testing.T) {
	key := StorageKey("vybe.cloudIndexing.status.", "ws:abc def/ghi")
	assert.Equal(t, "vybe.cloudIndexing.status.ws_abc_def_ghi", key)
}
