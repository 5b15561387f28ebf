package kvstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestGetReturnsNotOkForAbsentKey(t *testing.T) {
	db := openTestDB(t)

	_, ok, err := db.Get("missing", "scope-a")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPutThenGetRoundTrips(t *testing.T) {
	db := openTestDB(t)

	require.NoError(t, db.Put("k1", "v1", "scope-a", "machine"))

	value, ok, err := db.Get("k1", "scope-a")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v1", value)
}

func TestPutUpsertsExistingKey(t *testing.T) {
	db := openTestDB(t)

	require.NoError(t, db.Put("k1", "v1", "scope-a", "machine"))
	require.NoError(t, db.Put("k1", "v2", "scope-a", "machine"))

	value, ok, err := db.Get("k1", "scope-a")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v2", value)
}

func TestScopesAreIsolated(t *testing.T) {
	db := openTestDB(t)

	require.NoError(t, db.Put("k1", "scope-a-value", "scope-a", "machine"))
	require.NoError(t, db.Put("k1", "scope-b-value", "scope-b", "machine"))

	valueA, _, err := db.Get("k1", "scope-a")
	require.NoError(t, err)
	valueB, _, err := db.Get("k1", "scope-b")
	require.NoError(t, err)

	assert.Equal(t, "scope-a-value", valueA)
	assert.Equal(t, "scope-b-value", valueB)
}

func TestDeleteRemovesKey(t *testing.T) {
	db := openTestDB(t)

	require.NoError(t, db.Put("k1", "v1", "scope-a", "machine"))
	require.NoError(t, db.Delete("k1", "scope-a"))

	_, ok, err := db.Get("k1", "scope-a")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDeleteAbsentKeyIsNotAnError(t *testing.T) {
	db := openTestDB(t)
	assert.NoError(t, db.Delete("missing", "scope-a"))
}

func TestWorkspaceScopedRoundTrips(t *testing.T) {
	db := openTestDB(t)
	ws := NewWorkspaceScoped(db, "checkpoint")

	require.NoError(t, ws.Put("run_id", "abc123"))

	value, ok, err := ws.Get("run_id")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "abc123", value)

	require.NoError(t, ws.Delete("run_id"))
	_, ok, err = ws.Get("run_id")
	require.NoError(t, err)
	assert.False(t, ok)
}
