package embedder

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeProvider(t *testing.T, calls *int64) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(calls, 1)
		var req embedRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		resp := embedResponse{Embedding: []float32{1, 2, 3, 4}}
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
}

func TestEmbedReturnsOneVectorPerText(t *testing.T) {
	var calls int64
	srv := fakeProvider(t, &calls)
	defer srv.Close()

	c := New(Config{ProviderURL: srv.URL, Model: "test-model", BatchSize: 2})
	vectors, err := c.Embed(context.Background(), []string{"a", "b", "c"}, PurposeDocument)
	require.NoError(t, err)
	assert.Len(t, vectors, 3)
	assert.EqualValues(t, 3, calls)
}

func TestEmbedEmptyInputReturnsNil(t *testing.T) {
	c := New(Config{ProviderURL: "http://unused", Model: "m"})
	vectors, err := c.Embed(context.Background(), nil, PurposeQuery)
	require.NoError(t, err)
	assert.Nil(t, vectors)
}

func TestEmbedTruncatesToConfiguredDimensions(t *testing.T) {
	var calls int64
	srv := fakeProvider(t, &calls)
	defer srv.Close()

	c := New(Config{ProviderURL: srv.URL, Model: "test-model", Dimensions: 2})
	vectors, err := c.Embed(context.Background(), []string{"a"}, PurposeDocument)
	require.NoError(t, err)
	require.Len(t, vectors, 1)
	assert.Equal(t, []float32{1, 2}, vectors[0])
}

func TestEmbedPacesBetweenBatches(t *testing.T) {
	var calls int64
	srv := fakeProvider(t, &calls)
	defer srv.Close()

	c := New(Config{ProviderURL: srv.URL, Model: "m", BatchSize: 1, RequestPacing: 20 * time.Millisecond})

	start := time.Now()
	_, err := c.Embed(context.Background(), []string{"a", "b", "c"}, PurposeDocument)
	require.NoError(t, err)
	elapsed := time.Since(start)

	assert.GreaterOrEqual(t, elapsed, 40*time.Millisecond, "expected pacing delay between the 3 batches")
}

func TestEmbedRespectsContextCancellation(t *testing.T) {
	var calls int64
	srv := fakeProvider(t, &calls)
	defer srv.Close()

	c := New(Config{ProviderURL: srv.URL, Model: "m", BatchSize: 1, RequestPacing: time.Second})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(5 * time.Millisecond)
		cancel()
	}()

	_, err := c.Embed(ctx, []string{"a", "b", "c"}, PurposeDocument)
	assert.ErrorIs(t, err, context.Canceled)
}
