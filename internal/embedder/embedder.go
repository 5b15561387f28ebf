// Package embedder adapts an external embedding provider to the narrow
// contract the indexing engine needs (spec.md §4.5, C5): embed a batch of
// texts for a stated purpose ("document" at index time, "query" at search
// time), in batches of bounded size, with pacing between requests so the
// engine never hammers the provider.
package embedder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Purpose distinguishes embedding calls made while indexing content from
// calls made on behalf of a search query; some providers embed the two
// differently (asymmetric embedding models).
type Purpose string

const (
	PurposeDocument Purpose = "document"
	PurposeQuery    Purpose = "query"
)

// Client talks to an Ollama-compatible embeddings endpoint.
type Client struct {
	httpClient *http.Client
	baseURL    string
	model      string
	dimensions int
	batchSize  int
	pacing     time.Duration
}

// Config is the subset of config.EmbeddingsConfig the client needs.
type Config struct {
	ProviderURL   string
	Model         string
	BatchSize     int
	RequestPacing time.Duration
	Dimensions    int
}

// New builds a Client. A zero BatchSize or non-positive RequestPacing falls
// back to safe single-item, unpaced behavior rather than failing.
func New(cfg Config) *Client {
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 1
	}
	transport := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 100,
		IdleConnTimeout:     90 * time.Second,
	}
	return &Client{
		httpClient: &http.Client{Timeout: 60 * time.Second, Transport: transport},
		baseURL:    cfg.ProviderURL,
		model:      cfg.Model,
		dimensions: cfg.Dimensions,
		batchSize:  batchSize,
		pacing:     cfg.RequestPacing,
	}
}

type embedRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type embedResponse struct {
	Embedding []float32 `json:"embedding"`
}

// Embed returns one vector per text in texts, preserving order. Texts are
// sent to the provider in batches of the configured size, with at least
// RequestPacing between consecutive batches — this is what keeps a large
// build from saturating the provider (spec.md §4.5, testable property #5).
// purpose is forwarded to callers that need asymmetric document/query
// embeddings; this Ollama-style endpoint embeds both the same way but the
// parameter is kept so swapping providers doesn't change the engine's call
// sites.
func (c *Client) Embed(ctx context.Context, texts []string, purpose Purpose) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += c.batchSize {
		end := start + c.batchSize
		if end > len(texts) {
			end = len(texts)
		}

		if start > 0 && c.pacing > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.pacing):
			}
		}

		batch, err := c.embedBatch(ctx, texts[start:end])
		if err != nil {
			return nil, fmt.Errorf("failed to embed batch [%d:%d]: %w", start, end, err)
		}
		out = append(out, batch...)
	}
	return out, nil
}

// embedBatch embeds one batch sequentially, one HTTP call per text — the
// engine's cooperative single-threaded model (spec.md §5) rules out the
// concurrent-worker fan-out an embedding client might otherwise use.
func (c *Client) embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := c.embedOne(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		vectors[i] = vec
	}
	return vectors, nil
}

func (c *Client) embedOne(ctx context.Context, text string) ([]float32, error) {
	reqBody, err := json.Marshal(embedRequest{Model: c.model, Prompt: text})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/api/embeddings", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("embedding provider returned status %d: %s", resp.StatusCode, string(body))
	}

	var parsed embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	vec := parsed.Embedding
	if c.dimensions > 0 && c.dimensions < len(vec) {
		vec = truncate(vec, c.dimensions)
	}
	return vec, nil
}

// truncate applies Matryoshka-style dimension truncation: the leading
// targetDim components of an MRL-trained embedding remain a valid,
// if lower-fidelity, embedding on their own.
func truncate(vec []float32, targetDim int) []float32 {
	sliced := make([]float32, targetDim)
	copy(sliced, vec[:targetDim])
	return sliced
}
