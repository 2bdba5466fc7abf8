// Package chroma provides a Chroma vector database driver implementation.
package chroma

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/papercomputeco/medibot/pkg/errdefs"
	"github.com/papercomputeco/medibot/pkg/vector"
)

const collectionsPath = "/api/v2/tenants/default_tenant/databases/default_database/collections"

// Driver implements vector.Driver using Chroma's REST API.
type Driver struct {
	baseURL        string
	collectionName string
	dimensions     int
	httpClient     *http.Client
	logger         *slog.Logger

	mu           sync.Mutex
	collectionID string
}

// Config holds configuration for the Chroma driver.
type Config struct {
	// URL is the Chroma server URL (e.g., "http://localhost:8000").
	URL string

	// CollectionName is the name of the collection to use.
	// Defaults to vector.DefaultIndex if empty.
	CollectionName string

	// Dimensions is checked against every upserted embedding.
	Dimensions int
}

// NewDriver creates a new Chroma vector driver. The collection is resolved
// on first use.
func NewDriver(c Config, logger *slog.Logger) (*Driver, error) {
	if c.URL == "" {
		return nil, fmt.Errorf("%w: chroma URL is required", errdefs.ErrConfiguration)
	}

	collectionName := c.CollectionName
	if collectionName == "" {
		collectionName = vector.DefaultIndex
	}

	return &Driver{
		baseURL:        strings.TrimRight(c.URL, "/"),
		collectionName: collectionName,
		dimensions:     c.Dimensions,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		logger: logger,
	}, nil
}

// collection gets or creates the cosine collection and caches its ID.
func (d *Driver) collection(ctx context.Context) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.collectionID != "" {
		return d.collectionID, nil
	}

	body := chromaCreateRequest{
		Name:        d.collectionName,
		GetOrCreate: true,
		Metadata:    map[string]any{"hnsw:space": "cosine"},
	}

	var col chromaCollection
	if err := d.do(ctx, collectionsPath, body, &col); err != nil {
		return "", fmt.Errorf("getting or creating collection %q: %w", d.collectionName, err)
	}
	d.collectionID = col.ID

	d.logger.Info("connected to chroma",
		"url", d.baseURL,
		"collection", d.collectionName,
		"collection_id", col.ID,
	)

	return col.ID, nil
}

// Upsert stores entries, replacing any with the same ID.
func (d *Driver) Upsert(ctx context.Context, entries []vector.Entry) error {
	if len(entries) == 0 {
		return nil
	}
	if err := vector.CheckDimensions(entries, d.dimensions); err != nil {
		return err
	}

	id, err := d.collection(ctx)
	if err != nil {
		return err
	}

	req := chromaUpsertRequest{
		IDs:        make([]string, len(entries)),
		Embeddings: make([][]float32, len(entries)),
		Metadatas:  make([]map[string]any, len(entries)),
		Documents:  make([]string, len(entries)),
	}
	for i, e := range entries {
		req.IDs[i] = e.ID
		req.Embeddings[i] = e.Embedding
		req.Metadatas[i] = map[string]any{vector.MetaSource: e.Source}
		req.Documents[i] = e.Text
	}

	if err := d.do(ctx, collectionsPath+"/"+id+"/upsert", req, nil); err != nil {
		return fmt.Errorf("upserting entries: %w", err)
	}

	d.logger.Debug("upserted entries to chroma", "count", len(entries))

	return nil
}

// Query finds the topK entries closest to the given embedding.
func (d *Driver) Query(ctx context.Context, embedding []float32, topK int) ([]vector.QueryResult, error) {
	id, err := d.collection(ctx)
	if err != nil {
		return nil, err
	}

	req := chromaQueryRequest{
		QueryEmbeddings: [][]float32{embedding},
		NResults:        vector.TopK(topK),
		Include:         []string{"metadatas", "documents", "distances"},
	}

	var resp chromaQueryResponse
	if err := d.do(ctx, collectionsPath+"/"+id+"/query", req, &resp); err != nil {
		return nil, fmt.Errorf("querying: %w", err)
	}

	results := []vector.QueryResult{}

	// Only one query embedding is sent, so only the first group is read.
	if len(resp.IDs) == 0 {
		return results, nil
	}

	for i, rid := range resp.IDs[0] {
		r := vector.QueryResult{Entry: vector.Entry{ID: rid}}
		if len(resp.Documents) > 0 && i < len(resp.Documents[0]) {
			r.Text = resp.Documents[0][i]
		}
		if len(resp.Metadatas) > 0 && i < len(resp.Metadatas[0]) && resp.Metadatas[0][i] != nil {
			r.Source, _ = resp.Metadatas[0][i][vector.MetaSource].(string)
		}
		// Chroma reports cosine distance.
		if len(resp.Distances) > 0 && i < len(resp.Distances[0]) {
			r.Score = 1 - resp.Distances[0][i]
		}
		results = append(results, r)
	}

	d.logger.Debug("queried chroma", "results", len(results))

	return results, nil
}

// do posts body as JSON to path and decodes the response into out when
// out is non-nil.
func (d *Driver) do(ctx context.Context, path string, body, out any) error {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.baseURL+path, bytes.NewReader(jsonBody))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", vector.ErrConnection, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%w: status %d: %s", vector.ErrConnection, resp.StatusCode, string(b))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decoding response: %w", vector.ErrConnection, err)
	}
	return nil
}

// Close releases resources held by the driver.
func (d *Driver) Close() error {
	// HTTP client doesn't require explicit cleanup
	return nil
}

var _ vector.Driver = (*Driver)(nil)
