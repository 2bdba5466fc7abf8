// Package qdrant provides a vector driver backed by a Qdrant collection over
// gRPC.
package qdrant

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"sync"

	"github.com/qdrant/go-client/qdrant"

	"github.com/papercomputeco/medibot/pkg/errdefs"
	"github.com/papercomputeco/medibot/pkg/vector"
)

// DefaultTarget is Qdrant's default gRPC address.
const DefaultTarget = "localhost:6334"

// Config holds configuration for the Qdrant driver.
type Config struct {
	// Target is the gRPC host:port. Defaults to DefaultTarget.
	Target string

	// APIKey is optional.
	APIKey string

	// Collection defaults to vector.DefaultIndex.
	Collection string

	// Dimensions of the collection vectors.
	Dimensions uint
}

// client is the subset of *qdrant.Client used by the driver.
type client interface {
	CollectionExists(ctx context.Context, name string) (bool, error)
	CreateCollection(ctx context.Context, req *qdrant.CreateCollection) error
	Upsert(ctx context.Context, req *qdrant.UpsertPoints) (*qdrant.UpdateResult, error)
	Query(ctx context.Context, req *qdrant.QueryPoints) ([]*qdrant.ScoredPoint, error)
	Close() error
}

// Driver implements vector.Driver on a Qdrant collection.
type Driver struct {
	client     client
	collection string
	dimensions uint
	logger     *slog.Logger

	mu    sync.Mutex
	ready bool
}

// NewDriver creates a Qdrant gRPC client. The collection is created on first
// use.
func NewDriver(c Config, logger *slog.Logger) (*Driver, error) {
	if c.Target == "" {
		c.Target = DefaultTarget
	}
	if c.Collection == "" {
		c.Collection = vector.DefaultIndex
	}
	if c.Dimensions == 0 {
		c.Dimensions = vector.DefaultDimensions
	}

	host, portStr, err := net.SplitHostPort(c.Target)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid qdrant target %q: %w", errdefs.ErrConfiguration, c.Target, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid qdrant port %q: %w", errdefs.ErrConfiguration, portStr, err)
	}

	qc, err := qdrant.NewClient(&qdrant.Config{
		Host:   host,
		Port:   port,
		APIKey: c.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: creating qdrant client: %w", vector.ErrConnection, err)
	}

	return newDriver(qc, c, logger), nil
}

func newDriver(qc client, c Config, logger *slog.Logger) *Driver {
	return &Driver{
		client:     qc,
		collection: c.Collection,
		dimensions: c.Dimensions,
		logger:     logger,
	}
}

// ensureCollection creates the cosine collection when it does not exist.
func (d *Driver) ensureCollection(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.ready {
		return nil
	}

	exists, err := d.client.CollectionExists(ctx, d.collection)
	if err != nil {
		return fmt.Errorf("%w: checking collection %s: %w", vector.ErrConnection, d.collection, err)
	}

	if !exists {
		err := d.client.CreateCollection(ctx, &qdrant.CreateCollection{
			CollectionName: d.collection,
			VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
				Size:     uint64(d.dimensions),
				Distance: qdrant.Distance_Cosine,
			}),
		})
		if err != nil {
			return fmt.Errorf("%w: creating collection %s: %w", vector.ErrConnection, d.collection, err)
		}
		d.logger.Info("created qdrant collection", "collection", d.collection, "dimensions", d.dimensions)
	}

	d.ready = true
	return nil
}

// EnsureIndex creates the collection when it does not exist.
func (d *Driver) EnsureIndex(ctx context.Context) error {
	return d.ensureCollection(ctx)
}

// Upsert writes entries and waits for the write to be applied. Entry IDs
// must be UUIDs.
func (d *Driver) Upsert(ctx context.Context, entries []vector.Entry) error {
	if len(entries) == 0 {
		return nil
	}
	if err := vector.CheckDimensions(entries, int(d.dimensions)); err != nil {
		return err
	}
	if err := d.ensureCollection(ctx); err != nil {
		return err
	}

	points := make([]*qdrant.PointStruct, 0, len(entries))
	for _, e := range entries {
		points = append(points, &qdrant.PointStruct{
			Id:      qdrant.NewID(e.ID),
			Vectors: qdrant.NewVectors(e.Embedding...),
			Payload: qdrant.NewValueMap(map[string]any{
				vector.MetaText:   e.Text,
				vector.MetaSource: e.Source,
			}),
		})
	}

	_, err := d.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: d.collection,
		Wait:           qdrant.PtrOf(true),
		Points:         points,
	})
	if err != nil {
		return fmt.Errorf("%w: upserting points: %w", vector.ErrConnection, err)
	}

	d.logger.Debug("upserted entries to qdrant", "count", len(entries))

	return nil
}

// Query returns the topK nearest points with their payload.
func (d *Driver) Query(ctx context.Context, embedding []float32, topK int) ([]vector.QueryResult, error) {
	if err := d.ensureCollection(ctx); err != nil {
		return nil, err
	}

	points, err := d.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: d.collection,
		Query:          qdrant.NewQuery(embedding...),
		Limit:          qdrant.PtrOf(uint64(vector.TopK(topK))),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: querying collection %s: %w", vector.ErrConnection, d.collection, err)
	}

	results := make([]vector.QueryResult, 0, len(points))
	for _, p := range points {
		results = append(results, vector.QueryResult{
			Entry: vector.Entry{
				ID:     p.GetId().GetUuid(),
				Text:   p.GetPayload()[vector.MetaText].GetStringValue(),
				Source: p.GetPayload()[vector.MetaSource].GetStringValue(),
			},
			Score: p.GetScore(),
		})
	}

	d.logger.Debug("queried qdrant", "results", len(results))

	return results, nil
}

// Close closes the gRPC connection.
func (d *Driver) Close() error {
	return d.client.Close()
}

var (
	_ vector.Driver       = (*Driver)(nil)
	_ vector.IndexCreator = (*Driver)(nil)
)
