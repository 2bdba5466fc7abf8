// Package pinecone provides a vector driver backed by a Pinecone serverless
// index.
package pinecone

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	pineconesdk "github.com/pinecone-io/go-pinecone/pinecone"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/papercomputeco/medibot/pkg/errdefs"
	"github.com/papercomputeco/medibot/pkg/logger"
	"github.com/papercomputeco/medibot/pkg/vector"
)

const (
	// DefaultCloud and DefaultRegion describe the serverless spec the index
	// is created with.
	DefaultCloud  = "aws"
	DefaultRegion = "us-east-1"

	// upsertBatchSize is the number of vectors sent per upsert request.
	upsertBatchSize = 100

	readyPollInterval = 2 * time.Second
	readyTimeout      = 5 * time.Minute
)

// Config holds configuration for the Pinecone driver.
type Config struct {
	// APIKey is required. It normally comes from PINECONE_API_KEY.
	APIKey string

	// Index is the index name. Defaults to vector.DefaultIndex.
	Index string

	// Dimensions of the index, used when creating it. Defaults to
	// vector.DefaultDimensions.
	Dimensions uint

	// Cloud and Region of the serverless spec.
	Cloud  string
	Region string

	// Host overrides the control plane URL. Empty uses the Pinecone API.
	Host string
}

// indexConn is the data plane subset of *pineconesdk.IndexConnection used by
// the driver.
type indexConn interface {
	UpsertVectors(ctx context.Context, in []*pineconesdk.Vector) (uint32, error)
	QueryByVectorValues(ctx context.Context, in *pineconesdk.QueryByVectorValuesRequest) (*pineconesdk.QueryVectorsResponse, error)
	Close() error
}

// Driver implements vector.Driver against a Pinecone index. Writes create
// the index when it does not exist; queries only read an existing one.
type Driver struct {
	cfg    Config
	client *pineconesdk.Client
	logger *slog.Logger

	connect func(ctx context.Context, create bool) (indexConn, error)

	mu   sync.Mutex
	conn indexConn
}

// NewDriver validates the configuration and creates a Pinecone client. No
// request is made until the first Upsert or Query.
func NewDriver(c Config, log *slog.Logger) (*Driver, error) {
	if c.APIKey == "" {
		return nil, fmt.Errorf("%w: PINECONE_API_KEY not found in environment variables", errdefs.ErrConfiguration)
	}
	if c.Index == "" {
		c.Index = vector.DefaultIndex
	}
	if c.Dimensions == 0 {
		c.Dimensions = vector.DefaultDimensions
	}
	if c.Cloud == "" {
		c.Cloud = DefaultCloud
	}
	if c.Region == "" {
		c.Region = DefaultRegion
	}

	if log == nil {
		log = logger.Nop()
	}

	client, err := pineconesdk.NewClient(pineconesdk.NewClientParams{ApiKey: c.APIKey, Host: c.Host})
	if err != nil {
		return nil, fmt.Errorf("%w: creating pinecone client: %w", errdefs.ErrConfiguration, err)
	}

	d := &Driver{
		cfg:    c,
		client: client,
		logger: log,
	}
	d.connect = d.connectIndex
	return d, nil
}

// EnsureIndex creates the index when it is absent and waits until it is
// ready to accept writes.
func (d *Driver) EnsureIndex(ctx context.Context) error {
	_, err := d.index(ctx, true)
	return err
}

// index returns a cached connection to the index. With create set, a missing
// index is created first; otherwise it is a configuration error.
func (d *Driver) index(ctx context.Context, create bool) (indexConn, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.conn != nil {
		return d.conn, nil
	}

	conn, err := d.connect(ctx, create)
	if err != nil {
		return nil, err
	}
	d.conn = conn
	return conn, nil
}

func (d *Driver) connectIndex(ctx context.Context, create bool) (indexConn, error) {
	idx, err := d.prepare(ctx, create)
	if err != nil {
		return nil, err
	}

	conn, err := d.client.Index(pineconesdk.NewIndexConnParams{Host: idx.Host})
	if err != nil {
		return nil, fmt.Errorf("%w: connecting to index %s: %w", vector.ErrConnection, d.cfg.Index, err)
	}

	d.logger.Info("connected to pinecone",
		"index", d.cfg.Index,
		"host", idx.Host,
	)

	return conn, nil
}

// prepare resolves the index description through the control plane,
// creating the index first when create is set and it is not listed.
func (d *Driver) prepare(ctx context.Context, create bool) (*pineconesdk.Index, error) {
	exists, err := d.indexExists(ctx)
	if err != nil {
		return nil, err
	}

	if !exists {
		if !create {
			return nil, fmt.Errorf("%w: pinecone index %s does not exist, run medibot ingest first", errdefs.ErrConfiguration, d.cfg.Index)
		}
		if err := d.createIndex(ctx); err != nil {
			return nil, err
		}
	}

	return d.waitReady(ctx)
}

func (d *Driver) indexExists(ctx context.Context) (bool, error) {
	indexes, err := d.client.ListIndexes(ctx)
	if err != nil {
		return false, fmt.Errorf("%w: listing indexes: %w", vector.ErrConnection, err)
	}
	for _, idx := range indexes {
		if idx != nil && idx.Name == d.cfg.Index {
			return true, nil
		}
	}
	return false, nil
}

// createIndex creates the serverless index with a cosine metric.
func (d *Driver) createIndex(ctx context.Context) error {
	_, err := d.client.CreateServerlessIndex(ctx, &pineconesdk.CreateServerlessIndexRequest{
		Name:      d.cfg.Index,
		Dimension: int32(d.cfg.Dimensions),
		Metric:    pineconesdk.Cosine,
		Cloud:     pineconesdk.Cloud(d.cfg.Cloud),
		Region:    d.cfg.Region,
	})
	if err != nil {
		return fmt.Errorf("%w: creating index %s: %w", vector.ErrConnection, d.cfg.Index, err)
	}

	d.logger.Info("created pinecone index",
		"index", d.cfg.Index,
		"dimensions", d.cfg.Dimensions,
		"cloud", d.cfg.Cloud,
		"region", d.cfg.Region,
	)
	return nil
}

// waitReady polls the index description until it reports ready.
func (d *Driver) waitReady(ctx context.Context) (*pineconesdk.Index, error) {
	ctx, cancel := context.WithTimeout(ctx, readyTimeout)
	defer cancel()

	ticker := time.NewTicker(readyPollInterval)
	defer ticker.Stop()

	for {
		idx, err := d.client.DescribeIndex(ctx, d.cfg.Index)
		if err != nil {
			return nil, fmt.Errorf("%w: describing index %s: %w", vector.ErrConnection, d.cfg.Index, err)
		}
		if idx.Host != "" && (idx.Status == nil || idx.Status.Ready) {
			return idx, nil
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: index %s not ready: %w", vector.ErrConnection, d.cfg.Index, ctx.Err())
		case <-ticker.C:
		}
	}
}

// Upsert writes entries in batches. Batches already written stay written if
// a later batch fails.
func (d *Driver) Upsert(ctx context.Context, entries []vector.Entry) error {
	if len(entries) == 0 {
		return nil
	}
	if err := vector.CheckDimensions(entries, int(d.cfg.Dimensions)); err != nil {
		return err
	}

	conn, err := d.index(ctx, true)
	if err != nil {
		return err
	}

	for start := 0; start < len(entries); start += upsertBatchSize {
		end := min(start+upsertBatchSize, len(entries))

		vecs, err := toVectors(entries[start:end])
		if err != nil {
			return err
		}

		if _, err := conn.UpsertVectors(ctx, vecs); err != nil {
			return fmt.Errorf("%w: upserting vectors %d-%d: %w", vector.ErrConnection, start, end, err)
		}
	}

	d.logger.Debug("upserted entries to pinecone", "count", len(entries))

	return nil
}

// Query returns the topK nearest entries with their text and source.
func (d *Driver) Query(ctx context.Context, embedding []float32, topK int) ([]vector.QueryResult, error) {
	conn, err := d.index(ctx, false)
	if err != nil {
		return nil, err
	}

	resp, err := conn.QueryByVectorValues(ctx, &pineconesdk.QueryByVectorValuesRequest{
		Vector:          embedding,
		TopK:            uint32(vector.TopK(topK)),
		IncludeMetadata: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: querying index %s: %w", vector.ErrConnection, d.cfg.Index, err)
	}

	results := make([]vector.QueryResult, 0, len(resp.Matches))
	for _, m := range resp.Matches {
		if m == nil || m.Vector == nil {
			continue
		}
		results = append(results, vector.QueryResult{
			Entry: fromVector(m.Vector),
			Score: m.Score,
		})
	}

	d.logger.Debug("queried pinecone", "results", len(results))

	return results, nil
}

// Close releases the index connection.
func (d *Driver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.conn == nil {
		return nil
	}
	err := d.conn.Close()
	d.conn = nil
	return err
}

func toVectors(entries []vector.Entry) ([]*pineconesdk.Vector, error) {
	vecs := make([]*pineconesdk.Vector, 0, len(entries))
	for _, e := range entries {
		meta, err := structpb.NewStruct(map[string]any{
			vector.MetaText:   e.Text,
			vector.MetaSource: e.Source,
		})
		if err != nil {
			return nil, fmt.Errorf("building metadata for entry %s: %w", e.ID, err)
		}
		vecs = append(vecs, &pineconesdk.Vector{
			Id:       e.ID,
			Values:   e.Embedding,
			Metadata: meta,
		})
	}
	return vecs, nil
}

func fromVector(v *pineconesdk.Vector) vector.Entry {
	e := vector.Entry{ID: v.Id}
	if v.Metadata != nil {
		fields := v.Metadata.GetFields()
		e.Text = fields[vector.MetaText].GetStringValue()
		e.Source = fields[vector.MetaSource].GetStringValue()
	}
	return e
}

var (
	_ vector.Driver       = (*Driver)(nil)
	_ vector.IndexCreator = (*Driver)(nil)
)
