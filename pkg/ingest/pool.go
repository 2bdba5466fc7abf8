package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"

	"github.com/papercomputeco/medibot/pkg/embeddings"
	"github.com/papercomputeco/medibot/pkg/errdefs"
	"github.com/papercomputeco/medibot/pkg/logger"
)

var (
	defaultNumWorkers   uint = 4
	defaultJobBatchSize uint = 32
)

// job is a contiguous slice of chunk texts embedded in one EmbedBatch call.
type job struct {
	offset int
	texts  []string
}

// PoolConfig is the configuration options for the embedding worker pool.
type PoolConfig struct {
	// Embedder generates the chunk embeddings.
	Embedder embeddings.Embedder

	// NumWorkers is the number of concurrent workers (defaults to 4).
	NumWorkers uint

	// JobBatchSize is the number of texts sent per EmbedBatch call (defaults to 32).
	JobBatchSize uint

	Logger *slog.Logger
}

// Pool embeds texts concurrently while keeping results in input order.
type Pool struct {
	config *PoolConfig
	logger *slog.Logger
}

// NewPool validates the config and creates a Pool.
func NewPool(c *PoolConfig) (*Pool, error) {
	if c.Embedder == nil {
		return nil, fmt.Errorf("%w: embedder is required", errdefs.ErrConfiguration)
	}

	if c.NumWorkers == 0 {
		c.NumWorkers = defaultNumWorkers
	}

	if c.JobBatchSize == 0 {
		c.JobBatchSize = defaultJobBatchSize
	}

	if c.NumWorkers > uint(math.MaxInt) {
		return nil, fmt.Errorf("%w: NumWorkers %d exceeds max int", errdefs.ErrConfiguration, c.NumWorkers)
	}

	log := c.Logger
	if log == nil {
		log = logger.Nop()
	}

	return &Pool{
		config: c,
		logger: log,
	}, nil
}

// Embed returns one embedding per text, in the order of texts. The first
// failing job cancels the remaining ones and its error is returned.
func (p *Pool) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	size := int(p.config.JobBatchSize)
	queue := make(chan job)
	results := make([][]float32, len(texts))

	workers := min(int(p.config.NumWorkers), (len(texts)+size-1)/size)

	var wg sync.WaitGroup
	wg.Add(workers)
	for i := range workers {
		go func() {
			defer wg.Done()
			p.worker(ctx, cancel, i, queue, results)
		}()
	}

	go func() {
		defer close(queue)
		for offset := 0; offset < len(texts); offset += size {
			end := min(offset+size, len(texts))
			select {
			case queue <- job{offset: offset, texts: texts[offset:end]}:
			case <-ctx.Done():
				return
			}
		}
	}()

	wg.Wait()

	if err := context.Cause(ctx); err != nil {
		return nil, err
	}
	return results, nil
}

// worker pulls jobs off the queue until it is closed or the run is cancelled.
func (p *Pool) worker(ctx context.Context, cancel context.CancelCauseFunc, id int, queue <-chan job, results [][]float32) {
	p.logger.Debug("embedding worker started", "worker_id", id)
	defer p.logger.Debug("embedding worker stopped", "worker_id", id)

	for j := range queue {
		if ctx.Err() != nil {
			continue
		}

		embs, err := p.config.Embedder.EmbedBatch(ctx, j.texts)
		if err == nil && len(embs) != len(j.texts) {
			err = fmt.Errorf("%w: got %d embeddings for %d texts", errdefs.ErrInference, len(embs), len(j.texts))
		}
		if err != nil {
			p.logger.Error("embedding job failed",
				"worker_id", id,
				"offset", j.offset,
				logger.Err(err),
			)
			cancel(err)
			continue
		}

		// Jobs cover disjoint ranges, so writes never overlap.
		copy(results[j.offset:], embs)

		p.logger.Debug("embedding job done",
			"worker_id", id,
			"offset", j.offset,
			"count", len(embs),
		)
	}
}
