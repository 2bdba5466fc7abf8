// Package ingest builds the vector index from a directory of PDFs: it loads
// pages, splits them into chunks, embeds the chunks, and upserts them in
// batches, publishing an event after every written batch.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/papercomputeco/medibot/pkg/document"
	"github.com/papercomputeco/medibot/pkg/embeddings"
	"github.com/papercomputeco/medibot/pkg/errdefs"
	"github.com/papercomputeco/medibot/pkg/eventstream"
	"github.com/papercomputeco/medibot/pkg/logger"
	"github.com/papercomputeco/medibot/pkg/textsplit"
	"github.com/papercomputeco/medibot/pkg/vector"
)

// DefaultBatchSize is the number of entries per vector store upsert.
const DefaultBatchSize = 100

// entryNamespace scopes the UUIDv5 entry IDs.
var entryNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/papercomputeco/medibot/entry"))

// Config is the configuration for a Pipeline.
type Config struct {
	Loader   *document.Loader
	Splitter *textsplit.RecursiveSplitter
	Embedder embeddings.Embedder
	Driver   vector.Driver

	// Publisher receives one event per written batch. Optional.
	Publisher eventstream.Publisher

	// Index describes the target index in published events.
	Index eventstream.IndexMeta

	Workers   uint
	BatchSize uint

	// DryRun loads and splits only; nothing is embedded or written.
	DryRun bool

	Logger *slog.Logger
}

// Result summarizes a pipeline run.
type Result struct {
	Index   string
	Files   int
	Pages   int
	Chunks  int
	Batches int
	DryRun  bool
}

// Pipeline runs ingestion over a corpus directory.
type Pipeline struct {
	config *Config
	pool   *Pool
	logger *slog.Logger
}

// New validates c and creates a Pipeline.
func New(c *Config) (*Pipeline, error) {
	if c.Loader == nil {
		return nil, fmt.Errorf("%w: loader is required", errdefs.ErrConfiguration)
	}

	if c.Splitter == nil {
		s, err := textsplit.New()
		if err != nil {
			return nil, err
		}
		c.Splitter = s
	}

	if c.BatchSize == 0 {
		c.BatchSize = DefaultBatchSize
	}

	log := c.Logger
	if log == nil {
		log = logger.Nop()
	}

	p := &Pipeline{
		config: c,
		logger: log,
	}

	if c.DryRun {
		return p, nil
	}

	if c.Driver == nil {
		return nil, fmt.Errorf("%w: vector driver is required", errdefs.ErrConfiguration)
	}

	pool, err := NewPool(&PoolConfig{
		Embedder:   c.Embedder,
		NumWorkers: c.Workers,
		Logger:     log,
	})
	if err != nil {
		return nil, err
	}
	p.pool = pool

	return p, nil
}

// Run loads every PDF in the corpus directory and indexes it.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	files, err := p.config.Loader.Files()
	if err != nil {
		return nil, err
	}

	docs, err := p.config.Loader.Load(ctx)
	if err != nil {
		return nil, err
	}

	res, err := p.RunDocuments(ctx, docs)
	if err != nil {
		return nil, err
	}
	res.Files = len(files)
	return res, nil
}

// RunDocuments filters, splits, embeds, and upserts already-loaded pages.
func (p *Pipeline) RunDocuments(ctx context.Context, docs []document.Document) (*Result, error) {
	res := &Result{
		Index:  p.config.Index.Name,
		Pages:  len(docs),
		DryRun: p.config.DryRun,
	}

	// The index exists after a non-dry run even when the corpus is empty.
	if !p.config.DryRun {
		if err := vector.EnsureIndex(ctx, p.config.Driver); err != nil {
			return nil, fmt.Errorf("preparing index %s: %w", res.Index, err)
		}
	}

	chunks := p.config.Splitter.SplitDocuments(document.FilterMinimal(docs))
	res.Chunks = len(chunks)

	p.logger.Info("corpus split",
		"pages", len(docs),
		"chunks", len(chunks),
	)

	if p.config.DryRun || len(chunks) == 0 {
		return res, nil
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.PageContent
	}

	embs, err := p.pool.Embed(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embedding chunks: %w", err)
	}

	entries := NewEntries(chunks, embs)

	size := int(p.config.BatchSize)
	for start := 0; start < len(entries); start += size {
		batch := entries[start:min(start+size, len(entries))]

		began := time.Now()
		if err := p.config.Driver.Upsert(ctx, batch); err != nil {
			return nil, fmt.Errorf("upserting batch at offset %d: %w", start, err)
		}
		res.Batches++

		p.logger.Debug("batch upserted",
			"offset", start,
			"count", len(batch),
		)

		p.publish(ctx, batch, time.Since(began))
	}

	p.logger.Info("index populated",
		"index", res.Index,
		"chunks", res.Chunks,
		"batches", res.Batches,
	)

	return res, nil
}

// publish emits a chunks-indexed event. Publishing failures are logged and
// never fail the run since the batch is already written.
func (p *Pipeline) publish(ctx context.Context, batch []vector.Entry, took time.Duration) {
	if p.config.Publisher == nil {
		return
	}

	meta := eventstream.BatchMeta{
		ChunkCount: len(batch),
		EntryIDs:   make([]string, 0, len(batch)),
		DurationMs: took.Milliseconds(),
	}
	seen := map[string]bool{}
	for _, e := range batch {
		meta.EntryIDs = append(meta.EntryIDs, e.ID)
		if !seen[e.Source] {
			seen[e.Source] = true
			meta.Sources = append(meta.Sources, e.Source)
		}
	}

	event := eventstream.NewChunksIndexedEvent(p.config.Index, meta)
	if err := p.config.Publisher.PublishChunksIndexed(ctx, event); err != nil {
		p.logger.Warn("failed to publish chunks indexed event",
			"event_id", event.EventID,
			logger.Err(err),
		)
	}
}

// NewEntries pairs chunks with their embeddings. Chunk ordinals count up per
// source so adding a file leaves every other file's IDs unchanged.
func NewEntries(chunks []document.Document, embs [][]float32) []vector.Entry {
	ordinals := map[string]int{}
	entries := make([]vector.Entry, len(chunks))
	for i, c := range chunks {
		source := c.Source()
		n := ordinals[source]
		ordinals[source] = n + 1

		entries[i] = vector.Entry{
			ID:        EntryID(source, n, c.PageContent),
			Embedding: embs[i],
			Text:      c.PageContent,
			Source:    source,
		}
	}
	return entries
}

// EntryID derives a stable UUIDv5 from a chunk's source, ordinal, and text.
func EntryID(source string, ordinal int, text string) string {
	name := source + "#" + strconv.Itoa(ordinal) + "#" + text
	return uuid.NewSHA1(entryNamespace, []byte(name)).String()
}
