// Package components builds the embedder, vector driver, generator, and
// event publisher from a resolved medibot configuration.
package components

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/papercomputeco/medibot/pkg/config"
	"github.com/papercomputeco/medibot/pkg/dotdir"
	"github.com/papercomputeco/medibot/pkg/embeddings"
	embeddingutils "github.com/papercomputeco/medibot/pkg/embeddings/utils"
	"github.com/papercomputeco/medibot/pkg/errdefs"
	"github.com/papercomputeco/medibot/pkg/eventstream"
	eventstreamutils "github.com/papercomputeco/medibot/pkg/eventstream/utils"
	"github.com/papercomputeco/medibot/pkg/llm"
	llmutils "github.com/papercomputeco/medibot/pkg/llm/utils"
	"github.com/papercomputeco/medibot/pkg/rag"
	"github.com/papercomputeco/medibot/pkg/vector"
	vectorutils "github.com/papercomputeco/medibot/pkg/vector/utils"
)

// SQLiteFileName is the vector database created under .medibot/ when the
// sqlite provider has no explicit target.
const SQLiteFileName = "vectors.db"

// CheckDimensions reports a configuration error when the embedding and index
// dimensions disagree.
func CheckDimensions(cfg *config.Config) error {
	if cfg.Embedding.Dimensions != cfg.VectorStore.Dimensions {
		return fmt.Errorf("%w: embedding.dimensions (%d) must match vector_store.dimensions (%d)",
			errdefs.ErrConfiguration, cfg.Embedding.Dimensions, cfg.VectorStore.Dimensions)
	}
	return nil
}

// NewEmbedder builds the configured embedder.
func NewEmbedder(cfg *config.Config) (embeddings.Embedder, error) {
	return embeddingutils.NewEmbedder(&embeddingutils.NewEmbedderOpts{
		ProviderType: cfg.Embedding.Provider,
		TargetURL:    cfg.Embedding.Target,
		Model:        cfg.Embedding.Model,
		Dimensions:   cfg.Embedding.Dimensions,
	})
}

// NewVectorDriver builds the configured vector driver. Remote providers are
// wrapped with retries.
func NewVectorDriver(ctx context.Context, cfg *config.Config, configDir string, log *slog.Logger) (vector.Driver, error) {
	if err := CheckDimensions(cfg); err != nil {
		return nil, err
	}

	target := cfg.VectorStore.Target
	if cfg.VectorStore.Provider == "sqlite" && target == "" {
		path, err := dotdir.NewManager().Path(configDir, SQLiteFileName)
		if err != nil {
			return nil, err
		}
		target = path
	}

	log.Debug("creating vector driver",
		"provider", cfg.VectorStore.Provider,
		"index", cfg.VectorStore.Index,
	)

	return vectorutils.NewVectorDriver(ctx, &vectorutils.NewVectorDriverOpts{
		ProviderType: cfg.VectorStore.Provider,
		Target:       target,
		APIKey:       cfg.VectorStore.APIKey,
		Index:        cfg.VectorStore.Index,
		Cloud:        cfg.VectorStore.Cloud,
		Region:       cfg.VectorStore.Region,
		Dimensions:   cfg.VectorStore.Dimensions,
		Retry:        true,
		Logger:       log,
	})
}

// NewGenerator builds the configured answer generator.
func NewGenerator(cfg *config.Config) (llm.Generator, error) {
	timeout, err := config.Duration(cfg.LLM.Timeout, 2*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("%w: llm.timeout: %w", errdefs.ErrConfiguration, err)
	}

	return llmutils.NewGenerator(&llmutils.NewGeneratorOpts{
		ProviderType: cfg.LLM.Provider,
		TargetURL:    cfg.LLM.Target,
		Model:        cfg.LLM.Model,
		Timeout:      timeout,
	})
}

// NewPublisher builds the configured ingest event publisher.
func NewPublisher(cfg *config.Config) (eventstream.Publisher, error) {
	return eventstreamutils.NewPublisher(&eventstreamutils.NewPublisherOpts{
		ProviderType: cfg.Events.Provider,
		Brokers:      cfg.Events.Brokers,
		Topic:        cfg.Events.Topic,
	})
}

// IndexMeta describes the configured index in ingest events.
func IndexMeta(cfg *config.Config) eventstream.IndexMeta {
	return eventstream.IndexMeta{
		Provider:   cfg.VectorStore.Provider,
		Name:       cfg.VectorStore.Index,
		Dimensions: int(cfg.VectorStore.Dimensions),
	}
}

// NewQA builds the retrieval and answer chain once for a server process.
func NewQA(ctx context.Context, cfg *config.Config, configDir string, log *slog.Logger) (*rag.QA, error) {
	embedder, err := NewEmbedder(cfg)
	if err != nil {
		return nil, err
	}

	driver, err := NewVectorDriver(ctx, cfg, configDir, log)
	if err != nil {
		_ = embedder.Close()
		return nil, err
	}

	generator, err := NewGenerator(cfg)
	if err != nil {
		_ = embedder.Close()
		_ = driver.Close()
		return nil, err
	}

	return rag.New(embedder, driver, generator,
		rag.WithTopK(int(cfg.Server.TopK)),
		rag.WithOptions(llm.Options{
			MaxTokens:   int(cfg.LLM.MaxTokens),
			Temperature: cfg.LLM.Temperature,
		}),
		rag.WithLogger(log),
	), nil
}
