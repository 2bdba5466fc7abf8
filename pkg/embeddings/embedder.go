// Package embeddings
package embeddings

import "context"

// DefaultModel is the sentence embedding model the corpus is indexed with.
const DefaultModel = "all-minilm"

// Embedder provides text embedding capabilities.
type Embedder interface {
	// Embed converts text into a vector embedding.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch converts each text into a vector embedding, preserving order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Close releases any resources held by the embedder.
	Close() error
}
