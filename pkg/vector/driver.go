// Package vector provides interfaces and implementations for vector storage.
package vector

import "context"

const (
	// DefaultIndex is the index the corpus is written to and queried from.
	DefaultIndex = "medical-bot-llama2-7b"

	// DefaultDimensions matches the all-MiniLM-L6-v2 embedding model.
	DefaultDimensions = 384

	// DefaultTopK is the number of chunks retrieved per question.
	DefaultTopK = 2

	// MetaText and MetaSource are the metadata keys written alongside vectors.
	MetaText   = "text"
	MetaSource = "source"
)

// Entry is a single chunk stored in the vector index.
type Entry struct {
	// ID is a deterministic identifier so re-ingesting a chunk overwrites it.
	ID string

	// Embedding is the vector representation of Text.
	Embedding []float32

	// Text is the chunk content returned to the answer synthesizer.
	Text string

	// Source is the path of the PDF the chunk came from.
	Source string
}

// QueryResult represents a search result with similarity score.
type QueryResult struct {
	Entry

	// Score is the cosine similarity (higher = more similar).
	Score float32
}

// Driver handles storage and retrieval of chunk embeddings.
type Driver interface {
	// Upsert stores entries, replacing any with the same ID. The index is
	// created with the driver's dimension and cosine metric when absent.
	Upsert(ctx context.Context, entries []Entry) error

	// Query finds the topK entries most similar to the given embedding,
	// ordered by decreasing score. A non-positive topK means DefaultTopK.
	Query(ctx context.Context, embedding []float32, topK int) ([]QueryResult, error)

	// Close releases any resources held by the driver.
	Close() error
}

// IndexCreator is implemented by drivers that can create their index ahead
// of the first write.
type IndexCreator interface {
	EnsureIndex(ctx context.Context) error
}

// EnsureIndex creates d's index when d supports it. Other drivers are left
// untouched.
func EnsureIndex(ctx context.Context, d Driver) error {
	if c, ok := d.(IndexCreator); ok {
		return c.EnsureIndex(ctx)
	}
	return nil
}

// TopK normalizes a requested result count.
func TopK(k int) int {
	if k <= 0 {
		return DefaultTopK
	}
	return k
}
