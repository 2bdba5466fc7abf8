// Package llm defines the text generation interface used to answer
// questions.
package llm

import "context"

const (
	// DefaultModel is the 4-bit quantized llama-2-7b-chat model.
	DefaultModel = "llama2:7b-chat-q4_0"

	// DefaultMaxTokens bounds the length of a generated answer.
	DefaultMaxTokens = 512

	// DefaultTemperature is the sampling temperature for answers.
	DefaultTemperature = 0.8
)

// Options are the sampling parameters for a single generation.
type Options struct {
	MaxTokens   int
	Temperature float64
}

// DefaultOptions returns the answer generation defaults.
func DefaultOptions() Options {
	return Options{
		MaxTokens:   DefaultMaxTokens,
		Temperature: DefaultTemperature,
	}
}

// Generator produces a completion for a fully rendered prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string, opts Options) (string, error)
	Close() error
}

// Loader is implemented by generators that can load their model ahead of
// the first request.
type Loader interface {
	Load(ctx context.Context) error
}
