// Package rag answers questions by retrieving corpus chunks and asking a
// language model to answer from them.
package rag

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/papercomputeco/medibot/pkg/embeddings"
	"github.com/papercomputeco/medibot/pkg/llm"
	"github.com/papercomputeco/medibot/pkg/logger"
	"github.com/papercomputeco/medibot/pkg/prompt"
	"github.com/papercomputeco/medibot/pkg/utils"
	"github.com/papercomputeco/medibot/pkg/vector"
)

// ErrEmptyQuestion is returned when the question is blank.
var ErrEmptyQuestion = errors.New("message is required")

// Answer is a generated answer with the chunks it was grounded on.
type Answer struct {
	Question string
	Text     string
	Sources  []vector.QueryResult
}

// QA wires retrieval to generation. It is safe for concurrent use when its
// components are.
type QA struct {
	embedder  embeddings.Embedder
	driver    vector.Driver
	generator llm.Generator
	template  prompt.Template
	topK      int
	options   llm.Options
	logger    *slog.Logger
}

// Option configures a QA.
type Option func(*QA)

func WithTopK(k int) Option {
	return func(q *QA) {
		q.topK = vector.TopK(k)
	}
}

func WithTemplate(t prompt.Template) Option {
	return func(q *QA) {
		q.template = t
	}
}

func WithOptions(o llm.Options) Option {
	return func(q *QA) {
		q.options = o
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(q *QA) {
		q.logger = l
	}
}

// New creates a QA. Defaults are the medical template, k = 2, 512 tokens and
// temperature 0.8.
func New(e embeddings.Embedder, d vector.Driver, g llm.Generator, opts ...Option) *QA {
	q := &QA{
		embedder:  e,
		driver:    d,
		generator: g,
		template:  prompt.Default(),
		topK:      vector.DefaultTopK,
		options:   llm.DefaultOptions(),
		logger:    logger.Nop(),
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Search embeds query and returns the topK closest chunks. A non-positive
// topK uses the QA's configured k.
func (q *QA) Search(ctx context.Context, query string, topK int) ([]vector.QueryResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuestion
	}
	if topK <= 0 {
		topK = q.topK
	}

	emb, err := q.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding question: %w", err)
	}

	results, err := q.driver.Query(ctx, emb, topK)
	if err != nil {
		return nil, fmt.Errorf("retrieving context: %w", err)
	}
	return results, nil
}

// Ask retrieves context for question, renders the prompt, and generates an
// answer.
func (q *QA) Ask(ctx context.Context, question string) (*Answer, error) {
	start := time.Now()

	sources, err := q.Search(ctx, question, q.topK)
	if err != nil {
		return nil, err
	}

	texts := make([]string, len(sources))
	for i, s := range sources {
		texts[i] = s.Text
	}

	text, err := q.generator.Generate(ctx, q.template.Render(prompt.Stuff(texts), question), q.options)
	if err != nil {
		return nil, fmt.Errorf("generating answer: %w", err)
	}

	q.logger.Debug("answered question",
		"question", utils.Truncate(question, 80),
		"sources", len(sources),
		"duration", time.Since(start),
	)

	return &Answer{
		Question: question,
		Text:     strings.TrimSpace(text),
		Sources:  sources,
	}, nil
}

// Load preloads the generator's model when it supports it.
func (q *QA) Load(ctx context.Context) error {
	if l, ok := q.generator.(llm.Loader); ok {
		return l.Load(ctx)
	}
	return nil
}

// Close closes the embedder, driver, and generator.
func (q *QA) Close() error {
	return errors.Join(q.embedder.Close(), q.driver.Close(), q.generator.Close())
}
