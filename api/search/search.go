// Package search provides the retrieval and answer types shared by the REST
// endpoints and the MCP tools.
package search

import (
	"context"
	"log/slog"

	"github.com/papercomputeco/medibot/pkg/rag"
	"github.com/papercomputeco/medibot/pkg/vector"
)

// Searcher retrieves the chunks closest to a query.
type Searcher interface {
	Search(ctx context.Context, query string, topK int) ([]vector.QueryResult, error)
}

// SearchInput represents the input arguments for a search request.
type SearchInput struct {
	Query string `json:"query"`
	TopK  int    `json:"top_k,omitempty"`
}

// SearchResult represents a single retrieved chunk.
type SearchResult struct {
	ID     string  `json:"id"`
	Score  float32 `json:"score"`
	Source string  `json:"source"`
	Text   string  `json:"text"`
}

// SearchOutput represents the output of a search operation.
type SearchOutput struct {
	Query   string         `json:"query"`
	Results []SearchResult `json:"results"`
	Count   int            `json:"count"`
}

// AskInput represents the input arguments for an ask request.
type AskInput struct {
	Question string `json:"question"`
}

// AskOutput is a generated answer with the chunks it was grounded on.
type AskOutput struct {
	Question string         `json:"question"`
	Answer   string         `json:"answer"`
	Sources  []SearchResult `json:"sources"`
}

// Search retrieves the topK chunks for query. A non-positive topK uses the
// searcher's default.
func Search(ctx context.Context, query string, topK int, searcher Searcher, logger *slog.Logger) (*SearchOutput, error) {
	logger.Debug("search request",
		"query", query,
		"top_k", topK,
	)

	results, err := searcher.Search(ctx, query, topK)
	if err != nil {
		return nil, err
	}

	return &SearchOutput{
		Query:   query,
		Results: BuildSearchResults(results),
		Count:   len(results),
	}, nil
}

// BuildSearchResults converts vector query results into SearchResults.
func BuildSearchResults(results []vector.QueryResult) []SearchResult {
	out := make([]SearchResult, 0, len(results))
	for _, r := range results {
		out = append(out, BuildSearchResult(r))
	}
	return out
}

// BuildSearchResult converts a vector query result into a SearchResult.
func BuildSearchResult(r vector.QueryResult) SearchResult {
	return SearchResult{
		ID:     r.ID,
		Score:  r.Score,
		Source: r.Source,
		Text:   r.Text,
	}
}

// BuildAskOutput converts a rag answer into an AskOutput.
func BuildAskOutput(a *rag.Answer) AskOutput {
	return AskOutput{
		Question: a.Question,
		Answer:   a.Text,
		Sources:  BuildSearchResults(a.Sources),
	}
}
