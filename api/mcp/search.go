package mcp

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/papercomputeco/medibot/api"
	apisearch "github.com/papercomputeco/medibot/api/search"
	"github.com/papercomputeco/medibot/pkg/errdefs"
	"github.com/papercomputeco/medibot/pkg/logger"
	"github.com/papercomputeco/medibot/pkg/rag"
)

var (
	searchToolName    = "search"
	searchDescription = "Search the indexed medical reference corpus. Returns the chunks of text most similar to the query, with their source document and similarity score."
)

// SearchInput represents the input arguments for the search tool.
type SearchInput struct {
	Query string `json:"query" jsonschema:"the search query text to find relevant passages"`
	TopK  int    `json:"top_k,omitempty" jsonschema:"number of results to return (default: 2)"`
}

// handleSearch processes a search request.
func (s *Server) handleSearch(ctx context.Context, _ *mcp.CallToolRequest, input SearchInput) (*mcp.CallToolResult, apisearch.SearchOutput, error) {
	output, err := apisearch.Search(ctx, input.Query, input.TopK, s.config.QA, s.config.Logger)
	if err != nil {
		s.config.Logger.Error("MCP search failed", "kind", errdefs.Kind(err), logger.Err(err))
		return errorResult(toolErrorMessage(err)), apisearch.SearchOutput{Results: []apisearch.SearchResult{}}, nil
	}

	return jsonResult(s, output), *output, nil
}

// jsonResult serializes structured output into a TextContent block as well,
// for clients that only read text content.
func jsonResult(s *Server, v any) *mcp.CallToolResult {
	jsonBytes, err := json.Marshal(v)
	if err != nil {
		s.config.Logger.Error("failed to marshal tool output", logger.Err(err))
		return errorResult(api.GenericErrorMessage)
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(jsonBytes)},
		},
	}
}

// toolErrorMessage is the text returned to MCP clients for err. Only input
// validation errors are echoed; everything else stays in the log.
func toolErrorMessage(err error) string {
	if errors.Is(err, rag.ErrEmptyQuestion) {
		return err.Error()
	}
	return api.GenericErrorMessage
}

func errorResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
	}
}
