package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	apisearch "github.com/papercomputeco/medibot/api/search"
	"github.com/papercomputeco/medibot/pkg/errdefs"
	"github.com/papercomputeco/medibot/pkg/logger"
)

var (
	askToolName    = "ask"
	askDescription = "Answer a medical question using only the indexed medical reference corpus. Returns the answer and the passages it was based on. Answers \"I don't know\" style when the corpus has no relevant content."
)

// AskInput represents the input arguments for the ask tool.
type AskInput struct {
	Question string `json:"question" jsonschema:"the medical question to answer"`
}

// handleAsk answers a question through the RAG chain.
func (s *Server) handleAsk(ctx context.Context, _ *mcp.CallToolRequest, input AskInput) (*mcp.CallToolResult, apisearch.AskOutput, error) {
	s.config.Logger.Debug("MCP ask request", "question", input.Question)

	answer, err := s.config.QA.Ask(ctx, input.Question)
	if err != nil {
		s.config.Logger.Error("MCP ask failed", "kind", errdefs.Kind(err), logger.Err(err))
		return errorResult(toolErrorMessage(err)), apisearch.AskOutput{Sources: []apisearch.SearchResult{}}, nil
	}

	output := apisearch.BuildAskOutput(answer)
	return jsonResult(s, output), output, nil
}
