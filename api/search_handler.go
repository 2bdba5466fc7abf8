package api

import (
	"context"
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"

	apisearch "github.com/papercomputeco/medibot/api/search"
	"github.com/papercomputeco/medibot/pkg/rag"
)

// handleSearchEndpoint handles GET /v1/search requests.
// Query parameters:
//   - query (required): the search query text
//   - top_k (optional, default 2): number of results to return
func (s *Server) handleSearchEndpoint(c *fiber.Ctx) error {
	query := c.Query("query")
	if query == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error: "query parameter is required",
		})
	}

	topK := 0
	if topKStr := c.Query("top_k"); topKStr != "" {
		parsed, err := strconv.Atoi(topKStr)
		if err != nil || parsed <= 0 {
			return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
				Error: "top_k must be a positive integer",
			})
		}
		topK = parsed
	}

	ctx, cancel := context.WithTimeout(c.UserContext(), s.config.RequestTimeout)
	defer cancel()

	output, err := apisearch.Search(ctx, query, topK, s.qa, s.logger)
	if err != nil {
		if errors.Is(err, rag.ErrEmptyQuestion) {
			return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "query parameter is required"})
		}
		return c.Status(s.statusFor(err)).JSON(ErrorResponse{
			Error: "search failed",
		})
	}

	return c.JSON(output)
}
