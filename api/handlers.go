package api

import (
	"context"
	_ "embed"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	apisearch "github.com/papercomputeco/medibot/api/search"
	"github.com/papercomputeco/medibot/pkg/errdefs"
	"github.com/papercomputeco/medibot/pkg/logger"
	"github.com/papercomputeco/medibot/pkg/rag"
)

// GenericErrorMessage is the only failure detail returned to chat clients.
const GenericErrorMessage = "Sorry, something went wrong while answering your question."

//go:embed static/chat.html
var chatPage []byte

// ErrorResponse is the JSON body of a failed /v1 request.
type ErrorResponse struct {
	Error string `json:"error"`
}

// handlePing returns a simple health check response.
func (s *Server) handlePing(c *fiber.Ctx) error {
	return c.JSON("pong")
}

// handleIndex serves the chat page.
func (s *Server) handleIndex(c *fiber.Ctx) error {
	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return c.Send(chatPage)
}

// handleGet answers the form field msg as plain text.
func (s *Server) handleGet(c *fiber.Ctx) error {
	msg := c.FormValue("msg")
	if strings.TrimSpace(msg) == "" {
		return c.Status(fiber.StatusBadRequest).SendString(rag.ErrEmptyQuestion.Error())
	}

	ctx, cancel := context.WithTimeout(c.UserContext(), s.config.RequestTimeout)
	defer cancel()

	answer, err := s.qa.Ask(ctx, msg)
	if err != nil {
		status := s.statusFor(err)
		if status == fiber.StatusBadRequest {
			return c.Status(status).SendString(err.Error())
		}
		return c.Status(status).SendString(GenericErrorMessage)
	}

	return c.SendString(answer.Text)
}

// handleAskEndpoint handles POST /v1/ask with a JSON {"question": ...} body.
func (s *Server) handleAskEndpoint(c *fiber.Ctx) error {
	var in apisearch.AskInput
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid request body"})
	}
	if strings.TrimSpace(in.Question) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "question is required"})
	}

	ctx, cancel := context.WithTimeout(c.UserContext(), s.config.RequestTimeout)
	defer cancel()

	answer, err := s.qa.Ask(ctx, in.Question)
	if err != nil {
		return c.Status(s.statusFor(err)).JSON(ErrorResponse{Error: GenericErrorMessage})
	}

	return c.JSON(apisearch.BuildAskOutput(answer))
}

// statusFor classifies err for the response and logs anything that is not
// the caller's fault.
func (s *Server) statusFor(err error) int {
	switch {
	case errors.Is(err, rag.ErrEmptyQuestion):
		return fiber.StatusBadRequest
	case errors.Is(err, errdefs.ErrConfiguration):
		s.logger.Error("question failed", "kind", errdefs.Kind(err), logger.Err(err))
		return fiber.StatusServiceUnavailable
	default:
		s.logger.Error("question failed", "kind", errdefs.Kind(err), logger.Err(err))
		return fiber.StatusInternalServerError
	}
}
