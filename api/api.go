package api

import (
	"context"
	"errors"
	"log/slog"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"

	"github.com/papercomputeco/medibot/pkg/logger"
	"github.com/papercomputeco/medibot/pkg/rag"
	"github.com/papercomputeco/medibot/pkg/vector"
)

// QA answers questions over the indexed corpus. *rag.QA implements it.
type QA interface {
	Ask(ctx context.Context, question string) (*rag.Answer, error)
	Search(ctx context.Context, query string, topK int) ([]vector.QueryResult, error)
}

// Server is the medibot query service.
type Server struct {
	config Config
	qa     QA
	logger *slog.Logger
	app    *fiber.App
}

// NewServer creates a new API server around a QA built once by the caller.
func NewServer(config Config, qa QA, log *slog.Logger) (*Server, error) {
	if qa == nil {
		return nil, errors.New("qa is required")
	}
	if log == nil {
		log = logger.Nop()
	}
	if config.RequestTimeout <= 0 {
		config.RequestTimeout = DefaultRequestTimeout
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	s := &Server{
		config: config,
		qa:     qa,
		logger: log,
		app:    app,
	}

	app.Get("/", s.handleIndex)
	app.Post("/get", s.handleGet)
	app.Get("/ping", s.handlePing)
	app.Get("/v1/search", s.handleSearchEndpoint)
	app.Post("/v1/ask", s.handleAskEndpoint)

	if config.MCPHandler != nil {
		app.All("/mcp", adaptor.HTTPHandler(config.MCPHandler))
	}

	return s, nil
}

// Run starts the API server on the configured address.
func (s *Server) Run() error {
	s.logger.Info("starting API server",
		"listen", s.config.ListenAddr,
	)
	return s.app.Listen(s.config.ListenAddr)
}

// Shutdown gracefully shuts down the API server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}
