// Package api provides the HTTP query service: the chat page, the /get
// answer endpoint, JSON search and ask endpoints, and the MCP handler.
package api

import (
	"net/http"
	"time"
)

// DefaultRequestTimeout bounds a single question when none is configured.
const DefaultRequestTimeout = 3 * time.Minute

// Config is the API server configuration.
type Config struct {
	// ListenAddr is the address to listen on (e.g., ":8080")
	ListenAddr string

	// RequestTimeout bounds answering a single question.
	RequestTimeout time.Duration

	// MCPHandler, when set, is mounted at /mcp.
	MCPHandler http.Handler
}
