// Package client talks to a running medibot query service the way the chat
// page does: it posts the question as the form field msg to /get.
package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/papercomputeco/medibot/pkg/errdefs"
)

// ErrBadRequest is returned when the server rejects the question.
var ErrBadRequest = errors.New("question rejected")

// Client asks questions of a medibot server.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a Client for the server at baseURL.
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 3 * time.Minute
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Ask posts msg and returns the plain-text answer.
func (c *Client) Ask(ctx context.Context, msg string) (string, error) {
	form := url.Values{"msg": {msg}}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/get", strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: sending request to %s: %w", errdefs.ErrService, c.baseURL, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: reading response: %w", errdefs.ErrService, err)
	}
	text := strings.TrimSpace(string(body))

	switch {
	case resp.StatusCode == http.StatusOK:
		return text, nil
	case resp.StatusCode == http.StatusBadRequest:
		return "", fmt.Errorf("%w: %s", ErrBadRequest, text)
	case resp.StatusCode == http.StatusServiceUnavailable:
		return "", fmt.Errorf("%w: server is misconfigured: %s", errdefs.ErrConfiguration, text)
	default:
		return "", fmt.Errorf("%w: server returned %d: %s", errdefs.ErrService, resp.StatusCode, text)
	}
}
