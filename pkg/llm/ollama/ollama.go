// Package ollama implements llm.Generator with Ollama's generate API.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/papercomputeco/medibot/pkg/errdefs"
	"github.com/papercomputeco/medibot/pkg/llm"
)

// DefaultBaseURL is the default Ollama API URL.
const DefaultBaseURL = "http://localhost:11434"

// Config holds configuration for the Ollama generator.
type Config struct {
	// BaseURL defaults to DefaultBaseURL.
	BaseURL string

	// Model defaults to llm.DefaultModel.
	Model string

	// Timeout bounds a single generate request. Defaults to 2 minutes.
	Timeout time.Duration

	// HTTPClient overrides the default client.
	HTTPClient *http.Client
}

type generateOptions struct {
	NumPredict  int     `json:"num_predict,omitempty"`
	Temperature float64 `json:"temperature"`
}

type generateRequest struct {
	Model   string           `json:"model"`
	Prompt  string           `json:"prompt"`
	Stream  bool             `json:"stream"`
	Options *generateOptions `json:"options,omitempty"`
}

type generateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
	Error    string `json:"error"`
}

// Generator calls Ollama's /api/generate endpoint.
type Generator struct {
	baseURL    string
	model      string
	httpClient *http.Client
}

func NewGenerator(c Config) *Generator {
	baseURL := strings.TrimRight(c.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	model := c.Model
	if model == "" {
		model = llm.DefaultModel
	}

	client := c.HTTPClient
	if client == nil {
		timeout := c.Timeout
		if timeout <= 0 {
			timeout = 2 * time.Minute
		}
		client = &http.Client{Timeout: timeout}
	}

	return &Generator{
		baseURL:    baseURL,
		model:      model,
		httpClient: client,
	}
}

// Model returns the model tag requests are sent with.
func (g *Generator) Model() string {
	return g.model
}

// Generate returns the non-streamed completion for prompt.
func (g *Generator) Generate(ctx context.Context, prompt string, opts llm.Options) (string, error) {
	resp, err := g.generate(ctx, generateRequest{
		Model:  g.model,
		Prompt: prompt,
		Stream: false,
		Options: &generateOptions{
			NumPredict:  opts.MaxTokens,
			Temperature: opts.Temperature,
		},
	})
	if err != nil {
		return "", err
	}
	return resp.Response, nil
}

// Load asks Ollama to load the model into memory. A generate request with
// an empty prompt loads the model without producing tokens.
func (g *Generator) Load(ctx context.Context) error {
	_, err := g.generate(ctx, generateRequest{Model: g.model, Stream: false})
	return err
}

func (g *Generator) generate(ctx context.Context, request generateRequest) (*generateResponse, error) {
	payload, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("%w: marshal ollama request: %w", errdefs.ErrInference, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/api/generate", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("%w: create ollama request: %w", errdefs.ErrInference, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: send ollama request: %w", errdefs.ErrInference, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%w: ollama status %d: %s", errdefs.ErrInference, resp.StatusCode, string(body))
	}

	var response generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("%w: decode ollama response: %w", errdefs.ErrInference, err)
	}
	if response.Error != "" {
		return nil, fmt.Errorf("%w: ollama error: %s", errdefs.ErrInference, response.Error)
	}

	return &response, nil
}

func (g *Generator) Close() error {
	return nil
}

var (
	_ llm.Generator = (*Generator)(nil)
	_ llm.Loader    = (*Generator)(nil)
)
