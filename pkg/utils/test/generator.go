package testutils

import (
	"context"
	"sync"

	"github.com/papercomputeco/medibot/pkg/llm"
)

// MockGenerator is a test llm.Generator that records prompts.
type MockGenerator struct {
	// Response is returned by Generate unless Respond is set.
	Response string

	// Respond computes a response from the rendered prompt.
	Respond func(prompt string) string

	// Err, when set, is returned by Generate and Load.
	Err error

	mu      sync.Mutex
	Prompts []string
	Options []llm.Options
	Loaded  bool
}

func NewMockGenerator(response string) *MockGenerator {
	return &MockGenerator{Response: response}
}

func (m *MockGenerator) Generate(_ context.Context, prompt string, opts llm.Options) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Prompts = append(m.Prompts, prompt)
	m.Options = append(m.Options, opts)
	if m.Err != nil {
		return "", m.Err
	}
	if m.Respond != nil {
		return m.Respond(prompt), nil
	}
	return m.Response, nil
}

func (m *MockGenerator) Load(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Err != nil {
		return m.Err
	}
	m.Loaded = true
	return nil
}

// LastPrompt returns the most recent prompt, or "".
func (m *MockGenerator) LastPrompt() string {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.Prompts) == 0 {
		return ""
	}
	return m.Prompts[len(m.Prompts)-1]
}

func (m *MockGenerator) Close() error {
	return nil
}
