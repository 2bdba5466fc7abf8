// Package llmutils is the llm utility package
package llmutils

import (
	"fmt"
	"time"

	"github.com/papercomputeco/medibot/pkg/errdefs"
	"github.com/papercomputeco/medibot/pkg/llm"
	"github.com/papercomputeco/medibot/pkg/llm/ollama"
)

type NewGeneratorOpts struct {
	ProviderType string
	TargetURL    string
	Model        string
	Timeout      time.Duration
}

func NewGenerator(o *NewGeneratorOpts) (llm.Generator, error) {
	switch o.ProviderType {
	case "ollama", "":
		return ollama.NewGenerator(ollama.Config{
			BaseURL: o.TargetURL,
			Model:   o.Model,
			Timeout: o.Timeout,
		}), nil
	default:
		return nil, fmt.Errorf("%w: unsupported llm provider: %s", errdefs.ErrConfiguration, o.ProviderType)
	}
}
