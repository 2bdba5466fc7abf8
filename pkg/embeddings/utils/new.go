// Package embeddingutils is the embeddings utility package
package embeddingutils

import (
	"fmt"

	"github.com/papercomputeco/medibot/pkg/embeddings"
	"github.com/papercomputeco/medibot/pkg/embeddings/ollama"
	"github.com/papercomputeco/medibot/pkg/errdefs"
)

type NewEmbedderOpts struct {
	ProviderType string
	TargetURL    string
	Model        string
	Dimensions   uint
}

func NewEmbedder(o *NewEmbedderOpts) (embeddings.Embedder, error) {
	switch o.ProviderType {
	case "ollama", "":
		return ollama.NewEmbedder(ollama.EmbedderConfig{
			BaseURL:    o.TargetURL,
			Model:      o.Model,
			Dimensions: int(o.Dimensions),
		})
	default:
		return nil, fmt.Errorf("%w: unsupported embedding provider: %s", errdefs.ErrConfiguration, o.ProviderType)
	}
}
