// Package vectorutils is the vector driver utility package
package vectorutils

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/papercomputeco/medibot/pkg/errdefs"
	"github.com/papercomputeco/medibot/pkg/vector"
	"github.com/papercomputeco/medibot/pkg/vector/chroma"
	"github.com/papercomputeco/medibot/pkg/vector/memory"
	"github.com/papercomputeco/medibot/pkg/vector/pgvector"
	"github.com/papercomputeco/medibot/pkg/vector/pinecone"
	"github.com/papercomputeco/medibot/pkg/vector/qdrant"
	"github.com/papercomputeco/medibot/pkg/vector/retry"
	"github.com/papercomputeco/medibot/pkg/vector/sqlitevec"
)

// Providers lists the supported vector store provider names.
var Providers = []string{"pinecone", "qdrant", "chroma", "sqlite", "pgvector", "memory"}

type NewVectorDriverOpts struct {
	ProviderType string

	// Target is the provider address: a Qdrant host:port, a Chroma URL, a
	// PostgreSQL DSN, or a SQLite database path. For Pinecone it overrides
	// the control plane URL when set.
	Target string

	APIKey     string
	Index      string
	Cloud      string
	Region     string
	Dimensions uint

	// Retry, when true, wraps remote drivers with retry.Wrap.
	Retry bool

	Logger *slog.Logger
}

// NewVectorDriver builds the driver named by o.ProviderType.
func NewVectorDriver(ctx context.Context, o *NewVectorDriverOpts) (vector.Driver, error) {
	var (
		d   vector.Driver
		err error
	)

	switch o.ProviderType {
	case "pinecone":
		d, err = pinecone.NewDriver(pinecone.Config{
			APIKey:     o.APIKey,
			Index:      o.Index,
			Dimensions: o.Dimensions,
			Cloud:      o.Cloud,
			Region:     o.Region,
			Host:       o.Target,
		}, o.Logger)

	case "qdrant":
		d, err = qdrant.NewDriver(qdrant.Config{
			Target:     o.Target,
			APIKey:     o.APIKey,
			Collection: o.Index,
			Dimensions: o.Dimensions,
		}, o.Logger)

	case "chroma":
		d, err = chroma.NewDriver(chroma.Config{
			URL:            o.Target,
			CollectionName: o.Index,
			Dimensions:     int(o.Dimensions),
		}, o.Logger)

	case "pgvector":
		d, err = pgvector.NewDriver(ctx, pgvector.Config{
			DSN:        o.Target,
			Table:      pgvector.TableName(o.Index),
			Dimensions: o.Dimensions,
		}, o.Logger)

	case "sqlite":
		return sqlitevec.NewDriver(sqlitevec.Config{
			DBPath:     o.Target,
			Dimensions: o.Dimensions,
		}, o.Logger)

	case "memory":
		return memory.NewDriver(int(o.Dimensions)), nil

	default:
		return nil, fmt.Errorf("%w: unsupported vector store provider: %s", errdefs.ErrConfiguration, o.ProviderType)
	}

	if err != nil {
		return nil, err
	}
	if o.Retry {
		d = retry.Wrap(d, retry.Options{Logger: o.Logger})
	}
	return d, nil
}
