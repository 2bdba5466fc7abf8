package vector

import (
	"fmt"

	"github.com/papercomputeco/medibot/pkg/errdefs"
)

var (
	// ErrEmbedding is returned when embedding generation fails.
	ErrEmbedding = fmt.Errorf("%w: embedding failed", errdefs.ErrInference)

	// ErrConnection is returned when the vector store cannot be reached or
	// rejects a request.
	ErrConnection = fmt.Errorf("%w: vector store request failed", errdefs.ErrService)

	// ErrDimension is returned when an embedding does not match the index
	// dimension.
	ErrDimension = fmt.Errorf("%w: embedding dimension mismatch", errdefs.ErrInference)
)

// CheckDimensions returns ErrDimension when any entry's embedding length
// differs from dims. A zero dims disables the check.
func CheckDimensions(entries []Entry, dims int) error {
	if dims == 0 {
		return nil
	}
	for _, e := range entries {
		if len(e.Embedding) != dims {
			return fmt.Errorf("%w: entry %s has %d dimensions, index expects %d", ErrDimension, e.ID, len(e.Embedding), dims)
		}
	}
	return nil
}
