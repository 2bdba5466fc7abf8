package eventstream

import "context"

// Publisher publishes ingest events to an event stream backend.
type Publisher interface {
	PublishChunksIndexed(ctx context.Context, event *ChunksIndexedEvent) error
	Close() error
}
