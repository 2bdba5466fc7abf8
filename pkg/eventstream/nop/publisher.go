package nop

import (
	"context"

	"github.com/papercomputeco/medibot/pkg/eventstream"
)

// Publisher is a no-op eventstream publisher used for tests and disabled mode.
type Publisher struct{}

// NewPublisher creates a new no-op eventstream publisher.
func NewPublisher() *Publisher {
	return &Publisher{}
}

// PublishChunksIndexed validates input and otherwise does nothing.
func (p *Publisher) PublishChunksIndexed(_ context.Context, event *eventstream.ChunksIndexedEvent) error {
	if event == nil {
		return eventstream.ErrNilChunksEvent
	}

	return nil
}

// Close is a no-op.
func (p *Publisher) Close() error {
	return nil
}
