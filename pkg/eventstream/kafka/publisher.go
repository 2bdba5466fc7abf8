// Package kafka publishes ingest events to a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/papercomputeco/medibot/pkg/errdefs"
	"github.com/papercomputeco/medibot/pkg/eventstream"
)

// DefaultTopic is the topic ingest events are written to.
const DefaultTopic = "medibot.ingest"

// Config holds configuration for the Kafka publisher.
type Config struct {
	// Brokers is a comma separated list of broker addresses.
	Brokers string

	// Topic defaults to DefaultTopic.
	Topic string
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher writes events as JSON messages keyed by index name, so events
// for one index keep their order within a partition.
type Publisher struct {
	writer messageWriter
}

// NewPublisher creates a Kafka-backed publisher.
func NewPublisher(c Config) (*Publisher, error) {
	var brokers []string
	for b := range strings.SplitSeq(c.Brokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	if len(brokers) == 0 {
		return nil, fmt.Errorf("%w: at least one kafka broker is required", errdefs.ErrConfiguration)
	}

	topic := c.Topic
	if topic == "" {
		topic = DefaultTopic
	}

	return &Publisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
			BatchTimeout: 50 * time.Millisecond,
		},
	}, nil
}

// PublishChunksIndexed writes one message per event.
func (p *Publisher) PublishChunksIndexed(ctx context.Context, event *eventstream.ChunksIndexedEvent) error {
	if event == nil {
		return eventstream.ErrNilChunksEvent
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshaling event: %w", err)
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.Index.Name),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.EventType)},
		},
	})
	if err != nil {
		return fmt.Errorf("%w: writing kafka message: %w", errdefs.ErrService, err)
	}
	return nil
}

// Close flushes pending writes and closes the writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}

var _ eventstream.Publisher = (*Publisher)(nil)
