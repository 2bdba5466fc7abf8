// Package eventstreamutils is the eventstream utility package
package eventstreamutils

import (
	"fmt"

	"github.com/papercomputeco/medibot/pkg/errdefs"
	"github.com/papercomputeco/medibot/pkg/eventstream"
	"github.com/papercomputeco/medibot/pkg/eventstream/kafka"
	"github.com/papercomputeco/medibot/pkg/eventstream/nop"
)

type NewPublisherOpts struct {
	ProviderType string
	Brokers      string
	Topic        string
}

func NewPublisher(o *NewPublisherOpts) (eventstream.Publisher, error) {
	switch o.ProviderType {
	case "", "nop":
		return nop.NewPublisher(), nil
	case "kafka":
		return kafka.NewPublisher(kafka.Config{
			Brokers: o.Brokers,
			Topic:   o.Topic,
		})
	default:
		return nil, fmt.Errorf("%w: unsupported events provider: %s", errdefs.ErrConfiguration, o.ProviderType)
	}
}
