// Package events delivers auth domain events (login attempts) to an
// external message broker. Delivery is best-effort: callers log and drop
// failures rather than blocking the request path.
package events

import (
	"context"
	"fmt"

	"github.com/techradar/apiserver/config"
)

// Publisher pushes an event payload to the named channel and returns the
// broker-assigned (or generated) message ID.
type Publisher interface {
	Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error)
	Close() error
}

// NewPublisher constructs the broker backend selected in config, or
// (nil, nil) when no backend is configured.
func NewPublisher(ctx context.Context, cfg config.MQConfig) (Publisher, error) {
	switch cfg.Backend {
	case config.MQBackendNone:
		return nil, nil
	case config.MQBackendRabbitMQ:
		return NewRabbitMQPublisher(cfg.RabbitMQ)
	case config.MQBackendPubSub:
		return NewPubSubPublisher(ctx, cfg.PubSub)
	default:
		return nil, fmt.Errorf("unknown mq backend %q", cfg.Backend)
	}
}
