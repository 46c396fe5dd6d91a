package messaging

import (
	"context"
)

// Broker defines the interface for message brokers. Publish is
// fire-and-forget from the caller's point of view: queue mutations
// must not fail because eventing is unavailable.
type Broker interface {
	Publish(ctx context.Context, channel string, message interface{}) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
	Close() error
}

type Message struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}
