package pubsub

import (
	"context"
)

// Message is the envelope passed between components on the bus.
type Message struct {
	// Topic is the channel the message belongs to (e.g. "battle.event.hp").
	Topic string
	// UserID is the player the message concerns. Empty means every player.
	UserID string
	// Payload is the raw message body, usually JSON.
	Payload []byte
	// Metadata carries extra context such as the request id.
	Metadata map[string]string
}

// Handler processes a received message.
type Handler func(ctx context.Context, msg Message) error

// Publisher sends messages to the bus.
type Publisher interface {
	Publish(ctx context.Context, msg Message) error
	Close() error
}

// Subscriber receives messages from the bus.
type Subscriber interface {
	// Subscribe starts consuming topic in the background and returns once the
	// subscription is active. Consumption stops when ctx is cancelled.
	Subscribe(ctx context.Context, topic string, handler Handler) error
	Close() error
}
