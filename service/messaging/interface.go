// Package messaging abstracts the queues the engine publishes to: apply
// changes on their way to the sink and importance events on their way to
// listeners.  Implementations live in sub packages and are selected by
// vendor name.
package messaging

import (
	"context"
)

// Vendor names a queue implementation.
type Vendor string

// Queue is an abstract message queue for any payload type.
type Queue[T any] interface {
	// Publish adds a new message with payload to the queue.
	Publish(ctx context.Context, t *T) error

	// Consume retrieves a single message from the queue.
	Consume(ctx context.Context) (Message[T], error)
}

// Message is one consumed queue entry.
type Message[T any] interface {
	// T returns the payload of this message.
	T() *T

	// Ack acknowledges successful processing of this message.
	Ack() error

	// Nack indicates failure in processing this message.
	Nack(err error) error
}
