package storage

import "context"

//go:generate moq -out queue_mock.go . Queue

// Queue defines a durable FIFO of encoded update messages not yet delivered to the relay
type Queue interface {
	// Append adds a message to the tail of the queue
	Append(ctx context.Context, message []byte) error

	// PeekOldest returns the head of the queue without removing it
	// Returns ErrQueueEmpty if there is nothing to send
	PeekOldest(ctx context.Context) ([]byte, error)

	// RemoveOldest removes the head of the queue
	// Must be called only after the message was accepted by the transport
	RemoveOldest(ctx context.Context) error

	// Len returns the number of pending messages
	Len(ctx context.Context) (int, error)
}
