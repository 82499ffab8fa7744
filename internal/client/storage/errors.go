package storage

import "errors"

// Common client storage errors
var (
	// ErrRecordNotFound indicates that no record is stored for the key
	ErrRecordNotFound = errors.New("record not found")

	// ErrQueueEmpty indicates that the outgoing queue has no entries
	ErrQueueEmpty = errors.New("queue is empty")

	// ErrNodeIDNotFound indicates that replica identity has not been generated yet
	ErrNodeIDNotFound = errors.New("node id not found")

	// ErrStorageClosed indicates that storage is closed
	ErrStorageClosed = errors.New("storage is closed")
)
