package storage

import "errors"

// Common storage errors
var (
	// ErrRecordNotFound indicates that no record is stored for the key
	ErrRecordNotFound = errors.New("record not found")

	// ErrInvalidRecord indicates that an update lacks required fields
	ErrInvalidRecord = errors.New("invalid record")
)
