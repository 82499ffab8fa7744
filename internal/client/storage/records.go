package storage

import (
	"context"

	"github.com/iudanet/syncdb/internal/models"
)

//go:generate moq -out recordstore_mock.go . RecordStore

// StoredRecord is one persisted entry as read back from disk.
// Err is set when the entry cannot be decoded (legacy or corrupted data);
// Record is zero in that case.
type StoredRecord struct {
	Err    error
	Key    string
	Record models.Record
}

// RecordStore defines durable storage of the replica's current records.
// It mirrors the in-memory register store 1:1, one record per key.
type RecordStore interface {
	// PutRecord stores the record under key, overwriting any previous one
	PutRecord(ctx context.Context, key string, record models.Record) error

	// GetRecord retrieves a record by key
	// Returns ErrRecordNotFound if nothing is stored for the key
	GetRecord(ctx context.Context, key string) (models.Record, error)

	// GetAllRecords returns every persisted entry, including undecodable ones
	// Used to seed the register store at startup
	GetAllRecords(ctx context.Context) ([]StoredRecord, error)
}
