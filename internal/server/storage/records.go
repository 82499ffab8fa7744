package storage

import (
	"context"

	"github.com/iudanet/syncdb/internal/models"
)

//go:generate moq -out recordstore_mock.go . RecordStore

// RecordStore defines durable storage of the relay: one record per key
// plus a range query by timestamp for catch-up.
type RecordStore interface {
	// Upsert stores the update for its key. A later write replaces the stored
	// record in receipt order, no conflict resolution is performed.
	Upsert(ctx context.Context, update models.Update) error

	// GetSince returns every record with timestamp > since in ascending timestamp order
	GetSince(ctx context.Context, since int64) ([]models.Update, error)

	// GetRecord retrieves a record by key
	// Returns ErrRecordNotFound if nothing is stored for the key
	GetRecord(ctx context.Context, key string) (models.Record, error)

	// Count returns the number of stored keys, tombstones included
	Count(ctx context.Context) (int, error)

	// Ping checks that the storage is reachable
	Ping(ctx context.Context) error
}
