package boltdb

import (
	"context"
	"fmt"

	"go.etcd.io/bbolt"

	"github.com/iudanet/syncdb/internal/client/storage"
)

const (
	keyNodeID = "node_id"
)

// SaveNodeID saves the replica identifier
func (s *Storage) SaveNodeID(ctx context.Context, nodeID string) error {
	if s.isClosed() {
		return storage.ErrStorageClosed
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketMetadata)
		if bucket == nil {
			return fmt.Errorf("metadata bucket not found")
		}

		if err := bucket.Put([]byte(keyNodeID), []byte(nodeID)); err != nil {
			return fmt.Errorf("failed to save node id: %w", err)
		}

		return nil
	})
}

// GetNodeID retrieves the replica identifier
// Returns storage.ErrNodeIDNotFound if it has not been generated yet
func (s *Storage) GetNodeID(ctx context.Context) (string, error) {
	if s.isClosed() {
		return "", storage.ErrStorageClosed
	}

	var nodeID string

	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketMetadata)
		if bucket == nil {
			return fmt.Errorf("metadata bucket not found")
		}

		value := bucket.Get([]byte(keyNodeID))
		if len(value) == 0 {
			return storage.ErrNodeIDNotFound
		}

		nodeID = string(value)
		return nil
	})

	if err != nil {
		return "", err
	}

	return nodeID, nil
}
