package boltdb

import (
	"context"
	"encoding/binary"
	"fmt"

	"go.etcd.io/bbolt"

	"github.com/iudanet/syncdb/internal/client/storage"
)

// Append adds a message to the tail of the outgoing queue.
// Keys are big-endian bucket sequence numbers, so cursor order is FIFO order.
func (s *Storage) Append(ctx context.Context, message []byte) error {
	if s.isClosed() {
		return storage.ErrStorageClosed
	}

	err := s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketQueue)
		if bucket == nil {
			return fmt.Errorf("queue bucket not found")
		}

		seq, err := bucket.NextSequence()
		if err != nil {
			return fmt.Errorf("failed to allocate queue sequence: %w", err)
		}

		// Конвертируем sequence в bytes
		key := make([]byte, 8)
		binary.BigEndian.PutUint64(key, seq)

		if err := bucket.Put(key, message); err != nil {
			return fmt.Errorf("failed to append message: %w", err)
		}

		return nil
	})

	if err != nil {
		return fmt.Errorf("append transaction failed: %w", err)
	}

	return nil
}

// PeekOldest returns the oldest queued message without removing it
func (s *Storage) PeekOldest(ctx context.Context) ([]byte, error) {
	if s.isClosed() {
		return nil, storage.ErrStorageClosed
	}

	var message []byte

	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketQueue)
		if bucket == nil {
			return storage.ErrQueueEmpty
		}

		k, v := bucket.Cursor().First()
		if k == nil {
			return storage.ErrQueueEmpty
		}

		// Значение валидно только внутри транзакции - копируем
		message = make([]byte, len(v))
		copy(message, v)

		return nil
	})

	if err != nil {
		return nil, err
	}

	return message, nil
}

// RemoveOldest removes the oldest queued message
func (s *Storage) RemoveOldest(ctx context.Context) error {
	if s.isClosed() {
		return storage.ErrStorageClosed
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketQueue)
		if bucket == nil {
			return storage.ErrQueueEmpty
		}

		c := bucket.Cursor()
		k, _ := c.First()
		if k == nil {
			return storage.ErrQueueEmpty
		}

		if err := c.Delete(); err != nil {
			return fmt.Errorf("failed to remove message: %w", err)
		}

		return nil
	})
}

// Len returns the number of queued messages
func (s *Storage) Len(ctx context.Context) (int, error) {
	if s.isClosed() {
		return 0, storage.ErrStorageClosed
	}

	var n int

	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketQueue)
		if bucket == nil {
			return nil
		}
		n = bucket.Stats().KeyN
		return nil
	})

	if err != nil {
		return 0, fmt.Errorf("failed to count queue: %w", err)
	}

	return n, nil
}
