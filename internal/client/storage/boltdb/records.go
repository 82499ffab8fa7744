package boltdb

import (
	"context"
	"encoding/json"
	"fmt"

	"go.etcd.io/bbolt"

	"github.com/iudanet/syncdb/internal/client/storage"
	"github.com/iudanet/syncdb/internal/models"
)

// PutRecord stores or overwrites the record for key
func (s *Storage) PutRecord(ctx context.Context, key string, record models.Record) error {
	if s.isClosed() {
		return storage.ErrStorageClosed
	}

	// Сериализуем запись в JSON
	if record.Value == nil {
		record.Value = models.Tombstone
	}
	data, err := models.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}

	err = s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketRecords)
		if bucket == nil {
			return fmt.Errorf("records bucket not found")
		}

		// Сохраняем по ключу, перезаписывая предыдущую версию
		if err := bucket.Put([]byte(key), data); err != nil {
			return fmt.Errorf("failed to save record: %w", err)
		}

		return nil
	})

	if err != nil {
		return fmt.Errorf("transaction failed: %w", err)
	}

	return nil
}

// GetRecord retrieves a record by key
func (s *Storage) GetRecord(ctx context.Context, key string) (models.Record, error) {
	if s.isClosed() {
		return models.Record{}, storage.ErrStorageClosed
	}

	var record models.Record

	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketRecords)
		if bucket == nil {
			return storage.ErrRecordNotFound
		}

		data := bucket.Get([]byte(key))
		if data == nil {
			return storage.ErrRecordNotFound
		}

		// Десериализуем
		decoded, err := decodeRecord(data)
		if err != nil {
			return err
		}
		record = decoded

		return nil
	})

	if err != nil {
		return models.Record{}, err
	}

	return record, nil
}

// GetAllRecords returns every stored entry. Entries that cannot be decoded
// are returned with Err set so the caller can skip and report them.
func (s *Storage) GetAllRecords(ctx context.Context) ([]storage.StoredRecord, error) {
	if s.isClosed() {
		return nil, storage.ErrStorageClosed
	}

	var entries []storage.StoredRecord

	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketRecords)
		if bucket == nil {
			// Нет bucket - возвращаем пустой массив
			return nil
		}

		return bucket.ForEach(func(k, v []byte) error {
			entry := storage.StoredRecord{Key: string(k)}
			record, err := decodeRecord(v)
			if err != nil {
				entry.Err = err
			} else {
				entry.Record = record
			}
			entries = append(entries, entry)
			return nil
		})
	})

	if err != nil {
		return nil, fmt.Errorf("failed to get all records: %w", err)
	}

	return entries, nil
}

// decodeRecord разбирает сохраненную запись и копирует значение из памяти bbolt
func decodeRecord(data []byte) (models.Record, error) {
	var record models.Record
	if err := json.Unmarshal(data, &record); err != nil {
		return models.Record{}, fmt.Errorf("failed to unmarshal record: %w", err)
	}
	if record.OriginID == "" {
		return models.Record{}, fmt.Errorf("failed to unmarshal record: missing origin_id")
	}

	return record.Clone(), nil
}
