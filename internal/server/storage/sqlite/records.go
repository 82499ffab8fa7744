package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/iudanet/syncdb/internal/models"
	"github.com/iudanet/syncdb/internal/server/storage"
)

var _ storage.RecordStore = (*Storage)(nil)

// Upsert сохраняет запись по ключу.
// Более поздняя по получению запись физически заменяет хранимую без сравнения
// версий: разрешение конфликтов выполняют реплики.
func (s *Storage) Upsert(ctx context.Context, update models.Update) error {
	if update.Key == "" || update.Record.OriginID == "" {
		return fmt.Errorf("%w: key %q origin %q", storage.ErrInvalidRecord, update.Key, update.Record.OriginID)
	}

	value := update.Record.Value
	if len(value) == 0 {
		value = models.Tombstone
	}

	query := `
		INSERT INTO records (key, value, timestamp, origin_id, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			timestamp = excluded.timestamp,
			origin_id = excluded.origin_id,
			updated_at = excluded.updated_at
	`

	_, err := s.db.ExecContext(ctx, query,
		update.Key,
		string(value),
		update.Record.Timestamp,
		update.Record.OriginID,
		time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert record: %w", err)
	}

	return nil
}

// GetSince возвращает записи с timestamp > since по возрастанию timestamp.
// Результат читается целиком, чтобы не держать единственное соединение с БД,
// пока записи отправляются медленному клиенту.
func (s *Storage) GetSince(ctx context.Context, since int64) ([]models.Update, error) {
	query := `
		SELECT key, value, timestamp, origin_id
		FROM records
		WHERE timestamp > ?
		ORDER BY timestamp ASC, key ASC
	`

	rows, err := s.db.QueryContext(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer rows.Close()

	updates := make([]models.Update, 0)
	for rows.Next() {
		var update models.Update
		var value string

		if err := rows.Scan(&update.Key, &value, &update.Record.Timestamp, &update.Record.OriginID); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		update.Record.Value = []byte(value)
		updates = append(updates, update)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate records: %w", err)
	}

	return updates, nil
}

// GetRecord возвращает запись по ключу
func (s *Storage) GetRecord(ctx context.Context, key string) (models.Record, error) {
	query := `SELECT value, timestamp, origin_id FROM records WHERE key = ?`

	var record models.Record
	var value string

	err := s.db.QueryRowContext(ctx, query, key).Scan(&value, &record.Timestamp, &record.OriginID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Record{}, storage.ErrRecordNotFound
		}
		return models.Record{}, fmt.Errorf("failed to get record: %w", err)
	}
	record.Value = []byte(value)

	return record, nil
}

// Count возвращает количество ключей, включая удаленные
func (s *Storage) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM records`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count records: %w", err)
	}
	return count, nil
}
