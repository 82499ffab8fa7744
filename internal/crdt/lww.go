package crdt

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/iudanet/syncdb/internal/models"
)

// ErrInvalidUpdate сообщает о сообщении без обязательных полей.
var ErrInvalidUpdate = errors.New("invalid update")

// Store представляет набор LWW-регистров (Last-Write-Wins Register) по ключам.
// Для каждого ключа хранится ровно одна запись - победитель по правилу слияния.
// Слияние коммутативно, ассоциативно и идемпотентно, поэтому порядок
// и дублирование сообщений не влияют на итоговое состояние.
type Store struct {
	records   map[string]models.Record // map[key]record, включая tombstone
	clock     *Clock                   // источник timestamp для локальных записей
	nodeID    string                   // идентификатор этой реплики
	watermark int64                    // максимальный timestamp среди записей
	mu        sync.RWMutex             // мьютекс для потокобезопасности
}

// NewStore создает пустой Store для реплики nodeID с системными часами.
func NewStore(nodeID string) *Store {
	return NewStoreWithClock(nodeID, NewClock())
}

// NewStoreWithClock создает пустой Store с заданными часами.
func NewStoreWithClock(nodeID string, clock *Clock) *Store {
	return &Store{
		records: make(map[string]models.Record),
		clock:   clock,
		nodeID:  nodeID,
	}
}

// NodeID возвращает идентификатор реплики.
func (s *Store) NodeID() string {
	return s.nodeID
}

// Set создает новую версию ключа и безусловно устанавливает ее локально.
// Timestamp берется из часов, которые уже учли все виденные записи,
// поэтому локальная запись новее всего, что знает реплика.
// Значение nil или JSON null эквивалентно удалению.
func (s *Store) Set(key string, value json.RawMessage) models.Update {
	if len(value) == 0 {
		value = models.Tombstone
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	record := models.Record{
		Value:     value,
		OriginID:  s.nodeID,
		Timestamp: s.clock.Tick(),
	}
	s.install(key, record.Clone())

	return models.Update{Key: key, Record: record}
}

// Delete записывает tombstone для ключа.
func (s *Store) Delete(key string) models.Update {
	return s.Set(key, models.Tombstone)
}

// Merge применяет входящую запись по правилу LWW:
// 1. Если записи для ключа нет - входящая побеждает
// 2. Больший timestamp побеждает
// 3. При равных timestamp побеждает больший origin_id
// 4. Побайтово совпадающая запись ничего не меняет
// Возвращает true, если состояние изменилось.
func (s *Store) Merge(update models.Update) (bool, error) {
	if update.Key == "" {
		return false, fmt.Errorf("%w: empty key", ErrInvalidUpdate)
	}
	if update.Record.OriginID == "" {
		return false, fmt.Errorf("%w: empty origin_id for key %q", ErrInvalidUpdate, update.Key)
	}
	if !models.ValidTimestamp(update.Record.Timestamp) {
		return false, fmt.Errorf("%w: timestamp %d out of range for key %q", ErrInvalidUpdate, update.Record.Timestamp, update.Key)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.merge(update), nil
}

// merge выполняет слияние без блокировки и проверок
func (s *Store) merge(update models.Update) bool {
	s.clock.Observe(update.Record.Timestamp)

	existing, exists := s.records[update.Key]

	// Если записи нет - добавляем
	if !exists {
		s.install(update.Key, update.Record.Clone())
		return true
	}

	// Повторная доставка той же записи
	if existing.Equal(update.Record) {
		return false
	}

	// Если входящая версия новее - заменяем целиком
	if update.Record.IsNewerThan(existing) {
		s.install(update.Key, update.Record.Clone())
		return true
	}

	// Существующая версия новее - не обновляем
	return false
}

// install устанавливает запись и продвигает watermark; вызывается под блокировкой
func (s *Store) install(key string, record models.Record) {
	s.records[key] = record
	if record.Timestamp > s.watermark {
		s.watermark = record.Timestamp
	}
}

// LoadBulk заменяет состояние пакетом записей (например, с диска при старте).
// Состояние начинается с пустого, затем каждая запись сливается по порядку,
// поэтому дубликаты ключа внутри пакета разрешаются тем же правилом.
// Некорректные записи пропускаются, их ошибки возвращаются вместе.
func (s *Store) LoadBulk(updates []models.Update) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = make(map[string]models.Record, len(updates))
	s.watermark = 0

	var errs []error
	for _, update := range updates {
		if update.Key == "" || update.Record.OriginID == "" || !models.ValidTimestamp(update.Record.Timestamp) {
			errs = append(errs, fmt.Errorf("%w: key %q origin %q timestamp %d", ErrInvalidUpdate, update.Key, update.Record.OriginID, update.Record.Timestamp))
			continue
		}
		s.merge(update)
	}

	return errors.Join(errs...)
}

// Get возвращает текущую запись ключа, включая tombstone.
// Вызывающий сам решает, считать ли tombstone отсутствием значения.
func (s *Store) Get(key string) (models.Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, exists := s.records[key]
	if !exists {
		return models.Record{}, false
	}

	return record.Clone(), true
}

// State возвращает копию полного состояния, включая tombstone.
func (s *Store) State() map[string]models.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[string]models.Record, len(s.records))
	for key, record := range s.records {
		result[key] = record.Clone()
	}

	return result
}

// Keys возвращает отсортированный список ключей, включая удаленные.
func (s *Store) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.records))
	for key := range s.records {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	return keys
}

// Len возвращает общее количество ключей (включая удаленные).
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.records)
}

// Watermark возвращает максимальный timestamp среди хранимых записей.
func (s *Store) Watermark() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.watermark
}
