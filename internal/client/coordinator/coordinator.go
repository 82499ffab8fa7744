// Package coordinator связывает движок LWW-регистров, локальное хранилище
// и соединение с relay: сохраняет каждое изменение, отправляет его
// или ставит в очередь и догоняет пропущенное после переподключения.
package coordinator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/iudanet/syncdb/internal/client/storage"
	"github.com/iudanet/syncdb/internal/crdt"
	"github.com/iudanet/syncdb/internal/models"
	"github.com/iudanet/syncdb/internal/validation"
	"github.com/iudanet/syncdb/pkg/api"
)

// Settings задает параметры переподключения
type Settings struct {
	ReconnectBase time.Duration
	ReconnectMax  time.Duration
}

// DefaultSettings возвращает параметры по умолчанию
func DefaultSettings() Settings {
	return Settings{
		ReconnectBase: 500 * time.Millisecond,
		ReconnectMax:  30 * time.Second,
	}
}

// Coordinator - клиентская сторона синхронизации одной реплики
type Coordinator struct {
	engine   *crdt.Store
	records  storage.RecordStore
	queue    storage.Queue
	logger   *slog.Logger
	ready    chan struct{}
	changes  *observers[Change]
	statuses *observers[Status]

	// conn - текущее открытое соединение, nil в offline
	conn Conn

	settings Settings
	status   Status

	// syncWatermark - максимальный timestamp, полученный от других реплик.
	// Собственные записи его не двигают: иначе офлайн-запись скрыла бы
	// более старые записи других реплик, которых мы еще не видели.
	syncWatermark int64

	// mu сериализует изменение движка, запись на диск и отправку
	mu       sync.Mutex
	statusMu sync.Mutex
	loadOnce sync.Once
}

// New создает координатор поверх движка и локального хранилища
func New(engine *crdt.Store, records storage.RecordStore, queue storage.Queue, logger *slog.Logger) *Coordinator {
	return NewWithSettings(engine, records, queue, logger, DefaultSettings())
}

// NewWithSettings создает координатор с заданными параметрами переподключения
func NewWithSettings(engine *crdt.Store, records storage.RecordStore, queue storage.Queue, logger *slog.Logger, settings Settings) *Coordinator {
	return &Coordinator{
		engine:   engine,
		records:  records,
		queue:    queue,
		logger:   logger,
		settings: settings,
		status:   StatusOffline,
		ready:    make(chan struct{}),
		changes:  newObservers[Change](),
		statuses: newObservers[Status](),
	}
}

// NodeID возвращает идентификатор реплики
func (c *Coordinator) NodeID() string {
	return c.engine.NodeID()
}

// Load загружает все сохраненные записи в движок одним пакетом
// и переводит координатор в состояние готовности.
// Записи старого формата и нечитаемые записи пропускаются.
func (c *Coordinator) Load(ctx context.Context) error {
	if c.isReady() {
		return nil
	}

	entries, err := c.records.GetAllRecords(ctx)
	if err != nil {
		return fmt.Errorf("failed to load records: %w", err)
	}

	updates := make([]models.Update, 0, len(entries))
	for _, entry := range entries {
		if entry.Key == validation.LegacySnapshotKey {
			c.logger.Debug("Skipping legacy snapshot entry", "key", entry.Key)
			continue
		}
		if entry.Err != nil {
			c.logger.Warn("Skipping undecodable record", "key", entry.Key, "error", entry.Err)
			continue
		}
		updates = append(updates, models.Update{Key: entry.Key, Record: entry.Record})
	}

	c.mu.Lock()
	if err := c.engine.LoadBulk(updates); err != nil {
		c.logger.Warn("Some records were rejected on load", "error", err)
	}
	watermark := c.engine.Watermark()
	c.syncWatermark = 0
	for _, record := range c.engine.State() {
		c.observeRemoteLocked(record)
	}
	syncWatermark := c.syncWatermark
	c.mu.Unlock()

	c.loadOnce.Do(func() { close(c.ready) })

	c.logger.Info("Local state loaded",
		"records", c.engine.Len(),
		"skipped", len(entries)-len(updates),
		"watermark", watermark,
		"sync_watermark", syncWatermark)

	return nil
}

// Ready закрывается после успешного Load
func (c *Coordinator) Ready() <-chan struct{} {
	return c.ready
}

// WaitReady блокируется до готовности или отмены ctx
func (c *Coordinator) WaitReady(ctx context.Context) error {
	select {
	case <-c.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Coordinator) isReady() bool {
	select {
	case <-c.ready:
		return true
	default:
		return false
	}
}

// Set записывает значение ключа. JSON null удаляет ключ, пустое значение отклоняется.
// Изменение применяется в памяти, сохраняется на диск и отправляется в relay,
// а без соединения ставится в очередь. Ошибка записи на диск возвращается
// как ErrPersistence, но изменение остается примененным.
func (c *Coordinator) Set(ctx context.Context, key string, value json.RawMessage) error {
	if !c.isReady() {
		return ErrNotReady
	}
	if err := validation.ValidateKey(key); err != nil {
		return err
	}
	if len(value) == 0 {
		return fmt.Errorf("%w: key %q: empty value", ErrInvalidValue, key)
	}
	// Храним компактную форму, как она придет обратно от relay
	var buf bytes.Buffer
	if err := json.Compact(&buf, value); err != nil {
		return fmt.Errorf("%w: key %q", ErrInvalidValue, key)
	}
	value = buf.Bytes()

	return c.apply(ctx, key, value)
}

// Delete удаляет ключ, записывая tombstone
func (c *Coordinator) Delete(ctx context.Context, key string) error {
	if !c.isReady() {
		return ErrNotReady
	}
	if err := validation.ValidateKey(key); err != nil {
		return err
	}

	return c.apply(ctx, key, models.Tombstone)
}

// apply выполняет локальную запись: движок, диск, отправка или очередь
func (c *Coordinator) apply(ctx context.Context, key string, value json.RawMessage) error {
	c.mu.Lock()
	update := c.engine.Set(key, value)

	var errs []error
	if err := c.records.PutRecord(ctx, key, update.Record); err != nil {
		c.logger.Error("Failed to persist record", "key", key, "error", err)
		errs = append(errs, err)
	}
	if err := c.deliverLocked(ctx, update); err != nil {
		c.logger.Error("Failed to enqueue update", "key", key, "error", err)
		errs = append(errs, err)
	}
	c.mu.Unlock()

	c.changes.notify(changeOf(update, false))

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrPersistence, errors.Join(errs...))
	}
	return nil
}

// deliverLocked отправляет обновление в открытое соединение,
// а если соединения нет или отправка не удалась - добавляет в очередь.
// Вызывается под c.mu.
func (c *Coordinator) deliverLocked(ctx context.Context, update models.Update) error {
	data, err := api.EncodeUpdate(update)
	if err != nil {
		return fmt.Errorf("failed to encode update: %w", err)
	}

	if c.conn != nil {
		sendErr := c.conn.Send(ctx, data)
		if sendErr == nil {
			return nil
		}
		c.logger.Warn("Failed to send update, queueing", "key", update.Key, "error", sendErr)
		c.dropConnLocked(c.conn)
	}

	if err := c.queue.Append(ctx, data); err != nil {
		return fmt.Errorf("failed to append to queue: %w", err)
	}
	return nil
}

// Get возвращает значение ключа; удаленный ключ считается отсутствующим
func (c *Coordinator) Get(_ context.Context, key string) (json.RawMessage, bool, error) {
	if !c.isReady() {
		return nil, false, ErrNotReady
	}

	record, ok := c.engine.Get(key)
	if !ok || record.IsTombstone() {
		return nil, false, nil
	}
	return record.Value, true, nil
}

// All возвращает все живые значения
func (c *Coordinator) All(_ context.Context) (map[string]json.RawMessage, error) {
	if !c.isReady() {
		return nil, ErrNotReady
	}

	state := c.engine.State()
	result := make(map[string]json.RawMessage, len(state))
	for key, record := range state {
		if record.IsTombstone() {
			continue
		}
		result[key] = record.Value
	}
	return result, nil
}

// Keys возвращает отсортированные живые ключи
func (c *Coordinator) Keys(ctx context.Context) ([]string, error) {
	values, err := c.All(ctx)
	if err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys, nil
}

// State возвращает полное состояние вместе с tombstone
func (c *Coordinator) State(_ context.Context) (map[string]models.Record, error) {
	if !c.isReady() {
		return nil, ErrNotReady
	}
	return c.engine.State(), nil
}

// Watermark возвращает максимальный примененный timestamp
func (c *Coordinator) Watermark() int64 {
	return c.engine.Watermark()
}

// SyncWatermark возвращает since для следующего запроса синхронизации:
// максимальный timestamp записей других реплик
func (c *Coordinator) SyncWatermark() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.syncWatermark
}

// observeRemoteLocked учитывает запись другой реплики в syncWatermark.
// Вызывается под c.mu.
func (c *Coordinator) observeRemoteLocked(record models.Record) {
	if record.OriginID == c.engine.NodeID() {
		return
	}
	if record.Timestamp > c.syncWatermark {
		c.syncWatermark = record.Timestamp
	}
}

// PendingCount возвращает число неотправленных обновлений в очереди
func (c *Coordinator) PendingCount(ctx context.Context) (int, error) {
	n, err := c.queue.Len(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to get queue length: %w", err)
	}
	return n, nil
}

// Subscribe регистрирует обработчик изменений и возвращает функцию отписки.
// Обработчик вызывается синхронно в горутине, применившей изменение,
// вне внутренних блокировок, поэтому может вызывать методы координатора.
func (c *Coordinator) Subscribe(fn func(Change)) (unsubscribe func()) {
	return c.changes.add(fn)
}

// SubscribeStatus регистрирует обработчик смены статуса соединения
func (c *Coordinator) SubscribeStatus(fn func(Status)) (unsubscribe func()) {
	return c.statuses.add(fn)
}

// Status возвращает текущий статус соединения
func (c *Coordinator) Status() Status {
	c.statusMu.Lock()
	defer c.statusMu.Unlock()

	return c.status
}

// setStatus меняет статус и уведомляет подписчиков, если он изменился
func (c *Coordinator) setStatus(status Status) {
	c.transition(nil, status)
}

// transition меняет статус, только если текущий входит в from (nil - любой)
func (c *Coordinator) transition(from []Status, to Status) {
	c.statusMu.Lock()
	if c.status == to {
		c.statusMu.Unlock()
		return
	}
	if from != nil {
		allowed := false
		for _, s := range from {
			if c.status == s {
				allowed = true
				break
			}
		}
		if !allowed {
			c.statusMu.Unlock()
			return
		}
	}
	c.status = to
	c.statusMu.Unlock()

	c.logger.Debug("Connection status changed", "status", to)
	c.statuses.notify(to)
}

func changeOf(update models.Update, remote bool) Change {
	change := Change{
		Key:       update.Key,
		OriginID:  update.Record.OriginID,
		Timestamp: update.Record.Timestamp,
		Remote:    remote,
	}
	if update.Record.IsTombstone() {
		change.Removed = true
	} else {
		change.Value = update.Record.Value
	}
	return change
}
