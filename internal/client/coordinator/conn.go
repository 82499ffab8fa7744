package coordinator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/iudanet/syncdb/internal/client/storage"
	"github.com/iudanet/syncdb/pkg/api"
)

// Conn - открытое двустороннее соединение с relay, один кадр - одно сообщение
type Conn interface {
	// Send отправляет сообщение; ошибка означает, что relay его не принял
	Send(ctx context.Context, msg []byte) error

	// Receive блокируется до следующего сообщения или ошибки соединения
	Receive(ctx context.Context) ([]byte, error)

	// Close закрывает соединение; повторный вызов безопасен
	Close() error
}

// Dialer открывает соединения с relay
type Dialer interface {
	Dial(ctx context.Context) (Conn, error)
}

// SyncResult содержит итоги одной сессии синхронизации
type SyncResult struct {
	PushedEntries   int // отправлено из очереди
	ReceivedEntries int // получено сообщений от relay
	MergedEntries   int // изменили локальное состояние
	SkippedEntries  int // отброшено (ошибки декодирования и слияния)
}

// Run поддерживает соединение с relay до отмены ctx.
// Дожидается Load, подключается, догоняет пропущенное и отправляет очередь,
// затем применяет входящие сообщения. После обрыва переподключается
// с экспоненциальной задержкой.
func (c *Coordinator) Run(ctx context.Context, dialer Dialer) error {
	select {
	case <-c.ready:
	case <-ctx.Done():
		return nil
	}

	backoff := c.newBackoff()
	for {
		connected, err := c.session(ctx, dialer)
		if ctx.Err() != nil {
			return nil
		}
		if connected {
			// После удачного подключения начинаем задержки заново
			backoff = c.newBackoff()
		}

		delay, _ := backoff.Next()
		c.logger.Info("Relay connection lost, reconnecting",
			"error", err,
			"delay", delay)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		}
	}
}

func (c *Coordinator) newBackoff() retry.Backoff {
	b := retry.NewExponential(c.settings.ReconnectBase)
	b = retry.WithCappedDuration(c.settings.ReconnectMax, b)
	return retry.WithJitterPercent(10, b)
}

// session обслуживает одно соединение до его закрытия.
// connected сообщает, было ли соединение установлено.
func (c *Coordinator) session(ctx context.Context, dialer Dialer) (connected bool, err error) {
	conn, err := dialer.Dial(ctx)
	if err != nil {
		return false, err
	}
	defer c.closeConn(conn)

	if _, err := c.open(ctx, conn); err != nil {
		return true, err
	}

	for {
		data, err := conn.Receive(ctx)
		if err != nil {
			return true, err
		}
		_, _ = c.applyMessage(ctx, data)
	}
}

// SyncOnce подключается, догоняет пропущенное, отправляет очередь
// и отключается, когда relay молчит дольше idle.
func (c *Coordinator) SyncOnce(ctx context.Context, dialer Dialer, idle time.Duration) (*SyncResult, error) {
	if !c.isReady() {
		return nil, ErrNotReady
	}

	conn, err := dialer.Dial(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}
	defer c.closeConn(conn)

	result := &SyncResult{}
	result.PushedEntries, err = c.open(ctx, conn)
	if err != nil {
		return result, err
	}

	for {
		recvCtx, cancel := context.WithTimeout(ctx, idle)
		data, err := conn.Receive(recvCtx)
		cancel()
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
				break
			}
			return result, fmt.Errorf("connection lost: %w", err)
		}

		result.ReceivedEntries++
		changed, err := c.applyMessage(ctx, data)
		switch {
		case err != nil:
			result.SkippedEntries++
		case changed:
			result.MergedEntries++
		}
	}

	c.logger.Info("Synchronization completed",
		"pushed", result.PushedEntries,
		"received", result.ReceivedEntries,
		"merged", result.MergedEntries,
		"skipped", result.SkippedEntries)

	return result, nil
}

// open переводит координатор в online: отправляет запрос догоняющей
// синхронизации с syncWatermark и разгружает очередь.
// Возвращает число отправленных из очереди сообщений.
func (c *Coordinator) open(ctx context.Context, conn Conn) (int, error) {
	c.setStatus(StatusOnline)

	c.mu.Lock()
	since := c.syncWatermark
	req, err := api.EncodeSyncRequest(since)
	if err != nil {
		c.mu.Unlock()
		return 0, fmt.Errorf("failed to encode sync request: %w", err)
	}
	if err := conn.Send(ctx, req); err != nil {
		c.mu.Unlock()
		return 0, fmt.Errorf("failed to send sync request: %w", err)
	}
	c.conn = conn
	c.mu.Unlock()

	c.logger.Info("Connected to relay", "since", since)

	pushed, err := c.drainQueue(ctx, conn)
	if pushed > 0 {
		c.logger.Info("Pending updates delivered", "count", pushed)
	}
	return pushed, err
}

// drainQueue отправляет очередь по порядку, пока соединение открыто.
// Сообщение удаляется только после успешной отправки, поэтому
// прерванная разгрузка продолжается с головы очереди при следующем подключении.
func (c *Coordinator) drainQueue(ctx context.Context, conn Conn) (int, error) {
	pushed := 0
	for {
		done, err := c.drainOne(ctx, conn)
		if err != nil {
			return pushed, err
		}
		if done {
			return pushed, nil
		}
		pushed++
	}
}

func (c *Coordinator) drainOne(ctx context.Context, conn Conn) (done bool, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	// Соединение уже закрыто
	if c.conn != conn {
		return true, nil
	}

	msg, err := c.queue.PeekOldest(ctx)
	if errors.Is(err, storage.ErrQueueEmpty) {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read queue: %w", err)
	}

	if err := conn.Send(ctx, msg); err != nil {
		c.dropConnLocked(conn)
		return false, fmt.Errorf("failed to send queued update: %w", err)
	}

	if err := c.queue.RemoveOldest(ctx); err != nil {
		// Сообщение уйдет повторно, слияние идемпотентно
		return false, fmt.Errorf("failed to remove queued update: %w", err)
	}

	return false, nil
}

// closeConn отсоединяет соединение и переводит координатор в offline
func (c *Coordinator) closeConn(conn Conn) {
	c.mu.Lock()
	c.dropConnLocked(conn)
	c.mu.Unlock()

	c.setStatus(StatusOffline)
}

// dropConnLocked закрывает соединение и забывает его, если оно текущее.
// Вызывается под c.mu.
func (c *Coordinator) dropConnLocked(conn Conn) {
	if c.conn == conn {
		c.conn = nil
	}
	_ = conn.Close()
}

// HandleMessage применяет одно сообщение от relay.
// Некорректные сообщения логируются и отбрасываются.
func (c *Coordinator) HandleMessage(ctx context.Context, data []byte) {
	if !c.isReady() {
		c.logger.Warn("Dropping message received before load")
		return
	}
	_, _ = c.applyMessage(ctx, data)
}

// applyMessage декодирует и сливает входящее обновление.
// Ошибка означает, что сообщение отброшено.
func (c *Coordinator) applyMessage(ctx context.Context, data []byte) (bool, error) {
	msg, err := api.Decode(data)
	if err != nil {
		c.logger.Warn("Dropping malformed message", "error", err)
		return false, err
	}
	if msg.IsSync() {
		c.logger.Debug("Ignoring sync request from relay")
		return false, nil
	}

	c.transition([]Status{StatusOnline}, StatusSyncing)
	defer c.transition([]Status{StatusSyncing}, StatusOnline)

	update := *msg.Update

	c.mu.Lock()
	changed, err := c.engine.Merge(update)
	if err != nil {
		c.mu.Unlock()
		c.logger.Warn("Dropping invalid update", "key", update.Key, "error", err)
		return false, err
	}
	c.observeRemoteLocked(update.Record)
	if changed {
		if err := c.records.PutRecord(ctx, update.Key, update.Record); err != nil {
			c.logger.Error("Failed to persist merged record", "key", update.Key, "error", err)
		}
	}
	c.mu.Unlock()

	if changed {
		c.logger.Debug("Merged remote update",
			"key", update.Key,
			"origin_id", update.Record.OriginID,
			"timestamp", update.Record.Timestamp)
		c.changes.notify(changeOf(update, true))
	}

	return changed, nil
}
