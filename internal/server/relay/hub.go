// Package relay реализует хаб синхронизации: хранит последнюю версию
// каждого ключа, отвечает на запросы догоняющей синхронизации
// и пересылает обновления всем остальным подключенным репликам.
package relay

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/iudanet/syncdb/internal/server/storage"
	"github.com/iudanet/syncdb/pkg/api"
)

// Settings задает лимиты соединений
type Settings struct {
	// SendBuffer - емкость очереди отправки одного соединения.
	// Рассылка, не поместившаяся в очередь, для этого соединения пропускается.
	SendBuffer     int
	MaxMessageSize int64
	WriteTimeout   time.Duration
	PongTimeout    time.Duration
	PingInterval   time.Duration
}

// DefaultSettings возвращает лимиты по умолчанию
func DefaultSettings() Settings {
	return Settings{
		SendBuffer:     256,
		MaxMessageSize: 1 << 20,
		WriteTimeout:   10 * time.Second,
		PongTimeout:    60 * time.Second,
		PingInterval:   25 * time.Second,
	}
}

// Hub хранит реестр соединений и обрабатывает их сообщения
type Hub struct {
	store    storage.RecordStore
	logger   *slog.Logger
	clients  map[uint64]*client
	settings Settings
	nextID   uint64
	mu       sync.RWMutex
}

// NewHub создает хаб поверх хранилища записей
func NewHub(store storage.RecordStore, settings Settings, logger *slog.Logger) *Hub {
	return &Hub{
		store:    store,
		logger:   logger,
		settings: settings,
		clients:  make(map[uint64]*client),
	}
}

// Serve обслуживает одно websocket соединение до его закрытия.
// При подключении клиенту ничего не отправляется: он сам запрашивает синхронизацию.
func (h *Hub) Serve(ctx context.Context, ws *websocket.Conn, remoteAddr string) {
	c := h.register(ws, remoteAddr)
	defer h.unregister(c)

	h.logger.Info("Client connected",
		"conn_id", c.id,
		"remote_addr", remoteAddr,
		"connections", h.Count())

	go c.writeLoop()
	c.readLoop(ctx, func(data []byte) {
		h.handleMessage(ctx, c, data)
	})
}

// Count возвращает число открытых соединений
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.clients)
}

// Close закрывает все соединения
func (h *Hub) Close() {
	h.mu.Lock()
	clients := make([]*client, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		c.close()
	}
}

func (h *Hub) register(ws *websocket.Conn, remoteAddr string) *client {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.nextID++
	c := newClient(h.nextID, ws, remoteAddr, h.settings, h.logger)
	h.clients[c.id] = c

	return c
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	delete(h.clients, c.id)
	remaining := len(h.clients)
	h.mu.Unlock()

	c.close()

	h.logger.Info("Client disconnected",
		"conn_id", c.id,
		"remote_addr", c.remoteAddr,
		"connections", remaining)
}

// handleMessage обрабатывает одно входящее сообщение:
// sync - отправляет записи новее since только запросившему,
// обновление - сохраняет и пересылает остальным без изменений.
func (h *Hub) handleMessage(ctx context.Context, from *client, data []byte) {
	msg, err := api.Decode(data)
	if err != nil {
		h.logger.Warn("Dropping malformed message",
			"conn_id", from.id,
			"error", err)
		return
	}

	if msg.IsSync() {
		h.handleSync(ctx, from, msg.Sync.Since)
		return
	}

	if err := h.store.Upsert(ctx, *msg.Update); err != nil {
		// Живые реплики все равно получат обновление
		h.logger.Error("Failed to store update",
			"conn_id", from.id,
			"key", msg.Update.Key,
			"error", err)
	}

	h.broadcast(from, data)
}

// handleSync отправляет запросившему все записи новее since по возрастанию timestamp
func (h *Hub) handleSync(ctx context.Context, to *client, since int64) {
	updates, err := h.store.GetSince(ctx, since)
	if err != nil {
		h.logger.Error("Failed to load records for catch-up",
			"conn_id", to.id,
			"since", since,
			"error", err)
		return
	}

	for _, update := range updates {
		data, err := api.EncodeUpdate(update)
		if err != nil {
			h.logger.Error("Failed to encode record", "key", update.Key, "error", err)
			continue
		}
		if !to.enqueue(ctx, data) {
			h.logger.Debug("Client gone during catch-up", "conn_id", to.id)
			return
		}
	}

	h.logger.Info("Catch-up sent",
		"conn_id", to.id,
		"since", since,
		"records", len(updates))
}

// broadcast пересылает сообщение всем соединениям, кроме отправителя.
// Доставка без гарантий: переполненная очередь соединения пропускается.
func (h *Hub) broadcast(from *client, data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for id, c := range h.clients {
		if from != nil && id == from.id {
			continue
		}
		if !c.tryEnqueue(data) {
			h.logger.Debug("Skipping slow client", "conn_id", id)
		}
	}
}
