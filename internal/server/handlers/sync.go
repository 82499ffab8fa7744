package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/iudanet/syncdb/internal/server/relay"
)

// SyncHandler принимает websocket соединения реплик и передает их хабу
type SyncHandler struct {
	logger   *slog.Logger
	hub      *relay.Hub
	upgrader websocket.Upgrader
}

// NewSyncHandler creates a new sync handler
func NewSyncHandler(logger *slog.Logger, hub *relay.Hub) *SyncHandler {
	return &SyncHandler{
		logger: logger,
		hub:    hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// Аутентификации нет, поэтому Origin не проверяем
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// HandleSync обрабатывает GET /ws
func (h *SyncHandler) HandleSync(w http.ResponseWriter, r *http.Request) {
	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade уже ответил клиенту ошибкой
		h.logger.Warn("Websocket upgrade failed",
			"remote_addr", r.RemoteAddr,
			"error", err)
		return
	}

	h.hub.Serve(r.Context(), ws, r.RemoteAddr)
}
