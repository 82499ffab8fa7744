package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"
)

// HealthStore - то, что health check проверяет в хранилище
type HealthStore interface {
	Ping(ctx context.Context) error
	Count(ctx context.Context) (int, error)
}

// ConnCounter сообщает число открытых соединений
type ConnCounter interface {
	Count() int
}

// HealthHandler обрабатывает health check запросы
type HealthHandler struct {
	logger  *slog.Logger
	store   HealthStore
	conns   ConnCounter
	version string
}

// NewHealthHandler создает новый handler для health check
func NewHealthHandler(logger *slog.Logger, store HealthStore, conns ConnCounter, version string) *HealthHandler {
	return &HealthHandler{
		logger:  logger,
		store:   store,
		conns:   conns,
		version: version,
	}
}

// HealthResponse представляет ответ health check
type HealthResponse struct {
	Status      string `json:"status"`
	Version     string `json:"version,omitempty"`
	Error       string `json:"error,omitempty"`
	Connections int    `json:"connections"`
	Records     int    `json:"records"`
}

// Health обрабатывает GET /api/v1/health
// Health check endpoint для мониторинга
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	resp := HealthResponse{
		Status:      "ok",
		Version:     h.version,
		Connections: h.conns.Count(),
	}
	status := http.StatusOK

	if err := h.store.Ping(ctx); err != nil {
		h.logger.Error("Health check: database unavailable", "error", err)
		resp.Status = "unavailable"
		resp.Error = "database unavailable"
		status = http.StatusServiceUnavailable
	} else if records, err := h.store.Count(ctx); err != nil {
		h.logger.Error("Health check: failed to count records", "error", err)
		resp.Status = "degraded"
		resp.Error = "failed to count records"
		status = http.StatusServiceUnavailable
	} else {
		resp.Records = records
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.logger.Error("failed to encode health response", slog.Any("error", err))
	}
}
