package router

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/iudanet/syncdb/internal/server/handlers"
	"github.com/iudanet/syncdb/internal/server/middleware"
	"github.com/iudanet/syncdb/internal/server/relay"
)

const (
	// SyncPath - websocket эндпоинт relay
	SyncPath = "/ws"
	// HealthPath - проверка состояния для балансировщиков
	HealthPath = "/api/v1/health"
)

// Limits задает ограничения на подключение клиентов
type Limits struct {
	// ConnectRate подключений к SyncPath с одного IP за ConnectWindow
	ConnectRate   int
	ConnectWindow time.Duration
	// DefaultRate запросов к остальным путям с одного IP за ConnectWindow
	DefaultRate int
	// MaxConnsPerIP одновременно открытых соединений с одного IP
	MaxConnsPerIP int
}

// DefaultLimits возвращает ограничения по умолчанию
func DefaultLimits() Limits {
	return Limits{
		ConnectRate:   30,
		ConnectWindow: time.Minute,
		DefaultRate:   120,
		MaxConnsPerIP: 32,
	}
}

// Router - HTTP роутер relay. Close останавливает фоновые goroutines
// ограничителей частоты.
type Router struct {
	http.Handler
	rateLimiter *middleware.PathRateLimiter
}

// New собирает HTTP роутер relay
func New(logger *slog.Logger, hub *relay.Hub, store handlers.HealthStore, version string, limits Limits) *Router {
	syncHandler := handlers.NewSyncHandler(logger, hub)
	healthHandler := handlers.NewHealthHandler(logger, store, hub, version)
	connLimiter := middleware.NewConnLimiter(limits.MaxConnsPerIP, logger)
	rateLimiter := middleware.NewPathRateLimiter(
		[]middleware.PathRateLimit{
			{Path: SyncPath, Rate: limits.ConnectRate, Window: limits.ConnectWindow},
		},
		limits.DefaultRate, limits.ConnectWindow, logger,
	)

	r := chi.NewRouter()

	r.Use(middleware.RecoveryMiddleware(logger))
	r.Use(middleware.LoggingWithSkip(logger, []string{HealthPath}))
	r.Use(rateLimiter.Middleware)

	r.With(connLimiter.Middleware).Get(SyncPath, syncHandler.HandleSync)
	r.Get(HealthPath, healthHandler.Health)

	return &Router{Handler: r, rateLimiter: rateLimiter}
}

// Close останавливает ограничители; повторный вызов безопасен
func (rt *Router) Close() {
	rt.rateLimiter.Stop()
}
