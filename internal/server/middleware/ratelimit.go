package middleware

import (
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// RateLimiter ограничивает частоту запросов по ключу (обычно IP клиента).
// Токен-бакет с полным пополнением раз в window.
type RateLimiter struct {
	buckets  map[string]*bucket
	logger   *slog.Logger
	cleanupC chan struct{}
	rate     int
	window   time.Duration
	mu       sync.RWMutex
	stopOnce sync.Once
}

// bucket представляет bucket для конкретного IP/ключа
type bucket struct {
	lastRefill time.Time
	tokens     int
	mu         sync.Mutex
}

// NewRateLimiter создает новый rate limiter
// rate - максимальное количество запросов в окне
// window - временное окно (например, 1 минута)
func NewRateLimiter(rate int, window time.Duration, logger *slog.Logger) *RateLimiter {
	rl := &RateLimiter{
		buckets:  make(map[string]*bucket),
		rate:     rate,
		window:   window,
		logger:   logger,
		cleanupC: make(chan struct{}),
	}

	go rl.cleanup()

	return rl
}

// cleanup периодически удаляет неактивные buckets
func (rl *RateLimiter) cleanup() {
	ticker := time.NewTicker(rl.window * 2)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanupOldBuckets()
		case <-rl.cleanupC:
			return
		}
	}
}

// cleanupOldBuckets удаляет buckets, которые не использовались дольше двух окон
func (rl *RateLimiter) cleanupOldBuckets() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	for key, b := range rl.buckets {
		b.mu.Lock()
		if now.Sub(b.lastRefill) > rl.window*2 {
			delete(rl.buckets, key)
		}
		b.mu.Unlock()
	}
}

// Stop останавливает cleanup goroutine; повторный вызов безопасен
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() {
		close(rl.cleanupC)
	})
}

// Allow проверяет, разрешен ли запрос для данного ключа
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.RLock()
	b, exists := rl.buckets[key]
	rl.mu.RUnlock()

	if !exists {
		rl.mu.Lock()
		// Повторная проверка: bucket мог создать параллельный запрос
		b, exists = rl.buckets[key]
		if !exists {
			b = &bucket{
				tokens:     rl.rate,
				lastRefill: time.Now(),
			}
			rl.buckets[key] = b
		}
		rl.mu.Unlock()
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	now := time.Now()
	if now.Sub(b.lastRefill) >= rl.window {
		b.tokens = rl.rate
		b.lastRefill = now
	}

	if b.tokens > 0 {
		b.tokens--
		return true
	}

	return false
}

// retryAfter возвращает секунды до следующего пополнения для ключа
func (rl *RateLimiter) retryAfter(key string) int {
	rl.mu.RLock()
	b, exists := rl.buckets[key]
	rl.mu.RUnlock()
	if !exists {
		return 0
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	left := rl.window - time.Since(b.lastRefill)
	if left <= 0 {
		return 0
	}
	return int((left + time.Second - 1) / time.Second)
}

// Middleware ограничивает частоту запросов с одного IP.
// Для relay это прежде всего частота переподключений к /ws.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := getClientIP(r)
		if !rl.Allow(key) {
			rejectRateLimited(w, r, rl.logger, key, rl.retryAfter(key))
			return
		}

		next.ServeHTTP(w, r)
	})
}

// PathRateLimit задает отдельный лимит для пути
type PathRateLimit struct {
	Path   string
	Rate   int
	Window time.Duration
}

// PathRateLimiter применяет отдельный RateLimiter для каждого пути из списка
// и общий для остальных путей
type PathRateLimiter struct {
	limiters       map[string]*RateLimiter
	defaultLimiter *RateLimiter
	logger         *slog.Logger
}

// NewPathRateLimiter создает ограничитель с кастомными лимитами для путей.
// Владелец должен вызвать Stop, чтобы остановить cleanup goroutines.
func NewPathRateLimiter(limits []PathRateLimit, defaultRate int, defaultWindow time.Duration, logger *slog.Logger) *PathRateLimiter {
	limiters := make(map[string]*RateLimiter, len(limits))
	for _, limit := range limits {
		limiters[limit.Path] = NewRateLimiter(limit.Rate, limit.Window, logger)
	}

	return &PathRateLimiter{
		limiters:       limiters,
		defaultLimiter: NewRateLimiter(defaultRate, defaultWindow, logger),
		logger:         logger,
	}
}

// Middleware выбирает лимит по пути запроса
func (p *PathRateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		limiter, exists := p.limiters[r.URL.Path]
		if !exists {
			limiter = p.defaultLimiter
		}

		key := getClientIP(r)
		if !limiter.Allow(key) {
			rejectRateLimited(w, r, p.logger, key, limiter.retryAfter(key))
			return
		}

		next.ServeHTTP(w, r)
	})
}

// Stop останавливает все вложенные ограничители; повторный вызов безопасен
func (p *PathRateLimiter) Stop() {
	for _, limiter := range p.limiters {
		limiter.Stop()
	}
	p.defaultLimiter.Stop()
}

// ConnLimiter ограничивает число одновременных запросов с одного IP.
// Websocket сессия занимает слот, пока соединение открыто.
type ConnLimiter struct {
	active map[string]int
	logger *slog.Logger
	limit  int
	mu     sync.Mutex
}

// NewConnLimiter создает ограничитель одновременных соединений
func NewConnLimiter(limit int, logger *slog.Logger) *ConnLimiter {
	return &ConnLimiter{
		active: make(map[string]int),
		logger: logger,
		limit:  limit,
	}
}

// acquire занимает слот для ключа; false если лимит исчерпан
func (cl *ConnLimiter) acquire(key string) bool {
	cl.mu.Lock()
	defer cl.mu.Unlock()

	if cl.active[key] >= cl.limit {
		return false
	}
	cl.active[key]++
	return true
}

func (cl *ConnLimiter) release(key string) {
	cl.mu.Lock()
	defer cl.mu.Unlock()

	cl.active[key]--
	if cl.active[key] <= 0 {
		delete(cl.active, key)
	}
}

// Active возвращает число занятых слотов для ключа
func (cl *ConnLimiter) Active(key string) int {
	cl.mu.Lock()
	defer cl.mu.Unlock()

	return cl.active[key]
}

// Middleware отклоняет запрос с 429, если у IP уже limit открытых запросов
func (cl *ConnLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := getClientIP(r)
		if !cl.acquire(key) {
			cl.logger.Warn("Connection limit exceeded",
				"ip", key,
				"limit", cl.limit,
				"path", r.URL.Path,
			)
			writeTooManyRequests(w, 0, `{"error":"too many open connections"}`)
			return
		}
		defer cl.release(key)

		next.ServeHTTP(w, r)
	})
}

func rejectRateLimited(w http.ResponseWriter, r *http.Request, logger *slog.Logger, key string, retryAfter int) {
	logger.Warn("Rate limit exceeded",
		"ip", key,
		"method", r.Method,
		"path", r.URL.Path,
	)
	writeTooManyRequests(w, retryAfter, `{"error":"rate limit exceeded, please try again later"}`)
}

func writeTooManyRequests(w http.ResponseWriter, retryAfter int, body string) {
	w.Header().Set("Content-Type", "application/json")
	if retryAfter > 0 {
		w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
	}
	w.WriteHeader(http.StatusTooManyRequests)
	_, _ = w.Write([]byte(body))
}

// getClientIP извлекает IP адрес клиента из запроса.
// Проверяет заголовки X-Forwarded-For и X-Real-IP для прокси,
// иначе берет хост из RemoteAddr без порта, чтобы все соединения
// одного клиента попадали в один bucket.
func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		// Первый IP в списке - реальный клиент
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}

	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		return xri
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
