package middleware

import (
	"bufio"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/felixge/httpsnoop"
)

// requestMetrics - то, что логируется по каждому запросу
type requestMetrics struct {
	duration time.Duration
	written  int64
	code     int
	hijacked bool
}

// captureMetrics выполняет next, оборачивая ResponseWriter через httpsnoop.
// Обертка сохраняет http.Hijacker и другие интерфейсы исходного writer,
// поэтому websocket upgrade работает; захваченное соединение логируется как 101.
func captureMetrics(next http.Handler, w http.ResponseWriter, r *http.Request) requestMetrics {
	m := requestMetrics{code: http.StatusOK}
	headerWritten := false

	hooks := httpsnoop.Hooks{
		WriteHeader: func(next httpsnoop.WriteHeaderFunc) httpsnoop.WriteHeaderFunc {
			return func(code int) {
				next(code)
				if !headerWritten {
					m.code = code
					headerWritten = true
				}
			}
		},
		Write: func(next httpsnoop.WriteFunc) httpsnoop.WriteFunc {
			return func(p []byte) (int, error) {
				n, err := next(p)
				m.written += int64(n)
				headerWritten = true
				return n, err
			}
		},
		ReadFrom: func(next httpsnoop.ReadFromFunc) httpsnoop.ReadFromFunc {
			return func(src io.Reader) (int64, error) {
				n, err := next(src)
				m.written += n
				headerWritten = true
				return n, err
			}
		},
		Hijack: func(next httpsnoop.HijackFunc) httpsnoop.HijackFunc {
			return func() (net.Conn, *bufio.ReadWriter, error) {
				conn, rw, err := next()
				if err == nil {
					m.hijacked = true
					m.code = http.StatusSwitchingProtocols
					headerWritten = true
				}
				return conn, rw, err
			}
		},
	}

	start := time.Now()
	next.ServeHTTP(httpsnoop.Wrap(w, hooks), r)
	m.duration = time.Since(start)

	return m
}

// LoggingMiddleware создает middleware для логирования HTTP запросов
// Логирует метод, путь, статус, время выполнения, размер ответа.
// Для websocket запись появляется после закрытия соединения,
// а длительность равна времени сессии.
func LoggingMiddleware(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			m := captureMetrics(next, w, r)

			// Определяем уровень логирования на основе статуса
			logLevel := slog.LevelInfo
			if m.code >= 500 {
				logLevel = slog.LevelError
			} else if m.code >= 400 {
				logLevel = slog.LevelWarn
			}

			logger.Log(r.Context(), logLevel, "HTTP request",
				"method", r.Method,
				"path", r.URL.Path,
				"remote_addr", r.RemoteAddr,
				"user_agent", r.UserAgent(),
				"status", m.code,
				"duration_ms", m.duration.Milliseconds(),
				"bytes_written", m.written,
				"hijacked", m.hijacked,
			)
		})
	}
}

// LoggingWithSkip создает middleware с возможностью пропуска определенных путей
// Полезно для health checks и других эндпоинтов с высокой частотой запросов
func LoggingWithSkip(logger *slog.Logger, skipPaths []string) func(http.Handler) http.Handler {
	skipMap := make(map[string]bool)
	for _, path := range skipPaths {
		skipMap[path] = true
	}

	return func(next http.Handler) http.Handler {
		logged := LoggingMiddleware(logger)(next)

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Проверяем, нужно ли пропустить логирование
			if skipMap[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			logged.ServeHTTP(w, r)
		})
	}
}
