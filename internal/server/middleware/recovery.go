package middleware

import (
	"bufio"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"runtime/debug"
	"sync/atomic"

	"github.com/felixge/httpsnoop"
)

// RecoveryMiddleware создает middleware для восстановления после паники.
// Перехватывает panic, логирует стек вызовов и возвращает 500 Internal Server Error.
// Паника внутри websocket сессии закрывает только это соединение:
// ответ после hijack не пишется.
func RecoveryMiddleware(logger *slog.Logger) func(http.Handler) http.Handler {
	return recoverWith(logger, func(w http.ResponseWriter) {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	})
}

// RecoveryWithCustomError создает middleware с JSON ответом и заданным сообщением
func RecoveryWithCustomError(logger *slog.Logger, errorMessage string) func(http.Handler) http.Handler {
	body, _ := json.Marshal(map[string]string{"error": errorMessage})

	return recoverWith(logger, func(w http.ResponseWriter) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write(body)
	})
}

func recoverWith(logger *slog.Logger, respond func(http.ResponseWriter)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var hijacked atomic.Bool
			wrapped := httpsnoop.Wrap(w, httpsnoop.Hooks{
				Hijack: func(next httpsnoop.HijackFunc) httpsnoop.HijackFunc {
					return func() (net.Conn, *bufio.ReadWriter, error) {
						conn, rw, err := next()
						if err == nil {
							hijacked.Store(true)
						}
						return conn, rw, err
					}
				},
			})

			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				// ErrAbortHandler - штатный способ прервать ответ, его обрабатывает net/http
				if err, ok := rec.(error); ok && errors.Is(err, http.ErrAbortHandler) {
					panic(rec)
				}

				logger.Error("Panic recovered",
					"error", rec,
					"method", r.Method,
					"path", r.URL.Path,
					"remote_addr", r.RemoteAddr,
					"hijacked", hijacked.Load(),
					"stack", string(debug.Stack()),
				)

				if !hijacked.Load() {
					respond(w)
				}
			}()

			next.ServeHTTP(wrapped, r)
		})
	}
}
