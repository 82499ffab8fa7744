package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/iudanet/syncdb/internal/client/coordinator"
)

// DefaultPath путь websocket-эндпоинта relay
const DefaultPath = "/ws"

// ErrConnClosed возвращается при отправке в закрытое соединение
var ErrConnClosed = errors.New("connection closed")

// Settings содержит таймауты транспорта
type Settings struct {
	HandshakeTimeout time.Duration
	WriteTimeout     time.Duration
	// PongTimeout - сколько ждать любого кадра от relay, прежде чем считать соединение зависшим
	PongTimeout  time.Duration
	PingInterval time.Duration
}

// DefaultSettings возвращает таймауты по умолчанию
func DefaultSettings() Settings {
	return Settings{
		HandshakeTimeout: 10 * time.Second,
		WriteTimeout:     10 * time.Second,
		PongTimeout:      60 * time.Second,
		PingInterval:     20 * time.Second,
	}
}

// Client устанавливает websocket соединения с relay.
// Реализует coordinator.Dialer.
type Client struct {
	dialer   *websocket.Dialer
	url      string
	settings Settings
}

var _ coordinator.Dialer = (*Client)(nil)

// NewClient создает клиент для адреса relay.
// Принимает http(s):// и ws(s):// адреса; если путь не указан, используется DefaultPath.
func NewClient(serverURL string, settings Settings) (*Client, error) {
	wsURL, err := normalizeURL(serverURL)
	if err != nil {
		return nil, err
	}

	return &Client{
		url:      wsURL,
		settings: settings,
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: settings.HandshakeTimeout,
		},
	}, nil
}

// URL возвращает итоговый websocket адрес
func (c *Client) URL() string {
	return c.url
}

// Dial открывает новое соединение
func (c *Client) Dial(ctx context.Context) (coordinator.Conn, error) {
	ws, resp, err := c.dialer.DialContext(ctx, c.url, nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("failed to dial %s: %w (status %d)", c.url, err, resp.StatusCode)
		}
		return nil, fmt.Errorf("failed to dial %s: %w", c.url, err)
	}

	return newConn(ws, c.settings), nil
}

// normalizeURL приводит адрес сервера к ws(s):// с путем
func normalizeURL(serverURL string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(serverURL))
	if err != nil {
		return "", fmt.Errorf("invalid server url %q: %w", serverURL, err)
	}

	switch u.Scheme {
	case "ws", "wss":
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("invalid server url %q: unsupported scheme %q", serverURL, u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("invalid server url %q: empty host", serverURL)
	}
	if u.Path == "" || u.Path == "/" {
		u.Path = DefaultPath
	}

	return u.String(), nil
}

// Conn - одно открытое websocket соединение.
// Запись сериализуется мьютексом, чтение выполняет один потребитель.
type Conn struct {
	ws        *websocket.Conn
	done      chan struct{}
	settings  Settings
	writeMu   sync.Mutex
	closeOnce sync.Once
}

func newConn(ws *websocket.Conn, settings Settings) *Conn {
	c := &Conn{
		ws:       ws,
		settings: settings,
		done:     make(chan struct{}),
	}

	if settings.PongTimeout > 0 {
		_ = ws.SetReadDeadline(time.Now().Add(settings.PongTimeout))
		ws.SetPongHandler(func(string) error {
			return ws.SetReadDeadline(time.Now().Add(settings.PongTimeout))
		})
	}
	if settings.PingInterval > 0 {
		go c.keepalive()
	}

	return c
}

// Send отправляет одно сообщение текстовым кадром
func (c *Conn) Send(ctx context.Context, msg []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	select {
	case <-c.done:
		return ErrConnClosed
	default:
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if c.settings.WriteTimeout > 0 {
		_ = c.ws.SetWriteDeadline(time.Now().Add(c.settings.WriteTimeout))
	}
	if err := c.ws.WriteMessage(websocket.TextMessage, msg); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}

	return nil
}

// Receive блокируется до следующего сообщения.
// Отмена ctx закрывает соединение.
func (c *Conn) Receive(ctx context.Context) ([]byte, error) {
	stop := context.AfterFunc(ctx, func() {
		_ = c.Close()
	})
	defer stop()

	for {
		msgType, data, err := c.ws.ReadMessage()
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			return nil, fmt.Errorf("failed to read message: %w", err)
		}

		// Продлеваем дедлайн на любой входящий кадр
		if c.settings.PongTimeout > 0 {
			_ = c.ws.SetReadDeadline(time.Now().Add(c.settings.PongTimeout))
		}

		if msgType == websocket.TextMessage || msgType == websocket.BinaryMessage {
			return data, nil
		}
	}
}

// Close закрывает соединение; повторный вызов безопасен
func (c *Conn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)

		// WriteControl можно вызывать параллельно с WriteMessage
		_ = c.ws.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second),
		)

		err = c.ws.Close()
	})
	return err
}

// keepalive периодически отправляет ping, пока соединение открыто
func (c *Conn) keepalive() {
	ticker := time.NewTicker(c.settings.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			err := c.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(c.controlTimeout()))
			if err != nil {
				_ = c.Close()
				return
			}
		}
	}
}

func (c *Conn) controlTimeout() time.Duration {
	if c.settings.WriteTimeout > 0 {
		return c.settings.WriteTimeout
	}
	return time.Second
}
