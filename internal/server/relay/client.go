package relay

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// client - одно соединение реплики с relay.
// Читает один цикл, пишет другой; между ними ограниченная очередь send.
type client struct {
	ws         *websocket.Conn
	logger     *slog.Logger
	send       chan []byte
	done       chan struct{}
	remoteAddr string
	settings   Settings
	id         uint64
	closeOnce  sync.Once
}

func newClient(id uint64, ws *websocket.Conn, remoteAddr string, settings Settings, logger *slog.Logger) *client {
	return &client{
		id:         id,
		ws:         ws,
		remoteAddr: remoteAddr,
		settings:   settings,
		logger:     logger,
		send:       make(chan []byte, settings.SendBuffer),
		done:       make(chan struct{}),
	}
}

// tryEnqueue ставит сообщение в очередь без ожидания
func (c *client) tryEnqueue(data []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}

	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

// enqueue ждет места в очереди, пока соединение открыто
func (c *client) enqueue(ctx context.Context, data []byte) bool {
	select {
	case c.send <- data:
		return true
	case <-c.done:
		return false
	case <-ctx.Done():
		return false
	}
}

func (c *client) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		_ = c.ws.Close()
	})
}

// readLoop читает сообщения до ошибки соединения или отмены ctx
func (c *client) readLoop(ctx context.Context, handle func([]byte)) {
	stop := context.AfterFunc(ctx, c.close)
	defer stop()

	if c.settings.MaxMessageSize > 0 {
		c.ws.SetReadLimit(c.settings.MaxMessageSize)
	}
	if c.settings.PongTimeout > 0 {
		_ = c.ws.SetReadDeadline(time.Now().Add(c.settings.PongTimeout))
		c.ws.SetPongHandler(func(string) error {
			return c.ws.SetReadDeadline(time.Now().Add(c.settings.PongTimeout))
		})
	}

	for {
		msgType, data, err := c.ws.ReadMessage()
		if err != nil {
			var closeErr *websocket.CloseError
			if !errors.As(err, &closeErr) && !errors.Is(err, websocket.ErrCloseSent) {
				select {
				case <-c.done:
				default:
					c.logger.Debug("Read failed", "conn_id", c.id, "error", err)
				}
			}
			return
		}

		if c.settings.PongTimeout > 0 {
			_ = c.ws.SetReadDeadline(time.Now().Add(c.settings.PongTimeout))
		}

		if msgType != websocket.TextMessage && msgType != websocket.BinaryMessage {
			continue
		}
		handle(data)
	}
}

// writeLoop отправляет сообщения из очереди и ping до закрытия соединения
func (c *client) writeLoop() {
	var pings <-chan time.Time
	if c.settings.PingInterval > 0 {
		ticker := time.NewTicker(c.settings.PingInterval)
		defer ticker.Stop()
		pings = ticker.C
	}

	defer c.close()

	for {
		select {
		case <-c.done:
			return
		case data := <-c.send:
			c.setWriteDeadline()
			if err := c.ws.WriteMessage(websocket.TextMessage, data); err != nil {
				c.logger.Debug("Write failed", "conn_id", c.id, "error", err)
				return
			}
		case <-pings:
			if err := c.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(c.writeTimeout())); err != nil {
				c.logger.Debug("Ping failed", "conn_id", c.id, "error", err)
				return
			}
		}
	}
}

func (c *client) setWriteDeadline() {
	if c.settings.WriteTimeout > 0 {
		_ = c.ws.SetWriteDeadline(time.Now().Add(c.settings.WriteTimeout))
	}
}

func (c *client) writeTimeout() time.Duration {
	if c.settings.WriteTimeout > 0 {
		return c.settings.WriteTimeout
	}
	return time.Second
}
