package gateway

import (
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/iudanet/gophboard/pkg/api"
)

const (
	// writeWait максимальное время записи одного сообщения
	writeWait = 10 * time.Second
	// pongWait максимальное время ожидания pong от клиента
	pongWait = 60 * time.Second
	// pingPeriod период отправки ping; должен быть меньше pongWait
	pingPeriod = (pongWait * 9) / 10
	// maxMessageSize лимит размера входящего сообщения в байтах
	maxMessageSize = 64 * 1024
	// sendBufferSize емкость исходящей очереди соединения
	sendBufferSize = 64
)

// client одно живое websocket-соединение.
// Все записи в сокет идут через канал send и выполняются единственной
// горутиной writePump: gorilla/websocket допускает не более одного
// параллельного писателя.
type client struct {
	conn      *websocket.Conn
	logger    *slog.Logger
	send      chan api.Event
	done      chan struct{}
	closeOnce sync.Once
}

func newClient(logger *slog.Logger, conn *websocket.Conn) *client {
	return &client{
		conn:   conn,
		logger: logger,
		send:   make(chan api.Event, sendBufferSize),
		done:   make(chan struct{}),
	}
}

// Deliver ставит событие в исходящую очередь соединения.
// Никогда не блокируется: рассылка комнаты не должна ждать медленного
// получателя, поэтому при переполненной очереди событие отбрасывается
// с предупреждением в лог.
func (c *client) Deliver(ev api.Event) {
	select {
	case <-c.done:
	case c.send <- ev:
	default:
		c.logger.Warn("send queue full, dropping event", "event_type", ev.Type)
	}
}

// close помечает соединение завершенным; повторные вызовы безопасны.
func (c *client) close() {
	c.closeOnce.Do(func() {
		close(c.done)
	})
}

// writePump переносит события из очереди в сокет и поддерживает
// соединение живым периодическими ping. Завершается при ошибке записи
// или закрытии соединения.
func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		if err := c.conn.Close(); err != nil {
			c.logger.Debug("failed to close connection", "error", err)
		}
	}()

	for {
		select {
		case ev := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteJSON(ev); err != nil {
				c.logger.Debug("write failed", "event_type", ev.Type, "error", err)
				return
			}
		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}
