// Package gateway реализует протокольный обработчик сеанса: одно
// подключение - одна идентичность в одной комнате. Шлюз переводит
// входящие события протокола в вызовы лога операций либо в эфемерную
// рассылку и доставляет результаты нужной аудитории.
package gateway

import (
	"encoding/json"
	"hash/fnv"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/iudanet/gophboard/internal/models"
	"github.com/iudanet/gophboard/internal/server/board"
	"github.com/iudanet/gophboard/pkg/api"
)

// DefaultRoom комната по умолчанию для подключений без параметра room
const DefaultRoom = "lobby"

// cursorPalette цвета, назначаемые участникам по кругу
var cursorPalette = []string{
	"#e6194b", "#3cb44b", "#ffe119", "#4363d8",
	"#f58231", "#911eb4", "#46f0f0", "#f032e6",
}

// Gateway обрабатывает websocket-подключения поверх общего реестра
// комнат. Сам по себе состояния между соединениями не хранит.
type Gateway struct {
	logger   *slog.Logger
	registry *board.Registry
	now      func() time.Time
	newID    func() string
	upgrader websocket.Upgrader
}

// New создает шлюз поверх реестра комнат.
func New(logger *slog.Logger, registry *board.Registry) *Gateway {
	return &Gateway{
		logger:   logger,
		registry: registry,
		now:      time.Now,
		newID:    uuid.NewString,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Холст раздается этим же процессом, проверка Origin не нужна
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// HandleWS обрабатывает GET /ws?room=<id>.
// Апгрейдит соединение, чеканит идентичность, вводит участника в
// комнату и крутит цикл чтения до отключения.
func (g *Gateway) HandleWS(w http.ResponseWriter, r *http.Request) {
	roomID := r.URL.Query().Get("room")
	if roomID == "" {
		roomID = DefaultRoom
	}

	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.logger.Error("websocket upgrade failed", "error", err, "remote_addr", r.RemoteAddr)
		return
	}

	user := g.mintUser()
	room := g.registry.Ensure(roomID)
	logger := g.logger.With("room", roomID, "user_id", user.ID)

	c := newClient(logger, conn)
	go c.writePump()

	room.Join(user.ID, user, c)

	// Новое соединение получает полный снимок и список участников,
	// остальные - уведомление о новом presence
	if ev, ok := g.event(api.EventInit, api.InitPayload{
		User:     user,
		Snapshot: room.Log().Snapshot(),
		Users:    room.Users(),
	}); ok {
		c.Deliver(ev)
	}
	if ev, ok := g.event(api.EventPresenceJoin, api.PresenceJoin{User: user}); ok {
		room.BroadcastExcept(user.ID, ev)
	}

	logger.Info("participant joined", "display_name", user.DisplayName)

	g.readLoop(c, room, user)

	// Отключение: участник покидает комнату прежде, чем остальные
	// узнают об уходе, чтобы он не числился присутствующим
	c.close()
	if _, ok := room.Leave(user.ID); ok {
		if ev, ok := g.event(api.EventPresenceLeave, api.PresenceLeave{UserID: user.ID}); ok {
			room.Broadcast(ev)
		}
	}

	logger.Info("participant left")
}

// mintUser генерирует идентичность для нового соединения.
func (g *Gateway) mintUser() models.User {
	id := g.newID()

	short := id
	if len(short) > 8 {
		short = short[:8]
	}

	h := fnv.New32a()
	_, _ = h.Write([]byte(id))

	return models.User{
		ID:          id,
		DisplayName: "user-" + short,
		Color:       cursorPalette[h.Sum32()%uint32(len(cursorPalette))],
	}
}

// readLoop читает события соединения и диспетчеризует их по типу.
// Искаженный кадр портит только собственный обмен: он логируется и
// пропускается, соединение продолжает жить.
func (g *Gateway) readLoop(c *client, room *board.Room, user models.User) {
	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		return
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.logger.Warn("connection closed unexpectedly", "error", err)
			}
			return
		}

		var ev api.Event
		if err := json.Unmarshal(data, &ev); err != nil {
			c.logger.Warn("malformed event envelope", "error", err)
			continue
		}

		g.dispatch(c, room, user, ev)
	}
}

// dispatch обрабатывает одно входящее событие.
func (g *Gateway) dispatch(c *client, room *board.Room, user models.User, ev api.Event) {
	switch ev.Type {
	case api.EventCursorMove:
		var p api.CursorMove
		if !g.decode(c, ev, &p) {
			return
		}
		p.UserID = user.ID
		g.forward(room, user, api.EventCursorMove, p)

	case api.EventDrawProgress:
		var p api.DrawProgress
		if !g.decode(c, ev, &p) {
			return
		}
		p.UserID = user.ID
		g.forward(room, user, api.EventDrawProgress, p)

	case api.EventShapeProgress:
		var p api.ShapeProgress
		if !g.decode(c, ev, &p) {
			return
		}
		p.UserID = user.ID
		g.forward(room, user, api.EventShapeProgress, p)

	case api.EventReaction:
		g.handleReaction(c, room, user, ev)

	case api.EventDrawCommit:
		g.handleCommit(c, room, user, ev)

	case api.EventOpUndo:
		if snap, ok := room.Log().Undo(); ok {
			g.broadcastState(room, snap)
		}

	case api.EventOpRedo:
		if snap, ok := room.Log().Redo(); ok {
			g.broadcastState(room, snap)
		}

	case api.EventOpClearUser:
		snap, removed := room.Log().RemoveByAuthor(user.ID)
		g.finishClear(c, room, snap, removed)

	case api.EventOpClearAll:
		snap, removed := room.Log().ClearAll()
		g.finishClear(c, room, snap, removed)

	default:
		c.logger.Warn("unknown event type", "event_type", ev.Type)
	}
}

// forward рассылает эфемерное событие остальным участникам комнаты.
// Лог операций не затрагивается.
func (g *Gateway) forward(room *board.Room, user models.User, eventType string, payload any) {
	if ev, ok := g.event(eventType, payload); ok {
		room.BroadcastExcept(user.ID, ev)
	}
}

// handleReaction рассылает реакцию всей комнате.
// Пустая или нестроковая реакция молча отбрасывается.
func (g *Gateway) handleReaction(c *client, room *board.Room, user models.User, ev api.Event) {
	var p api.ReactionRequest
	if !g.decode(c, ev, &p) {
		return
	}
	if p.Emoji == "" {
		return
	}

	out := api.Reaction{
		ID:     g.newID(),
		UserID: user.ID,
		Emoji:  p.Emoji,
		Ts:     g.now().UnixMilli(),
	}
	if e, ok := g.event(api.EventReaction, out); ok {
		room.Broadcast(e)
	}
}

// handleCommit штампует кандидата и проводит его через лог операций.
// Успех рассылается всей комнате, включая автора: источником истины
// является серверная, проштампованная версия операции. Отказ
// валидации видит только автор.
func (g *Gateway) handleCommit(c *client, room *board.Room, user models.User, ev api.Event) {
	var op models.Operation
	if err := json.Unmarshal(ev.Data, &op); err != nil {
		g.sendError(c, "malformed operation: "+err.Error())
		return
	}

	op.ID = g.newID()
	op.UserID = user.ID
	op.Timestamp = g.now().UnixMilli()

	stamped, err := room.Log().Append(op)
	if err != nil {
		c.logger.Warn("commit rejected", "error", err)
		g.sendError(c, err.Error())
		return
	}

	if e, ok := g.event(api.EventDrawCommit, stamped); ok {
		room.Broadcast(e)
	}
}

// finishClear завершает запрос очистки: при ненулевом удалении комната
// получает полный снимок, инициатор в любом случае получает ack.
func (g *Gateway) finishClear(c *client, room *board.Room, snap models.Snapshot, removed int) {
	if removed > 0 {
		g.broadcastState(room, snap)
	}

	if ev, ok := g.event(api.EventOpClearResult, api.ClearResult{
		OK:      removed > 0,
		Removed: removed,
		Version: snap.Version,
	}); ok {
		c.Deliver(ev)
	}
}

// broadcastState рассылает полный снимок лога всей комнате.
// После undo/redo/clear рассылается именно снимок, а не дельта: так
// удаление операции однозначно для всех наблюдателей.
func (g *Gateway) broadcastState(room *board.Room, snap models.Snapshot) {
	if ev, ok := g.event(api.EventStateFull, snap); ok {
		room.Broadcast(ev)
	}
}

// sendError доставляет сигнал об ошибке только инициатору обмена.
func (g *Gateway) sendError(c *client, message string) {
	if ev, ok := g.event(api.EventErrorMessage, api.ErrorMessage{Message: message}); ok {
		c.Deliver(ev)
	}
}

// decode разбирает полезную нагрузку события; искаженная нагрузка
// логируется и обмен прерывается без последствий для соединения.
func (g *Gateway) decode(c *client, ev api.Event, dst any) bool {
	if err := json.Unmarshal(ev.Data, dst); err != nil {
		c.logger.Warn("malformed event payload", "event_type", ev.Type, "error", err)
		return false
	}
	return true
}

// event собирает конверт; ошибка сериализации собственных структур
// означает баг и логируется как внутренняя.
func (g *Gateway) event(eventType string, payload any) (api.Event, bool) {
	ev, err := api.NewEvent(eventType, payload)
	if err != nil {
		g.logger.Error("failed to encode event", "event_type", eventType, "error", err)
		return api.Event{}, false
	}
	return ev, true
}
