// Package api описывает проводной протокол сервера совместного холста:
// конверт события и полезные нагрузки каждого типа события.
package api

import (
	"encoding/json"

	"github.com/iudanet/gophboard/internal/models"
)

// Имена событий протокола
const (
	// EventInit отправляется сервером новому соединению сразу после входа в комнату
	EventInit = "init"
	// EventPresenceJoin уведомляет остальных участников о новом presence
	EventPresenceJoin = "presence:join"
	// EventPresenceLeave уведомляет остальных участников об отключении
	EventPresenceLeave = "presence:leave"
	// EventCursorMove эфемерное движение курсора, рассылается остальным
	EventCursorMove = "cursor:move"
	// EventDrawProgress эфемерный предпросмотр штриха в процессе рисования
	EventDrawProgress = "draw:progress"
	// EventShapeProgress эфемерный предпросмотр трансформации фигуры
	EventShapeProgress = "shape:progress"
	// EventDrawCommit долговременная правка: кандидат от клиента,
	// проштампованная операция - всей комнате, включая отправителя
	EventDrawCommit = "draw:commit"
	// EventOpUndo запрос глобального отката последней операции комнаты
	EventOpUndo = "op:undo"
	// EventOpRedo запрос возврата последней откаченной операции
	EventOpRedo = "op:redo"
	// EventOpClearUser запрос удаления всех операций отправителя
	EventOpClearUser = "op:clearUser"
	// EventOpClearAll запрос полной очистки лога комнаты
	EventOpClearAll = "op:clearAll"
	// EventOpClearResult ответ отправителю на запрос очистки
	EventOpClearResult = "op:clearResult"
	// EventStateFull полный снимок лога, рассылается после undo/redo/clear
	EventStateFull = "state:full"
	// EventReaction эфемерная реакция, рассылается всей комнате
	EventReaction = "reaction"
	// EventErrorMessage ошибка валидации, доставляется только отправителю
	EventErrorMessage = "error:message"
)

// Event конверт протокола: тип события плюс сырая полезная нагрузка.
// Data декодируется получателем по значению Type.
type Event struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// NewEvent собирает конверт, сериализуя полезную нагрузку.
func NewEvent(eventType string, payload any) (Event, error) {
	if payload == nil {
		return Event{Type: eventType}, nil
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return Event{}, err
	}

	return Event{Type: eventType, Data: data}, nil
}

// InitPayload начальное состояние для нового соединения:
// собственная идентичность, полный снимок лога и текущие участники
type InitPayload struct {
	User     models.User     `json:"user"`
	Snapshot models.Snapshot `json:"snapshot"`
	Users    []models.User   `json:"users"`
}

// PresenceJoin уведомление о новом участнике
type PresenceJoin struct {
	User models.User `json:"user"`
}

// PresenceLeave уведомление об ушедшем участнике
type PresenceLeave struct {
	UserID string `json:"userId"`
}

// CursorMove позиция курсора; userId проставляет сервер
type CursorMove struct {
	UserID string  `json:"userId,omitempty"`
	Color  string  `json:"color,omitempty"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
}

// DrawProgress предпросмотр незавершенного штриха; userId проставляет сервер
type DrawProgress struct {
	UserID    string         `json:"userId,omitempty"`
	Color     string         `json:"color,omitempty"`
	Composite string         `json:"composite,omitempty"`
	Points    []models.Point `json:"points"`
	Size      float64        `json:"size,omitempty"`
}

// ShapeProgress предпросмотр трансформации фигуры; userId проставляет сервер
type ShapeProgress struct {
	UserID string   `json:"userId,omitempty"`
	ID     string   `json:"id"`
	X      *float64 `json:"x,omitempty"`
	Y      *float64 `json:"y,omitempty"`
	Width  *float64 `json:"width,omitempty"`
	Height *float64 `json:"height,omitempty"`
}

// ClearResult ответ на op:clearUser и op:clearAll
type ClearResult struct {
	OK      bool  `json:"ok"`      // OK true, если хотя бы одна операция была удалена
	Removed int   `json:"removed"` // Removed число удаленных операций
	Version int64 `json:"version"` // Version версия лога после запроса
}

// ReactionRequest входящая реакция от клиента
type ReactionRequest struct {
	Emoji string `json:"emoji"`
}

// Reaction исходящая реакция с проставленными сервером полями
type Reaction struct {
	ID     string `json:"id"`     // ID уникальный идентификатор реакции
	UserID string `json:"userId"` // UserID автор реакции
	Emoji  string `json:"emoji"`  // Emoji непустая строка-эмодзи
	Ts     int64  `json:"ts"`     // Ts серверное время в unix-миллисекундах
}

// ErrorMessage ошибка, доставляемая только инициатору обмена
type ErrorMessage struct {
	Message string `json:"message"`
}
