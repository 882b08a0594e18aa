package board

import (
	"sync"

	"github.com/iudanet/gophboard/internal/models"
	"github.com/iudanet/gophboard/pkg/api"
)

// EventSink канал доставки исходящих событий одному соединению.
// Реализация не должна блокироваться: медленный получатель - проблема
// его собственной очереди, а не комнаты.
type EventSink interface {
	Deliver(ev api.Event)
}

// roomMember участник комнаты: presence плюс канал доставки
type roomMember struct {
	sink EventSink
	user models.User
}

// Room изолированное пространство совместной работы: собственный лог
// операций и множество подключенных участников, ключ - id соединения.
// Разные комнаты не разделяют ни локов, ни состояния.
type Room struct {
	log     *Log
	members map[string]roomMember
	id      string
	mu      sync.RWMutex
}

// ID возвращает идентификатор комнаты.
func (r *Room) ID() string {
	return r.id
}

// Log возвращает лог операций комнаты.
func (r *Room) Log() *Log {
	return r.log
}

// Join регистрирует участника и подключает его канал доставки к
// рассылке комнаты.
func (r *Room) Join(connID string, user models.User, sink EventSink) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.members[connID] = roomMember{user: user, sink: sink}
}

// Leave удаляет участника по id соединения.
// Возвращает его presence и признак того, что участник был найден;
// неизвестное соединение - молчаливый no-op.
func (r *Room) Leave(connID string) (models.User, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.members[connID]
	if !ok {
		return models.User{}, false
	}

	delete(r.members, connID)
	return m.user, true
}

// Users возвращает копию списка presence текущих участников.
func (r *Room) Users() []models.User {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := make([]models.User, 0, len(r.members))
	for _, m := range r.members {
		users = append(users, m.user)
	}
	return users
}

// Broadcast доставляет событие каждому участнику комнаты.
func (r *Room) Broadcast(ev api.Event) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, m := range r.members {
		m.sink.Deliver(ev)
	}
}

// BroadcastExcept доставляет событие всем участникам, кроме указанного
// соединения - им обычно оказывается отправитель.
func (r *Room) BroadcastExcept(connID string, ev api.Event) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for id, m := range r.members {
		if id == connID {
			continue
		}
		m.sink.Deliver(ev)
	}
}

// Registry реестр комнат процесса.
// Комнаты создаются лениво при первом обращении и живут до завершения
// процесса: выселения нет, переподключившийся клиент видит прежний лог.
type Registry struct {
	rooms map[string]*Room
	mu    sync.RWMutex
}

// NewRegistry создает пустой реестр.
func NewRegistry() *Registry {
	return &Registry{
		rooms: make(map[string]*Room),
	}
}

// Ensure возвращает комнату с указанным id, создавая ее с пустым логом
// и пустым множеством участников, если такой еще нет. Идемпотентна.
func (r *Registry) Ensure(roomID string) *Room {
	r.mu.RLock()
	room, ok := r.rooms[roomID]
	r.mu.RUnlock()
	if ok {
		return room
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Перепроверяем под write-локом: комнату мог создать конкурент
	if room, ok := r.rooms[roomID]; ok {
		return room
	}

	room = &Room{
		id:      roomID,
		log:     NewLog(),
		members: make(map[string]roomMember),
	}
	r.rooms[roomID] = room
	return room
}

// Leave удаляет соединение из комнаты.
// Неизвестная комната или соединение молча поглощаются.
func (r *Registry) Leave(roomID, connID string) (models.User, bool) {
	r.mu.RLock()
	room, ok := r.rooms[roomID]
	r.mu.RUnlock()
	if !ok {
		return models.User{}, false
	}
	return room.Leave(connID)
}

// Log возвращает лог операций комнаты, создавая комнату при
// необходимости: запрос к новой комнате видит пустой лог, а не ошибку.
func (r *Registry) Log(roomID string) *Log {
	return r.Ensure(roomID).Log()
}

// Members возвращает список presence участников комнаты, создавая
// комнату при необходимости.
func (r *Registry) Members(roomID string) []models.User {
	return r.Ensure(roomID).Users()
}
