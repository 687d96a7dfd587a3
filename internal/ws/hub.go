package ws

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"tush00nka/chato/internal/metrics"
	"tush00nka/chato/internal/model"
	"tush00nka/chato/internal/repository"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"go.uber.org/atomic"
)

// Константы
const (
	writeWait          = 10 * time.Second
	pongWait           = 60 * time.Second
	pingPeriod         = (pongWait * 9) / 10
	maxMessageSize     = 4 * 1024
	maxSendChannelSize = 256
)

// Служебные типы событий, остальные совпадают с model.EventType
const (
	EventTypePing  = "ping"
	EventTypePong  = "pong"
	EventTypeError = "error"
)

var ErrTooManyConnections = errors.New("too many connections for user")

// OutEvent исходящее событие
type OutEvent struct {
	Type           string         `json:"type"`
	ConversationID *uuid.UUID     `json:"conversation_id,omitempty"`
	MessageID      *uuid.UUID     `json:"message_id,omitempty"`
	ActorID        *uuid.UUID     `json:"actor_id,omitempty"`
	Message        *model.Message `json:"message,omitempty"`
	Reaction       string         `json:"reaction,omitempty"`
	Error          string         `json:"error,omitempty"`
	Timestamp      time.Time      `json:"timestamp"`
}

// InEvent входящее событие
type InEvent struct {
	Type string `json:"type"`
}

// HubOptions опции хаба
type HubOptions struct {
	MaxConnectionsPerUser int
}

// Stats счетчики хаба
type Stats struct {
	EventsSent    atomic.Int64
	EventsDropped atomic.Int64
	Connections   atomic.Int64
}

// Hub хранит соединения пользователей и доставляет им события.
// Один пользователь может быть подключен с нескольких устройств.
type Hub struct {
	mu       sync.RWMutex
	clients  map[uuid.UUID]map[*Client]struct{}
	presence repository.PresenceRepository
	options  HubOptions
	stats    Stats
}

// NewHub создает новый хаб. presence может быть nil.
func NewHub(presence repository.PresenceRepository, options ...HubOptions) *Hub {
	opts := HubOptions{MaxConnectionsPerUser: 10}
	if len(options) > 0 {
		opts = options[0]
	}

	return &Hub{
		clients:  make(map[uuid.UUID]map[*Client]struct{}),
		presence: presence,
		options:  opts,
	}
}

// Register добавляет соединение. Первое соединение пользователя отмечает его онлайн.
func (h *Hub) Register(ctx context.Context, c *Client) error {
	h.mu.Lock()
	set, exists := h.clients[c.UserID]
	if exists && len(set) >= h.options.MaxConnectionsPerUser {
		h.mu.Unlock()
		return ErrTooManyConnections
	}
	if !exists {
		set = make(map[*Client]struct{})
		h.clients[c.UserID] = set
	}
	set[c] = struct{}{}
	h.mu.Unlock()

	h.stats.Connections.Inc()
	metrics.WebsocketConnections.Inc()

	if !exists && h.presence != nil {
		if err := h.presence.MarkOnline(ctx, c.UserID); err != nil {
			log.Warn("failed to mark user online", "user_id", c.UserID, "err", err)
		}
	}
	return nil
}

// Unregister удаляет соединение и закрывает его
func (h *Hub) Unregister(ctx context.Context, c *Client) {
	h.mu.Lock()
	set, exists := h.clients[c.UserID]
	if !exists {
		h.mu.Unlock()
		return
	}
	if _, ok := set[c]; !ok {
		h.mu.Unlock()
		return
	}
	delete(set, c)
	last := len(set) == 0
	if last {
		delete(h.clients, c.UserID)
	}
	h.mu.Unlock()

	c.Close()
	h.stats.Connections.Dec()
	metrics.WebsocketConnections.Dec()

	if last && h.presence != nil {
		if err := h.presence.MarkOffline(context.WithoutCancel(ctx), c.UserID); err != nil {
			log.Warn("failed to mark user offline", "user_id", c.UserID, "err", err)
		}
	}
}

// Notify отправляет событие всем соединениям получателей
func (h *Hub) Notify(recipients []uuid.UUID, event model.MessageEvent) {
	ev := OutEvent{
		Type:           string(event.Type),
		ConversationID: &event.ConversationID,
		MessageID:      &event.MessageID,
		ActorID:        &event.ActorID,
		Message:        event.Message,
		Reaction:       event.Reaction,
		Timestamp:      time.Now().UTC(),
	}

	data, err := json.Marshal(ev)
	if err != nil {
		log.Error("hub: failed to marshal event", "type", event.Type, "err", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, userID := range recipients {
		for client := range h.clients[userID] {
			if client.SendRaw(data) {
				h.stats.EventsSent.Inc()
			} else {
				h.stats.EventsDropped.Inc()
			}
		}
	}
}

// HandleIncoming обрабатывает входящие события клиента
func (h *Hub) HandleIncoming(c *Client, ev InEvent) {
	switch ev.Type {
	case EventTypePing:
		c.SendJSON(OutEvent{Type: EventTypePong, Timestamp: time.Now().UTC()})
	default:
		c.SendJSON(OutEvent{Type: EventTypeError, Error: "unsupported event type", Timestamp: time.Now().UTC()})
	}
}

// Connections возвращает число соединений пользователя
func (h *Hub) Connections(userID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.clients[userID])
}

func (h *Hub) Stats() *Stats {
	return &h.stats
}

// Shutdown закрывает все соединения
func (h *Hub) Shutdown(ctx context.Context) {
	h.mu.RLock()
	var all []*Client
	for _, set := range h.clients {
		for c := range set {
			all = append(all, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range all {
		h.Unregister(ctx, c)
	}

	log.Info("ws hub stopped",
		"closed", len(all),
		"events_sent", h.stats.EventsSent.Load(),
		"events_dropped", h.stats.EventsDropped.Load())
}
