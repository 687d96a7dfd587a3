package ws

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"tush00nka/chato/internal/model"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryPresence struct {
	mu     sync.Mutex
	online map[uuid.UUID]bool
}

func (p *memoryPresence) MarkOnline(ctx context.Context, userID uuid.UUID) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.online[userID] = true
	return nil
}

func (p *memoryPresence) MarkOffline(ctx context.Context, userID uuid.UUID) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.online, userID)
	return nil
}

func (p *memoryPresence) OnlineAmong(ctx context.Context, userIDs []uuid.UUID) ([]uuid.UUID, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []uuid.UUID
	for _, id := range userIDs {
		if p.online[id] {
			out = append(out, id)
		}
	}
	return out, nil
}

func (p *memoryPresence) isOnline(id uuid.UUID) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.online[id]
}

// serve поднимает сервер, в котором пользователь передается в query
func serve(t *testing.T, hub *Hub) *httptest.Server {
	t.Helper()
	upgrader := NewUpgrader([]string{"http://allowed.test"})

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, err := uuid.Parse(r.URL.Query().Get("user"))
		if err != nil {
			http.Error(w, "bad user", http.StatusBadRequest)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		client := NewClient(r.Context(), conn, userID)
		if err := hub.Register(r.Context(), client); err != nil {
			conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, err.Error()))
			return
		}
		defer hub.Unregister(r.Context(), client)

		go client.ReadPump(hub.HandleIncoming)
		client.WritePump()
	}))
	t.Cleanup(srv.Close)
	return srv
}

func dial(t *testing.T, srv *httptest.Server, userID uuid.UUID) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/?user=" + userID.String()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) OutEvent {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var ev OutEvent
	require.NoError(t, conn.ReadJSON(&ev))
	return ev
}

func TestNotifyReachesEveryDeviceOfRecipient(t *testing.T) {
	presence := &memoryPresence{online: make(map[uuid.UUID]bool)}
	hub := NewHub(presence)
	srv := serve(t, hub)

	alice, bob := uuid.New(), uuid.New()
	phone := dial(t, srv, alice)
	laptop := dial(t, srv, alice)
	bobConn := dial(t, srv, bob)

	require.Eventually(t, func() bool {
		return hub.Connections(alice) == 2 && hub.Connections(bob) == 1
	}, 2*time.Second, 10*time.Millisecond)
	assert.True(t, presence.isOnline(alice))

	conversationID, messageID := uuid.New(), uuid.New()
	hub.Notify([]uuid.UUID{alice}, model.MessageEvent{
		Type:           model.EventMessageReacted,
		ConversationID: conversationID,
		MessageID:      messageID,
		ActorID:        alice,
		Reaction:       "x",
	})

	for _, conn := range []*websocket.Conn{phone, laptop} {
		ev := readEvent(t, conn)
		assert.Equal(t, string(model.EventMessageReacted), ev.Type)
		require.NotNil(t, ev.MessageID)
		assert.Equal(t, messageID, *ev.MessageID)
		assert.Equal(t, "x", ev.Reaction)
	}

	// bob не получатель: следующее событие для него это ответ на ping
	require.NoError(t, bobConn.WriteJSON(InEvent{Type: EventTypePing}))
	assert.Equal(t, EventTypePong, readEvent(t, bobConn).Type)
	assert.EqualValues(t, 2, hub.Stats().EventsSent.Load())
}

func TestUnregisterMarksOfflineAfterLastConnection(t *testing.T) {
	presence := &memoryPresence{online: make(map[uuid.UUID]bool)}
	hub := NewHub(presence)
	srv := serve(t, hub)

	user := uuid.New()
	first := dial(t, srv, user)
	second := dial(t, srv, user)
	require.Eventually(t, func() bool { return hub.Connections(user) == 2 }, 2*time.Second, 10*time.Millisecond)

	first.Close()
	require.Eventually(t, func() bool { return hub.Connections(user) == 1 }, 2*time.Second, 10*time.Millisecond)
	assert.True(t, presence.isOnline(user))

	second.Close()
	require.Eventually(t, func() bool { return hub.Connections(user) == 0 }, 2*time.Second, 10*time.Millisecond)
	assert.False(t, presence.isOnline(user))
}

func TestConnectionLimitPerUser(t *testing.T) {
	hub := NewHub(nil, HubOptions{MaxConnectionsPerUser: 1})
	srv := serve(t, hub)

	user := uuid.New()
	dial(t, srv, user)
	require.Eventually(t, func() bool { return hub.Connections(user) == 1 }, 2*time.Second, 10*time.Millisecond)

	extra := dial(t, srv, user)
	require.NoError(t, extra.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := extra.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.ClosePolicyViolation), "got %v", err)
	assert.Equal(t, 1, hub.Connections(user))
}

func TestUpgraderChecksOrigin(t *testing.T) {
	upgrader := NewUpgrader([]string{"http://allowed.test"})

	r := httptest.NewRequest(http.MethodGet, "/ws", nil)
	assert.True(t, upgrader.CheckOrigin(r), "non-browser clients send no origin")

	r.Header.Set("Origin", "http://allowed.test")
	assert.True(t, upgrader.CheckOrigin(r))

	r.Header.Set("Origin", "http://evil.test")
	assert.False(t, upgrader.CheckOrigin(r))

	assert.True(t, NewUpgrader([]string{"*"}).CheckOrigin(r))
}
