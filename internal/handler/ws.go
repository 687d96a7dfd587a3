package handler

import (
	"net/http"

	"tush00nka/chato/internal/middleware"
	"tush00nka/chato/internal/pkg/httputils"
	"tush00nka/chato/internal/ws"

	"github.com/charmbracelet/log"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
)

type WSHandler struct {
	hub      *ws.Hub
	upgrader websocket.Upgrader
}

func NewWSHandler(hub *ws.Hub, allowedOrigins []string) *WSHandler {
	return &WSHandler{hub: hub, upgrader: ws.NewUpgrader(allowedOrigins)}
}

func (h *WSHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/ws", h.serveWS).Methods(http.MethodGet)
}

// @Summary Realtime events
// @Description Upgrades to a websocket that streams message events of the current user. Browsers pass the token as ?token=
// @Tags realtime
// @Security BearerAuth
// @Param token query string false "JWT"
// @Success 101
// @Failure 401 {object} response.ErrorResponse
// @Router /ws [get]
func (h *WSHandler) serveWS(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.CurrentUser(r)
	if err != nil {
		httputils.WriteError(w, r, err)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade уже ответил клиенту
		log.Warn("ws upgrade failed", "user_id", user.ID, "err", err)
		return
	}
	defer conn.Close()

	client := ws.NewClient(r.Context(), conn, user.ID)
	if err := h.hub.Register(r.Context(), client); err != nil {
		conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, err.Error()))
		return
	}
	defer h.hub.Unregister(r.Context(), client)

	go client.ReadPump(h.hub.HandleIncoming)
	if err := client.WritePump(); err != nil {
		log.Debug("ws write pump stopped", "user_id", user.ID, "err", err)
	}
}
