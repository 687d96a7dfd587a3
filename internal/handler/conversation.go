package handler

import (
	"net/http"

	"tush00nka/chato/api/response"
	"tush00nka/chato/internal/middleware"
	"tush00nka/chato/internal/model"
	"tush00nka/chato/internal/pkg/httputils"
	"tush00nka/chato/internal/service"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

type ConversationHandler struct {
	conversationService service.ConversationService
}

func NewConversationHandler(conversationService service.ConversationService) *ConversationHandler {
	return &ConversationHandler{conversationService: conversationService}
}

func (h *ConversationHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/conversations", h.createConversation).Methods(http.MethodPost)
	router.HandleFunc("/conversations", h.listConversations).Methods(http.MethodGet)
	router.HandleFunc("/conversations/{cid}", h.getConversation).Methods(http.MethodGet)
	router.HandleFunc("/conversations/{cid}/online", h.onlineParticipants).Methods(http.MethodGet)
}

type conversationRequest struct {
	Type           string      `json:"type" validate:"required,oneof=private group"`
	Name           string      `json:"name" validate:"max=100"`
	ParticipantIDs []uuid.UUID `json:"participantIds" validate:"required,min=1"`
}

type onlineResponse struct {
	Online []uuid.UUID `json:"online"`
}

// @Summary Create conversation
// @Description A private conversation with the same user is returned instead of a duplicate
// @Tags conversations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param ConversationData body conversationRequest true "Conversation data"
// @Success 200 {object} response.DataResponse{data=model.Conversation}
// @Success 201 {object} response.DataResponse{data=model.Conversation}
// @Failure 400 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Router /conversations [post]
func (h *ConversationHandler) createConversation(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.CurrentUser(r)
	if err != nil {
		httputils.WriteError(w, r, err)
		return
	}

	var req conversationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		httputils.WriteError(w, r, err)
		return
	}

	conv, created, err := h.conversationService.Create(r.Context(), user.ID, service.CreateConversationInput{
		Type:           model.ConversationType(req.Type),
		Name:           req.Name,
		ParticipantIDs: req.ParticipantIDs,
	})
	if err != nil {
		httputils.WriteError(w, r, err)
		return
	}

	if !created {
		httputils.ResponseData(w, http.StatusOK, conv)
		return
	}
	httputils.ResponseJSON(w, http.StatusCreated, response.DataResponse{
		Message: "Conversation was created successfully",
		Data:    conv,
	})
}

// @Summary List conversations
// @Tags conversations
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.DataResponse{data=[]model.Conversation}
// @Router /conversations [get]
func (h *ConversationHandler) listConversations(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.CurrentUser(r)
	if err != nil {
		httputils.WriteError(w, r, err)
		return
	}

	convs, err := h.conversationService.List(r.Context(), user.ID)
	if err != nil {
		httputils.WriteError(w, r, err)
		return
	}

	httputils.ResponseData(w, http.StatusOK, convs)
}

// @Summary Get conversation
// @Tags conversations
// @Produce json
// @Security BearerAuth
// @Param cid path string true "Conversation ID"
// @Success 200 {object} response.DataResponse{data=model.Conversation}
// @Failure 404 {object} response.ErrorResponse
// @Router /conversations/{cid} [get]
func (h *ConversationHandler) getConversation(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.CurrentUser(r)
	if err != nil {
		httputils.WriteError(w, r, err)
		return
	}
	conversationID, err := pathID(r, "cid", msgNoConversation)
	if err != nil {
		httputils.WriteError(w, r, err)
		return
	}

	conv, err := h.conversationService.Get(r.Context(), user.ID, conversationID)
	if err != nil {
		httputils.WriteError(w, r, err)
		return
	}

	httputils.ResponseData(w, http.StatusOK, conv)
}

// @Summary Online participants
// @Description Participants currently connected to the websocket
// @Tags conversations
// @Produce json
// @Security BearerAuth
// @Param cid path string true "Conversation ID"
// @Success 200 {object} response.DataResponse{data=onlineResponse}
// @Failure 404 {object} response.ErrorResponse
// @Router /conversations/{cid}/online [get]
func (h *ConversationHandler) onlineParticipants(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.CurrentUser(r)
	if err != nil {
		httputils.WriteError(w, r, err)
		return
	}
	conversationID, err := pathID(r, "cid", msgNoConversation)
	if err != nil {
		httputils.WriteError(w, r, err)
		return
	}

	online, err := h.conversationService.Online(r.Context(), user.ID, conversationID)
	if err != nil {
		httputils.WriteError(w, r, err)
		return
	}
	if online == nil {
		online = []uuid.UUID{}
	}

	httputils.ResponseData(w, http.StatusOK, onlineResponse{Online: online})
}
