package handler

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"tush00nka/chato/api/response"
	"tush00nka/chato/internal/middleware"
	"tush00nka/chato/internal/pkg/apperr"
	"tush00nka/chato/internal/pkg/httputils"
	"tush00nka/chato/internal/repository"
	"tush00nka/chato/internal/service"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

const (
	msgNoConversation = "There is no conversation with such id"
	msgNoMessage      = "There is no message with such id"
)

type MessageHandler struct {
	messageService service.MessageService
	maxUploadBytes int64
}

func NewMessageHandler(messageService service.MessageService, maxUploadBytes int64) *MessageHandler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = 10 << 20
	}
	return &MessageHandler{messageService: messageService, maxUploadBytes: maxUploadBytes}
}

// RegisterRoutes ожидает защищенный роутер
func (h *MessageHandler) RegisterRoutes(router *mux.Router) {
	messages := router.PathPrefix("/conversations/{cid}/messages").Subrouter()
	messages.HandleFunc("", h.listMessages).Methods(http.MethodGet)
	messages.HandleFunc("", h.createMessage).Methods(http.MethodPost)
	messages.HandleFunc("/{mid}", h.getMessage).Methods(http.MethodGet)
	messages.HandleFunc("/{mid}", h.editMessage).Methods(http.MethodPut)
	messages.HandleFunc("/{mid}", h.deleteMessage).Methods(http.MethodDelete)
	messages.HandleFunc("/{mid}", h.reactMessage).Methods(http.MethodPatch)
	messages.HandleFunc("/{mid}/unsend", h.unsendMessage).Methods(http.MethodDelete)
	messages.HandleFunc("/{mid}/read", h.readMessage).Methods(http.MethodPost)
}

type messageRequest struct {
	Message          string     `json:"message" validate:"max=4000"`
	RepliedMessageID *uuid.UUID `json:"repliedMessageId"`
}

type reactionRequest struct {
	Reaction string `json:"reaction" validate:"required,max=32"`
}

// @Summary List messages
// @Description Visible messages of a conversation, newest first
// @Tags messages
// @Produce json
// @Security BearerAuth
// @Param cid path string true "Conversation ID"
// @Param search query string false "Case-insensitive substring"
// @Param date query string false "RFC3339 or YYYY-MM-DD, messages created at or after"
// @Success 200 {object} response.DataResponse{data=[]model.Message}
// @Failure 400 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Router /conversations/{cid}/messages [get]
func (h *MessageHandler) listMessages(w http.ResponseWriter, r *http.Request) {
	user, conversationID, err := h.target(r)
	if err != nil {
		httputils.WriteError(w, r, err)
		return
	}

	filter := repository.MessageFilter{Search: strings.TrimSpace(r.URL.Query().Get("search"))}
	if raw := r.URL.Query().Get("date"); raw != "" {
		since, err := parseDate(raw)
		if err != nil {
			httputils.WriteError(w, r, err)
			return
		}
		filter.Since = &since
	}

	messages, err := h.messageService.List(r.Context(), user, conversationID, filter)
	if err != nil {
		httputils.WriteError(w, r, err)
		return
	}

	httputils.ResponseData(w, http.StatusOK, messages)
}

// @Summary Get message
// @Tags messages
// @Produce json
// @Security BearerAuth
// @Param cid path string true "Conversation ID"
// @Param mid path string true "Message ID"
// @Success 200 {object} response.DataResponse{data=model.Message}
// @Failure 403 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Router /conversations/{cid}/messages/{mid} [get]
func (h *MessageHandler) getMessage(w http.ResponseWriter, r *http.Request) {
	user, conversationID, messageID, err := h.messageTarget(r)
	if err != nil {
		httputils.WriteError(w, r, err)
		return
	}

	msg, err := h.messageService.Get(r.Context(), user, conversationID, messageID)
	if err != nil {
		httputils.WriteError(w, r, err)
		return
	}

	httputils.ResponseData(w, http.StatusOK, msg)
}

// @Summary Send message
// @Description Accepts JSON or multipart/form-data with fields message, repliedMessageId and files
// @Tags messages
// @Accept json,mpfd
// @Produce json
// @Security BearerAuth
// @Param cid path string true "Conversation ID"
// @Param MessageData body messageRequest false "Message data"
// @Success 201 {object} response.DataResponse{data=model.Message}
// @Failure 400 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Router /conversations/{cid}/messages [post]
func (h *MessageHandler) createMessage(w http.ResponseWriter, r *http.Request) {
	user, conversationID, err := h.target(r)
	if err != nil {
		httputils.WriteError(w, r, err)
		return
	}

	req, files, err := h.parseMessageBody(w, r)
	if err != nil {
		httputils.WriteError(w, r, err)
		return
	}

	msg, err := h.messageService.Create(r.Context(), user, conversationID, service.CreateMessageInput{
		Body:             req.Message,
		RepliedMessageID: req.RepliedMessageID,
		Files:            files,
	})
	if err != nil {
		httputils.WriteError(w, r, err)
		return
	}

	httputils.ResponseJSON(w, http.StatusCreated, response.DataResponse{
		Message: "Message was created successfully",
		Data:    msg,
	})
}

// @Summary Edit message
// @Description Replaces the text and the whole attachment set
// @Tags messages
// @Accept json,mpfd
// @Produce json
// @Security BearerAuth
// @Param cid path string true "Conversation ID"
// @Param mid path string true "Message ID"
// @Param MessageData body messageRequest false "Message data"
// @Success 200 {object} response.DataResponse{data=model.Message}
// @Failure 400 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Router /conversations/{cid}/messages/{mid} [put]
func (h *MessageHandler) editMessage(w http.ResponseWriter, r *http.Request) {
	user, conversationID, messageID, err := h.messageTarget(r)
	if err != nil {
		httputils.WriteError(w, r, err)
		return
	}

	req, files, err := h.parseMessageBody(w, r)
	if err != nil {
		httputils.WriteError(w, r, err)
		return
	}

	msg, err := h.messageService.Edit(r.Context(), user, conversationID, messageID, service.EditMessageInput{
		Body:  req.Message,
		Files: files,
	})
	if err != nil {
		httputils.WriteError(w, r, err)
		return
	}

	httputils.ResponseJSON(w, http.StatusOK, response.DataResponse{
		Message: "Message was updated successfully",
		Data:    msg,
	})
}

// @Summary Delete message for me
// @Description Hides the message for the current user
// @Tags messages
// @Security BearerAuth
// @Param cid path string true "Conversation ID"
// @Param mid path string true "Message ID"
// @Success 204
// @Failure 404 {object} response.ErrorResponse
// @Router /conversations/{cid}/messages/{mid} [delete]
func (h *MessageHandler) deleteMessage(w http.ResponseWriter, r *http.Request) {
	user, conversationID, messageID, err := h.messageTarget(r)
	if err != nil {
		httputils.WriteError(w, r, err)
		return
	}

	if err := h.messageService.Delete(r.Context(), user, conversationID, messageID); err != nil {
		httputils.WriteError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// @Summary Unsend message
// @Description Removes an unread message for everyone
// @Tags messages
// @Security BearerAuth
// @Param cid path string true "Conversation ID"
// @Param mid path string true "Message ID"
// @Success 204
// @Failure 404 {object} response.ErrorResponse
// @Router /conversations/{cid}/messages/{mid}/unsend [delete]
func (h *MessageHandler) unsendMessage(w http.ResponseWriter, r *http.Request) {
	user, conversationID, messageID, err := h.messageTarget(r)
	if err != nil {
		httputils.WriteError(w, r, err)
		return
	}

	if err := h.messageService.Unsend(r.Context(), user, conversationID, messageID); err != nil {
		httputils.WriteError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// @Summary React to message
// @Description Sending the same reaction again removes it
// @Tags messages
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param cid path string true "Conversation ID"
// @Param mid path string true "Message ID"
// @Param ReactionData body reactionRequest true "Reaction"
// @Success 201 {object} response.DataResponse
// @Success 202 {object} response.DataResponse
// @Failure 400 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Router /conversations/{cid}/messages/{mid} [patch]
func (h *MessageHandler) reactMessage(w http.ResponseWriter, r *http.Request) {
	user, conversationID, messageID, err := h.messageTarget(r)
	if err != nil {
		httputils.WriteError(w, r, err)
		return
	}

	var req reactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		httputils.WriteError(w, r, err)
		return
	}

	outcome, err := h.messageService.React(r.Context(), user, conversationID, messageID, req.Reaction)
	if err != nil {
		httputils.WriteError(w, r, err)
		return
	}

	switch outcome {
	case service.ReactionCreated:
		httputils.ResponseJSON(w, http.StatusCreated, response.DataResponse{Message: "Reaction was added"})
	case service.ReactionRemoved:
		httputils.ResponseJSON(w, http.StatusAccepted, response.DataResponse{Message: "Reaction was removed"})
	default:
		httputils.ResponseJSON(w, http.StatusAccepted, response.DataResponse{Message: "Reaction was updated"})
	}
}

// @Summary Mark message as read
// @Description After this the sender can no longer unsend it
// @Tags messages
// @Security BearerAuth
// @Param cid path string true "Conversation ID"
// @Param mid path string true "Message ID"
// @Success 204
// @Failure 400 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Router /conversations/{cid}/messages/{mid}/read [post]
func (h *MessageHandler) readMessage(w http.ResponseWriter, r *http.Request) {
	user, conversationID, messageID, err := h.messageTarget(r)
	if err != nil {
		httputils.WriteError(w, r, err)
		return
	}

	if err := h.messageService.MarkRead(r.Context(), user, conversationID, messageID); err != nil {
		httputils.WriteError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *MessageHandler) target(r *http.Request) (uuid.UUID, uuid.UUID, error) {
	user, err := middleware.CurrentUser(r)
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}

	conversationID, err := pathID(r, "cid", msgNoConversation)
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	return user.ID, conversationID, nil
}

func (h *MessageHandler) messageTarget(r *http.Request) (uuid.UUID, uuid.UUID, uuid.UUID, error) {
	userID, conversationID, err := h.target(r)
	if err != nil {
		return uuid.Nil, uuid.Nil, uuid.Nil, err
	}

	messageID, err := pathID(r, "mid", msgNoMessage)
	if err != nil {
		return uuid.Nil, uuid.Nil, uuid.Nil, err
	}
	return userID, conversationID, messageID, nil
}

// parseMessageBody разбирает JSON или multipart тело сообщения
func (h *MessageHandler) parseMessageBody(w http.ResponseWriter, r *http.Request) (messageRequest, []service.Upload, error) {
	var req messageRequest

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		err := decodeJSON(w, r, &req)
		return req, nil, err
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return req, nil, apperr.BadRequest(fmt.Sprintf("Request body must not exceed %d bytes", h.maxUploadBytes))
		}
		return req, nil, apperr.BadRequest("Invalid multipart form")
	}
	defer r.MultipartForm.RemoveAll()

	req.Message = r.FormValue("message")
	if raw := r.FormValue("repliedMessageId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return req, nil, apperr.BadRequest("There is no message to reply with such id")
		}
		req.RepliedMessageID = &id
	}
	if err := validateStruct(&req); err != nil {
		return req, nil, err
	}

	headers := r.MultipartForm.File["files"]
	files := make([]service.Upload, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			return req, nil, fmt.Errorf("open upload %s: %w", fh.Filename, err)
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return req, nil, fmt.Errorf("read upload %s: %w", fh.Filename, err)
		}
		files = append(files, service.Upload{Filename: fh.Filename, Data: data})
	}
	return req, files, nil
}

func parseDate(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse(time.DateOnly, raw); err == nil {
		return t, nil
	}
	return time.Time{}, apperr.BadRequest("Invalid date format, use YYYY-MM-DD or RFC3339")
}
