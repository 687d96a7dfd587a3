package handler

import (
	"net/http"

	"tush00nka/chato/api/response"
	"tush00nka/chato/internal/middleware"
	"tush00nka/chato/internal/pkg/httputils"
	"tush00nka/chato/internal/service"

	"github.com/gorilla/mux"
)

type BlockHandler struct {
	blockService service.BlockService
}

func NewBlockHandler(blockService service.BlockService) *BlockHandler {
	return &BlockHandler{blockService: blockService}
}

func (h *BlockHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/users/blocked", h.listBlocked).Methods(http.MethodGet)
	router.HandleFunc("/users/{id:"+uuidPattern+"}/block", h.blockUser).Methods(http.MethodPost)
	router.HandleFunc("/users/{id:"+uuidPattern+"}/block", h.unblockUser).Methods(http.MethodDelete)
}

// @Summary Block user
// @Description The blocked user can no longer write to you in private conversations
// @Tags blocks
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Success 201 {object} response.DataResponse
// @Failure 400 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Failure 409 {object} response.ErrorResponse
// @Router /users/{id}/block [post]
func (h *BlockHandler) blockUser(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.CurrentUser(r)
	if err != nil {
		httputils.WriteError(w, r, err)
		return
	}
	targetID, err := pathID(r, "id", msgNoUser)
	if err != nil {
		httputils.WriteError(w, r, err)
		return
	}

	if err := h.blockService.Block(r.Context(), user.ID, targetID); err != nil {
		httputils.WriteError(w, r, err)
		return
	}

	httputils.ResponseJSON(w, http.StatusCreated, response.DataResponse{Message: "User was blocked"})
}

// @Summary Unblock user
// @Tags blocks
// @Security BearerAuth
// @Param id path string true "User ID"
// @Success 204
// @Failure 404 {object} response.ErrorResponse
// @Router /users/{id}/block [delete]
func (h *BlockHandler) unblockUser(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.CurrentUser(r)
	if err != nil {
		httputils.WriteError(w, r, err)
		return
	}
	targetID, err := pathID(r, "id", msgNoUser)
	if err != nil {
		httputils.WriteError(w, r, err)
		return
	}

	if err := h.blockService.Unblock(r.Context(), user.ID, targetID); err != nil {
		httputils.WriteError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// @Summary Blocked users
// @Tags blocks
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.DataResponse{data=[]model.User}
// @Router /users/blocked [get]
func (h *BlockHandler) listBlocked(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.CurrentUser(r)
	if err != nil {
		httputils.WriteError(w, r, err)
		return
	}

	users, err := h.blockService.ListBlocked(r.Context(), user.ID)
	if err != nil {
		httputils.WriteError(w, r, err)
		return
	}

	httputils.ResponseData(w, http.StatusOK, users)
}
