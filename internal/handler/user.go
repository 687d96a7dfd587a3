package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"tush00nka/chato/api/response"
	"tush00nka/chato/internal/middleware"
	"tush00nka/chato/internal/model"
	"tush00nka/chato/internal/pkg/auth"
	"tush00nka/chato/internal/pkg/httputils"
	"tush00nka/chato/internal/service"

	"github.com/gorilla/mux"
)

const (
	uuidPattern = "[0-9a-fA-F-]{36}"
	msgNoUser   = "There is no user with such id"
)

type UserHandler struct {
	userService  service.UserService
	tokenTTL     time.Duration
	secureCookie bool
}

func NewUserHandler(userService service.UserService, tokenTTL time.Duration, secureCookie bool) *UserHandler {
	return &UserHandler{userService: userService, tokenTTL: tokenTTL, secureCookie: secureCookie}
}

// RegisterRoutes public без авторизации, protected за middleware.Auth
func (h *UserHandler) RegisterRoutes(public, protected *mux.Router) {
	public.HandleFunc("/users/signup", h.signup).Methods(http.MethodPost)
	public.HandleFunc("/users/login", h.login).Methods(http.MethodPost)
	public.HandleFunc("/users/activate/{token}", h.activate).Methods(http.MethodGet)
	public.HandleFunc("/users/forget-password", h.forgetPassword).Methods(http.MethodPost)
	public.HandleFunc("/users/reset-password/{token}", h.resetPassword).Methods(http.MethodPatch)

	protected.HandleFunc("/users/logout", h.logout).Methods(http.MethodPost)
	protected.HandleFunc("/users/me", h.getMe).Methods(http.MethodGet)
	protected.HandleFunc("/users/me", h.updateMe).Methods(http.MethodPatch)
	protected.HandleFunc("/users/me", h.deleteMe).Methods(http.MethodDelete)
	protected.HandleFunc("/users/me/password", h.updatePassword).Methods(http.MethodPatch)
	protected.HandleFunc("/users/me/deactivate", h.deactivateMe).Methods(http.MethodPatch)
	protected.HandleFunc("/users/search", h.searchUsers).Methods(http.MethodGet)
	protected.HandleFunc("/users/{id:"+uuidPattern+"}", h.getUser).Methods(http.MethodGet)
}

type SignupRequest struct {
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=8,max=72"`
	PasswordConfirm string `json:"passwordConfirm" validate:"required"`
	FirstName       string `json:"firstName" validate:"max=100"`
	LastName        string `json:"lastName" validate:"max=100"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type EmailRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type ResetPasswordRequest struct {
	Password        string `json:"password" validate:"required,min=8,max=72"`
	PasswordConfirm string `json:"passwordConfirm" validate:"required"`
}

type UpdateMeRequest struct {
	FirstName *string `json:"firstName" validate:"omitempty,max=100"`
	LastName  *string `json:"lastName" validate:"omitempty,max=100"`
	Bio       *string `json:"bio" validate:"omitempty,max=500"`
}

type UpdatePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	Password        string `json:"password" validate:"required,min=8,max=72"`
	PasswordConfirm string `json:"passwordConfirm" validate:"required"`
}

type PasswordRequest struct {
	Password string `json:"password" validate:"required"`
}

// @Summary Signup
// @Description Creates an inactive account and emails an activation link
// @Tags users
// @Accept json
// @Produce json
// @Param SignupData body SignupRequest true "Signup data"
// @Success 201 {object} response.DataResponse{data=model.User}
// @Failure 400 {object} response.ErrorResponse
// @Failure 409 {object} response.ErrorResponse
// @Router /users/signup [post]
func (h *UserHandler) signup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if err := decodeJSON(w, r, &req); err != nil {
		httputils.WriteError(w, r, err)
		return
	}

	user, err := h.userService.Signup(r.Context(), service.SignupInput{
		Email:           req.Email,
		Password:        req.Password,
		PasswordConfirm: req.PasswordConfirm,
		FirstName:       req.FirstName,
		LastName:        req.LastName,
	})
	if err != nil {
		httputils.WriteError(w, r, err)
		return
	}

	httputils.ResponseJSON(w, http.StatusCreated, response.DataResponse{
		Message: "Activation link was sent to your email",
		Data:    user,
	})
}

// @Summary Activate account
// @Tags users
// @Produce json
// @Param token path string true "Activation token"
// @Success 200 {object} response.DataResponse
// @Failure 400 {object} response.ErrorResponse
// @Router /users/activate/{token} [get]
func (h *UserHandler) activate(w http.ResponseWriter, r *http.Request) {
	if err := h.userService.Activate(r.Context(), mux.Vars(r)["token"]); err != nil {
		httputils.WriteError(w, r, err)
		return
	}

	httputils.ResponseJSON(w, http.StatusOK, response.DataResponse{Message: "Your account was activated. You can log in now"})
}

// @Summary Login
// @Description Returns a JWT and also sets it as the token cookie
// @Tags users
// @Accept json
// @Produce json
// @Param LoginData body LoginRequest true "Login data"
// @Success 200 {object} response.TokenResponse
// @Failure 400 {object} response.ErrorResponse
// @Failure 403 {object} response.ErrorResponse
// @Router /users/login [post]
func (h *UserHandler) login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		httputils.WriteError(w, r, err)
		return
	}

	_, token, err := h.userService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		httputils.WriteError(w, r, err)
		return
	}

	h.setTokenCookie(w, token, time.Now().Add(h.tokenTTL))
	httputils.ResponseJSON(w, http.StatusOK, response.TokenResponse{Message: "Logged in successfully", Token: token})
}

// @Summary Logout
// @Tags users
// @Security BearerAuth
// @Success 204
// @Router /users/logout [post]
func (h *UserHandler) logout(w http.ResponseWriter, r *http.Request) {
	if err := h.userService.Logout(r.Context(), auth.SessionFrom(r.Context())); err != nil {
		httputils.WriteError(w, r, err)
		return
	}

	h.setTokenCookie(w, "", time.Unix(0, 0))
	w.WriteHeader(http.StatusNoContent)
}

// @Summary Forget password
// @Description Emails a password reset link valid for 10 minutes
// @Tags users
// @Accept json
// @Produce json
// @Param EmailData body EmailRequest true "Account email"
// @Success 200 {object} response.DataResponse
// @Failure 400 {object} response.ErrorResponse
// @Router /users/forget-password [post]
func (h *UserHandler) forgetPassword(w http.ResponseWriter, r *http.Request) {
	var req EmailRequest
	if err := decodeJSON(w, r, &req); err != nil {
		httputils.WriteError(w, r, err)
		return
	}

	if err := h.userService.ForgetPassword(r.Context(), req.Email); err != nil {
		httputils.WriteError(w, r, err)
		return
	}

	httputils.ResponseJSON(w, http.StatusOK, response.DataResponse{Message: "Reset link was sent to your email"})
}

// @Summary Reset password
// @Tags users
// @Accept json
// @Produce json
// @Param token path string true "Reset token"
// @Param PasswordData body ResetPasswordRequest true "New password"
// @Success 200 {object} response.DataResponse
// @Failure 400 {object} response.ErrorResponse
// @Router /users/reset-password/{token} [patch]
func (h *UserHandler) resetPassword(w http.ResponseWriter, r *http.Request) {
	var req ResetPasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		httputils.WriteError(w, r, err)
		return
	}

	err := h.userService.ResetPassword(r.Context(), mux.Vars(r)["token"], req.Password, req.PasswordConfirm)
	if err != nil {
		httputils.WriteError(w, r, err)
		return
	}

	httputils.ResponseJSON(w, http.StatusOK, response.DataResponse{Message: "Password was reset. You can log in now"})
}

// @Summary Current user
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.DataResponse{data=model.User}
// @Router /users/me [get]
func (h *UserHandler) getMe(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.CurrentUser(r)
	if err != nil {
		httputils.WriteError(w, r, err)
		return
	}

	httputils.ResponseData(w, http.StatusOK, user)
}

// @Summary Update profile
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param ProfileData body UpdateMeRequest true "Profile fields"
// @Success 200 {object} response.DataResponse{data=model.User}
// @Failure 400 {object} response.ErrorResponse
// @Router /users/me [patch]
func (h *UserHandler) updateMe(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.CurrentUser(r)
	if err != nil {
		httputils.WriteError(w, r, err)
		return
	}

	var req UpdateMeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		httputils.WriteError(w, r, err)
		return
	}

	updated, err := h.userService.UpdateMe(r.Context(), user, service.UpdateProfileInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Bio:       req.Bio,
	})
	if err != nil {
		httputils.WriteError(w, r, err)
		return
	}

	httputils.ResponseData(w, http.StatusOK, updated)
}

// @Summary Update password
// @Description Ends the current session and returns a new token
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param PasswordData body UpdatePasswordRequest true "Passwords"
// @Success 200 {object} response.TokenResponse
// @Failure 400 {object} response.ErrorResponse
// @Failure 403 {object} response.ErrorResponse
// @Router /users/me/password [patch]
func (h *UserHandler) updatePassword(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.CurrentUser(r)
	if err != nil {
		httputils.WriteError(w, r, err)
		return
	}

	var req UpdatePasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		httputils.WriteError(w, r, err)
		return
	}

	token, err := h.userService.UpdatePassword(r.Context(), user, auth.SessionFrom(r.Context()), service.UpdatePasswordInput{
		CurrentPassword: req.CurrentPassword,
		Password:        req.Password,
		PasswordConfirm: req.PasswordConfirm,
	})
	if err != nil {
		httputils.WriteError(w, r, err)
		return
	}

	h.setTokenCookie(w, token, time.Now().Add(h.tokenTTL))
	httputils.ResponseJSON(w, http.StatusOK, response.TokenResponse{Message: "Password was updated", Token: token})
}

// @Summary Delete account
// @Tags users
// @Accept json
// @Security BearerAuth
// @Param PasswordData body PasswordRequest true "Current password"
// @Success 204
// @Failure 400 {object} response.ErrorResponse
// @Router /users/me [delete]
func (h *UserHandler) deleteMe(w http.ResponseWriter, r *http.Request) {
	h.closeAccount(w, r, h.userService.Delete)
}

// @Summary Deactivate account
// @Tags users
// @Accept json
// @Security BearerAuth
// @Param PasswordData body PasswordRequest true "Current password"
// @Success 204
// @Failure 400 {object} response.ErrorResponse
// @Router /users/me/deactivate [patch]
func (h *UserHandler) deactivateMe(w http.ResponseWriter, r *http.Request) {
	h.closeAccount(w, r, h.userService.Deactivate)
}

// @Summary Get user
// @Description Get user by id
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Success 200 {object} response.DataResponse{data=model.User}
// @Failure 404 {object} response.ErrorResponse
// @Router /users/{id} [get]
func (h *UserHandler) getUser(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "id", msgNoUser)
	if err != nil {
		httputils.WriteError(w, r, err)
		return
	}

	user, err := h.userService.GetUser(r.Context(), userID)
	if err != nil {
		httputils.WriteError(w, r, err)
		return
	}

	httputils.ResponseData(w, http.StatusOK, user)
}

// @Summary Search users
// @Description Search active users by email or name
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param q query string true "Search prompt"
// @Success 200 {object} response.DataResponse{data=[]model.User}
// @Failure 400 {object} response.ErrorResponse
// @Router /users/search [get]
func (h *UserHandler) searchUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.userService.Search(r.Context(), strings.TrimSpace(r.URL.Query().Get("q")))
	if err != nil {
		httputils.WriteError(w, r, err)
		return
	}

	httputils.ResponseData(w, http.StatusOK, users)
}

type closeFunc func(ctx context.Context, user *model.User, sessionID, password string) error

func (h *UserHandler) closeAccount(w http.ResponseWriter, r *http.Request, closeAccount closeFunc) {
	user, err := middleware.CurrentUser(r)
	if err != nil {
		httputils.WriteError(w, r, err)
		return
	}

	var req PasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		httputils.WriteError(w, r, err)
		return
	}

	if err := closeAccount(r.Context(), user, auth.SessionFrom(r.Context()), req.Password); err != nil {
		httputils.WriteError(w, r, err)
		return
	}

	h.setTokenCookie(w, "", time.Unix(0, 0))
	w.WriteHeader(http.StatusNoContent)
}

func (h *UserHandler) setTokenCookie(w http.ResponseWriter, token string, expires time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.TokenCookie,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}
