package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"tush00nka/chato/internal/handler"
	"tush00nka/chato/internal/middleware"
	"tush00nka/chato/internal/model"
	"tush00nka/chato/internal/pkg/apperr"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type tokenAuthenticator map[string]*model.User

func (a tokenAuthenticator) Authenticate(ctx context.Context, token string) (*model.User, string, error) {
	user, ok := a[token]
	if !ok {
		return nil, "", apperr.Unauthorized("Invalid token. Please log in again")
	}
	return user, "session", nil
}

func newTestServer(origins ...string) *Server {
	authenticator := tokenAuthenticator{"good": {ID: uuid.New(), Email: "alice@example.com"}}
	return NewServer(ServerOptions{
		Origins: origins,
		Auth:    middleware.Auth(authenticator),
		Uploads: http.StripPrefix(uploadsPrefix, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("file:" + r.URL.Path))
		})),
		Health: map[string]handler.HealthCheck{
			"postgres": func(ctx context.Context) error { return nil },
		},
	}, handler.NewUserHandler(nil, time.Hour, false))
}

func serve(s *Server, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, req)
	return rr
}

func TestCORSPreflightRequest(t *testing.T) {
	server := newTestServer()

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/conversations", nil)
	req.Header.Set("Origin", "http://example.com")
	req.Header.Set("Access-Control-Request-Method", "POST")
	req.Header.Set("Access-Control-Request-Headers", "Content-Type")

	rr := serve(server, req)

	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Access-Control-Allow-Origin = %v, want *", got)
	}

	if rr.Header().Get("Access-Control-Allow-Headers") == "" {
		t.Error("Access-Control-Allow-Headers should not be empty for OPTIONS request")
	}

	if got := rr.Header().Get("Access-Control-Allow-Credentials"); got != "" {
		t.Errorf("Access-Control-Allow-Credentials = %v, want empty for wildcard origin", got)
	}
}

func TestCORSWithExplicitOrigin(t *testing.T) {
	server := newTestServer("http://app.example.com")

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Origin", "http://app.example.com")
	rr := serve(server, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "http://app.example.com", rr.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rr.Header().Get("Access-Control-Allow-Credentials"))
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	server := newTestServer()

	rr := serve(server, httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil)
	req.Header.Set("Authorization", "Bearer good")
	rr = serve(server, req)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "alice@example.com")
}

func TestPublicRoutesSkipAuth(t *testing.T) {
	server := newTestServer()

	// тело невалидно, поэтому до сервиса запрос не доходит
	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/login", nil)
	rr := serve(server, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestSystemRoutes(t *testing.T) {
	server := newTestServer()

	rr := serve(server, httptest.NewRequest(http.MethodGet, "/swagger/doc.json", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "Chato API")

	rr = serve(server, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok","checks":{"postgres":"ok"}}`, rr.Body.String())

	rr = serve(server, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "chato_http_requests_total")

	rr = serve(server, httptest.NewRequest(http.MethodGet, "/uploads/attachments/a.png", nil))
	assert.Equal(t, "file:/attachments/a.png", rr.Body.String())
}

func TestUnknownRouteIsNotFound(t *testing.T) {
	server := newTestServer()

	rr := serve(server, httptest.NewRequest(http.MethodGet, "/api/v1/nope", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}
