package middleware

import (
	"context"
	"net/http"
	"strings"

	"tush00nka/chato/internal/model"
	"tush00nka/chato/internal/pkg/apperr"
	"tush00nka/chato/internal/pkg/auth"
	"tush00nka/chato/internal/pkg/httputils"
)

// TokenCookie имя cookie, в которую кладется JWT при входе
const TokenCookie = "token"

type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*model.User, string, error)
}

// Auth пропускает только запросы с действительным токеном и кладет пользователя в контекст
func Auth(authenticator Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := tokenFromRequest(r)
			if token == "" {
				httputils.ResponseError(w, http.StatusUnauthorized, "You are not logged in. Please log in to get access")
				return
			}

			user, sessionID, err := authenticator.Authenticate(r.Context(), token)
			if err != nil {
				httputils.WriteError(w, r, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.WithUser(r.Context(), user, sessionID)))
		})
	}
}

// CurrentUser достает пользователя, положенного Auth
func CurrentUser(r *http.Request) (*model.User, error) {
	user, ok := auth.UserFrom(r.Context())
	if !ok {
		return nil, apperr.Unauthorized("You are not logged in. Please log in to get access")
	}
	return user, nil
}

// tokenFromRequest Bearer заголовок, затем cookie, затем query (для websocket)
func tokenFromRequest(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		if token, ok := strings.CutPrefix(header, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}

	if cookie, err := r.Cookie(TokenCookie); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	return r.URL.Query().Get("token")
}
