package auth

import (
	"context"

	"tush00nka/chato/internal/model"
)

type ctxKey int

const (
	userKey ctxKey = iota
	sessionKey
)

// WithUser кладет пользователя и идентификатор сессии в контекст запроса
func WithUser(ctx context.Context, user *model.User, sessionID string) context.Context {
	ctx = context.WithValue(ctx, userKey, user)
	return context.WithValue(ctx, sessionKey, sessionID)
}

func UserFrom(ctx context.Context) (*model.User, bool) {
	user, ok := ctx.Value(userKey).(*model.User)
	return user, ok && user != nil
}

func SessionFrom(ctx context.Context) string {
	session, _ := ctx.Value(sessionKey).(string)
	return session
}
