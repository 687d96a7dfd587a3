package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"tush00nka/chato/internal/model"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type TokenPurpose string

const (
	PurposeActivation TokenPurpose = "activation"
	PurposeReset      TokenPurpose = "reset"
)

// TokenRepository хранит одноразовые токены и отозванные сессии в Redis
type TokenRepository interface {
	SaveToken(ctx context.Context, purpose TokenPurpose, token string, userID uuid.UUID, expiresIn time.Duration) error
	// ConsumeToken возвращает владельца и удаляет токен, ErrNotFound если токена нет
	ConsumeToken(ctx context.Context, purpose TokenPurpose, token string) (uuid.UUID, error)
	RevokeSession(ctx context.Context, sessionID string, expiresIn time.Duration) error
	IsSessionRevoked(ctx context.Context, sessionID string) (bool, error)
}

type tokenRepository struct {
	rdb *redis.Client
}

func NewTokenRepository(rdb *redis.Client) TokenRepository {
	return &tokenRepository{rdb: rdb}
}

func tokenKey(purpose TokenPurpose, token string) string {
	return fmt.Sprintf("token:%s:%s", purpose, token)
}

func sessionKey(sessionID string) string {
	return fmt.Sprintf("session:revoked:%s", sessionID)
}

func (r *tokenRepository) SaveToken(ctx context.Context, purpose TokenPurpose, token string, userID uuid.UUID, expiresIn time.Duration) error {
	verification := model.VerificationToken{
		UserID:    userID,
		ExpiresAt: time.Now().Add(expiresIn),
	}

	data, err := json.Marshal(verification)
	if err != nil {
		return err
	}

	return r.rdb.Set(ctx, tokenKey(purpose, token), data, expiresIn).Err()
}

func (r *tokenRepository) ConsumeToken(ctx context.Context, purpose TokenPurpose, token string) (uuid.UUID, error) {
	data, err := r.rdb.GetDel(ctx, tokenKey(purpose, token)).Bytes()
	if errors.Is(err, redis.Nil) {
		return uuid.Nil, ErrNotFound
	}
	if err != nil {
		return uuid.Nil, err
	}

	var verification model.VerificationToken
	if err := json.Unmarshal(data, &verification); err != nil {
		return uuid.Nil, err
	}

	if time.Now().After(verification.ExpiresAt) {
		return uuid.Nil, ErrNotFound
	}

	return verification.UserID, nil
}

func (r *tokenRepository) RevokeSession(ctx context.Context, sessionID string, expiresIn time.Duration) error {
	if expiresIn <= 0 {
		return nil
	}
	return r.rdb.Set(ctx, sessionKey(sessionID), 1, expiresIn).Err()
}

func (r *tokenRepository) IsSessionRevoked(ctx context.Context, sessionID string) (bool, error) {
	n, err := r.rdb.Exists(ctx, sessionKey(sessionID)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
