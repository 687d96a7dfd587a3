package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// PresenceRepository учет пользователей, подключенных к websocket
type PresenceRepository interface {
	MarkOnline(ctx context.Context, userID uuid.UUID) error
	MarkOffline(ctx context.Context, userID uuid.UUID) error
	OnlineAmong(ctx context.Context, userIDs []uuid.UUID) ([]uuid.UUID, error)
}

type presenceRepository struct {
	rdb *redis.Client
	key string
}

// NewPresenceRepository instance позволяет нескольким серверам вести свои множества
func NewPresenceRepository(rdb *redis.Client, instance string) PresenceRepository {
	return &presenceRepository{rdb: rdb, key: fmt.Sprintf("presence:%s:online", instance)}
}

func (r *presenceRepository) MarkOnline(ctx context.Context, userID uuid.UUID) error {
	return r.rdb.SAdd(ctx, r.key, userID.String()).Err()
}

func (r *presenceRepository) MarkOffline(ctx context.Context, userID uuid.UUID) error {
	return r.rdb.SRem(ctx, r.key, userID.String()).Err()
}

func (r *presenceRepository) OnlineAmong(ctx context.Context, userIDs []uuid.UUID) ([]uuid.UUID, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}

	members := make([]any, len(userIDs))
	for i, id := range userIDs {
		members[i] = id.String()
	}

	flags, err := r.rdb.SMIsMember(ctx, r.key, members...).Result()
	if err != nil {
		return nil, err
	}

	online := make([]uuid.UUID, 0, len(userIDs))
	for i, ok := range flags {
		if ok {
			online = append(online, userIDs[i])
		}
	}
	return online, nil
}
