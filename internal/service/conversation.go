package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"tush00nka/chato/internal/model"
	"tush00nka/chato/internal/pkg/apperr"
	"tush00nka/chato/internal/repository"

	"github.com/google/uuid"
)

type CreateConversationInput struct {
	Type           model.ConversationType
	Name           string
	ParticipantIDs []uuid.UUID
}

type conversationService struct {
	store    *repository.Store
	presence repository.PresenceRepository
}

// NewConversationService создает новый экземпляр ConversationService
func NewConversationService(store *repository.Store, presence repository.PresenceRepository) ConversationService {
	return &conversationService{store: store, presence: presence}
}

// Create создает беседу. Для личной беседы возвращает уже существующую, если она есть;
// второй результат сообщает, была ли беседа создана.
func (s *conversationService) Create(ctx context.Context, actorID uuid.UUID, in CreateConversationInput) (conv *model.Conversation, created bool, err error) {
	others := uniqueOthers(actorID, in.ParticipantIDs)
	name := strings.TrimSpace(in.Name)

	switch in.Type {
	case model.ConversationPrivate:
		if len(others) != 1 {
			return nil, false, apperr.BadRequest("Private conversation must have exactly one other participant")
		}
		name = ""
	case model.ConversationGroup:
		if name == "" {
			return nil, false, apperr.BadRequest("Group conversation must have a name")
		}
		if len(others) == 0 {
			return nil, false, apperr.BadRequest("Group conversation must have at least one other participant")
		}
	default:
		return nil, false, apperr.BadRequest("Conversation type must be private or group")
	}

	scope, err := s.store.Begin(ctx)
	if err != nil {
		return nil, false, err
	}
	defer scope.Release(&err)

	count, err := scope.Users().CountExisting(ctx, others)
	if err != nil {
		return nil, false, fmt.Errorf("check participants: %w", err)
	}
	if count != int64(len(others)) {
		return nil, false, apperr.NotFound(msgNoUser)
	}

	conversations := scope.Conversations()
	if in.Type == model.ConversationPrivate {
		existing, err := conversations.FindPrivateBetween(ctx, actorID, others[0])
		if err == nil {
			return existing, false, nil
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, false, fmt.Errorf("find private conversation: %w", err)
		}
	}

	conv = &model.Conversation{Type: in.Type, Name: name}
	if err := conversations.Create(ctx, conv, append([]uuid.UUID{actorID}, others...)); err != nil {
		return nil, false, fmt.Errorf("create conversation: %w", err)
	}

	conv, err = conversations.Find(ctx, conv.ID)
	if err != nil {
		return nil, false, fmt.Errorf("reload conversation: %w", err)
	}
	return conv, true, nil
}

// List возвращает беседы пользователя, последние активные первыми
func (s *conversationService) List(ctx context.Context, actorID uuid.UUID) (convs []model.Conversation, err error) {
	scope, err := s.store.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer scope.Release(&err)

	return scope.Conversations().ListForUser(ctx, actorID)
}

// Get возвращает беседу, если пользователь в ней состоит
func (s *conversationService) Get(ctx context.Context, actorID, conversationID uuid.UUID) (conv *model.Conversation, err error) {
	scope, err := s.store.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer scope.Release(&err)

	if _, err := NewGate(scope.Conversations()).Authorize(ctx, conversationID, actorID); err != nil {
		return nil, err
	}

	return scope.Conversations().Find(ctx, conversationID)
}

// Online возвращает участников беседы, подключенных к websocket
func (s *conversationService) Online(ctx context.Context, actorID, conversationID uuid.UUID) ([]uuid.UUID, error) {
	members, err := s.members(ctx, actorID, conversationID)
	if err != nil {
		return nil, err
	}

	online, err := s.presence.OnlineAmong(ctx, members.Participants)
	if err != nil {
		return nil, fmt.Errorf("load presence: %w", err)
	}
	return online, nil
}

func (s *conversationService) members(ctx context.Context, actorID, conversationID uuid.UUID) (members model.Members, err error) {
	scope, err := s.store.Begin(ctx)
	if err != nil {
		return members, err
	}
	defer scope.Release(&err)

	return NewGate(scope.Conversations()).Authorize(ctx, conversationID, actorID)
}

func uniqueOthers(actorID uuid.UUID, ids []uuid.UUID) []uuid.UUID {
	seen := map[uuid.UUID]struct{}{actorID: {}}
	others := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		others = append(others, id)
	}
	return others
}
