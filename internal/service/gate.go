package service

import (
	"context"
	"errors"
	"fmt"

	"tush00nka/chato/internal/model"
	"tush00nka/chato/internal/pkg/apperr"
	"tush00nka/chato/internal/repository"

	"github.com/google/uuid"
)

const msgNoConversation = "There is no conversation with such id"

// Gate проверяет состав беседы внутри текущей транзакции
type Gate struct {
	conversations repository.ConversationRepository
}

func NewGate(conversations repository.ConversationRepository) Gate {
	return Gate{conversations: conversations}
}

// Resolve возвращает тип и участников беседы
func (g Gate) Resolve(ctx context.Context, conversationID uuid.UUID) (model.Members, error) {
	members, err := g.conversations.Members(ctx, conversationID)
	if errors.Is(err, repository.ErrNotFound) {
		return model.Members{}, apperr.NotFound(msgNoConversation)
	}
	if err != nil {
		return model.Members{}, fmt.Errorf("resolve conversation: %w", err)
	}
	return members, nil
}

// Authorize для не-участника отвечает так же, как для несуществующей беседы
func (g Gate) Authorize(ctx context.Context, conversationID, userID uuid.UUID) (model.Members, error) {
	members, err := g.Resolve(ctx, conversationID)
	if err != nil {
		return model.Members{}, err
	}
	if !members.Has(userID) {
		return model.Members{}, apperr.NotFound(msgNoConversation)
	}
	return members, nil
}
