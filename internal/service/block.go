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

type blockService struct {
	blocks repository.BlockRepository
	users  repository.UserRepository
}

// NewBlockService создает новый экземпляр BlockService
func NewBlockService(blocks repository.BlockRepository, users repository.UserRepository) BlockService {
	return &blockService{blocks: blocks, users: users}
}

// IsBlocked сообщает, заблокировал ли blockerID пользователя candidateID
func (s *blockService) IsBlocked(ctx context.Context, blockerID, candidateID uuid.UUID) (bool, error) {
	return s.blocks.IsBlocked(ctx, blockerID, candidateID)
}

// Block добавляет пользователя в черный список
func (s *blockService) Block(ctx context.Context, actorID, targetID uuid.UUID) error {
	if actorID == targetID {
		return apperr.BadRequest("You cannot block yourself")
	}

	if _, err := s.users.FindByID(ctx, targetID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.NotFound("There is no user with such id")
		}
		return fmt.Errorf("find user: %w", err)
	}

	err := s.blocks.Create(ctx, actorID, targetID)
	if errors.Is(err, repository.ErrDuplicate) {
		return apperr.Conflict("This user is already blocked")
	}
	return err
}

// Unblock убирает пользователя из черного списка
func (s *blockService) Unblock(ctx context.Context, actorID, targetID uuid.UUID) error {
	removed, err := s.blocks.Delete(ctx, actorID, targetID)
	if err != nil {
		return fmt.Errorf("unblock: %w", err)
	}
	if !removed {
		return apperr.NotFound("This user is not blocked")
	}
	return nil
}

// ListBlocked возвращает заблокированных пользователей
func (s *blockService) ListBlocked(ctx context.Context, actorID uuid.UUID) ([]model.User, error) {
	return s.blocks.ListBlocked(ctx, actorID)
}

// senderBlocked проверяет черные списки остальных участников личной беседы.
// Для групповых бесед проверка не выполняется.
func senderBlocked(ctx context.Context, blocks repository.BlockRepository, members model.Members, senderID uuid.UUID) (bool, error) {
	if members.Type != model.ConversationPrivate {
		return false, nil
	}

	for _, other := range members.Others(senderID) {
		blocked, err := blocks.IsBlocked(ctx, other, senderID)
		if err != nil {
			return false, err
		}
		if blocked {
			return true, nil
		}
	}
	return false, nil
}
