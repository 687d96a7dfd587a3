package repository

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"gorm.io/gorm"
)

// Store выдает транзакционные области для операций над сообщениями
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Begin открывает транзакцию. Вызывающий обязан вызвать Release:
//
//	scope, err := store.Begin(ctx)
//	if err != nil {
//		return err
//	}
//	defer scope.Release(&err)
func (s *Store) Begin(ctx context.Context) (*Scope, error) {
	tx := s.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, fmt.Errorf("begin transaction: %w", tx.Error)
	}
	return &Scope{tx: tx}, nil
}

// Scope явная транзакция, репозитории которой работают внутри нее
type Scope struct {
	tx *gorm.DB
}

// Release фиксирует транзакцию, если *errp == nil, иначе откатывает.
// Должен вызываться через defer: при панике транзакция откатывается.
func (s *Scope) Release(errp *error) {
	if p := recover(); p != nil {
		s.tx.Rollback()
		panic(p)
	}

	if *errp != nil {
		if err := s.tx.Rollback().Error; err != nil {
			log.Warn("rollback failed", "err", err)
		}
		return
	}

	if err := s.tx.Commit().Error; err != nil {
		*errp = fmt.Errorf("commit transaction: %w", err)
	}
}

func (s *Scope) Messages() MessageRepository {
	return NewMessageRepository(s.tx)
}

func (s *Scope) Markers() MarkerRepository {
	return NewMarkerRepository(s.tx)
}

func (s *Scope) Attachments() AttachmentRepository {
	return NewAttachmentRepository(s.tx)
}

func (s *Scope) Reactions() ReactionRepository {
	return NewReactionRepository(s.tx)
}

func (s *Scope) Conversations() ConversationRepository {
	return NewConversationRepository(s.tx)
}

func (s *Scope) Blocks() BlockRepository {
	return NewBlockRepository(s.tx)
}

func (s *Scope) Users() UserRepository {
	return NewUserRepository(s.tx)
}
