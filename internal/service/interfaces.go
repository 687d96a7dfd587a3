package service

import (
	"context"

	"tush00nka/chato/internal/media"
	"tush00nka/chato/internal/model"
	"tush00nka/chato/internal/repository"

	"github.com/google/uuid"
)

type MessageService interface {
	List(ctx context.Context, actorID, conversationID uuid.UUID, filter repository.MessageFilter) ([]model.Message, error)
	Get(ctx context.Context, actorID, conversationID, messageID uuid.UUID) (*model.Message, error)
	Create(ctx context.Context, actorID, conversationID uuid.UUID, in CreateMessageInput) (*model.Message, error)
	Edit(ctx context.Context, actorID, conversationID, messageID uuid.UUID, in EditMessageInput) (*model.Message, error)
	Delete(ctx context.Context, actorID, conversationID, messageID uuid.UUID) error
	Unsend(ctx context.Context, actorID, conversationID, messageID uuid.UUID) error
	React(ctx context.Context, actorID, conversationID, messageID uuid.UUID, reaction string) (ReactionOutcome, error)
	MarkRead(ctx context.Context, actorID, conversationID, messageID uuid.UUID) error
}

type ConversationService interface {
	Create(ctx context.Context, actorID uuid.UUID, in CreateConversationInput) (*model.Conversation, bool, error)
	List(ctx context.Context, actorID uuid.UUID) ([]model.Conversation, error)
	Get(ctx context.Context, actorID, conversationID uuid.UUID) (*model.Conversation, error)
	Online(ctx context.Context, actorID, conversationID uuid.UUID) ([]uuid.UUID, error)
}

type BlockService interface {
	IsBlocked(ctx context.Context, blockerID, candidateID uuid.UUID) (bool, error)
	Block(ctx context.Context, actorID, targetID uuid.UUID) error
	Unblock(ctx context.Context, actorID, targetID uuid.UUID) error
	ListBlocked(ctx context.Context, actorID uuid.UUID) ([]model.User, error)
}

type UserService interface {
	Signup(ctx context.Context, in SignupInput) (*model.User, error)
	Activate(ctx context.Context, token string) error
	Login(ctx context.Context, email, password string) (*model.User, string, error)
	Logout(ctx context.Context, sessionID string) error
	Authenticate(ctx context.Context, token string) (*model.User, string, error)
	GetUser(ctx context.Context, id uuid.UUID) (*model.User, error)
	Search(ctx context.Context, prompt string) ([]model.User, error)
	UpdateMe(ctx context.Context, user *model.User, in UpdateProfileInput) (*model.User, error)
	UpdatePassword(ctx context.Context, user *model.User, sessionID string, in UpdatePasswordInput) (string, error)
	ForgetPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, password, passwordConfirm string) error
	Delete(ctx context.Context, user *model.User, sessionID, password string) error
	Deactivate(ctx context.Context, user *model.User, sessionID, password string) error
}

// Notifier доставляет события участникам, реализуется websocket хабом
type Notifier interface {
	Notify(recipients []uuid.UUID, event model.MessageEvent)
}

// MediaProcessor обрабатывает и сохраняет вложения
type MediaProcessor interface {
	Process(ctx context.Context, raw []byte, size media.Size, format media.Format) (media.Stored, error)
	Discard(ctx context.Context, key string) error
}

type nopNotifier struct{}

func (nopNotifier) Notify([]uuid.UUID, model.MessageEvent) {}
