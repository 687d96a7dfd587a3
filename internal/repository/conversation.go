package repository

import (
	"context"

	"tush00nka/chato/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ConversationRepository interface {
	Create(ctx context.Context, conv *model.Conversation, participantIDs []uuid.UUID) error
	Find(ctx context.Context, id uuid.UUID) (*model.Conversation, error)
	// Members возвращает тип и участников беседы без загрузки пользователей
	Members(ctx context.Context, id uuid.UUID) (model.Members, error)
	FindPrivateBetween(ctx context.Context, user1ID, user2ID uuid.UUID) (*model.Conversation, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]model.Conversation, error)
	AddParticipant(ctx context.Context, conversationID, userID uuid.UUID) error
	Touch(ctx context.Context, id uuid.UUID) error
}

type conversationRepository struct {
	db *gorm.DB
}

func NewConversationRepository(db *gorm.DB) ConversationRepository {
	return &conversationRepository{db: db}
}

func (r *conversationRepository) Create(ctx context.Context, conv *model.Conversation, participantIDs []uuid.UUID) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(conv).Error; err != nil {
		return translate(err)
	}

	for _, userID := range participantIDs {
		if err := r.AddParticipant(ctx, conv.ID, userID); err != nil {
			return err
		}
	}
	return nil
}

func (r *conversationRepository) Find(ctx context.Context, id uuid.UUID) (*model.Conversation, error) {
	var conv model.Conversation
	if err := r.db.WithContext(ctx).Preload("Participants").Where("id = ?", id).Take(&conv).Error; err != nil {
		return nil, translate(err)
	}
	sanitizeParticipants(&conv)
	return &conv, nil
}

func (r *conversationRepository) Members(ctx context.Context, id uuid.UUID) (model.Members, error) {
	var conv model.Conversation
	err := r.db.WithContext(ctx).Select("id", "type").Where("id = ?", id).Take(&conv).Error
	if err != nil {
		return model.Members{}, translate(err)
	}

	var participants []uuid.UUID
	err = r.db.WithContext(ctx).Table("conversation_participants").
		Where("conversation_id = ?", id).
		Pluck("user_id", &participants).Error
	if err != nil {
		return model.Members{}, err
	}

	return model.Members{Type: conv.Type, Participants: participants}, nil
}

func (r *conversationRepository) FindPrivateBetween(ctx context.Context, user1ID, user2ID uuid.UUID) (*model.Conversation, error) {
	var conv model.Conversation

	// Ищем личную беседу, в которой состоят оба пользователя
	err := r.db.WithContext(ctx).
		Joins("JOIN conversation_participants AS cp1 ON cp1.conversation_id = conversations.id").
		Joins("JOIN conversation_participants AS cp2 ON cp2.conversation_id = conversations.id").
		Where("conversations.type = ? AND cp1.user_id = ? AND cp2.user_id = ?", model.ConversationPrivate, user1ID, user2ID).
		Preload("Participants").
		Take(&conv).Error
	if err != nil {
		return nil, translate(err)
	}
	sanitizeParticipants(&conv)
	return &conv, nil
}

func (r *conversationRepository) ListForUser(ctx context.Context, userID uuid.UUID) ([]model.Conversation, error) {
	var convs []model.Conversation
	err := r.db.WithContext(ctx).
		Joins("JOIN conversation_participants AS cp ON cp.conversation_id = conversations.id").
		Where("cp.user_id = ?", userID).
		Preload("Participants").
		Order("conversations.updated_at DESC").
		Find(&convs).Error
	if err != nil {
		return nil, err
	}
	for i := range convs {
		sanitizeParticipants(&convs[i])
	}
	return convs, nil
}

func (r *conversationRepository) AddParticipant(ctx context.Context, conversationID, userID uuid.UUID) error {
	return translate(r.db.WithContext(ctx).Exec(`
        INSERT INTO conversation_participants (conversation_id, user_id)
        VALUES (?, ?)
    `, conversationID, userID).Error)
}

// Touch поднимает беседу в списке при новом сообщении
func (r *conversationRepository) Touch(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&model.Conversation{}).
		Where("id = ?", id).
		Update("updated_at", r.db.NowFunc()).Error
}

func sanitizeParticipants(conv *model.Conversation) {
	for i := range conv.Participants {
		conv.Participants[i].SanitizePassword()
	}
}
