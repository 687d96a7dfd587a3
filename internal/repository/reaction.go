package repository

import (
	"context"

	"tush00nka/chato/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ReactionRepository interface {
	Find(ctx context.Context, userID, messageID uuid.UUID) (*model.MessageReaction, error)
	Create(ctx context.Context, reaction *model.MessageReaction) error
	UpdateValue(ctx context.Context, userID, messageID uuid.UUID, value string) error
	Delete(ctx context.Context, userID, messageID uuid.UUID) error
	DeleteForMessage(ctx context.Context, messageID uuid.UUID) error
}

type reactionRepository struct {
	db *gorm.DB
}

func NewReactionRepository(db *gorm.DB) ReactionRepository {
	return &reactionRepository{db: db}
}

func (r *reactionRepository) Find(ctx context.Context, userID, messageID uuid.UUID) (*model.MessageReaction, error) {
	var reaction model.MessageReaction
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND message_id = ?", userID, messageID).
		Take(&reaction).Error
	if err != nil {
		return nil, translate(err)
	}
	return &reaction, nil
}

func (r *reactionRepository) Create(ctx context.Context, reaction *model.MessageReaction) error {
	return translate(r.db.WithContext(ctx).Create(reaction).Error)
}

func (r *reactionRepository) UpdateValue(ctx context.Context, userID, messageID uuid.UUID, value string) error {
	return r.db.WithContext(ctx).Model(&model.MessageReaction{}).
		Where("user_id = ? AND message_id = ?", userID, messageID).
		Update("reaction", value).Error
}

func (r *reactionRepository) Delete(ctx context.Context, userID, messageID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("user_id = ? AND message_id = ?", userID, messageID).
		Delete(&model.MessageReaction{}).Error
}

func (r *reactionRepository) DeleteForMessage(ctx context.Context, messageID uuid.UUID) error {
	return r.db.WithContext(ctx).Where("message_id = ?", messageID).Delete(&model.MessageReaction{}).Error
}
