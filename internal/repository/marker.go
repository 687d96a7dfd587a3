package repository

import (
	"context"

	"tush00nka/chato/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Ограничение на число параметров в одном IN
const lookupChunk = 500

// MarkerRepository журнал персонального удаления сообщений
type MarkerRepository interface {
	Add(ctx context.Context, userID, messageID uuid.UUID) error
	Exists(ctx context.Context, userID, messageID uuid.UUID) (bool, error)
	// HiddenAmong возвращает подмножество messageIDs, скрытых пользователем
	HiddenAmong(ctx context.Context, userID uuid.UUID, messageIDs []uuid.UUID) (map[uuid.UUID]struct{}, error)
	// CountAmong считает маркеры сообщения, поставленные указанными пользователями
	CountAmong(ctx context.Context, messageID uuid.UUID, userIDs []uuid.UUID) (int64, error)
	DeleteForMessage(ctx context.Context, messageID uuid.UUID) error
}

type markerRepository struct {
	db *gorm.DB
}

func NewMarkerRepository(db *gorm.DB) MarkerRepository {
	return &markerRepository{db: db}
}

func (r *markerRepository) Add(ctx context.Context, userID, messageID uuid.UUID) error {
	marker := model.DeletedMessage{UserID: userID, MessageID: messageID}
	return translate(r.db.WithContext(ctx).Create(&marker).Error)
}

func (r *markerRepository) Exists(ctx context.Context, userID, messageID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.DeletedMessage{}).
		Where("user_id = ? AND message_id = ?", userID, messageID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *markerRepository) HiddenAmong(ctx context.Context, userID uuid.UUID, messageIDs []uuid.UUID) (map[uuid.UUID]struct{}, error) {
	hidden := make(map[uuid.UUID]struct{})

	for start := 0; start < len(messageIDs); start += lookupChunk {
		end := min(start+lookupChunk, len(messageIDs))

		var ids []uuid.UUID
		err := r.db.WithContext(ctx).Model(&model.DeletedMessage{}).
			Where("user_id = ? AND message_id IN ?", userID, messageIDs[start:end]).
			Pluck("message_id", &ids).Error
		if err != nil {
			return nil, err
		}

		for _, id := range ids {
			hidden[id] = struct{}{}
		}
	}

	return hidden, nil
}

func (r *markerRepository) CountAmong(ctx context.Context, messageID uuid.UUID, userIDs []uuid.UUID) (int64, error) {
	if len(userIDs) == 0 {
		return 0, nil
	}

	var count int64
	err := r.db.WithContext(ctx).Model(&model.DeletedMessage{}).
		Where("message_id = ? AND user_id IN ?", messageID, userIDs).
		Count(&count).Error
	return count, err
}

func (r *markerRepository) DeleteForMessage(ctx context.Context, messageID uuid.UUID) error {
	return r.db.WithContext(ctx).Where("message_id = ?", messageID).Delete(&model.DeletedMessage{}).Error
}
