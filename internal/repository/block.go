package repository

import (
	"context"

	"tush00nka/chato/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type BlockRepository interface {
	IsBlocked(ctx context.Context, blockerID, candidateID uuid.UUID) (bool, error)
	Create(ctx context.Context, blockerID, blockedID uuid.UUID) error
	// Delete возвращает false, если блокировки не было
	Delete(ctx context.Context, blockerID, blockedID uuid.UUID) (bool, error)
	ListBlocked(ctx context.Context, blockerID uuid.UUID) ([]model.User, error)
}

type blockRepository struct {
	db *gorm.DB
}

func NewBlockRepository(db *gorm.DB) BlockRepository {
	return &blockRepository{db: db}
}

func (r *blockRepository) IsBlocked(ctx context.Context, blockerID, candidateID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.BlockRelation{}).
		Where("blocker_id = ? AND blocked_id = ?", blockerID, candidateID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *blockRepository) Create(ctx context.Context, blockerID, blockedID uuid.UUID) error {
	relation := model.BlockRelation{BlockerID: blockerID, BlockedID: blockedID}
	return translate(r.db.WithContext(ctx).Create(&relation).Error)
}

func (r *blockRepository) Delete(ctx context.Context, blockerID, blockedID uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("blocker_id = ? AND blocked_id = ?", blockerID, blockedID).
		Delete(&model.BlockRelation{})
	return res.RowsAffected > 0, res.Error
}

func (r *blockRepository) ListBlocked(ctx context.Context, blockerID uuid.UUID) ([]model.User, error) {
	var users []model.User
	err := r.db.WithContext(ctx).
		Joins("JOIN block_relations AS br ON br.blocked_id = users.id").
		Where("br.blocker_id = ?", blockerID).
		Order("br.created_at DESC").
		Find(&users).Error
	if err != nil {
		return nil, err
	}
	for i := range users {
		users[i].SanitizePassword()
	}
	return users, nil
}
