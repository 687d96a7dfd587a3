package repository

import (
	"context"
	"time"

	"tush00nka/chato/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AttachmentRepository interface {
	Create(ctx context.Context, attachments []model.Attachment) error
	ListByMessage(ctx context.Context, messageID uuid.UUID) ([]model.Attachment, error)
	// DetachAll открепляет все вложения сообщения, не удаляя файлы
	DetachAll(ctx context.Context, messageID uuid.UUID, at time.Time) (int64, error)
	// DeleteByMessage удаляет записи вложений и возвращает их для удаления файлов
	DeleteByMessage(ctx context.Context, messageID uuid.UUID) ([]model.Attachment, error)
	// ListDetachedBefore пропускает записи с id из skip
	ListDetachedBefore(ctx context.Context, before time.Time, skip []uuid.UUID, limit int) ([]model.Attachment, error)
	Delete(ctx context.Context, ids []uuid.UUID) error
}

type attachmentRepository struct {
	db *gorm.DB
}

func NewAttachmentRepository(db *gorm.DB) AttachmentRepository {
	return &attachmentRepository{db: db}
}

func (r *attachmentRepository) Create(ctx context.Context, attachments []model.Attachment) error {
	if len(attachments) == 0 {
		return nil
	}
	return translate(r.db.WithContext(ctx).Create(&attachments).Error)
}

func (r *attachmentRepository) ListByMessage(ctx context.Context, messageID uuid.UUID) ([]model.Attachment, error) {
	var attachments []model.Attachment
	err := r.db.WithContext(ctx).
		Where("message_id = ?", messageID).
		Order("created_at").
		Find(&attachments).Error
	return attachments, err
}

func (r *attachmentRepository) DetachAll(ctx context.Context, messageID uuid.UUID, at time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&model.Attachment{}).
		Where("message_id = ?", messageID).
		Updates(map[string]any{"message_id": nil, "detached_at": at})
	return res.RowsAffected, res.Error
}

func (r *attachmentRepository) DeleteByMessage(ctx context.Context, messageID uuid.UUID) ([]model.Attachment, error) {
	attachments, err := r.ListByMessage(ctx, messageID)
	if err != nil || len(attachments) == 0 {
		return nil, err
	}

	if err := r.db.WithContext(ctx).Where("message_id = ?", messageID).Delete(&model.Attachment{}).Error; err != nil {
		return nil, err
	}
	return attachments, nil
}

func (r *attachmentRepository) ListDetachedBefore(ctx context.Context, before time.Time, skip []uuid.UUID, limit int) ([]model.Attachment, error) {
	query := r.db.WithContext(ctx).
		Where("message_id IS NULL AND detached_at < ?", before)
	if len(skip) > 0 {
		query = query.Where("id NOT IN ?", skip)
	}

	var attachments []model.Attachment
	err := query.Order("detached_at, id").Limit(limit).Find(&attachments).Error
	return attachments, err
}

func (r *attachmentRepository) Delete(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Where("id IN ?", ids).Delete(&model.Attachment{}).Error
}
