package repository

import (
	"context"
	"strings"
	"time"

	"tush00nka/chato/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type MessageFilter struct {
	Search string
	Since  *time.Time
}

type MessageRepository interface {
	Create(ctx context.Context, msg *model.Message) error
	Find(ctx context.Context, conversationID, messageID uuid.UUID) (*model.Message, error)
	// FindForUpdate блокирует строку сообщения до конца транзакции
	FindForUpdate(ctx context.Context, conversationID, messageID uuid.UUID) (*model.Message, error)
	List(ctx context.Context, conversationID uuid.UUID, filter MessageFilter) ([]model.Message, error)
	UpdateBody(ctx context.Context, messageID uuid.UUID, body string) error
	MarkRead(ctx context.Context, messageID uuid.UUID) error
	Delete(ctx context.Context, messageID uuid.UUID) error
	ClearReplies(ctx context.Context, messageID uuid.UUID) error
}

type messageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &messageRepository{db: db}
}

func (r *messageRepository) Create(ctx context.Context, msg *model.Message) error {
	return translate(r.db.WithContext(ctx).Omit(clause.Associations).Create(msg).Error)
}

func (r *messageRepository) Find(ctx context.Context, conversationID, messageID uuid.UUID) (*model.Message, error) {
	var msg model.Message
	err := r.db.WithContext(ctx).
		Preload("Attachments").
		Preload("Reactions").
		Where("id = ? AND conversation_id = ?", messageID, conversationID).
		Take(&msg).Error
	if err != nil {
		return nil, translate(err)
	}
	return &msg, nil
}

func (r *messageRepository) FindForUpdate(ctx context.Context, conversationID, messageID uuid.UUID) (*model.Message, error) {
	var msg model.Message
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ? AND conversation_id = ?", messageID, conversationID).
		Take(&msg).Error
	if err != nil {
		return nil, translate(err)
	}
	return &msg, nil
}

func (r *messageRepository) List(ctx context.Context, conversationID uuid.UUID, filter MessageFilter) ([]model.Message, error) {
	query := r.db.WithContext(ctx).
		Preload("Attachments").
		Preload("Reactions").
		Where("conversation_id = ?", conversationID)

	if filter.Search != "" {
		query = query.Where(`LOWER(body) LIKE ? ESCAPE '\'`, containsPattern(filter.Search))
	}
	if filter.Since != nil {
		query = query.Where("created_at >= ?", filter.Since.UTC())
	}

	var messages []model.Message
	if err := query.Order("created_at DESC").Find(&messages).Error; err != nil {
		return nil, err
	}
	return messages, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern шаблон LIKE для поиска подстроки без учета регистра,
// спецсимволы LIKE в s экранируются
func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(s)) + "%"
}

func (r *messageRepository) UpdateBody(ctx context.Context, messageID uuid.UUID, body string) error {
	return r.db.WithContext(ctx).Model(&model.Message{}).
		Where("id = ?", messageID).
		Updates(map[string]any{"body": body, "is_edited": true}).Error
}

func (r *messageRepository) MarkRead(ctx context.Context, messageID uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&model.Message{}).
		Where("id = ?", messageID).
		Update("is_read", true).Error
}

func (r *messageRepository) Delete(ctx context.Context, messageID uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", messageID).Delete(&model.Message{}).Error
}

// ClearReplies обнуляет ссылки ответов на удаляемое сообщение
func (r *messageRepository) ClearReplies(ctx context.Context, messageID uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&model.Message{}).
		Where("replied_message_id = ?", messageID).
		Update("replied_message_id", nil).Error
}
