package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Message struct {
	ID               uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	ConversationID   uuid.UUID         `gorm:"type:uuid;not null;index:idx_messages_conversation_created,priority:1" json:"conversation_id"`
	SenderID         uuid.UUID         `gorm:"type:uuid;not null;index" json:"sender_id"`
	Body             string            `gorm:"type:text" json:"message"`
	RepliedMessageID *uuid.UUID        `gorm:"type:uuid;index" json:"replied_message_id,omitempty"`
	IsEdited         bool              `gorm:"not null" json:"is_edited"`
	IsRead           bool              `gorm:"not null" json:"is_read"`
	CreatedAt        time.Time         `gorm:"index:idx_messages_conversation_created,priority:2" json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`
	Attachments      []Attachment      `gorm:"foreignKey:MessageID" json:"attachments"`
	Reactions        []MessageReaction `gorm:"foreignKey:MessageID" json:"reactions,omitempty"`
}

func (m *Message) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// Attachment принадлежит не более чем одному сообщению.
// После открепления MessageID пуст, а DetachedAt указывает момент открепления.
type Attachment struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	MessageID  *uuid.UUID `gorm:"type:uuid;index" json:"message_id,omitempty"`
	FileURL    string     `gorm:"size:1024;not null" json:"file_url"`
	StorageKey string     `gorm:"size:512;not null" json:"-"`
	DetachedAt *time.Time `gorm:"index" json:"-"`
	CreatedAt  time.Time  `json:"created_at"`
}

func (a *Attachment) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// DeletedMessage маркер: пользователь скрыл сообщение для себя
type DeletedMessage struct {
	UserID    uuid.UUID `gorm:"type:uuid;primaryKey"`
	MessageID uuid.UUID `gorm:"type:uuid;primaryKey;index"`
	CreatedAt time.Time
}

type MessageReaction struct {
	UserID    uuid.UUID `gorm:"type:uuid;primaryKey" json:"user_id"`
	MessageID uuid.UUID `gorm:"type:uuid;primaryKey;index" json:"message_id"`
	Reaction  string    `gorm:"size:32;not null" json:"reaction"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
