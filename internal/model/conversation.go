package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ConversationType string

const (
	ConversationPrivate ConversationType = "private"
	ConversationGroup   ConversationType = "group"
)

type Conversation struct {
	ID           uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	Type         ConversationType `gorm:"size:16;not null;index" json:"type"`
	Name         string           `gorm:"size:100" json:"name,omitempty"`
	Participants []User           `gorm:"many2many:conversation_participants;" json:"participants,omitempty"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
}

func (c *Conversation) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// Members состав беседы без загрузки пользователей
type Members struct {
	Type         ConversationType
	Participants []uuid.UUID
}

func (m Members) Has(userID uuid.UUID) bool {
	for _, id := range m.Participants {
		if id == userID {
			return true
		}
	}
	return false
}

// Others участники кроме userID
func (m Members) Others(userID uuid.UUID) []uuid.UUID {
	others := make([]uuid.UUID, 0, len(m.Participants))
	for _, id := range m.Participants {
		if id != userID {
			others = append(others, id)
		}
	}
	return others
}
