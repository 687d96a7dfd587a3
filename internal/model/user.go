package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	ID                uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Email             string         `gorm:"size:255;uniqueIndex;not null" json:"email"`
	Password          string         `gorm:"not null" json:"password,omitempty"`
	FirstName         string         `gorm:"size:100" json:"first_name"`
	LastName          string         `gorm:"size:100" json:"last_name"`
	Bio               string         `gorm:"size:500" json:"bio"`
	Role              string         `gorm:"size:16;not null" json:"role"`
	IsActive          bool           `gorm:"not null" json:"is_active"`
	PasswordChangedAt *time.Time     `json:"-"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
	DeletedAt         gorm.DeletedAt `gorm:"index" json:"-"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.Role == "" {
		u.Role = RoleUser
	}
	return nil
}

func (u *User) SanitizePassword() {
	u.Password = ""
}

// DisplayName имя для писем и уведомлений
func (u *User) DisplayName() string {
	name := u.FirstName
	if u.LastName != "" {
		if name != "" {
			name += " "
		}
		name += u.LastName
	}
	if name == "" {
		return u.Email
	}
	return name
}

// BlockRelation направленная связь: BlockerID заблокировал BlockedID
type BlockRelation struct {
	BlockerID uuid.UUID `gorm:"type:uuid;primaryKey" json:"blocker_id"`
	BlockedID uuid.UUID `gorm:"type:uuid;primaryKey;index" json:"blocked_id"`
	CreatedAt time.Time `json:"created_at"`
}

// VerificationToken одноразовый токен активации или сброса пароля
type VerificationToken struct {
	UserID    uuid.UUID `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
}
