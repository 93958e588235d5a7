package model

import (
	"time"

	"github.com/google/uuid"
)

// ChatSession rows are never removed on a normal delete: IsActive=false is
// the soft-delete marker and every user-facing query filters on it.
type ChatSession struct {
	Id        uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserId    uuid.UUID `gorm:"type:uuid;not null;index:idx_chat_sessions_user_active,priority:1"`
	Title     *string   `gorm:"type:varchar(200)"`
	IsActive  bool      `gorm:"not null;index:idx_chat_sessions_user_active,priority:2"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime:false"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime:false;index"`
}

func (ChatSession) TableName() string {
	return "chat_sessions"
}
