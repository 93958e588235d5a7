package entity

import (
	"time"

	"github.com/google/uuid"
)

type ChatSession struct {
	Id        uuid.UUID
	UserId    uuid.UUID
	Title     *string
	CreatedAt time.Time
	UpdatedAt time.Time
	IsActive  bool

	// Filled by queries that ask for them.
	MessageCount int64
	Messages     []*ChatMessage
}
