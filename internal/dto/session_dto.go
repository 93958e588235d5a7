package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateSessionRequest struct {
	Title *string `json:"title" validate:"omitempty,max=200"`
}

type MessageResponse struct {
	Id          uuid.UUID `json:"id"`
	SessionId   uuid.UUID `json:"session_id"`
	MessageType string    `json:"message_type"`
	Content     string    `json:"content"`
	CreatedAt   time.Time `json:"created_at"`
}

type SessionResponse struct {
	Id           uuid.UUID         `json:"id"`
	UserId       uuid.UUID         `json:"user_id"`
	Title        string            `json:"title"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
	IsActive     bool              `json:"is_active"`
	MessageCount int64             `json:"message_count"`
	Messages     []MessageResponse `json:"messages,omitempty"`
}

type SessionListResponse struct {
	Sessions []SessionResponse `json:"sessions"`
	Total    int               `json:"total"`
}

type SessionDetailResponse struct {
	Session SessionResponse `json:"session"`
}

type ClearSessionsResponse struct {
	Count int64 `json:"count"`
}
