package dto

import (
	"time"

	"github.com/google/uuid"
)

type UserResponse struct {
	Id        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	IsActive  bool      `json:"is_active"`
}

type MeResponse struct {
	User UserResponse `json:"user"`
}

// AdminUserResponse is the admin listing row; it counts soft-deleted
// sessions too.
type AdminUserResponse struct {
	UserResponse
	SessionCount int64 `json:"session_count"`
}
