package contract

import (
	"context"
	"time"

	"bitbraniac-be/internal/entity"
	"bitbraniac-be/internal/repository/specification"

	"github.com/google/uuid"
)

type ChatSessionRepository interface {
	Create(ctx context.Context, session *entity.ChatSession) error
	// Touch moves updated_at forward and, when title is non-nil, replaces the title.
	Touch(ctx context.Context, id uuid.UUID, updatedAt time.Time, title *string) error
	// SoftDelete deactivates one active session of the user and reports how many rows changed.
	SoftDelete(ctx context.Context, id, userId uuid.UUID, at time.Time) (int64, error)
	SoftDeleteAllByUserId(ctx context.Context, userId uuid.UUID, at time.Time) (int64, error)
	DeleteAllByUserIdUnscoped(ctx context.Context, userId uuid.UUID) error // Hard delete all
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.ChatSession, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ChatSession, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
