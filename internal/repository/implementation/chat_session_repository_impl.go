package implementation

import (
	"context"
	"errors"
	"time"

	"bitbraniac-be/internal/entity"
	"bitbraniac-be/internal/mapper"
	"bitbraniac-be/internal/model"
	"bitbraniac-be/internal/repository/contract"
	"bitbraniac-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ChatSessionRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ChatMapper
}

func NewChatSessionRepository(db *gorm.DB) contract.ChatSessionRepository {
	return &ChatSessionRepositoryImpl{
		db:     db,
		mapper: mapper.NewChatMapper(),
	}
}

func (r *ChatSessionRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *ChatSessionRepositoryImpl) Create(ctx context.Context, session *entity.ChatSession) error {
	m := r.mapper.ChatSessionToModel(session)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*session = *r.mapper.ChatSessionToEntity(m)
	return nil
}

func (r *ChatSessionRepositoryImpl) Touch(ctx context.Context, id uuid.UUID, updatedAt time.Time, title *string) error {
	updates := map[string]interface{}{"updated_at": updatedAt}
	if title != nil {
		updates["title"] = *title
	}
	return r.db.WithContext(ctx).Model(&model.ChatSession{}).Where("id = ?", id).Updates(updates).Error
}

func (r *ChatSessionRepositoryImpl) SoftDelete(ctx context.Context, id, userId uuid.UUID, at time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Model(&model.ChatSession{}).
		Where("id = ? AND user_id = ? AND is_active = ?", id, userId, true).
		Updates(map[string]interface{}{"is_active": false, "updated_at": at})
	return result.RowsAffected, result.Error
}

func (r *ChatSessionRepositoryImpl) SoftDeleteAllByUserId(ctx context.Context, userId uuid.UUID, at time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Model(&model.ChatSession{}).
		Where("user_id = ? AND is_active = ?", userId, true).
		Updates(map[string]interface{}{"is_active": false, "updated_at": at})
	return result.RowsAffected, result.Error
}

func (r *ChatSessionRepositoryImpl) DeleteAllByUserIdUnscoped(ctx context.Context, userId uuid.UUID) error {
	return r.db.WithContext(ctx).Where("user_id = ?", userId).Delete(&model.ChatSession{}).Error
}

func (r *ChatSessionRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.ChatSession, error) {
	var m model.ChatSession
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ChatSessionToEntity(&m), nil
}

func (r *ChatSessionRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ChatSession, error) {
	var models []*model.ChatSession
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ChatSessionsToEntities(models), nil
}

func (r *ChatSessionRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.ChatSession{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
