package service

import (
	"context"
	"fmt"
	"strings"

	"bitbraniac-be/internal/constant"
	"bitbraniac-be/internal/dto"
	"bitbraniac-be/internal/pkg/apperror"
	"bitbraniac-be/internal/pkg/logger"
	"bitbraniac-be/internal/repository/specification"
	"bitbraniac-be/internal/repository/unitofwork"
	"bitbraniac-be/pkg/events"

	"github.com/google/uuid"
)

// IAdminService is the operator surface behind cmd/admin. Unlike the public
// API it can see soft-deleted sessions and remove users for good.
type IAdminService interface {
	ListUsers(ctx context.Context, limit, offset int) ([]dto.AdminUserResponse, error)
	FindUserByEmail(ctx context.Context, email string) (*dto.AdminUserResponse, error)
	SetUserActive(ctx context.Context, userId uuid.UUID, active bool) error
	// DeleteUser hard-deletes the user with every session, message and
	// refresh token they own, in one transaction.
	DeleteUser(ctx context.Context, userId uuid.UUID) error
	ListSessions(ctx context.Context, userId uuid.UUID, includeInactive bool) ([]dto.SessionResponse, error)
	GetSystemLogs(level string, limit, offset int) ([]logger.LogEntry, error)
}

type adminService struct {
	uowFactory unitofwork.RepositoryFactory
	publisher  events.Publisher
	logger     logger.ILogger
	logFile    string
}

func NewAdminService(
	uowFactory unitofwork.RepositoryFactory,
	publisher events.Publisher,
	log logger.ILogger,
	logFile string,
) IAdminService {
	return &adminService{
		uowFactory: uowFactory,
		publisher:  publisher,
		logger:     log,
		logFile:    logFile,
	}
}

func (s *adminService) ListUsers(ctx context.Context, limit, offset int) ([]dto.AdminUserResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	users, err := uow.UserRepository().FindAll(ctx,
		specification.OrderBy{Field: "created_at"},
		specification.Pagination{Limit: limit, Offset: offset},
	)
	if err != nil {
		return nil, apperror.Internal(err)
	}

	res := make([]dto.AdminUserResponse, 0, len(users))
	for _, user := range users {
		count, err := uow.ChatSessionRepository().Count(ctx, specification.UserOwnedBy{UserID: user.Id})
		if err != nil {
			return nil, apperror.Internal(err)
		}
		res = append(res, dto.AdminUserResponse{UserResponse: toUserResponse(user), SessionCount: count})
	}
	return res, nil
}

func (s *adminService) FindUserByEmail(ctx context.Context, email string) (*dto.AdminUserResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	user, err := uow.UserRepository().FindOne(ctx, specification.ByEmail{Email: email})
	if err != nil {
		return nil, apperror.Internal(err)
	}
	if user == nil {
		return nil, apperror.NotFound("User not found")
	}
	count, err := uow.ChatSessionRepository().Count(ctx, specification.UserOwnedBy{UserID: user.Id})
	if err != nil {
		return nil, apperror.Internal(err)
	}
	return &dto.AdminUserResponse{UserResponse: toUserResponse(user), SessionCount: count}, nil
}

func (s *adminService) SetUserActive(ctx context.Context, userId uuid.UUID, active bool) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	user, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: userId})
	if err != nil {
		return apperror.Internal(err)
	}
	if user == nil {
		return apperror.NotFound("User not found")
	}
	if err := uow.UserRepository().SetActive(ctx, userId, active); err != nil {
		return apperror.Internal(err)
	}

	s.logger.Info("ADMIN", "User status changed", map[string]interface{}{
		"user_id": userId.String(),
		"active":  active,
	})
	return nil
}

func (s *adminService) DeleteUser(ctx context.Context, userId uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return apperror.Internal(err)
	}
	defer uow.Rollback()

	user, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: userId})
	if err != nil {
		return apperror.Internal(err)
	}
	if user == nil {
		return apperror.NotFound("User not found")
	}

	// Children first so foreign keys never point at a removed row.
	if err := uow.ChatMessageRepository().DeleteAllByUserIdUnscoped(ctx, userId); err != nil {
		return apperror.Internal(fmt.Errorf("purge messages: %w", err))
	}
	if err := uow.ChatSessionRepository().DeleteAllByUserIdUnscoped(ctx, userId); err != nil {
		return apperror.Internal(fmt.Errorf("purge sessions: %w", err))
	}
	if err := uow.UserRepository().DeleteRefreshTokensByUserId(ctx, userId); err != nil {
		return apperror.Internal(fmt.Errorf("purge refresh tokens: %w", err))
	}
	if err := uow.UserRepository().DeleteUnscoped(ctx, userId); err != nil {
		return apperror.Internal(fmt.Errorf("purge user: %w", err))
	}
	if err := uow.Commit(); err != nil {
		return apperror.Internal(err)
	}

	s.logger.Info("ADMIN", "User deleted", map[string]interface{}{"user_id": userId.String()})
	publishEvent(ctx, s.publisher, s.logger, constant.EventUserDeleted, map[string]interface{}{
		"user_id": userId.String(),
	})
	return nil
}

func (s *adminService) ListSessions(ctx context.Context, userId uuid.UUID, includeInactive bool) ([]dto.SessionResponse, error) {
	specs := []specification.Specification{
		specification.UserOwnedBy{UserID: userId},
		specification.OrderBy{Field: "updated_at", Desc: true},
	}
	if !includeInactive {
		specs = append(specs, specification.ActiveOnly())
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	sessions, err := uow.ChatSessionRepository().FindAll(ctx, specs...)
	if err != nil {
		return nil, apperror.Internal(err)
	}

	ids := make([]uuid.UUID, 0, len(sessions))
	for _, session := range sessions {
		ids = append(ids, session.Id)
	}
	counts, err := uow.ChatMessageRepository().CountBySessionIds(ctx, ids)
	if err != nil {
		return nil, apperror.Internal(err)
	}

	res := make([]dto.SessionResponse, 0, len(sessions))
	for _, session := range sessions {
		session.MessageCount = counts[session.Id]
		res = append(res, toSessionResponse(session))
	}
	return res, nil
}

func (s *adminService) GetSystemLogs(level string, limit, offset int) ([]logger.LogEntry, error) {
	return logger.ReadLogFile(s.logFile, strings.ToUpper(level), limit, offset)
}
