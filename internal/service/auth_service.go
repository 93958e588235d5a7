package service

import (
	"context"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"bitbraniac-be/internal/constant"
	"bitbraniac-be/internal/dto"
	"bitbraniac-be/internal/entity"
	"bitbraniac-be/internal/pkg/apperror"
	"bitbraniac-be/internal/pkg/logger"
	"bitbraniac-be/internal/pkg/token"
	"bitbraniac-be/internal/repository/specification"
	"bitbraniac-be/internal/repository/unitofwork"
	"bitbraniac-be/pkg/events"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 6

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

type IAuthService interface {
	Register(ctx context.Context, req *dto.RegisterRequest, ipAddress, userAgent string) (*dto.AuthResponse, error)
	Login(ctx context.Context, req *dto.LoginRequest, ipAddress, userAgent string) (*dto.AuthResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*dto.RefreshResponse, error)
	Me(ctx context.Context, userId uuid.UUID) (*dto.MeResponse, error)
	Logout(ctx context.Context, refreshToken string) error
}

type authService struct {
	uowFactory unitofwork.RepositoryFactory
	tokens     *token.Manager
	publisher  events.Publisher
	logger     logger.ILogger
	hashCost   int
}

func NewAuthService(
	uowFactory unitofwork.RepositoryFactory,
	tokens *token.Manager,
	publisher events.Publisher,
	log logger.ILogger,
) IAuthService {
	return &authService{
		uowFactory: uowFactory,
		tokens:     tokens,
		publisher:  publisher,
		logger:     log,
		hashCost:   bcrypt.DefaultCost,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func toUserResponse(user *entity.User) dto.UserResponse {
	return dto.UserResponse{
		Id:        user.Id,
		Email:     user.Email,
		CreatedAt: user.CreatedAt,
		IsActive:  user.IsActive,
	}
}

func (s *authService) Register(ctx context.Context, req *dto.RegisterRequest, ipAddress, userAgent string) (*dto.AuthResponse, error) {
	email := normalizeEmail(req.Email)
	if !emailPattern.MatchString(email) {
		return nil, apperror.ErrInvalidEmail
	}
	if utf8.RuneCountInString(req.Password) < minPasswordLength {
		return nil, apperror.ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.hashCost)
	if err != nil {
		return nil, apperror.Internal(err)
	}

	now := time.Now().UTC()
	user := &entity.User{
		Id:           uuid.New(),
		Email:        email,
		PasswordHash: string(hash),
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return nil, apperror.Internal(err)
	}
	defer uow.Rollback()

	existing, err := uow.UserRepository().FindOne(ctx, specification.ByEmail{Email: email})
	if err != nil {
		return nil, apperror.Internal(err)
	}
	if existing != nil {
		return nil, apperror.ErrDuplicateEmail
	}

	if err := uow.UserRepository().Create(ctx, user); err != nil {
		// A concurrent registration can win between the lookup and the insert.
		_ = uow.Rollback()
		if dup, _ := s.uowFactory.NewUnitOfWork(ctx).UserRepository().FindOne(ctx, specification.ByEmail{Email: email}); dup != nil {
			return nil, apperror.ErrDuplicateEmail
		}
		return nil, apperror.Internal(err)
	}

	res, err := s.issueTokens(ctx, uow, user, ipAddress, userAgent)
	if err != nil {
		return nil, err
	}
	if err := uow.Commit(); err != nil {
		return nil, apperror.Internal(err)
	}

	publishEvent(ctx, s.publisher, s.logger, constant.EventUserRegistered, map[string]interface{}{
		"user_id": user.Id.String(),
		"email":   user.Email,
	})
	s.logger.Info("AUTH", "User registered", map[string]interface{}{"user_id": user.Id.String()})
	return res, nil
}

func (s *authService) Login(ctx context.Context, req *dto.LoginRequest, ipAddress, userAgent string) (*dto.AuthResponse, error) {
	email := normalizeEmail(req.Email)

	uow := s.uowFactory.NewUnitOfWork(ctx)
	user, err := uow.UserRepository().FindOne(ctx, specification.ByEmail{Email: email})
	if err != nil {
		return nil, apperror.Internal(err)
	}
	if user == nil {
		return nil, apperror.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, apperror.ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, apperror.ErrAccountInactive
	}

	if err := uow.Begin(ctx); err != nil {
		return nil, apperror.Internal(err)
	}
	defer uow.Rollback()

	res, err := s.issueTokens(ctx, uow, user, ipAddress, userAgent)
	if err != nil {
		return nil, err
	}
	if err := uow.Commit(); err != nil {
		return nil, apperror.Internal(err)
	}

	publishEvent(ctx, s.publisher, s.logger, constant.EventUserLoggedIn, map[string]interface{}{
		"user_id":    user.Id.String(),
		"ip_address": ipAddress,
		"user_agent": userAgent,
	})
	return res, nil
}

// issueTokens signs a token pair and records the refresh token's hash
// inside the caller's transaction.
func (s *authService) issueTokens(ctx context.Context, uow unitofwork.UnitOfWork, user *entity.User, ipAddress, userAgent string) (*dto.AuthResponse, error) {
	accessToken, err := s.tokens.IssueAccessToken(user.Id)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	refreshToken, expiresAt, err := s.tokens.IssueRefreshToken(user.Id)
	if err != nil {
		return nil, apperror.Internal(err)
	}

	err = uow.UserRepository().CreateRefreshToken(ctx, &entity.UserRefreshToken{
		Id:        uuid.New(),
		UserId:    user.Id,
		TokenHash: token.Hash(refreshToken),
		ExpiresAt: expiresAt.UTC(),
		CreatedAt: time.Now().UTC(),
		IpAddress: ipAddress,
		UserAgent: userAgent,
	})
	if err != nil {
		return nil, apperror.Internal(err)
	}

	return &dto.AuthResponse{
		User:         toUserResponse(user),
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

func (s *authService) Refresh(ctx context.Context, refreshToken string) (*dto.RefreshResponse, error) {
	claims, err := s.tokens.Parse(refreshToken, token.TypeRefresh)
	if err != nil {
		return nil, apperror.Unauthorized("Invalid or expired refresh token", err)
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	stored, err := uow.UserRepository().FindRefreshToken(ctx,
		specification.ByTokenHash{Hash: token.Hash(refreshToken)},
		specification.UsableRefreshToken{At: time.Now().UTC()},
	)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	if stored == nil || stored.UserId != claims.UserId {
		return nil, apperror.Unauthorized("Refresh token has been revoked", nil)
	}

	user, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: claims.UserId})
	if err != nil {
		return nil, apperror.Internal(err)
	}
	if user == nil || !user.IsActive {
		return nil, apperror.Unauthorized("User not found or inactive", nil)
	}

	accessToken, err := s.tokens.IssueAccessToken(user.Id)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	return &dto.RefreshResponse{AccessToken: accessToken}, nil
}

func (s *authService) Me(ctx context.Context, userId uuid.UUID) (*dto.MeResponse, error) {
	user, err := s.uowFactory.NewUnitOfWork(ctx).UserRepository().FindOne(ctx, specification.ByID{ID: userId})
	if err != nil {
		return nil, apperror.Internal(err)
	}
	if user == nil || !user.IsActive {
		return nil, apperror.NotFound("User not found")
	}
	return &dto.MeResponse{User: toUserResponse(user)}, nil
}

// Logout revokes the refresh token. Unknown or empty tokens are ignored so
// the call is idempotent.
func (s *authService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	err := s.uowFactory.NewUnitOfWork(ctx).UserRepository().RevokeRefreshToken(ctx, token.Hash(refreshToken))
	if err != nil {
		return apperror.Internal(err)
	}
	return nil
}
