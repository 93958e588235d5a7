package service

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"bitbraniac-be/internal/constant"
	"bitbraniac-be/internal/dto"
	"bitbraniac-be/internal/entity"
	"bitbraniac-be/internal/pkg/apperror"
	"bitbraniac-be/internal/pkg/logger"
	"bitbraniac-be/internal/repository/specification"
	"bitbraniac-be/internal/repository/unitofwork"
	"bitbraniac-be/pkg/events"
	"bitbraniac-be/pkg/llm"
	"bitbraniac-be/pkg/lock"

	"github.com/google/uuid"
)

var errSessionNotFound = apperror.NotFound("Chat session not found")

type IChatHistoryService interface {
	CreateSession(ctx context.Context, userId uuid.UUID, title *string) (*dto.SessionResponse, error)
	ListSessions(ctx context.Context, userId uuid.UUID, limit int) (*dto.SessionListResponse, error)
	GetSession(ctx context.Context, sessionId, userId uuid.UUID, includeMessages bool) (*dto.SessionResponse, error)
	AppendMessage(ctx context.Context, sessionId, userId uuid.UUID, messageType, content string) (*dto.MessageResponse, error)
	// AppendExchange stores a user message and its reply in one transaction.
	// A nil sessionId creates the session in the same transaction.
	AppendExchange(ctx context.Context, sessionId *uuid.UUID, userId uuid.UUID, userContent, reply string) (uuid.UUID, error)
	DeleteSession(ctx context.Context, sessionId, userId uuid.UUID) error
	ClearAllSessions(ctx context.Context, userId uuid.UUID) (int64, error)
	// MessagesForContext returns the most recent limit messages (all when
	// limit <= 0), oldest first. Unknown or foreign sessions yield nothing.
	MessagesForContext(ctx context.Context, sessionId, userId uuid.UUID, limit int) ([]llm.Message, error)
	SessionExists(ctx context.Context, sessionId, userId uuid.UUID) (bool, error)
}

type chatHistoryService struct {
	uowFactory unitofwork.RepositoryFactory
	locker     lock.Locker
	publisher  events.Publisher
	logger     logger.ILogger
	now        func() time.Time
}

func NewChatHistoryService(
	uowFactory unitofwork.RepositoryFactory,
	locker lock.Locker,
	publisher events.Publisher,
	log logger.ILogger,
) IChatHistoryService {
	return &chatHistoryService{
		uowFactory: uowFactory,
		locker:     locker,
		publisher:  publisher,
		logger:     log,
		now:        time.Now,
	}
}

// generateTitle keeps the first SessionTitleMaxLen characters of a message.
func generateTitle(content string) string {
	if utf8.RuneCountInString(content) <= constant.SessionTitleMaxLen {
		return content
	}
	runes := []rune(content)
	return string(runes[:constant.SessionTitleMaxLen]) + "..."
}

func needsTitle(session *entity.ChatSession) bool {
	return session.Title == nil || *session.Title == constant.DefaultSessionTitle
}

// nextTimestamp returns a time strictly after prev so messages in a session
// keep their insertion order even when the clock stalls or steps back.
func (s *chatHistoryService) nextTimestamp(prev time.Time) time.Time {
	now := s.now().UTC().Truncate(time.Microsecond)
	if !now.After(prev) {
		now = prev.UTC().Add(time.Microsecond)
	}
	return now
}

func sessionLockKey(sessionId uuid.UUID) string {
	return "chat_session:" + sessionId.String()
}

func toMessageResponse(m *entity.ChatMessage) dto.MessageResponse {
	return dto.MessageResponse{
		Id:          m.Id,
		SessionId:   m.SessionId,
		MessageType: m.Type,
		Content:     m.Content,
		CreatedAt:   m.CreatedAt,
	}
}

func toSessionResponse(session *entity.ChatSession) dto.SessionResponse {
	title := constant.DefaultSessionTitle
	if session.Title != nil && *session.Title != "" {
		title = *session.Title
	}
	res := dto.SessionResponse{
		Id:           session.Id,
		UserId:       session.UserId,
		Title:        title,
		CreatedAt:    session.CreatedAt,
		UpdatedAt:    session.UpdatedAt,
		IsActive:     session.IsActive,
		MessageCount: session.MessageCount,
	}
	if session.Messages != nil {
		res.Messages = make([]dto.MessageResponse, 0, len(session.Messages))
		for _, m := range session.Messages {
			res.Messages = append(res.Messages, toMessageResponse(m))
		}
	}
	return res
}

func (s *chatHistoryService) CreateSession(ctx context.Context, userId uuid.UUID, title *string) (*dto.SessionResponse, error) {
	if title == nil || *title == "" {
		defaultTitle := constant.DefaultSessionTitle
		title = &defaultTitle
	}

	now := s.now().UTC().Truncate(time.Microsecond)
	session := &entity.ChatSession{
		Id:        uuid.New(),
		UserId:    userId,
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
		IsActive:  true,
	}
	if err := s.uowFactory.NewUnitOfWork(ctx).ChatSessionRepository().Create(ctx, session); err != nil {
		return nil, apperror.Internal(err)
	}

	res := toSessionResponse(session)
	return &res, nil
}

func (s *chatHistoryService) ListSessions(ctx context.Context, userId uuid.UUID, limit int) (*dto.SessionListResponse, error) {
	if limit <= 0 {
		limit = constant.DefaultSessionListLimit
	}
	if limit > constant.MaxSessionListLimit {
		limit = constant.MaxSessionListLimit
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	sessions, err := uow.ChatSessionRepository().FindAll(ctx,
		specification.UserOwnedBy{UserID: userId},
		specification.ActiveOnly(),
		specification.OrderBy{Field: "updated_at", Desc: true},
		specification.Pagination{Limit: limit},
	)
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

	res := &dto.SessionListResponse{
		Sessions: make([]dto.SessionResponse, 0, len(sessions)),
		Total:    len(sessions),
	}
	for _, session := range sessions {
		session.MessageCount = counts[session.Id]
		res.Sessions = append(res.Sessions, toSessionResponse(session))
	}
	return res, nil
}

func (s *chatHistoryService) GetSession(ctx context.Context, sessionId, userId uuid.UUID, includeMessages bool) (*dto.SessionResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	session, err := uow.ChatSessionRepository().FindOne(ctx, specification.OwnedSession(sessionId, userId)...)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	if session == nil {
		return nil, errSessionNotFound
	}

	if includeMessages {
		messages, err := uow.ChatMessageRepository().FindAll(ctx,
			specification.BySessionID{SessionID: session.Id},
			specification.OrderBy{Field: "created_at"},
		)
		if err != nil {
			return nil, apperror.Internal(err)
		}
		session.Messages = messages
		session.MessageCount = int64(len(messages))
	} else {
		count, err := uow.ChatMessageRepository().Count(ctx, specification.BySessionID{SessionID: session.Id})
		if err != nil {
			return nil, apperror.Internal(err)
		}
		session.MessageCount = count
	}

	res := toSessionResponse(session)
	return &res, nil
}

func (s *chatHistoryService) SessionExists(ctx context.Context, sessionId, userId uuid.UUID) (bool, error) {
	count, err := s.uowFactory.NewUnitOfWork(ctx).ChatSessionRepository().Count(ctx, specification.OwnedSession(sessionId, userId)...)
	if err != nil {
		return false, apperror.Internal(err)
	}
	return count > 0, nil
}

func (s *chatHistoryService) AppendMessage(ctx context.Context, sessionId, userId uuid.UUID, messageType, content string) (*dto.MessageResponse, error) {
	if messageType != constant.ChatMessageTypeUser && messageType != constant.ChatMessageTypeAssistant {
		return nil, apperror.Validation("message_type must be user or assistant")
	}
	if strings.TrimSpace(content) == "" {
		return nil, apperror.Validation("content cannot be empty")
	}

	release, err := s.locker.Lock(ctx, sessionLockKey(sessionId))
	if err != nil {
		return nil, apperror.Internal(err)
	}
	defer release()

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return nil, apperror.Internal(err)
	}
	defer uow.Rollback()

	session, err := uow.ChatSessionRepository().FindOne(ctx, specification.OwnedSession(sessionId, userId)...)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	if session == nil {
		return nil, errSessionNotFound
	}

	message, err := s.appendLocked(ctx, uow, session, messageType, content)
	if err != nil {
		return nil, err
	}
	if err := s.touch(ctx, uow, session); err != nil {
		return nil, err
	}
	if err := uow.Commit(); err != nil {
		return nil, apperror.Internal(err)
	}

	res := toMessageResponse(message)
	return &res, nil
}

func (s *chatHistoryService) AppendExchange(ctx context.Context, sessionId *uuid.UUID, userId uuid.UUID, userContent, reply string) (uuid.UUID, error) {
	if sessionId != nil {
		release, err := s.locker.Lock(ctx, sessionLockKey(*sessionId))
		if err != nil {
			return uuid.Nil, apperror.Internal(err)
		}
		defer release()
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return uuid.Nil, apperror.Internal(err)
	}
	defer uow.Rollback()

	var session *entity.ChatSession
	if sessionId == nil {
		now := s.now().UTC().Truncate(time.Microsecond)
		title := constant.DefaultSessionTitle
		session = &entity.ChatSession{
			Id:        uuid.New(),
			UserId:    userId,
			Title:     &title,
			CreatedAt: now,
			UpdatedAt: now,
			IsActive:  true,
		}
		if err := uow.ChatSessionRepository().Create(ctx, session); err != nil {
			return uuid.Nil, apperror.Internal(err)
		}
	} else {
		found, err := uow.ChatSessionRepository().FindOne(ctx, specification.OwnedSession(*sessionId, userId)...)
		if err != nil {
			return uuid.Nil, apperror.Internal(err)
		}
		if found == nil {
			return uuid.Nil, errSessionNotFound
		}
		session = found
	}

	if _, err := s.appendLocked(ctx, uow, session, constant.ChatMessageTypeUser, userContent); err != nil {
		return uuid.Nil, err
	}
	if _, err := s.appendLocked(ctx, uow, session, constant.ChatMessageTypeAssistant, reply); err != nil {
		return uuid.Nil, err
	}
	if err := s.touch(ctx, uow, session); err != nil {
		return uuid.Nil, err
	}
	if err := uow.Commit(); err != nil {
		return uuid.Nil, apperror.Internal(err)
	}
	return session.Id, nil
}

// appendLocked inserts one message and advances session.UpdatedAt (and the
// title, for a first user message) in memory; touch persists both.
func (s *chatHistoryService) appendLocked(ctx context.Context, uow unitofwork.UnitOfWork, session *entity.ChatSession, messageType, content string) (*entity.ChatMessage, error) {
	message := &entity.ChatMessage{
		Id:        uuid.New(),
		SessionId: session.Id,
		Type:      messageType,
		Content:   content,
		CreatedAt: s.nextTimestamp(session.UpdatedAt),
	}
	if err := uow.ChatMessageRepository().Create(ctx, message); err != nil {
		return nil, apperror.Internal(err)
	}

	session.UpdatedAt = message.CreatedAt
	if messageType == constant.ChatMessageTypeUser && needsTitle(session) {
		title := generateTitle(content)
		session.Title = &title
	}
	return message, nil
}

func (s *chatHistoryService) touch(ctx context.Context, uow unitofwork.UnitOfWork, session *entity.ChatSession) error {
	if err := uow.ChatSessionRepository().Touch(ctx, session.Id, session.UpdatedAt, session.Title); err != nil {
		return apperror.Internal(err)
	}
	return nil
}

func (s *chatHistoryService) DeleteSession(ctx context.Context, sessionId, userId uuid.UUID) error {
	release, err := s.locker.Lock(ctx, sessionLockKey(sessionId))
	if err != nil {
		return apperror.Internal(err)
	}
	defer release()

	affected, err := s.uowFactory.NewUnitOfWork(ctx).ChatSessionRepository().SoftDelete(ctx, sessionId, userId, s.now().UTC())
	if err != nil {
		return apperror.Internal(err)
	}
	if affected == 0 {
		return errSessionNotFound
	}

	publishEvent(ctx, s.publisher, s.logger, constant.EventSessionDeleted, map[string]interface{}{
		"user_id":    userId.String(),
		"session_id": sessionId.String(),
	})
	return nil
}

func (s *chatHistoryService) ClearAllSessions(ctx context.Context, userId uuid.UUID) (int64, error) {
	affected, err := s.uowFactory.NewUnitOfWork(ctx).ChatSessionRepository().SoftDeleteAllByUserId(ctx, userId, s.now().UTC())
	if err != nil {
		return 0, apperror.Internal(err)
	}

	publishEvent(ctx, s.publisher, s.logger, constant.EventSessionsCleared, map[string]interface{}{
		"user_id": userId.String(),
		"count":   affected,
	})
	return affected, nil
}

func (s *chatHistoryService) MessagesForContext(ctx context.Context, sessionId, userId uuid.UUID, limit int) ([]llm.Message, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	session, err := uow.ChatSessionRepository().FindOne(ctx, specification.OwnedSession(sessionId, userId)...)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	if session == nil {
		return []llm.Message{}, nil
	}

	// Newest first so the limit keeps the most recent turns, then reversed.
	messages, err := uow.ChatMessageRepository().FindAll(ctx,
		specification.BySessionID{SessionID: session.Id},
		specification.OrderBy{Field: "created_at", Desc: true},
		specification.Pagination{Limit: limit},
	)
	if err != nil {
		return nil, apperror.Internal(err)
	}

	history := make([]llm.Message, len(messages))
	for i, m := range messages {
		role := llm.RoleUser
		if m.Type == constant.ChatMessageTypeAssistant {
			role = llm.RoleAssistant
		}
		history[len(messages)-1-i] = llm.Message{Role: role, Content: m.Content}
	}
	return history, nil
}
