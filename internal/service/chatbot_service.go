package service

import (
	"context"
	"strings"
	"time"

	"bitbraniac-be/internal/config"
	"bitbraniac-be/internal/constant"
	"bitbraniac-be/internal/dto"
	"bitbraniac-be/internal/pkg/apperror"
	"bitbraniac-be/internal/pkg/logger"
	"bitbraniac-be/internal/repository/memory"
	"bitbraniac-be/pkg/events"
	"bitbraniac-be/pkg/llm"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("bitbraniac-be/internal/service")

type IChatbotService interface {
	// Chat runs one turn. With a user the exchange is persisted (creating a
	// session when sessionId is nil); without one the call is stateless.
	Chat(ctx context.Context, message string, sessionId, userId *uuid.UUID) (*dto.SendMessageResponse, error)
	History(ctx context.Context, userId uuid.UUID) (*dto.ChatHistoryResponse, error)
	Clear(ctx context.Context, userId uuid.UUID) error
	Welcome() string
}

// ChatbotConfig is fixed at construction; the service keeps no other state
// between calls besides the per-user active session pointer.
type ChatbotConfig struct {
	Persona         config.Persona
	WindowSize      int
	Temperature     float64
	MaxOutputTokens int
	Model           string
}

type chatbotService struct {
	cfg       ChatbotConfig
	provider  llm.LLMProvider
	history   IChatHistoryService
	active    *memory.ActiveConversationRepository
	publisher events.Publisher
	logger    logger.ILogger
}

func NewChatbotService(
	cfg ChatbotConfig,
	provider llm.LLMProvider,
	history IChatHistoryService,
	active *memory.ActiveConversationRepository,
	publisher events.Publisher,
	log logger.ILogger,
) IChatbotService {
	if cfg.WindowSize <= 0 {
		cfg.WindowSize = 10
	}
	return &chatbotService{
		cfg:       cfg,
		provider:  provider,
		history:   history,
		active:    active,
		publisher: publisher,
		logger:    log,
	}
}

// contextLimit is how many persisted messages ground a turn: windowSize
// exchanges of two messages each.
func (s *chatbotService) contextLimit() int {
	return 2 * s.cfg.WindowSize
}

func (s *chatbotService) options() []llm.Option {
	opts := []llm.Option{llm.WithTemperature(s.cfg.Temperature)}
	if s.cfg.MaxOutputTokens > 0 {
		opts = append(opts, llm.WithMaxTokens(s.cfg.MaxOutputTokens))
	}
	if s.cfg.Model != "" {
		opts = append(opts, llm.WithModel(s.cfg.Model))
	}
	return opts
}

func (s *chatbotService) Chat(ctx context.Context, message string, sessionId, userId *uuid.UUID) (*dto.SendMessageResponse, error) {
	ctx, span := tracer.Start(ctx, "chatbot.Chat")
	defer span.End()

	message = strings.TrimSpace(message)
	if message == "" {
		return nil, apperror.Validation("Message cannot be empty")
	}

	span.SetAttributes(attribute.Bool("chat.anonymous", userId == nil))

	var prior []llm.Message
	if userId != nil && sessionId != nil {
		exists, err := s.history.SessionExists(ctx, *sessionId, *userId)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, errSessionNotFound
		}
		prior, err = s.history.MessagesForContext(ctx, *sessionId, *userId, s.contextLimit())
		if err != nil {
			return nil, err
		}
	}

	request := make([]llm.Message, 0, len(prior)+2)
	request = append(request, llm.Message{Role: llm.RoleSystem, Content: s.cfg.Persona.SystemPrompt})
	request = append(request, prior...)
	request = append(request, llm.Message{Role: llm.RoleUser, Content: message})
	span.SetAttributes(attribute.Int("chat.context_messages", len(prior)))

	started := time.Now()
	reply, err := s.provider.Chat(ctx, request, s.options()...)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "llm call failed")
		s.logger.Error("CHATBOT", "LLM call failed", map[string]interface{}{
			"error":       err.Error(),
			"duration_ms": time.Since(started).Milliseconds(),
			"timeout":     llm.IsTimeout(err),
		})
		return nil, apperror.External(err)
	}

	if userId == nil {
		return &dto.SendMessageResponse{Response: reply}, nil
	}

	savedId, err := s.history.AppendExchange(ctx, sessionId, *userId, message, reply)
	if err != nil {
		return nil, err
	}

	s.active.Set(*userId, savedId)
	publishEvent(ctx, s.publisher, s.logger, constant.EventChatTurnCompleted, map[string]interface{}{
		"user_id":     userId.String(),
		"session_id":  savedId.String(),
		"new_session": sessionId == nil,
		"duration_ms": time.Since(started).Milliseconds(),
	})

	return &dto.SendMessageResponse{Response: reply, SessionId: &savedId}, nil
}

func (s *chatbotService) History(ctx context.Context, userId uuid.UUID) (*dto.ChatHistoryResponse, error) {
	res := &dto.ChatHistoryResponse{History: []dto.HistoryEntry{}}

	sessionId, ok := s.active.Get(userId)
	if !ok {
		return res, nil
	}

	messages, err := s.history.MessagesForContext(ctx, sessionId, userId, s.contextLimit())
	if err != nil {
		return nil, err
	}
	if len(messages) == 0 {
		// The session was deleted since the last turn.
		s.active.ForgetSession(userId, sessionId)
		return res, nil
	}

	res.SessionId = &sessionId
	for _, m := range messages {
		kind := constant.HistoryRoleHuman
		if m.Role == llm.RoleAssistant {
			kind = constant.HistoryRoleAI
		}
		res.History = append(res.History, dto.HistoryEntry{Type: kind, Content: m.Content})
	}
	return res, nil
}

// Clear forgets the active conversation. Persisted sessions are untouched.
func (s *chatbotService) Clear(ctx context.Context, userId uuid.UUID) error {
	s.active.Delete(userId)
	return nil
}

func (s *chatbotService) Welcome() string {
	return s.cfg.Persona.WelcomeMessage
}
