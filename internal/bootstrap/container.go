package bootstrap

import (
	"context"
	"fmt"
	"time"

	"bitbraniac-be/internal/config"
	"bitbraniac-be/internal/constant"
	"bitbraniac-be/internal/controller"
	"bitbraniac-be/internal/pkg/logger"
	"bitbraniac-be/internal/pkg/mailer"
	"bitbraniac-be/internal/pkg/token"
	"bitbraniac-be/internal/repository/memory"
	"bitbraniac-be/internal/repository/unitofwork"
	"bitbraniac-be/internal/service"
	"bitbraniac-be/pkg/events"
	"bitbraniac-be/pkg/llm/factory"
	"bitbraniac-be/pkg/lock"
	pktNats "bitbraniac-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	AuthController    controller.IAuthController
	SessionController controller.ISessionController
	ChatbotController controller.IChatbotController

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService

	Logger logger.ILogger

	closers []func()
}

func NewContainer(ctx context.Context, db *gorm.DB, cfg *config.Config, sysLogger logger.ILogger) (_ *Container, err error) {
	c := &Container{Logger: sysLogger}
	defer func() {
		if err != nil {
			c.Close()
		}
	}()

	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	tokens := token.NewManager(cfg.JWT.Secret, cfg.JWT.AccessTokenTTL, cfg.JWT.RefreshTokenTTL)

	var emailService mailer.IEmailService = mailer.NopEmailService{}
	if cfg.SMTP.Host != "" {
		emailService = mailer.NewEmailService(
			cfg.SMTP.Host,
			cfg.SMTP.Port,
			cfg.SMTP.Email,
			cfg.SMTP.Password,
			cfg.SMTP.Email,
			cfg.SMTP.SenderName,
		)
	} else {
		sysLogger.Info("BOOTSTRAP", "SMTP not configured, welcome mails are disabled", nil)
	}

	persona, err := config.LoadPersona(cfg.Ai.PersonaFile)
	if err != nil {
		return nil, err
	}

	// 2. Event Bus
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NewStdLogger(false, false))
	c.closers = append(c.closers, func() { _ = pubSub.Close() })

	publisher := events.MultiPublisher{events.NewWatermillPublisher(pubSub, constant.ActivityTopic)}
	if cfg.App.NatsURL != "" {
		natsPub, err := pktNats.NewPublisher(ctx, cfg.App.NatsURL)
		if err != nil {
			sysLogger.Warn("BOOTSTRAP", "Failed to connect to NATS, events stay in-process", map[string]interface{}{"error": err.Error()})
		} else {
			publisher = append(publisher, natsPub)
			c.closers = append(c.closers, natsPub.Close)
		}
	}

	// 3. Session locks
	locker, err := newLocker(ctx, cfg, sysLogger, c)
	if err != nil {
		return nil, err
	}

	// 4. LLM
	llmProvider, err := factory.NewResilientLLMProvider(ctx, factory.Config{
		Provider:   cfg.Ai.LLMProvider,
		Model:      cfg.Ai.LLMModel,
		APIKey:     cfg.Ai.APIKey,
		BaseURL:    cfg.Ai.BaseURL,
		Timeout:    cfg.Ai.Timeout,
		MaxRetries: cfg.Ai.MaxRetries,
	})
	if err != nil {
		return nil, fmt.Errorf("initialize LLM provider: %w", err)
	}
	sysLogger.Info("BOOTSTRAP", "LLM provider ready", map[string]interface{}{
		"provider": cfg.Ai.LLMProvider,
		"model":    cfg.Ai.LLMModel,
	})

	// 5. Services
	authService := service.NewAuthService(uowFactory, tokens, publisher, sysLogger)
	historyService := service.NewChatHistoryService(uowFactory, locker, publisher, sysLogger)
	chatbotService := service.NewChatbotService(
		service.ChatbotConfig{
			Persona:         persona,
			WindowSize:      cfg.Ai.WindowSize,
			Temperature:     cfg.Ai.Temperature,
			MaxOutputTokens: cfg.Ai.MaxOutputTokens,
			Model:           cfg.Ai.LLMModel,
		},
		llmProvider,
		historyService,
		memory.NewActiveConversationRepository(cfg.Ai.ActiveChatMaxAge),
		publisher,
		sysLogger,
	)
	c.ConsumerService = service.NewConsumerService(
		pubSub,
		constant.ActivityTopic,
		emailService,
		persona.WelcomeMessage,
		sysLogger,
	)

	// 6. Controllers
	c.AuthController = controller.NewAuthController(authService, tokens)
	c.SessionController = controller.NewSessionController(historyService, tokens)
	c.ChatbotController = controller.NewChatbotController(chatbotService, tokens)

	return c, nil
}

func newLocker(ctx context.Context, cfg *config.Config, sysLogger logger.ILogger, c *Container) (lock.Locker, error) {
	switch cfg.Lock.Backend {
	case "", "memory":
		return lock.NewMemoryLocker(), nil
	case "redis":
		rdb, err := NewRedisClient(ctx, cfg.App.RedisURL, sysLogger)
		if err != nil {
			return nil, err
		}
		c.closers = append(c.closers, func() { _ = rdb.Close() })
		return lock.NewRedisLocker(rdb, "bitbraniac:lock:", cfg.Lock.TTL), nil
	default:
		return nil, fmt.Errorf("unsupported lock backend: %s", cfg.Lock.Backend)
	}
}

// NewRedisClient accepts a redis:// URL or a bare host:port.
func NewRedisClient(ctx context.Context, redisURL string, sysLogger logger.ILogger) (*redis.Client, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		sysLogger.Warn("BOOTSTRAP", "Failed to parse Redis URL, using it as an address", map[string]interface{}{"error": err.Error()})
		opt = &redis.Options{Addr: redisURL}
	}
	rdb := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return rdb, nil
}

// Close releases the bus, NATS and Redis connections in reverse order.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
}
