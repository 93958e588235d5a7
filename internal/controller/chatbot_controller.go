package controller

import (
	"bitbraniac-be/internal/constant"
	"bitbraniac-be/internal/dto"
	"bitbraniac-be/internal/pkg/apperror"
	"bitbraniac-be/internal/pkg/serverutils"
	"bitbraniac-be/internal/pkg/token"
	"bitbraniac-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

var features = []string{"authentication", "persistent_history", "ai_tutoring"}

type IChatbotController interface {
	RegisterRoutes(r fiber.Router)
	SendMessage(ctx *fiber.Ctx) error
	SendAnonymousMessage(ctx *fiber.Ctx) error
	History(ctx *fiber.Ctx) error
	Clear(ctx *fiber.Ctx) error
	Welcome(ctx *fiber.Ctx) error
	Health(ctx *fiber.Ctx) error
	BackendHealth(ctx *fiber.Ctx) error
}

type chatbotController struct {
	service service.IChatbotService
	tokens  *token.Manager
}

func NewChatbotController(service service.IChatbotService, tokens *token.Manager) IChatbotController {
	return &chatbotController{service: service, tokens: tokens}
}

func (c *chatbotController) RegisterRoutes(r fiber.Router) {
	auth := serverutils.NewJwtMiddleware(c.tokens, token.TypeAccess)

	h := r.Group("/chat")
	h.Post("/message", auth, c.SendMessage)
	h.Post("/message/anonymous", c.SendAnonymousMessage)
	h.Get("/history", auth, c.History)
	h.Post("/clear", auth, c.Clear)
	h.Get("/welcome", c.Welcome)
	h.Get("/health", c.Health)

	r.Get("/health", c.BackendHealth)
}

func (c *chatbotController) SendMessage(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserIdFromCtx(ctx)
	if err != nil {
		return err
	}

	var req dto.SendMessageRequest
	if err := serverutils.ParseBody(ctx, &req); err != nil {
		return err
	}

	var sessionId *uuid.UUID
	if req.SessionId != "" {
		id, err := uuid.Parse(req.SessionId)
		if err != nil {
			return apperror.Validation("session_id must be a valid id")
		}
		sessionId = &id
	}

	res, err := c.service.Chat(ctx.UserContext(), req.Message, sessionId, &userId)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Message processed", res))
}

func (c *chatbotController) SendAnonymousMessage(ctx *fiber.Ctx) error {
	var req dto.AnonymousMessageRequest
	if err := serverutils.ParseBody(ctx, &req); err != nil {
		return err
	}

	res, err := c.service.Chat(ctx.UserContext(), req.Message, nil, nil)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Message processed", res))
}

func (c *chatbotController) History(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserIdFromCtx(ctx)
	if err != nil {
		return err
	}

	res, err := c.service.History(ctx.UserContext(), userId)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Conversation history", res))
}

func (c *chatbotController) Clear(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserIdFromCtx(ctx)
	if err != nil {
		return err
	}

	if err := c.service.Clear(ctx.UserContext(), userId); err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse[any]("Conversation cleared", nil))
}

func (c *chatbotController) Welcome(ctx *fiber.Ctx) error {
	return ctx.JSON(serverutils.SuccessResponse("Welcome", dto.WelcomeResponse{Message: c.service.Welcome()}))
}

func (c *chatbotController) Health(ctx *fiber.Ctx) error {
	return ctx.JSON(serverutils.SuccessResponse("OK", healthOf(constant.ServiceName)))
}

func (c *chatbotController) BackendHealth(ctx *fiber.Ctx) error {
	return ctx.JSON(serverutils.SuccessResponse("OK", healthOf(constant.BackendName)))
}

func healthOf(service string) dto.HealthResponse {
	return dto.HealthResponse{
		Status:   "healthy",
		Service:  service,
		Version:  constant.ServiceVersion,
		Features: features,
	}
}
