package controller

import (
	"bitbraniac-be/internal/dto"
	"bitbraniac-be/internal/pkg/apperror"
	"bitbraniac-be/internal/pkg/serverutils"
	"bitbraniac-be/internal/pkg/token"
	"bitbraniac-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type ISessionController interface {
	RegisterRoutes(r fiber.Router)
	List(ctx *fiber.Ctx) error
	Create(ctx *fiber.Ctx) error
	Get(ctx *fiber.Ctx) error
	Delete(ctx *fiber.Ctx) error
	Clear(ctx *fiber.Ctx) error
}

type sessionController struct {
	service service.IChatHistoryService
	tokens  *token.Manager
}

func NewSessionController(service service.IChatHistoryService, tokens *token.Manager) ISessionController {
	return &sessionController{service: service, tokens: tokens}
}

func (c *sessionController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/sessions")
	h.Use(serverutils.NewJwtMiddleware(c.tokens, token.TypeAccess))
	h.Get("/", c.List)
	h.Post("/", c.Create)
	h.Post("/clear", c.Clear)
	h.Get("/:id", c.Get)
	h.Delete("/:id", c.Delete)
}

// sessionIdParam treats a malformed id like an unknown one.
func sessionIdParam(ctx *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return uuid.Nil, apperror.NotFound("Chat session not found")
	}
	return id, nil
}

func (c *sessionController) List(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserIdFromCtx(ctx)
	if err != nil {
		return err
	}

	res, err := c.service.ListSessions(ctx.UserContext(), userId, ctx.QueryInt("limit", 0))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Chat sessions", res))
}

func (c *sessionController) Create(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserIdFromCtx(ctx)
	if err != nil {
		return err
	}

	var req dto.CreateSessionRequest
	if len(ctx.Body()) > 0 {
		if err := serverutils.ParseBody(ctx, &req); err != nil {
			return err
		}
	}

	session, err := c.service.CreateSession(ctx.UserContext(), userId, req.Title)
	if err != nil {
		return err
	}
	res := dto.SessionDetailResponse{Session: *session}
	return ctx.Status(fiber.StatusCreated).JSON(serverutils.CreatedResponse("Chat session created", res))
}

func (c *sessionController) Get(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserIdFromCtx(ctx)
	if err != nil {
		return err
	}
	sessionId, err := sessionIdParam(ctx)
	if err != nil {
		return err
	}

	session, err := c.service.GetSession(ctx.UserContext(), sessionId, userId, true)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Chat session", dto.SessionDetailResponse{Session: *session}))
}

func (c *sessionController) Delete(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserIdFromCtx(ctx)
	if err != nil {
		return err
	}
	sessionId, err := sessionIdParam(ctx)
	if err != nil {
		return err
	}

	if err := c.service.DeleteSession(ctx.UserContext(), sessionId, userId); err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse[any]("Chat session deleted", nil))
}

func (c *sessionController) Clear(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserIdFromCtx(ctx)
	if err != nil {
		return err
	}

	count, err := c.service.ClearAllSessions(ctx.UserContext(), userId)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Chat sessions cleared", dto.ClearSessionsResponse{Count: count}))
}
