package serverutils

import (
	"errors"
	"strings"

	"bitbraniac-be/internal/pkg/apperror"
	"bitbraniac-be/internal/pkg/token"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const (
	LocalUserId   = "user_id"
	LocalRawToken = "raw_token"
)

// NewJwtMiddleware accepts only tokens of the given type and stores the
// caller's id (string) and the raw token in ctx.Locals.
func NewJwtMiddleware(manager *token.Manager, tokenType token.Type) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		raw, ok := BearerToken(ctx)
		if !ok {
			return apperror.Unauthorized("Missing token", nil)
		}

		claims, err := manager.Parse(raw, tokenType)
		if err != nil {
			if errors.Is(err, token.ErrWrongTokenType) {
				return apperror.Unauthorized("Invalid token type", err)
			}
			return apperror.Unauthorized("Invalid or expired token", err)
		}

		ctx.Locals(LocalUserId, claims.UserId.String())
		ctx.Locals(LocalRawToken, raw)
		return ctx.Next()
	}
}

func BearerToken(ctx *fiber.Ctx) (string, bool) {
	authHeader := ctx.Get(fiber.HeaderAuthorization)
	if len(authHeader) < 7 || !strings.EqualFold(authHeader[:7], "Bearer ") {
		return "", false
	}
	raw := strings.TrimSpace(authHeader[7:])
	return raw, raw != ""
}

func UserIdFromCtx(ctx *fiber.Ctx) (uuid.UUID, error) {
	raw, ok := ctx.Locals(LocalUserId).(string)
	if !ok {
		return uuid.Nil, apperror.ErrUnauthorized
	}
	userId, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, apperror.Unauthorized("Invalid token subject", err)
	}
	return userId, nil
}

func RawTokenFromCtx(ctx *fiber.Ctx) string {
	raw, _ := ctx.Locals(LocalRawToken).(string)
	return raw
}
