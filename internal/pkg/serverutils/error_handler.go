package serverutils

import (
	"errors"

	"bitbraniac-be/internal/pkg/apperror"
	"bitbraniac-be/internal/pkg/logger"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandlerMiddleware renders errors returned by downstream handlers.
// Typed errors keep their client message; anything else becomes a generic
// 500 and the detail only goes to the log.
func ErrorHandlerMiddleware(log logger.ILogger) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}
		return WriteError(ctx, err, log)
	}
}

// ErrorHandler is the fiber.Config hook for errors raised outside the
// middleware chain (unknown routes, body limit).
func ErrorHandler(log logger.ILogger) fiber.ErrorHandler {
	return func(ctx *fiber.Ctx, err error) error {
		return WriteError(ctx, err, log)
	}
}

func WriteError(ctx *fiber.Ctx, err error, log logger.ILogger) error {
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return ctx.Status(fiberErr.Code).JSON(ErrorResponse(fiberErr.Code, fiberErr.Message))
	}

	appErr := apperror.From(err)
	status := appErr.Kind.HTTPStatus()

	details := map[string]interface{}{
		"method":     ctx.Method(),
		"path":       ctx.Path(),
		"status":     status,
		"error_code": appErr.Code,
	}
	if appErr.Err != nil {
		details["error"] = appErr.Err.Error()
	}
	if log != nil {
		if status >= fiber.StatusInternalServerError {
			log.Error("HTTP", appErr.Message, details)
		} else {
			log.Debug("HTTP", appErr.Message, details)
		}
	}

	body := ErrorResponse(status, appErr.Message)
	body.ErrorType = appErr.Kind.String()
	body.ErrorCode = appErr.Code
	return ctx.Status(status).JSON(body)
}
