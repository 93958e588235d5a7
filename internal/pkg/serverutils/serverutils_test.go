package serverutils

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"bitbraniac-be/internal/pkg/apperror"
	"bitbraniac-be/internal/pkg/logger"
	"bitbraniac-be/internal/pkg/token"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestApp() *fiber.App {
	log := logger.NewNopLogger()
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(log)})
	app.Use(ErrorHandlerMiddleware(log))
	return app
}

func decode(t *testing.T, resp *http.Response) ErrorBody {
	t.Helper()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var body ErrorBody
	require.NoError(t, json.Unmarshal(raw, &body))
	return body
}

func TestErrorHandlerMiddleware_MapsKinds(t *testing.T) {
	app := newTestApp()
	app.Get("/validation", func(c *fiber.Ctx) error { return apperror.ErrWeakPassword })
	app.Get("/auth", func(c *fiber.Ctx) error { return apperror.ErrInvalidCredentials })
	app.Get("/missing", func(c *fiber.Ctx) error { return apperror.NotFound("Session not found") })
	app.Get("/external", func(c *fiber.Ctx) error { return apperror.External(errors.New("upstream 503: secret detail")) })
	app.Get("/plain", func(c *fiber.Ctx) error { return errors.New("sql: connection refused") })

	tests := []struct {
		path    string
		status  int
		message string
		errType string
	}{
		{"/validation", 400, "Password must be at least 6 characters long", "ValidationError"},
		{"/auth", 401, "Invalid email or password", "AuthError"},
		{"/missing", 404, "Session not found", "NotFoundError"},
		{"/external", 500, apperror.ErrExternalService.Message, "ExternalServiceFailure"},
		{"/plain", 500, "Internal server error", "InternalError"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp, err := app.Test(httptest.NewRequest(http.MethodGet, tt.path, nil))
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)

			body := decode(t, resp)
			assert.False(t, body.Success)
			assert.Equal(t, tt.message, body.Message)
			assert.Equal(t, tt.errType, body.ErrorType)
			assert.NotContains(t, body.Message, "secret detail")
		})
	}
}

func TestErrorHandler_UnknownRoute(t *testing.T) {
	app := newTestApp()
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/nowhere", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestJwtMiddleware(t *testing.T) {
	manager := token.NewManager("secret", time.Hour, time.Hour)
	userId := uuid.New()

	app := newTestApp()
	app.Get("/me", NewJwtMiddleware(manager, token.TypeAccess), func(c *fiber.Ctx) error {
		id, err := UserIdFromCtx(c)
		if err != nil {
			return err
		}
		return c.SendString(id.String())
	})

	access, err := manager.IssueAccessToken(userId)
	require.NoError(t, err)
	refresh, _, err := manager.IssueRefreshToken(userId)
	require.NoError(t, err)

	t.Run("valid access token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer "+access)
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		raw, _ := io.ReadAll(resp.Body)
		assert.Equal(t, userId.String(), string(raw))
	})

	t.Run("missing header", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/me", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("refresh token is not an access token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer "+refresh)
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("garbage token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer abc.def.ghi")
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})
}

func TestValidateRequest(t *testing.T) {
	type req struct {
		Message string `json:"message" validate:"required"`
		Title   string `json:"title" validate:"max=5"`
	}

	assert.NoError(t, ValidateRequest(req{Message: "hi"}))

	err := ValidateRequest(req{})
	require.Error(t, err)
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))
	assert.Equal(t, "message is required", apperror.From(err).Message)

	err = ValidateRequest(req{Message: "hi", Title: "too long"})
	require.Error(t, err)
	assert.Equal(t, "title must be at most 5 characters", apperror.From(err).Message)
}
