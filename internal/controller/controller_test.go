package controller_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"bitbraniac-be/internal/config"
	"bitbraniac-be/internal/controller"
	"bitbraniac-be/internal/pkg/logger"
	"bitbraniac-be/internal/pkg/serverutils"
	"bitbraniac-be/internal/pkg/testdb"
	"bitbraniac-be/internal/pkg/token"
	"bitbraniac-be/internal/repository/memory"
	"bitbraniac-be/internal/repository/unitofwork"
	"bitbraniac-be/internal/service"
	"bitbraniac-be/pkg/events"
	"bitbraniac-be/pkg/llm"
	"bitbraniac-be/pkg/lock"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubLLM struct {
	err error
}

func (s *stubLLM) Chat(_ context.Context, history []llm.Message, _ ...llm.Option) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return "re: " + history[len(history)-1].Content, nil
}

func (s *stubLLM) Generate(ctx context.Context, prompt string, opts ...llm.Option) (string, error) {
	return s.Chat(ctx, []llm.Message{{Role: llm.RoleUser, Content: prompt}}, opts...)
}

func newApp(t *testing.T, provider llm.LLMProvider) *fiber.App {
	t.Helper()
	log := logger.NewNopLogger()
	factory := unitofwork.NewRepositoryFactory(testdb.New(t))
	tokens := token.NewManager("test-secret", time.Hour, 24*time.Hour)
	publisher := events.NopPublisher{}

	authService := service.NewAuthService(factory, tokens, publisher, log)
	historyService := service.NewChatHistoryService(factory, lock.NewMemoryLocker(), publisher, log)
	chatbotService := service.NewChatbotService(service.ChatbotConfig{
		Persona:    config.DefaultPersona(),
		WindowSize: 10,
	}, provider, historyService, memory.NewActiveConversationRepository(time.Hour), publisher, log)

	app := fiber.New(fiber.Config{ErrorHandler: serverutils.ErrorHandler(log)})
	app.Use(serverutils.ErrorHandlerMiddleware(log))
	api := app.Group("/api")
	controller.NewAuthController(authService, tokens).RegisterRoutes(api)
	controller.NewSessionController(historyService, tokens).RegisterRoutes(api)
	controller.NewChatbotController(chatbotService, tokens).RegisterRoutes(api)
	return app
}

type envelope struct {
	Success   bool            `json:"success"`
	Code      int             `json:"code"`
	Message   string          `json:"message"`
	ErrorType string          `json:"error_type"`
	Data      json.RawMessage `json:"data"`
}

// rawBody is sent as-is instead of being JSON-encoded.
type rawBody string

func call(t *testing.T, app *fiber.App, method, path, bearer string, body interface{}) (int, envelope) {
	t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case rawBody:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &env), string(raw))
	return resp.StatusCode, env
}

func dataAs[T any](t *testing.T, env envelope) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(env.Data, &out))
	return out
}

type authData struct {
	User struct {
		Id    string `json:"id"`
		Email string `json:"email"`
	} `json:"user"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

func register(t *testing.T, app *fiber.App, email string) authData {
	t.Helper()
	status, env := call(t, app, http.MethodPost, "/api/auth/register", "", map[string]string{
		"email":    email,
		"password": "secret123",
	})
	require.Equal(t, http.StatusCreated, status, env.Message)
	return dataAs[authData](t, env)
}

func TestAuthRoutes(t *testing.T) {
	app := newApp(t, &stubLLM{})
	tokens := register(t, app, "ada@example.com")
	assert.Equal(t, "ada@example.com", tokens.User.Email)

	t.Run("duplicate register", func(t *testing.T) {
		status, env := call(t, app, http.MethodPost, "/api/auth/register", "", map[string]string{
			"email": "ADA@example.com", "password": "secret123",
		})
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, "ValidationError", env.ErrorType)
	})

	t.Run("malformed body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewReader([]byte("{")))
		req.Header.Set("Content-Type", "application/json")
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("login", func(t *testing.T) {
		status, _ := call(t, app, http.MethodPost, "/api/auth/login", "", map[string]string{
			"email": "ada@example.com", "password": "secret123",
		})
		assert.Equal(t, http.StatusOK, status)

		status, env := call(t, app, http.MethodPost, "/api/auth/login", "", map[string]string{
			"email": "ada@example.com", "password": "wrong-one",
		})
		assert.Equal(t, http.StatusUnauthorized, status)
		assert.Equal(t, "AuthError", env.ErrorType)
	})

	t.Run("me", func(t *testing.T) {
		status, env := call(t, app, http.MethodGet, "/api/auth/me", tokens.AccessToken, nil)
		require.Equal(t, http.StatusOK, status)
		me := dataAs[struct {
			User struct {
				Email string `json:"email"`
			} `json:"user"`
		}](t, env)
		assert.Equal(t, "ada@example.com", me.User.Email)

		status, _ = call(t, app, http.MethodGet, "/api/auth/me", "", nil)
		assert.Equal(t, http.StatusUnauthorized, status)
	})

	t.Run("refresh needs a refresh token", func(t *testing.T) {
		status, _ := call(t, app, http.MethodPost, "/api/auth/refresh", tokens.AccessToken, nil)
		assert.Equal(t, http.StatusUnauthorized, status)

		status, env := call(t, app, http.MethodPost, "/api/auth/refresh", tokens.RefreshToken, nil)
		require.Equal(t, http.StatusOK, status)
		assert.NotEmpty(t, dataAs[struct {
			AccessToken string `json:"access_token"`
		}](t, env).AccessToken)
	})

	t.Run("logout rejects a malformed body", func(t *testing.T) {
		status, env := call(t, app, http.MethodPost, "/api/auth/logout", tokens.RefreshToken, rawBody(`{"refresh_token":`))
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, "ValidationError", env.ErrorType)

		status, _ = call(t, app, http.MethodPost, "/api/auth/refresh", tokens.RefreshToken, nil)
		assert.Equal(t, http.StatusOK, status, "token stays valid")
	})

	t.Run("logout revokes refresh", func(t *testing.T) {
		status, _ := call(t, app, http.MethodPost, "/api/auth/logout", "", map[string]string{
			"refresh_token": tokens.RefreshToken,
		})
		assert.Equal(t, http.StatusOK, status)

		status, _ = call(t, app, http.MethodPost, "/api/auth/refresh", tokens.RefreshToken, nil)
		assert.Equal(t, http.StatusUnauthorized, status)
	})
}

type sessionData struct {
	Id           string `json:"id"`
	Title        string `json:"title"`
	MessageCount int    `json:"message_count"`
	Messages     []struct {
		MessageType string `json:"message_type"`
		Content     string `json:"content"`
	} `json:"messages"`
}

func TestChatAndSessionRoutes(t *testing.T) {
	app := newApp(t, &stubLLM{})
	alice := register(t, app, "alice@example.com")
	bob := register(t, app, "bob@example.com")

	status, env := call(t, app, http.MethodPost, "/api/chat/message", alice.AccessToken, map[string]string{
		"message": "What is recursion?",
	})
	require.Equal(t, http.StatusOK, status, env.Message)
	sent := dataAs[struct {
		Response  string `json:"response"`
		SessionId string `json:"session_id"`
	}](t, env)
	assert.Equal(t, "re: What is recursion?", sent.Response)
	require.NotEmpty(t, sent.SessionId)

	status, env = call(t, app, http.MethodGet, "/api/sessions/"+sent.SessionId, alice.AccessToken, nil)
	require.Equal(t, http.StatusOK, status)
	detail := dataAs[struct {
		Session sessionData `json:"session"`
	}](t, env)
	assert.Equal(t, "What is recursion?", detail.Session.Title)
	require.Len(t, detail.Session.Messages, 2)
	assert.Equal(t, "assistant", detail.Session.Messages[1].MessageType)

	t.Run("other users see 404", func(t *testing.T) {
		status, env := call(t, app, http.MethodGet, "/api/sessions/"+sent.SessionId, bob.AccessToken, nil)
		assert.Equal(t, http.StatusNotFound, status)
		assert.Equal(t, "NotFoundError", env.ErrorType)

		status, _ = call(t, app, http.MethodPost, "/api/chat/message", bob.AccessToken, map[string]string{
			"message": "sneaky", "session_id": sent.SessionId,
		})
		assert.Equal(t, http.StatusNotFound, status)

		status, _ = call(t, app, http.MethodGet, "/api/sessions/not-a-uuid", bob.AccessToken, nil)
		assert.Equal(t, http.StatusNotFound, status)
	})

	t.Run("empty message", func(t *testing.T) {
		status, _ := call(t, app, http.MethodPost, "/api/chat/message", alice.AccessToken, map[string]string{"message": "  "})
		assert.Equal(t, http.StatusBadRequest, status)
	})

	t.Run("history", func(t *testing.T) {
		status, env := call(t, app, http.MethodGet, "/api/chat/history", alice.AccessToken, nil)
		require.Equal(t, http.StatusOK, status)
		history := dataAs[struct {
			History []struct {
				Type string `json:"type"`
			} `json:"history"`
		}](t, env)
		require.Len(t, history.History, 2)
		assert.Equal(t, "human", history.History[0].Type)

		status, _ = call(t, app, http.MethodPost, "/api/chat/clear", alice.AccessToken, nil)
		assert.Equal(t, http.StatusOK, status)
	})

	t.Run("create list delete clear", func(t *testing.T) {
		status, env := call(t, app, http.MethodPost, "/api/sessions", alice.AccessToken, map[string]string{"title": "Trees"})
		require.Equal(t, http.StatusCreated, status)
		created := dataAs[struct {
			Session sessionData `json:"session"`
		}](t, env)
		assert.Equal(t, "Trees", created.Session.Title)

		status, env = call(t, app, http.MethodGet, "/api/sessions?limit=10", alice.AccessToken, nil)
		require.Equal(t, http.StatusOK, status)
		list := dataAs[struct {
			Sessions []sessionData `json:"sessions"`
		}](t, env)
		assert.Len(t, list.Sessions, 2)

		status, _ = call(t, app, http.MethodDelete, "/api/sessions/"+created.Session.Id, alice.AccessToken, nil)
		assert.Equal(t, http.StatusOK, status)
		status, _ = call(t, app, http.MethodDelete, "/api/sessions/"+created.Session.Id, alice.AccessToken, nil)
		assert.Equal(t, http.StatusNotFound, status)

		status, env = call(t, app, http.MethodPost, "/api/sessions/clear", alice.AccessToken, nil)
		require.Equal(t, http.StatusOK, status)
		assert.Equal(t, 1, dataAs[struct {
			Count int `json:"count"`
		}](t, env).Count)
	})

	t.Run("sessions need auth", func(t *testing.T) {
		status, _ := call(t, app, http.MethodGet, "/api/sessions", "", nil)
		assert.Equal(t, http.StatusUnauthorized, status)
	})
}

func TestAnonymousAndPublicRoutes(t *testing.T) {
	app := newApp(t, &stubLLM{})

	status, env := call(t, app, http.MethodPost, "/api/chat/message/anonymous", "", map[string]string{"message": "hi"})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "re: hi", dataAs[struct {
		Response string `json:"response"`
	}](t, env).Response)

	status, env = call(t, app, http.MethodGet, "/api/chat/welcome", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, dataAs[struct {
		Message string `json:"message"`
	}](t, env).Message, "BitBraniac")

	for _, path := range []string{"/api/chat/health", "/api/health"} {
		status, env = call(t, app, http.MethodGet, path, "", nil)
		require.Equal(t, http.StatusOK, status)
		assert.Equal(t, "healthy", dataAs[struct {
			Status string `json:"status"`
		}](t, env).Status)
	}
}

func TestModelFailureIsGeneric500(t *testing.T) {
	app := newApp(t, &stubLLM{err: errors.New("quota exceeded for key sk-secret")})
	tokens := register(t, app, "ada@example.com")

	status, env := call(t, app, http.MethodPost, "/api/chat/message", tokens.AccessToken, map[string]string{"message": "hi"})
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "ExternalServiceFailure", env.ErrorType)
	assert.NotContains(t, env.Message, "sk-secret")

	status, env = call(t, app, http.MethodGet, "/api/sessions", tokens.AccessToken, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Empty(t, dataAs[struct {
		Sessions []sessionData `json:"sessions"`
	}](t, env).Sessions)
}
