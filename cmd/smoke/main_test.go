package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"bitbraniac-be/internal/bootstrap"
	"bitbraniac-be/internal/config"
	"bitbraniac-be/internal/pkg/logger"
	"bitbraniac-be/internal/pkg/testdb"
	"bitbraniac-be/internal/server"

	"github.com/fatih/color"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/stretchr/testify/require"
)

func TestRunSmoke_AgainstEchoServer(t *testing.T) {
	color.NoColor = true

	cfg := &config.Config{}
	cfg.App.CorsAllowedOrigins = "*"
	cfg.JWT = config.JWTConfig{Secret: "smoke-secret", AccessTokenTTL: time.Hour, RefreshTokenTTL: time.Hour}
	cfg.Ai = config.AIConfig{LLMProvider: "echo", WindowSize: 10, Timeout: 5 * time.Second, ActiveChatMaxAge: time.Hour}
	cfg.Lock.Backend = "memory"

	container, err := bootstrap.NewContainer(context.Background(), testdb.New(t), cfg, logger.NewNopLogger())
	require.NoError(t, err)
	t.Cleanup(container.Close)

	srv := httptest.NewServer(adaptor.FiberApp(server.New(cfg, container).GetApp()))
	t.Cleanup(srv.Close)

	require.NoError(t, runSmoke(&client{baseURL: srv.URL + "/api", http: &http.Client{Timeout: 10 * time.Second}}))
}
