package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"bitbraniac-be/internal/bootstrap"
	"bitbraniac-be/internal/config"
	"bitbraniac-be/internal/pkg/logger"
	"bitbraniac-be/internal/pkg/testdb"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{
			Port:               "0",
			CorsAllowedOrigins: "*",
		},
		JWT: config.JWTConfig{
			Secret:          "test-secret",
			AccessTokenTTL:  time.Hour,
			RefreshTokenTTL: 24 * time.Hour,
		},
		Ai: config.AIConfig{
			LLMProvider:      "echo",
			Temperature:      0.8,
			WindowSize:       10,
			Timeout:          5 * time.Second,
			ActiveChatMaxAge: time.Hour,
		},
		Lock: config.LockConfig{Backend: "memory", TTL: 10 * time.Second},
	}
}

func TestServer_EndToEndWithEchoProvider(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig()
	container, err := bootstrap.NewContainer(ctx, testdb.New(t), cfg, logger.NewNopLogger())
	require.NoError(t, err)
	t.Cleanup(container.Close)

	app := New(cfg, container).GetApp()

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/health", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body, _ := json.Marshal(map[string]string{"message": "hello"})
	req := httptest.NewRequest(http.MethodPost, "/api/chat/message/anonymous", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var env struct {
		Data struct {
			Response string `json:"response"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(raw, &env))
	assert.Equal(t, "echo (1 turns): hello", env.Data.Response)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/api/unknown", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServer_UnknownLockBackend(t *testing.T) {
	cfg := testConfig()
	cfg.Lock.Backend = "zookeeper"
	_, err := bootstrap.NewContainer(context.Background(), testdb.New(t), cfg, logger.NewNopLogger())
	assert.Error(t, err)
}
