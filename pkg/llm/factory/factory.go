package factory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"bitbraniac-be/pkg/llm"
	"bitbraniac-be/pkg/llm/claude"
	"bitbraniac-be/pkg/llm/echo"
	"bitbraniac-be/pkg/llm/gemini"
	"bitbraniac-be/pkg/llm/ollama"
	"bitbraniac-be/pkg/llm/openaicompat"
)

const HuggingFaceRouterURL = "https://router.huggingface.co/v1"

type Config struct {
	Provider   string
	Model      string
	APIKey     string
	BaseURL    string
	Timeout    time.Duration
	MaxRetries int
}

// NewLLMProvider builds the configured vendor client.
func NewLLMProvider(ctx context.Context, cfg Config) (llm.LLMProvider, error) {
	switch strings.ToLower(cfg.Provider) {
	case "gemini", "google", "":
		return gemini.NewGeminiProvider(ctx, cfg.APIKey, cfg.Model)
	case "openai":
		return openaicompat.NewOpenAIProvider(cfg.APIKey, cfg.BaseURL, cfg.Model), nil
	case "huggingface":
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = HuggingFaceRouterURL
		}
		return openaicompat.NewOpenAIProvider(cfg.APIKey, baseURL, cfg.Model), nil
	case "anthropic", "claude":
		return claude.NewAnthropicProvider(cfg.APIKey, cfg.BaseURL, cfg.Model), nil
	case "ollama":
		return ollama.NewOllamaProvider(cfg.BaseURL, cfg.Model), nil
	case "echo":
		return echo.NewEchoProvider(), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}
}

// NewResilientLLMProvider is NewLLMProvider wrapped with timeout and retry.
func NewResilientLLMProvider(ctx context.Context, cfg Config) (llm.LLMProvider, error) {
	provider, err := NewLLMProvider(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return llm.NewResilientProvider(provider, cfg.Timeout, cfg.MaxRetries), nil
}
