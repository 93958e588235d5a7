package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	JWT      JWTConfig
	SMTP     SMTPConfig
	Ai       AIConfig
	Lock     LockConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
	TracingEnabled     bool
	TracingEndpoint    string
}

type DatabaseConfig struct {
	Driver      string // "postgres" or "sqlite"
	Connection  string
	AutoMigrate bool
}

type JWTConfig struct {
	Secret          string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
}

type SMTPConfig struct {
	Host       string
	Port       int
	Email      string
	Password   string
	SenderName string
}

type AIConfig struct {
	LLMProvider      string // "gemini", "openai", "anthropic", "ollama", "echo"
	LLMModel         string
	APIKey           string
	BaseURL          string
	Temperature      float64
	MaxOutputTokens  int
	WindowSize       int
	Timeout          time.Duration
	MaxRetries       int
	PersonaFile      string
	ActiveChatMaxAge time.Duration
}

type LockConfig struct {
	Backend string // "memory" or "redis"
	TTL     time.Duration
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	llmTimeout := time.Duration(getEnvAsInt("LLM_TIMEOUT_SECONDS", 60)) * time.Second

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "5000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),
			NatsURL:            getEnv("NATS_URL", ""),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
			TracingEnabled:     getEnvAsBool("OTEL_ENABLED", false),
			TracingEndpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
		},
		Database: DatabaseConfig{
			Driver:      strings.ToLower(getEnv("DB_DRIVER", "sqlite")),
			Connection:  getEnv("DB_CONNECTION_STRING", "bitbraniac.db"),
			AutoMigrate: getEnvAsBool("DB_AUTO_MIGRATE", true),
		},
		JWT: JWTConfig{
			Secret:          getEnv("JWT_SECRET_KEY", "jwt-secret-change-in-production"),
			AccessTokenTTL:  time.Duration(getEnvAsInt("JWT_ACCESS_TOKEN_EXPIRES", 3600)) * time.Second,
			RefreshTokenTTL: time.Duration(getEnvAsInt("JWT_REFRESH_TOKEN_EXPIRES", 2592000)) * time.Second,
		},
		SMTP: SMTPConfig{
			Host:       getEnv("SMTP_HOST", ""),
			Port:       getEnvAsInt("SMTP_PORT", 587),
			Email:      getEnv("SMTP_EMAIL", ""),
			Password:   getEnv("SMTP_PASSWORD", ""),
			SenderName: getEnv("SMTP_SENDER_NAME", "BitBraniac"),
		},
		Ai: AIConfig{
			LLMProvider:      strings.ToLower(getEnv("LLM_PROVIDER", "gemini")),
			LLMModel:         getEnv("LLM_MODEL", getEnv("MODEL_NAME", "gemini-2.0-flash")),
			APIKey:           getEnv("LLM_API_KEY", getEnv("GOOGLE_API_KEY", "")),
			BaseURL:          getEnv("LLM_BASE_URL", ""),
			Temperature:      getEnvAsFloat("MODEL_TEMPERATURE", 0.8),
			MaxOutputTokens:  getEnvAsInt("MAX_OUTPUT_TOKENS", 8192),
			WindowSize:       getEnvAsInt("CONVERSATION_WINDOW_SIZE", 10),
			Timeout:          llmTimeout,
			MaxRetries:       getEnvAsInt("LLM_MAX_RETRIES", 2),
			PersonaFile:      getEnv("PERSONA_FILE", ""),
			ActiveChatMaxAge: time.Duration(getEnvAsInt("ACTIVE_CHAT_TTL_MINUTES", 60)) * time.Minute,
		},
		Lock: LockConfig{
			Backend: strings.ToLower(getEnv("LOCK_BACKEND", "memory")),
			// A held session lock must outlive the slowest write it guards.
			TTL: time.Duration(getEnvAsInt("LOCK_TTL_SECONDS", 30)) * time.Second,
		},
	}
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseFloat(strValue, 64); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return fallback
}
