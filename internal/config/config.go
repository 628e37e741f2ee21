package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Application run modes
const (
	ModeAPI = "api"
	ModeBot = "bot"
	ModeAll = "all"
)

// Reminder dispatch strategies
const (
	DispatchLoop  = "loop"
	DispatchAsynq = "asynq"

	DeliveryDirect = "direct"
	DeliveryStream = "stream"
)

// Config holds application configuration loaded from environment variables
type Config struct {
	Env     string
	Port    string
	AppMode string

	DatabaseURL       string
	RedisURL          string
	SeedReferenceData bool

	LogLevel  string
	LogFormat string

	JWTSecret      string
	JWTTTLHours    int
	EncryptionKey  string
	AllowedOrigins []string

	LLMProvider       string
	OpenAIAPIKey      string
	OpenAIBaseURL     string
	AIModel           string
	AIStructuredModel string
	AIChatModel       string
	GeminiAPIKey      string
	AITimeoutSeconds  int

	TelegramBotToken string
	BackendURL       string

	ReminderTimezone        string
	ReminderIntervalSeconds int
	ReminderDispatch        string
	ReminderDelivery        string
}

// Load reads configuration from a .env file (if present) and environment variables
func Load() *Config {
	// Missing .env is normal outside local development
	_ = godotenv.Load()

	port := getEnvWithDefault("PORT", "8000")

	cfg := &Config{
		Env:     getEnvWithDefault("ENV", "development"),
		Port:    port,
		AppMode: strings.ToLower(getEnvWithDefault("APP_MODE", ModeAll)),

		DatabaseURL:       getEnvWithDefault("DATABASE_URL", "sqlite://dental_assistant.db"),
		RedisURL:          os.Getenv("REDIS_URL"),
		SeedReferenceData: getBoolWithDefault("SEED_REFERENCE_DATA", true),

		LogLevel:  getEnvWithDefault("LOG_LEVEL", "info"),
		LogFormat: getEnvWithDefault("LOG_FORMAT", "text"),

		JWTSecret:      os.Getenv("JWT_SECRET"),
		JWTTTLHours:    getIntWithDefault("JWT_TTL_HOURS", 24*7),
		EncryptionKey:  os.Getenv("ENCRYPTION_KEY"),
		AllowedOrigins: splitList(getEnvWithDefault("ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:5173")),

		LLMProvider:       strings.ToLower(getEnvWithDefault("LLM_PROVIDER", "openai")),
		OpenAIAPIKey:      os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL:     getEnvWithDefault("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		AIModel:           getEnvWithDefault("AI_MODEL", "gpt-3.5-turbo"),
		AIStructuredModel: getEnvWithDefault("AI_STRUCTURED_MODEL", "gpt-4o"),
		AIChatModel:       getEnvWithDefault("AI_CHAT_MODEL", "gpt-4o"),
		GeminiAPIKey:      os.Getenv("GEMINI_API_KEY"),
		AITimeoutSeconds:  getIntWithDefault("AI_TIMEOUT_SECONDS", 120),

		TelegramBotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		BackendURL:       getEnvWithDefault("BACKEND_URL", "http://localhost:"+port),

		ReminderTimezone:        getEnvWithDefault("REMINDER_TIMEZONE", "UTC"),
		ReminderIntervalSeconds: getIntWithDefault("REMINDER_INTERVAL_SECONDS", 60),
		ReminderDispatch:        strings.ToLower(getEnvWithDefault("REMINDER_DISPATCH", DispatchLoop)),
		ReminderDelivery:        strings.ToLower(getEnvWithDefault("REMINDER_DELIVERY", DeliveryDirect)),
	}

	// Warn if using default JWT secret (insecure for production)
	if cfg.JWTSecret == "" {
		cfg.JWTSecret = "dev-secret-change-in-production-use-openssl-rand-hex-32"
		log.Println("WARNING: Using default JWT_SECRET. Generate a secure secret with: openssl rand -hex 32")
	}

	// Queue-based dispatch and stream delivery both need Redis
	if cfg.RedisURL == "" {
		if cfg.ReminderDispatch == DispatchAsynq {
			log.Println("WARNING: REMINDER_DISPATCH=asynq requires REDIS_URL, falling back to loop")
			cfg.ReminderDispatch = DispatchLoop
		}
		if cfg.ReminderDelivery == DeliveryStream {
			log.Println("WARNING: REMINDER_DELIVERY=stream requires REDIS_URL, falling back to direct")
			cfg.ReminderDelivery = DeliveryDirect
		}
	}

	return cfg
}

// RunsAPI reports whether the HTTP API is served by this process
func (c *Config) RunsAPI() bool {
	return c.AppMode == ModeAPI || c.AppMode == ModeAll
}

// RunsBot reports whether the Telegram bot is served by this process
func (c *Config) RunsBot() bool {
	return c.AppMode == ModeBot || c.AppMode == ModeAll
}

// LLMConfigured reports whether the selected provider has credentials
func (c *Config) LLMConfigured() bool {
	if c.LLMProvider == "gemini" {
		return c.GeminiAPIKey != ""
	}
	return c.OpenAIAPIKey != ""
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntWithDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || parsed <= 0 {
		log.Printf("WARNING: invalid %s=%q, using %d", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func getBoolWithDefault(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(strings.TrimSpace(value))
	if err != nil {
		return defaultValue
	}
	return parsed
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
