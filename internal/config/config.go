package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/vladimiradmaev/ai-trainer/internal/errors"
	"github.com/vladimiradmaev/ai-trainer/internal/logger"
)

// Storage backends
const (
	BackendMemory   = "memory"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

// AI providers
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

type Config struct {
	TelegramToken string
	AI            AIConfig
	Storage       StorageConfig
	DB            DBConfig
	Redis         RedisConfig
	Tools         ToolsConfig
	Logger        LoggerConfig
	Location      *time.Location
}

type AIConfig struct {
	Provider      string
	GeminiAPIKey  string
	OpenAIAPIKey  string
	GeminiModel   string
	OpenAIModel   string
	Timeout       time.Duration
	Temperature   float32
	MaxTokens     int
	ContextWindow int
}

type StorageConfig struct {
	Backend       string
	SQLitePath    string
	EncryptionKey string
	Prefix        string
}

type DBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// Enabled reports whether a Redis host was configured.
func (r RedisConfig) Enabled() bool {
	return r.Host != ""
}

type ToolsConfig struct {
	Addr string
}

type LoggerConfig struct {
	Level      logger.LogLevel
	OutputPath string
	Format     string
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseLogLevel(level string) logger.LogLevel {
	switch strings.ToLower(level) {
	case "debug":
		return logger.LevelDebug
	case "info":
		return logger.LevelInfo
	case "warn", "warning":
		return logger.LevelWarn
	case "error":
		return logger.LevelError
	default:
		return logger.LevelInfo
	}
}

// Load reads the configuration from the environment and validates it.
func Load() (*Config, error) {
	cfg, err := Read()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Read parses the environment without the cross-field checks, for tools
// that need only part of the configuration.
func Read() (*Config, error) {
	var errs []string

	timeout, err := time.ParseDuration(getEnvOrDefault("AI_TIMEOUT", "60s"))
	if err != nil {
		errs = append(errs, fmt.Sprintf("AI_TIMEOUT: %v", err))
	}
	temperature, err := strconv.ParseFloat(getEnvOrDefault("AI_TEMPERATURE", "0.7"), 32)
	if err != nil {
		errs = append(errs, fmt.Sprintf("AI_TEMPERATURE: %v", err))
	}
	maxTokens, err := strconv.Atoi(getEnvOrDefault("AI_MAX_TOKENS", "1000"))
	if err != nil {
		errs = append(errs, fmt.Sprintf("AI_MAX_TOKENS: %v", err))
	}
	contextWindow, err := strconv.Atoi(getEnvOrDefault("AI_CONTEXT_WINDOW", "10"))
	if err != nil {
		errs = append(errs, fmt.Sprintf("AI_CONTEXT_WINDOW: %v", err))
	}
	redisDB, err := strconv.Atoi(getEnvOrDefault("REDIS_DB", "0"))
	if err != nil {
		errs = append(errs, fmt.Sprintf("REDIS_DB: %v", err))
	}
	location, err := time.LoadLocation(getEnvOrDefault("TZ", "Local"))
	if err != nil {
		errs = append(errs, fmt.Sprintf("TZ: %v", err))
		location = time.Local
	}

	cfg := &Config{
		TelegramToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		AI: AIConfig{
			Provider:      strings.ToLower(getEnvOrDefault("AI_PROVIDER", ProviderGemini)),
			GeminiAPIKey:  os.Getenv("GEMINI_API_KEY"),
			OpenAIAPIKey:  os.Getenv("OPENAI_API_KEY"),
			GeminiModel:   getEnvOrDefault("GEMINI_MODEL", "gemini-1.5-flash"),
			OpenAIModel:   getEnvOrDefault("OPENAI_MODEL", "gpt-4o-mini"),
			Timeout:       timeout,
			Temperature:   float32(temperature),
			MaxTokens:     maxTokens,
			ContextWindow: contextWindow,
		},
		Storage: StorageConfig{
			Backend:       strings.ToLower(getEnvOrDefault("STORAGE_BACKEND", BackendSQLite)),
			SQLitePath:    getEnvOrDefault("SQLITE_PATH", "data/trainer.db"),
			EncryptionKey: os.Getenv("STORAGE_ENCRYPTION_KEY"),
			Prefix:        getEnvOrDefault("STORAGE_PREFIX", ""),
		},
		DB: DBConfig{
			Host:     getEnvOrDefault("DB_HOST", "localhost"),
			Port:     getEnvOrDefault("DB_PORT", "5432"),
			User:     getEnvOrDefault("DB_USER", "postgres"),
			Password: getEnvOrDefault("DB_PASSWORD", "postgres"),
			DBName:   getEnvOrDefault("DB_NAME", "ai_trainer"),
		},
		Redis: RedisConfig{
			Host:     os.Getenv("REDIS_HOST"),
			Port:     getEnvOrDefault("REDIS_PORT", "6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Tools: ToolsConfig{
			Addr: getEnvOrDefault("TOOLS_ADDR", ""),
		},
		Logger: LoggerConfig{
			Level:      parseLogLevel(getEnvOrDefault("LOG_LEVEL", "info")),
			OutputPath: getEnvOrDefault("LOG_OUTPUT", "logs/app.log"),
			Format:     getEnvOrDefault("LOG_FORMAT", "json"),
		},
		Location: location,
	}

	if len(errs) > 0 {
		return nil, apperrors.NewValidationError(strings.Join(errs, "; "))
	}
	return cfg, nil
}

// ValidateStorage checks the storage backend settings.
func (c *Config) ValidateStorage() error {
	if errs := c.storageErrors(); len(errs) > 0 {
		return apperrors.NewValidationError(strings.Join(errs, "; "))
	}
	return nil
}

func (c *Config) storageErrors() []string {
	var errs []string
	switch c.Storage.Backend {
	case BackendMemory, BackendSQLite, BackendPostgres:
	case BackendRedis:
		if !c.Redis.Enabled() {
			errs = append(errs, "REDIS_HOST is required for the redis storage backend")
		}
	default:
		errs = append(errs, fmt.Sprintf("unknown STORAGE_BACKEND %q", c.Storage.Backend))
	}
	return errs
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	errs := c.storageErrors()

	switch c.AI.Provider {
	case ProviderGemini:
		if c.AI.GeminiAPIKey == "" {
			errs = append(errs, "GEMINI_API_KEY is required for the gemini provider")
		}
	case ProviderOpenAI:
		if c.AI.OpenAIAPIKey == "" {
			errs = append(errs, "OPENAI_API_KEY is required for the openai provider")
		}
	default:
		errs = append(errs, fmt.Sprintf("unknown AI_PROVIDER %q", c.AI.Provider))
	}

	if c.AI.Timeout <= 0 {
		errs = append(errs, "AI_TIMEOUT must be positive")
	}
	if c.AI.ContextWindow <= 0 {
		errs = append(errs, "AI_CONTEXT_WINDOW must be positive")
	}

	if len(errs) > 0 {
		return apperrors.NewValidationError(strings.Join(errs, "; "))
	}
	return nil
}
