package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/vladimiradmaev/ai-trainer/internal/config"
)

func main() {
	fmt.Println("🔍 Проверка конфигурации...")

	// Загружаем .env файл если есть
	if err := godotenv.Load(); err != nil {
		fmt.Printf("⚠️  .env файл не найден: %v\n", err)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("❌ Ошибка валидации конфигурации:\n%v\n", err)
		os.Exit(1)
	}

	fmt.Println("✅ Конфигурация валидна!")
	fmt.Printf("📋 Детали конфигурации:\n")
	fmt.Printf("  - Telegram Token: %s\n", maskToken(cfg.TelegramToken))
	fmt.Printf("  - AI Provider: %s (timeout %s, context window %d)\n", cfg.AI.Provider, cfg.AI.Timeout, cfg.AI.ContextWindow)
	fmt.Printf("  - Gemini API Key: %s (%s)\n", maskToken(cfg.AI.GeminiAPIKey), cfg.AI.GeminiModel)
	fmt.Printf("  - OpenAI API Key: %s (%s)\n", maskToken(cfg.AI.OpenAIAPIKey), cfg.AI.OpenAIModel)
	fmt.Printf("  - Storage Backend: %s\n", cfg.Storage.Backend)
	switch cfg.Storage.Backend {
	case config.BackendSQLite:
		fmt.Printf("  - SQLite Path: %s\n", cfg.Storage.SQLitePath)
	case config.BackendPostgres:
		fmt.Printf("  - DB: %s@%s:%s/%s\n", cfg.DB.User, cfg.DB.Host, cfg.DB.Port, cfg.DB.DBName)
	}
	fmt.Printf("  - Storage Encryption: %s\n", maskToken(cfg.Storage.EncryptionKey))
	if cfg.Redis.Enabled() {
		fmt.Printf("  - Redis: %s:%s (db %d)\n", cfg.Redis.Host, cfg.Redis.Port, cfg.Redis.DB)
	} else {
		fmt.Printf("  - Redis: <не используется>\n")
	}
	if cfg.Tools.Addr != "" {
		fmt.Printf("  - Tool Server: %s\n", cfg.Tools.Addr)
	}
	fmt.Printf("  - Time Zone: %s\n", cfg.Location)
	fmt.Printf("  - Log Level: %v\n", cfg.Logger.Level)
	fmt.Printf("  - Log Output: %s\n", cfg.Logger.OutputPath)
	fmt.Printf("  - Log Format: %s\n", cfg.Logger.Format)
}

func maskToken(token string) string {
	if token == "" {
		return "<не установлен>"
	}
	if len(token) <= 8 {
		return "***"
	}
	return token[:4] + "..." + token[len(token)-4:]
}
