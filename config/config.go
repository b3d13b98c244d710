// Package config loads application configuration from environment variables,
// with optional loading from a .env file via godotenv.
package config

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// Config stores all the configuration of the application.
type Config struct {
	// Server settings
	ServerPort  string
	FrontendURL string

	// Provider settings
	FalAPIKey    string
	GeminiAPIKey string

	// Storage settings
	StaticDir string // Root for generated assets, served under /static
	ChatsDir  string // Conversation records, defaults to <StaticDir>/chats

	// Logging
	LogLevel string
}

// Load reads configuration from environment variables and an optional .env
// file. Missing values fall back to development defaults; provider keys are
// validated by the providers themselves at startup.
func Load() (*Config, error) {
	// Proceed without a .env file; plain environment variables are enough.
	if err := godotenv.Load(); err == nil {
		slog.Info("environment loaded from .env file")
	}

	staticDir := getEnv("STATIC_DIR", "static")

	cfg := &Config{
		ServerPort:  getEnv("PORT", "8080"),
		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:3000"),

		FalAPIKey:    getEnv("FAL_KEY", ""),
		GeminiAPIKey: getEnv("GEMINI_API_KEY", ""),

		StaticDir: staticDir,
		ChatsDir:  getEnv("CHATS_DIR", filepath.Join(staticDir, "chats")),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	return cfg, nil
}

// SlogLevel maps the configured level name onto a slog.Level, defaulting to
// info for unknown names.
func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
