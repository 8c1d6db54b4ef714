package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds every environment-provided setting, read once at startup.
type Config struct {
	Environment string
	Port        string
	LogLevel    slog.Level

	DatabaseURL string
	RedisURL    string

	JWT  JWTConfig
	SMTP SMTPConfig

	// FrontendBaseURL is used to build activation and reset links and the
	// post-activation redirect.
	FrontendBaseURL string

	// Admin bootstrap credentials for the idempotent create-admin endpoint.
	// Injected at deploy time, never source literals.
	AdminEmail    string
	AdminUsername string
	AdminPassword string
	AdminName     string

	// DebugErrors controls whether unhandled errors are echoed to callers.
	// When false, the handler logs internally and returns a generic message.
	DebugErrors bool

	KafkaBrokers []string
	KafkaTopic   string
}

type JWTConfig struct {
	Secret   string
	TTLHours int
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// LoadConfig reads configuration from the environment, loading a local .env
// file first when present.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Environment:     getEnv("ENVIRONMENT", "development"),
		Port:            getEnv("PORT", "8080"),
		LogLevel:        parseLogLevel(getEnv("LOG_LEVEL", "info")),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		RedisURL:        os.Getenv("REDIS_URL"),
		FrontendBaseURL: getEnv("FRONTEND_BASE_URL", "http://localhost:3000"),
		AdminEmail:      getEnv("ADMIN_EMAIL", "admin@examprep.local"),
		AdminUsername:   getEnv("ADMIN_USERNAME", "admin"),
		AdminPassword:   os.Getenv("ADMIN_PASSWORD"),
		AdminName:       getEnv("ADMIN_NAME", "Administrator"),
		DebugErrors:     getEnvBool("DEBUG_ERRORS", false),
		KafkaTopic:      getEnv("KAFKA_TOPIC", "examprep.events"),
	}

	cfg.JWT = JWTConfig{
		Secret:   os.Getenv("JWT_SECRET"),
		TTLHours: getEnvInt("JWT_TTL_HOURS", 24),
	}

	cfg.SMTP = SMTPConfig{
		Host:     os.Getenv("SMTP_HOST"),
		Port:     getEnvInt("SMTP_PORT", 587),
		Username: os.Getenv("SMTP_USERNAME"),
		Password: os.Getenv("SMTP_PASSWORD"),
		From:     getEnv("SMTP_FROM", "no-reply@examprep.local"),
	}

	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = splitAndTrim(brokers)
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.JWT.Secret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.AdminPassword == "" && cfg.Environment == "production" {
		return nil, fmt.Errorf("ADMIN_PASSWORD is required in production")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func parseLogLevel(level string) slog.Level {
	switch level {
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

func splitAndTrim(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
