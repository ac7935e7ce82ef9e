package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config contains runtime configuration values.
type Config struct {
	Environment string
	HTTPPort    string
	ServiceName string
	BaseURL     string

	DatabaseURL string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Primary credential set (Google Workspace Settings).
	GoogleEnabled      bool
	GoogleClientID     string
	GoogleClientSecret string
	GoogleAPIKey       string
	EnableDrive        bool
	EnableCalendar     bool
	EnableGmail        bool

	// Legacy credential set (the single-service Google Settings that predates
	// the unified integration).
	LegacyGoogleEnabled      bool
	LegacyGoogleClientID     string
	LegacyGoogleClientSecret string

	SessionSecret string
	SessionTTL    time.Duration

	StateTTL       time.Duration
	RequestTimeout time.Duration

	RateLimitRPM int

	TelemetryEndpoint string
	TelemetryInsecure bool

	CORSAllowedOrigins   []string
	CORSAllowedMethods   []string
	CORSAllowedHeaders   []string
	CORSAllowCredentials bool
}

// Load reads configuration from environment variables with sane defaults.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Environment: getEnv("APP_ENV", "development"),
		HTTPPort:    getEnv("HTTP_PORT", "8080"),
		ServiceName: getEnv("SERVICE_NAME", "integration-hub"),
		BaseURL:     strings.TrimRight(getEnv("BASE_URL", "http://localhost:8080"), "/"),

		DatabaseURL: os.Getenv("DATABASE_URL"),

		RedisAddr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       getInt("REDIS_DB", 0),

		GoogleEnabled:      getBool("GOOGLE_WORKSPACE_ENABLED", false),
		GoogleClientID:     strings.TrimSpace(os.Getenv("GOOGLE_CLIENT_ID")),
		GoogleClientSecret: strings.TrimSpace(os.Getenv("GOOGLE_CLIENT_SECRET")),
		GoogleAPIKey:       strings.TrimSpace(os.Getenv("GOOGLE_API_KEY")),
		EnableDrive:        getBool("ENABLE_DRIVE", false),
		EnableCalendar:     getBool("ENABLE_CALENDAR", false),
		EnableGmail:        getBool("ENABLE_GMAIL", false),

		LegacyGoogleEnabled:      getBool("LEGACY_GOOGLE_ENABLED", false),
		LegacyGoogleClientID:     strings.TrimSpace(os.Getenv("LEGACY_GOOGLE_CLIENT_ID")),
		LegacyGoogleClientSecret: strings.TrimSpace(os.Getenv("LEGACY_GOOGLE_CLIENT_SECRET")),

		SessionSecret: os.Getenv("SESSION_SECRET"),
		SessionTTL:    getDuration("SESSION_TTL", 720*time.Hour),

		StateTTL:       getDuration("OAUTH_STATE_TTL", 600*time.Second),
		RequestTimeout: getDuration("HTTP_CLIENT_TIMEOUT", 30*time.Second),

		RateLimitRPM: getInt("RATE_LIMIT_RPM", 600),

		TelemetryEndpoint: os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		TelemetryInsecure: getBool("OTEL_EXPORTER_OTLP_INSECURE", true),

		CORSAllowedOrigins:   getList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		CORSAllowedMethods:   getList("CORS_ALLOWED_METHODS", []string{"GET", "POST", "DELETE", "OPTIONS"}),
		CORSAllowedHeaders:   getList("CORS_ALLOWED_HEADERS", []string{"Authorization", "Content-Type"}),
		CORSAllowCredentials: getBool("CORS_ALLOW_CREDENTIALS", false),
	}

	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.SessionSecret == "" {
		return Config{}, fmt.Errorf("SESSION_SECRET is required")
	}

	return cfg, nil
}

func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return def
}

func getDuration(key string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(key); ok {
		d, err := time.ParseDuration(v)
		if err == nil {
			return d
		}
	}
	return def
}

func getInt(key string, def int) int {
	if v, ok := os.LookupEnv(key); ok {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getBool(key string, def bool) bool {
	if v, ok := os.LookupEnv(key); ok {
		switch strings.ToLower(v) {
		case "1", "true", "t", "yes", "y", "on":
			return true
		case "0", "false", "f", "no", "n", "off":
			return false
		}
	}
	return def
}

func getList(key string, def []string) []string {
	if v, ok := os.LookupEnv(key); ok {
		parts := strings.Split(v, ",")
		var cleaned []string
		for _, p := range parts {
			trimmed := strings.TrimSpace(p)
			if trimmed != "" {
				cleaned = append(cleaned, trimmed)
			}
		}
		if len(cleaned) > 0 {
			return cleaned
		}
	}
	return def
}
