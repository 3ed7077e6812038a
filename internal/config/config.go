package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds the server settings read from the environment
type Config struct {
	Port           string
	MongoURI       string
	MongoDatabase  string
	RedisAddr      string
	SessionSecret  string
	SessionTTL     time.Duration
	AllowedOrigins []string
	Debug          bool

	AI     *AIConfig
	Report ReportConfig
}

// Load reads the configuration. Malformed numeric or boolean values are
// reported rather than silently replaced by defaults.
func Load() (*Config, error) {
	ttl, err := time.ParseDuration(getEnvOrDefault("SESSION_TTL", "1h"))
	if err != nil {
		return nil, fmt.Errorf("SESSION_TTL: %w", err)
	}
	debug, err := strconv.ParseBool(getEnvOrDefault("DEBUG", "false"))
	if err != nil {
		return nil, fmt.Errorf("DEBUG: %w", err)
	}
	ai, err := DefaultAIConfig()
	if err != nil {
		return nil, err
	}
	report, err := DefaultReportConfig()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Port:           getEnvOrDefault("PORT", "8080"),
		MongoURI:       getEnvOrDefault("MONGO_URI", "mongodb://localhost:27017"),
		MongoDatabase:  getEnvOrDefault("MONGO_DATABASE", "auditdb"),
		RedisAddr:      strings.TrimPrefix(getEnvOrDefault("REDIS_URI", "localhost:6379"), "redis://"),
		SessionSecret:  os.Getenv("SESSION_SECRET"),
		SessionTTL:     ttl,
		AllowedOrigins: splitList(getEnvOrDefault("CORS_ALLOWED_ORIGINS", "https://audit.createlo.in,http://localhost:3000")),
		Debug:          debug,
		AI:             ai,
		Report:         report,
	}
	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
