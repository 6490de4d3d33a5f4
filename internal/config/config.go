// Package config handles loading and validation of application configuration
// from environment variables. Supports .env files via godotenv.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Server settings
	Port        int
	Environment string // "development" | "staging" | "production"

	// Database
	DatabaseURL string

	// Security
	JWTSecret      string
	TokenTTLHours  int
	AllowedOrigins []string
	RateLimitRPM   int

	// Redis (score snapshot cache); empty disables the remote cache
	RedisURL      string
	ScoreCacheTTL int // minutes

	// Reporting obligations: role → distinct report kinds owed per day
	ExpectedKindsPerDay map[string]int
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (development)
	_ = godotenv.Load()

	kinds, err := parseRoleCounts(getEnv("REPORT_KINDS_PER_DAY", "store_manager:3,front_office_manager:4"))
	if err != nil {
		return nil, fmt.Errorf("REPORT_KINDS_PER_DAY: %w", err)
	}

	cfg := &Config{
		Port:        getEnvInt("PORT", 8080),
		Environment: getEnv("ENVIRONMENT", "development"),

		DatabaseURL: getEnv("DATABASE_URL", ""),

		JWTSecret:      getEnv("JWT_SECRET", "dev-secret-change-in-production"),
		TokenTTLHours:  getEnvInt("TOKEN_TTL_HOURS", 12),
		AllowedOrigins: strings.Split(getEnv("ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:3000"), ","),
		RateLimitRPM:   getEnvInt("RATE_LIMIT_RPM", 60),

		RedisURL:      getEnv("REDIS_URL", ""),
		ScoreCacheTTL: getEnvInt("SCORE_CACHE_TTL_MINUTES", 10),

		ExpectedKindsPerDay: kinds,
	}

	// Validate required fields in production
	if cfg.Environment == "production" {
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required in production")
		}
		if cfg.JWTSecret == "dev-secret-change-in-production" {
			return nil, fmt.Errorf("JWT_SECRET must be set in production")
		}
	}

	return cfg, nil
}

// parseRoleCounts parses "role:count,role:count" pairs.
func parseRoleCounts(raw string) (map[string]int, error) {
	out := make(map[string]int)
	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		role, countStr, found := strings.Cut(pair, ":")
		if !found {
			return nil, fmt.Errorf("malformed pair %q, want role:count", pair)
		}
		count, err := strconv.Atoi(strings.TrimSpace(countStr))
		if err != nil || count < 0 {
			return nil, fmt.Errorf("invalid count in pair %q", pair)
		}
		out[strings.TrimSpace(role)] = count
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no role:count pairs configured")
	}
	return out, nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return fallback
}
