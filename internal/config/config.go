// Package config loads server configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strings"
)

// Config holds the server configuration.
type Config struct {
	Port        string
	Environment string

	JWTSecret string

	RedisHost     string
	RedisPort     string
	RedisPassword string

	// Assist is the OpenAI-compatible chat completions endpoint used for
	// moderation, translation, and summarization.
	AssistBaseURL string
	AssistAPIKey  string
	AssistModel   string

	LogLevel string
	LogFile  string

	CORSOrigins []string
}

// Load reads configuration from the environment. JWT_SECRET is required
// outside development; everything else has a sensible default.
func Load() (*Config, error) {
	cfg := &Config{
		Port:          getEnv("PORT", "8080"),
		Environment:   getEnv("ENVIRONMENT", "development"),
		JWTSecret:     os.Getenv("JWT_SECRET"),
		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		AssistBaseURL: getEnv("ASSIST_BASE_URL", "https://api.groq.com/openai/v1"),
		AssistAPIKey:  os.Getenv("ASSIST_API_KEY"),
		AssistModel:   getEnv("ASSIST_MODEL", "llama-3.1-8b-instant"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		LogFile:       getEnv("LOG_FILE", "logs/server.log"),
	}

	if origins := os.Getenv("CORS_ORIGINS"); origins != "" {
		for _, o := range strings.Split(origins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.CORSOrigins = append(cfg.CORSOrigins, o)
			}
		}
	} else {
		cfg.CORSOrigins = []string{"http://localhost:5173", "http://localhost:3000"}
	}

	if cfg.JWTSecret == "" {
		if cfg.Environment != "development" {
			return nil, fmt.Errorf("JWT_SECRET environment variable not set")
		}
		cfg.JWTSecret = "dev-secret-do-not-use-in-production"
	}

	return cfg, nil
}

// IsProduction reports whether the server runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
