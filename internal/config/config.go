package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/subosito/gotenv"
)

const DefaultTokenTTL = 100 * time.Hour

type Config struct {
	// HTTP server
	AppPort string
	AppEnv  string

	// Logging
	LogLevel string

	// Session tokens
	TokenSecret string
	TokenTTL    time.Duration

	// Database
	DBUser  string
	DBPass  string
	DBHost  string
	DBPort  string
	DBName  string
	FullDSN string
}

// Load reads configuration from the environment. A .env file is loaded
// first when present; real environment variables win over it.
func Load() *Config {
	_ = gotenv.Load()

	return &Config{
		AppPort:  getEnv("APP_PORT", "8080"),
		AppEnv:   getEnv("APP_ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		TokenSecret: os.Getenv("TOKEN_SECRET"),
		TokenTTL:    getEnvDuration("TOKEN_TTL", DefaultTokenTTL),

		DBUser:  os.Getenv("DB_USER"),
		DBPass:  os.Getenv("DB_PASS"),
		DBHost:  os.Getenv("DB_HOST"),
		DBPort:  os.Getenv("DB_PORT"),
		DBName:  getEnv("DB_NAME", "paisatrack"),
		FullDSN: os.Getenv("FULL_DSN"),
	}
}

// Validate reports every problem at once. A missing token secret is fatal:
// without it session tokens cannot be signed or verified.
func (c *Config) Validate() error {
	var problems []string

	if port, err := strconv.Atoi(c.AppPort); err != nil {
		problems = append(problems, fmt.Sprintf("invalid port '%s': must be a number", c.AppPort))
	} else if port < 1 || port > 65535 {
		problems = append(problems, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.TokenSecret == "" {
		problems = append(problems, "TOKEN_SECRET is not set: session tokens cannot be issued")
	}

	if c.TokenTTL < time.Minute {
		problems = append(problems, fmt.Sprintf("invalid token TTL %v: must be at least 1 minute", c.TokenTTL))
	}

	if c.FullDSN == "" {
		if c.DBUser == "" || c.DBPass == "" || c.DBHost == "" || c.DBPort == "" {
			problems = append(problems, "missing DB environment variables: set FULL_DSN or DB_USER/DB_PASS/DB_HOST/DB_PORT")
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(problems, "\n- "))
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
