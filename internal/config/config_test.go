package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		AppPort:     "8080",
		AppEnv:      "development",
		LogLevel:    "info",
		TokenSecret: "test-secret",
		TokenTTL:    DefaultTokenTTL,
		DBUser:      "root",
		DBPass:      "root",
		DBHost:      "localhost",
		DBPort:      "3306",
		DBName:      "paisatrack",
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("APP_PORT", "")
	t.Setenv("APP_ENV", "")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("TOKEN_SECRET", "test-secret")
	t.Setenv("TOKEN_TTL", "")
	t.Setenv("DB_NAME", "")

	cfg := Load()
	require.Equal(t, "8080", cfg.AppPort)
	require.Equal(t, "development", cfg.AppEnv)
	require.Equal(t, "info", cfg.LogLevel)
	require.Equal(t, "test-secret", cfg.TokenSecret)
	require.Equal(t, DefaultTokenTTL, cfg.TokenTTL)
	require.Equal(t, "paisatrack", cfg.DBName)
}

func TestLoadParsesTokenTTL(t *testing.T) {
	t.Setenv("TOKEN_TTL", "30m")
	require.Equal(t, 30*time.Minute, Load().TokenTTL)

	t.Setenv("TOKEN_TTL", "not-a-duration")
	require.Equal(t, DefaultTokenTTL, Load().TokenTTL)
}

func TestValidate(t *testing.T) {
	require.NoError(t, validConfig().Validate())

	dsnOnly := validConfig()
	dsnOnly.DBUser, dsnOnly.DBPass, dsnOnly.DBHost, dsnOnly.DBPort = "", "", "", ""
	dsnOnly.FullDSN = "root:root@tcp(localhost:3306)/paisatrack?parseTime=true"
	require.NoError(t, dsnOnly.Validate())
}

func TestValidateFailures(t *testing.T) {
	cases := []struct {
		name     string
		mutate   func(c *Config)
		fragment string
	}{
		{"port not numeric", func(c *Config) { c.AppPort = "http" }, "must be a number"},
		{"port out of range", func(c *Config) { c.AppPort = "70000" }, "between 1 and 65535"},
		{"missing token secret", func(c *Config) { c.TokenSecret = "" }, "TOKEN_SECRET"},
		{"token ttl too short", func(c *Config) { c.TokenTTL = time.Second }, "at least 1 minute"},
		{"missing db vars", func(c *Config) { c.DBHost = "" }, "missing DB environment variables"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			require.Contains(t, err.Error(), tc.fragment)
		})
	}
}

func TestValidateReportsAllProblems(t *testing.T) {
	cfg := validConfig()
	cfg.AppPort = "http"
	cfg.TokenSecret = ""

	err := cfg.Validate()
	require.Error(t, err)
	require.Contains(t, err.Error(), "must be a number")
	require.Contains(t, err.Error(), "TOKEN_SECRET")
}
