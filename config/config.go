package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config is resolved once at process start. No credential is compiled in:
// the database location comes from DATABASE_URL or the DB_* variables.
type Config struct {
	Port            string `validate:"required,numeric"`
	DatabaseURL     string `validate:"required"`
	BodyLimitBytes  int    `validate:"min=1"`
	RateLimitMax    int    `validate:"min=0"`
	RateLimitWindow time.Duration
	AllowedOrigins  string `validate:"required"`
	LogLevel        string `validate:"oneof=trace debug info warn warning error fatal panic"`

	// Outbound proxy client timeout; zero leaves the transport default.
	ProxyTimeout time.Duration

	PartnerBase    string `validate:"required,url"`
	CardGeniusBase string `validate:"required,url"`
	V1Base         string `validate:"required,url"`
	DefaultBase    string `validate:"required,url"`
}

var validate = validator.New()

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a lookup function.
func FromEnv(getenv func(string) string) (*Config, error) {
	env := func(key, def string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return def
	}
	envInt := func(key string, def int) int {
		if v := getenv(key); v != "" {
			if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
				return n
			}
		}
		return def
	}

	// BODY_LIMIT_BYTES wins over BODY_LIMIT_MB.
	bodyLimit := envInt("BODY_LIMIT_BYTES", 0)
	if bodyLimit <= 0 {
		bodyLimit = envInt("BODY_LIMIT_MB", 4) * 1024 * 1024
	}

	cfg := &Config{
		Port:            env("PORT", "8080"),
		DatabaseURL:     databaseURL(env),
		BodyLimitBytes:  bodyLimit,
		RateLimitMax:    envInt("RATE_LIMIT_MAX", 60),
		RateLimitWindow: time.Duration(envInt("RATE_LIMIT_WINDOW_SECONDS", 60)) * time.Second,
		AllowedOrigins:  env("ALLOWED_ORIGINS", "*"),
		LogLevel:        strings.ToLower(env("LOG_LEVEL", "info")),
		ProxyTimeout:    time.Duration(envInt("PROXY_TIMEOUT_SECONDS", 0)) * time.Second,
		PartnerBase:     env("PROXY_PARTNER_BASE", "https://uat-platform.bankkaro.com"),
		CardGeniusBase:  env("PROXY_CARDGENIUS_BASE", "https://bk-api.bankkaro.com"),
		V1Base:          env("PROXY_V1_BASE", "https://api.bankkaro.com"),
		DefaultBase:     env("PROXY_DEFAULT_BASE", "https://uat-platform.bankkaro.com"),
	}

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// databaseURL prefers DATABASE_URL and otherwise assembles a postgres URL
// from the individual DB_* variables. Empty when nothing is configured.
func databaseURL(env func(key, def string) string) string {
	if u := env("DATABASE_URL", ""); u != "" {
		return u
	}
	host := env("DB_HOST", "")
	if host == "" {
		return ""
	}
	u := url.URL{
		Scheme:   "postgres",
		Host:     host + ":" + env("DB_PORT", "5432"),
		Path:     "/" + env("DB_NAME", "postgres"),
		RawQuery: "sslmode=" + env("DB_SSLMODE", "require"),
	}
	if user := env("DB_USER", ""); user != "" {
		if pw := env("DB_PASSWORD", ""); pw != "" {
			u.User = url.UserPassword(user, pw)
		} else {
			u.User = url.User(user)
		}
	}
	return u.String()
}
