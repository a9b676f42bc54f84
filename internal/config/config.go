// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package config handles application configuration loading from environment
// variables. A .env file in the working directory is read first when present;
// variables already set in the process environment win.
package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultDBPassword     = "changeme"
	defaultAdminPassword  = "admin"
	defaultCSRFSecretSeed = "dev-csrf-seed"
)

// Config holds all application configuration values loaded from the environment.
type Config struct {
	// Server settings
	Host string
	Port string
	Env  string // "development", "production", "testing"

	// PostgreSQL connection
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Valkey (Redis-compatible cache and session store)
	ValkeyHost     string
	ValkeyPort     string
	ValkeyPassword string
	ValkeyDB       int

	// Admin authentication
	AdminLogin        string
	AdminPassword     string
	AdminPasswordHash string // bcrypt; takes precedence over AdminPassword
	CSRFSecretSeed    string
	SessionMaxAge     time.Duration
	SecureCookies     bool

	// S3-compatible image bucket
	S3Endpoint  string
	S3Region    string
	S3AccessKey string
	S3SecretKey string
	S3Bucket    string
	S3PublicURL string

	// CORS origins allowed to call /api with credentials
	CORSOrigins []string

	// Public response cache TTL; 0 uses the cache default
	PageCacheTTL time.Duration

	// Login throttling and reverse-proxy trust for client IPs
	TrustProxy      bool
	LoginRateLimit  int
	LoginRateWindow time.Duration
}

// Load reads configuration from the environment, applying defaults for
// development where appropriate. In production it refuses default secrets.
func Load() (*Config, error) {
	// A missing .env is normal outside development.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{
		Host: envOrDefault("APP_HOST", "0.0.0.0"),
		Port: envOrDefault("APP_PORT", "8080"),
		Env:  envOrDefault("APP_ENV", "development"),

		DBHost:     envOrDefault("POSTGRES_HOST", "localhost"),
		DBPort:     envOrDefault("POSTGRES_PORT", "5432"),
		DBUser:     envOrDefault("POSTGRES_USER", "lessonpress"),
		DBPassword: envOrDefault("POSTGRES_PASSWORD", defaultDBPassword),
		DBName:     envOrDefault("POSTGRES_DB", "lessonpress"),
		DBSSLMode:  envOrDefault("POSTGRES_SSLMODE", "disable"),

		ValkeyHost:     envOrDefault("VALKEY_HOST", "localhost"),
		ValkeyPort:     envOrDefault("VALKEY_PORT", "6379"),
		ValkeyPassword: os.Getenv("VALKEY_PASSWORD"),

		AdminLogin:        envOrDefault("ADMIN_LOGIN", "admin"),
		AdminPassword:     envOrDefault("ADMIN_PASSWORD", defaultAdminPassword),
		AdminPasswordHash: os.Getenv("ADMIN_PASSWORD_HASH"),
		CSRFSecretSeed:    envOrDefault("CSRF_SECRET_SEED", defaultCSRFSecretSeed),

		S3Endpoint:  os.Getenv("S3_ENDPOINT"),
		S3Region:    envOrDefault("S3_REGION", "us-east-1"),
		S3AccessKey: os.Getenv("S3_ACCESS_KEY"),
		S3SecretKey: os.Getenv("S3_SECRET_KEY"),
		S3Bucket:    envOrDefault("S3_BUCKET", "lesson-images"),
		S3PublicURL: os.Getenv("S3_PUBLIC_URL"),

		CORSOrigins: splitList(os.Getenv("CORS_ALLOWED_ORIGINS")),
	}

	var err error
	if cfg.ValkeyDB, err = envInt("VALKEY_DB", 0); err != nil {
		return nil, err
	}
	if cfg.SessionMaxAge, err = envDuration("SESSION_MAX_AGE", 30*24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.PageCacheTTL, err = envDuration("PAGE_CACHE_TTL", 0); err != nil {
		return nil, err
	}
	if cfg.SecureCookies, err = envBool("SECURE_COOKIES", cfg.Env == "production"); err != nil {
		return nil, err
	}
	if cfg.TrustProxy, err = envBool("TRUST_PROXY", false); err != nil {
		return nil, err
	}
	if cfg.LoginRateLimit, err = envInt("LOGIN_RATE_LIMIT", 10); err != nil {
		return nil, err
	}
	if cfg.LoginRateWindow, err = envDuration("LOGIN_RATE_WINDOW", time.Minute); err != nil {
		return nil, err
	}
	if cfg.LoginRateLimit < 1 {
		return nil, fmt.Errorf("LOGIN_RATE_LIMIT must be at least 1")
	}

	if cfg.Env == "production" {
		if cfg.DBPassword == defaultDBPassword {
			return nil, fmt.Errorf("POSTGRES_PASSWORD must be set in production")
		}
		if cfg.AdminPasswordHash == "" && cfg.AdminPassword == defaultAdminPassword {
			return nil, fmt.Errorf("ADMIN_PASSWORD or ADMIN_PASSWORD_HASH must be set in production")
		}
		if cfg.CSRFSecretSeed == defaultCSRFSecretSeed {
			return nil, fmt.Errorf("CSRF_SECRET_SEED must be set in production")
		}
	}

	return cfg, nil
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.DBUser, c.DBPassword),
		Host:     net.JoinHostPort(c.DBHost, c.DBPort),
		Path:     "/" + c.DBName,
		RawQuery: "sslmode=" + url.QueryEscape(c.DBSSLMode),
	}
	return u.String()
}

// Addr returns the server listen address (host:port).
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, c.Port)
}

// IsDev returns true if the application is running in development mode.
func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// envOrDefault reads an environment variable, returning a fallback if unset or empty.
func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func envDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

func envBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}

// splitList parses a comma-separated list, dropping blanks.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
