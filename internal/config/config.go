package config

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config is centralized process configuration, read from the environment.
type Config struct {
	Port           string
	DatabaseDriver string
	DatabasePath   string
	PostgresDSN    string

	JWTSecret       string
	BcryptCost      int
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration

	LogLevel slog.Level

	AuthRateLimit float64
	AuthRateBurst float64

	RevocationPurgeInterval time.Duration
	EnableSwagger           bool

	AdminUsername string
	AdminEmail    string
	AdminPassword string
}

// HasAdmin reports whether a bootstrap administrator is configured.
func (c Config) HasAdmin() bool {
	return c.AdminUsername != ""
}

func Load() (Config, error) {
	cfg := Config{
		Port:           envString("PORT", "8080"),
		DatabaseDriver: strings.ToLower(envString("DATABASE_DRIVER", DriverSQLite)),
		DatabasePath:   envString("DATABASE_PATH", "microblog.db"),
		PostgresDSN:    os.Getenv("POSTGRES_DSN"),
		JWTSecret:      os.Getenv("JWT_SECRET"),
		EnableSwagger:  envBool("ENABLE_SWAGGER", true),
		AdminUsername:  strings.TrimSpace(os.Getenv("ADMIN_USERNAME")),
		AdminEmail:     strings.TrimSpace(os.Getenv("ADMIN_EMAIL")),
		AdminPassword:  os.Getenv("ADMIN_PASSWORD"),
	}

	var errs []error
	var err error

	switch cfg.DatabaseDriver {
	case DriverSQLite:
	case DriverPostgres:
		if cfg.PostgresDSN == "" {
			errs = append(errs, errors.New("POSTGRES_DSN is required when DATABASE_DRIVER=postgres"))
		}
	default:
		errs = append(errs, fmt.Errorf("DATABASE_DRIVER must be %q or %q, got %q", DriverSQLite, DriverPostgres, cfg.DatabaseDriver))
	}

	switch {
	case cfg.JWTSecret == "":
		errs = append(errs, errors.New("JWT_SECRET environment variable is required"))
	case len(cfg.JWTSecret) < 32:
		errs = append(errs, errors.New("JWT_SECRET must be at least 32 characters for HMAC-SHA256 security"))
	}

	if cfg.BcryptCost, err = envInt("BCRYPT_COST", 12); err != nil {
		errs = append(errs, err)
	} else if cfg.BcryptCost < 4 || cfg.BcryptCost > 14 {
		errs = append(errs, fmt.Errorf("BCRYPT_COST must be between 4 and 14, got %d", cfg.BcryptCost))
	}

	if cfg.AccessTokenTTL, err = envDuration("ACCESS_TOKEN_TTL", 5*time.Minute); err != nil {
		errs = append(errs, err)
	}
	if cfg.RefreshTokenTTL, err = envDuration("REFRESH_TOKEN_TTL", 24*time.Hour); err != nil {
		errs = append(errs, err)
	}
	if cfg.RevocationPurgeInterval, err = envDuration("REVOCATION_PURGE_INTERVAL", time.Hour); err != nil {
		errs = append(errs, err)
	}

	if cfg.AuthRateLimit, err = envFloat("AUTH_RATE_LIMIT", 1); err != nil {
		errs = append(errs, err)
	}
	if cfg.AuthRateBurst, err = envFloat("AUTH_RATE_BURST", 10); err != nil {
		errs = append(errs, err)
	} else if cfg.AuthRateBurst < 1 {
		errs = append(errs, fmt.Errorf("AUTH_RATE_BURST must be at least 1, got %v", cfg.AuthRateBurst))
	}

	if err := cfg.LogLevel.UnmarshalText([]byte(envString("LOG_LEVEL", "info"))); err != nil {
		errs = append(errs, fmt.Errorf("LOG_LEVEL: %w", err))
	}

	if cfg.AdminUsername != "" && cfg.AdminPassword == "" {
		errs = append(errs, errors.New("ADMIN_PASSWORD is required when ADMIN_USERNAME is set"))
	}

	if len(errs) > 0 {
		return Config{}, errors.Join(errs...)
	}
	return cfg, nil
}

func envString(name, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(name)); v != "" {
		return v
	}
	return fallback
}

func envBool(name string, fallback bool) bool {
	raw := strings.TrimSpace(strings.ToLower(os.Getenv(name)))
	if raw == "" {
		return fallback
	}
	switch raw {
	case "1", "true", "t", "yes", "y", "on":
		return true
	case "0", "false", "f", "no", "n", "off":
		return false
	default:
		return fallback
	}
}

func envInt(name string, fallback int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", name, err)
	}
	return v, nil
}

func envFloat(name string, fallback float64) (float64, error) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("invalid %s: must be a non-negative number", name)
	}
	return v, nil
}

func envDuration(name string, fallback time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback, nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", name, err)
	}
	if v <= 0 {
		return 0, fmt.Errorf("invalid %s: must be positive", name)
	}
	return v, nil
}
