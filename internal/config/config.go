// Package config loads runtime settings from the environment. An optional
// .env file in the working directory is read first; variables already set in
// the process environment take precedence over it.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const minJWTSecretLength = 32

// Config holds every setting the server and CLI need.
type Config struct {
	Port             string
	DatabasePath     string
	JWTSecret        string
	BcryptCost       int
	TokenTTL         time.Duration
	FreeInvoiceLimit int
	RedisURL         string
	AuthRatePerMin   float64
	AuthRateBurst    int
	LogLevel         string
	LogFormat        string
}

// Load reads the optional env files and then the environment. With no
// files given, ".env" is tried.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from getenv and validates it.
func FromEnv(getenv func(string) string) (*Config, error) {
	p := parser{getenv: getenv}
	cfg := &Config{
		Port:             p.str("PORT", "8080"),
		DatabasePath:     p.str("DATABASE_PATH", "mtaabiz.db"),
		JWTSecret:        getenv("JWT_SECRET"),
		BcryptCost:       p.integer("BCRYPT_COST", 12),
		TokenTTL:         p.duration("TOKEN_TTL", 720*time.Hour),
		FreeInvoiceLimit: p.integer("FREE_INVOICE_LIMIT", 5),
		RedisURL:         getenv("REDIS_URL"),
		AuthRatePerMin:   p.float("AUTH_RATE_PER_MINUTE", 10),
		AuthRateBurst:    p.integer("AUTH_RATE_BURST", 5),
		LogLevel:         p.str("LOG_LEVEL", "info"),
		LogFormat:        p.str("LOG_FORMAT", "text"),
	}
	if err := errors.Join(p.errs...); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error
	switch {
	case c.JWTSecret == "":
		errs = append(errs, errors.New("JWT_SECRET environment variable is required"))
	case len(c.JWTSecret) < minJWTSecretLength:
		errs = append(errs, fmt.Errorf("JWT_SECRET must be at least %d characters for HMAC-SHA256 security", minJWTSecretLength))
	}
	if c.BcryptCost < 4 || c.BcryptCost > 14 {
		errs = append(errs, fmt.Errorf("BCRYPT_COST must be between 4 and 14, got %d", c.BcryptCost))
	}
	if c.TokenTTL < 0 {
		errs = append(errs, fmt.Errorf("TOKEN_TTL must not be negative, got %s", c.TokenTTL))
	}
	if c.FreeInvoiceLimit < 0 {
		errs = append(errs, fmt.Errorf("FREE_INVOICE_LIMIT must not be negative, got %d", c.FreeInvoiceLimit))
	}
	if c.AuthRatePerMin < 0 {
		errs = append(errs, fmt.Errorf("AUTH_RATE_PER_MINUTE must not be negative, got %g", c.AuthRatePerMin))
	}
	if c.AuthRateBurst < 1 {
		errs = append(errs, fmt.Errorf("AUTH_RATE_BURST must be at least 1, got %d", c.AuthRateBurst))
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		errs = append(errs, fmt.Errorf("LOG_FORMAT must be text or json, got %q", c.LogFormat))
	}
	return errors.Join(errs...)
}

type parser struct {
	getenv func(string) string
	errs   []error
}

func (p *parser) str(key, def string) string {
	if v := p.getenv(key); v != "" {
		return v
	}
	return def
}

func (p *parser) integer(key string, def int) int {
	v := p.getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("invalid %s: %w", key, err))
		return def
	}
	return n
}

func (p *parser) float(key string, def float64) float64 {
	v := p.getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("invalid %s: %w", key, err))
		return def
	}
	return f
}

func (p *parser) duration(key string, def time.Duration) time.Duration {
	v := p.getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("invalid %s: %w", key, err))
		return def
	}
	return d
}
