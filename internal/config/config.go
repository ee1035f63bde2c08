// Package config provides configuration management for the products API server.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/vyrodovalexey/products-api/internal/discount"
)

// Default configuration values.
const (
	DefaultServerPort      = 3000
	DefaultLogLevel        = "info"
	DefaultShutdownTimeout = 30 * time.Second
	DefaultMetricsEnabled  = true
	DefaultCORSOrigins     = "*"
	DefaultEnvFile         = ".env"
)

// Environment variable names.
const (
	EnvServerPort      = "APP_SERVER_PORT"
	EnvPort            = "PORT"
	EnvLogLevel        = "APP_LOG_LEVEL"
	EnvShutdownTimeout = "APP_SHUTDOWN_TIMEOUT"
	EnvMetricsEnabled  = "APP_METRICS_ENABLED"
	EnvSeedFile        = "APP_SEED_FILE"
	EnvStaticDir       = "APP_STATIC_DIR"
	EnvDiscountCodes   = "APP_DISCOUNT_CODES"
	EnvCORSOrigins     = "APP_CORS_ORIGINS"
)

// Config holds the application configuration.
type Config struct {
	// Server settings.
	ServerPort      int
	LogLevel        string
	ShutdownTimeout time.Duration
	MetricsEnabled  bool

	// SeedFile is an optional JSON or YAML list of extra products.
	SeedFile string

	// StaticDir holds assets/ and client/ for static serving (empty = disabled).
	StaticDir string

	// Extra discount codes (format: "CODE1:0.8,CODE2:0.5").
	DiscountCodes string

	// Comma separated allowed CORS origins.
	CORSOrigins string
}

// Validation errors.
var (
	ErrInvalidServerPort      = errors.New("server port must be between 1 and 65535")
	ErrInvalidLogLevel        = errors.New("log level must be one of: debug, info, warn, error")
	ErrInvalidShutdownTimeout = errors.New("shutdown timeout must be positive")
	ErrInvalidDiscountCodes   = errors.New("discount codes must be CODE:ratio pairs with ratio in (0,1]")
	ErrInvalidCORSOrigins     = errors.New("at least one CORS origin must be set")
)

// Load reads configuration from environment variables with defaults.
// Variables from a .env file in the working directory are applied first;
// the process environment has priority over them.
func Load() (*Config, error) {
	if err := loadDotEnv(DefaultEnvFile); err != nil {
		return nil, err
	}

	cfg := &Config{
		ServerPort:      DefaultServerPort,
		LogLevel:        DefaultLogLevel,
		ShutdownTimeout: DefaultShutdownTimeout,
		MetricsEnabled:  DefaultMetricsEnabled,
		CORSOrigins:     DefaultCORSOrigins,
	}

	if err := cfg.loadFromEnv(); err != nil {
		return nil, fmt.Errorf("loading config from environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// loadDotEnv applies variables from path without overriding existing ones.
// A missing file is not an error.
func loadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

// loadFromEnv loads configuration values from environment variables.
func (c *Config) loadFromEnv() error {
	if err := c.loadServerEnv(); err != nil {
		return err
	}

	c.loadCatalogEnv()

	return nil
}

// loadServerEnv loads server-related environment variables.
func (c *Config) loadServerEnv() error {
	if err := c.loadPort(); err != nil {
		return err
	}

	if val := os.Getenv(EnvLogLevel); val != "" {
		c.LogLevel = val
	}

	if val := os.Getenv(EnvShutdownTimeout); val != "" {
		timeout, err := time.ParseDuration(val)
		if err != nil {
			return fmt.Errorf("parsing %s: %w", EnvShutdownTimeout, err)
		}
		c.ShutdownTimeout = timeout
	}

	if val := os.Getenv(EnvMetricsEnabled); val != "" {
		enabled, err := strconv.ParseBool(val)
		if err != nil {
			return fmt.Errorf("parsing %s: %w", EnvMetricsEnabled, err)
		}
		c.MetricsEnabled = enabled
	}

	if val := os.Getenv(EnvCORSOrigins); val != "" {
		c.CORSOrigins = val
	}

	return nil
}

// loadPort reads APP_SERVER_PORT, falling back to the conventional PORT.
func (c *Config) loadPort() error {
	name := EnvServerPort
	val := os.Getenv(name)
	if val == "" {
		name = EnvPort
		val = os.Getenv(name)
	}
	if val == "" {
		return nil
	}

	port, err := strconv.Atoi(val)
	if err != nil {
		return fmt.Errorf("parsing %s: %w", name, err)
	}
	c.ServerPort = port

	return nil
}

// loadCatalogEnv loads seed, static asset and discount settings.
func (c *Config) loadCatalogEnv() {
	if val := os.Getenv(EnvSeedFile); val != "" {
		c.SeedFile = val
	}

	if val := os.Getenv(EnvStaticDir); val != "" {
		c.StaticDir = val
	}

	if val := os.Getenv(EnvDiscountCodes); val != "" {
		c.DiscountCodes = val
	}
}

// Validate checks if the configuration values are valid.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}

	if err := c.validateCatalog(); err != nil {
		return err
	}

	return nil
}

// validateServer validates server-related configuration.
func (c *Config) validateServer() error {
	if c.ServerPort < 1 || c.ServerPort > 65535 {
		return ErrInvalidServerPort
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return ErrInvalidLogLevel
	}

	if c.ShutdownTimeout <= 0 {
		return ErrInvalidShutdownTimeout
	}

	if len(c.AllowedOrigins()) == 0 {
		return ErrInvalidCORSOrigins
	}

	return nil
}

// validateCatalog validates discount configuration.
func (c *Config) validateCatalog() error {
	if _, err := discount.ParseCodes(c.DiscountCodes); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidDiscountCodes, err)
	}
	return nil
}

// Discounts parses the configured extra discount codes.
func (c *Config) Discounts() (map[string]float64, error) {
	return discount.ParseCodes(c.DiscountCodes)
}

// AllowedOrigins returns the configured CORS origins.
func (c *Config) AllowedOrigins() []string {
	var origins []string
	for _, origin := range strings.Split(c.CORSOrigins, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	return origins
}

// Address returns the server address in host:port format.
func (c *Config) Address() string {
	return fmt.Sprintf(":%d", c.ServerPort)
}
