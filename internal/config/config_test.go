// Package config provides configuration management for the products API server.
package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_DefaultValues(t *testing.T) {
	// Arrange - Clear all environment variables
	clearEnvVars(t)

	// Act
	cfg, err := Load()

	// Assert
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}

	if cfg.ServerPort != DefaultServerPort {
		t.Errorf("ServerPort = %d, want %d", cfg.ServerPort, DefaultServerPort)
	}
	if cfg.LogLevel != DefaultLogLevel {
		t.Errorf("LogLevel = %s, want %s", cfg.LogLevel, DefaultLogLevel)
	}
	if cfg.ShutdownTimeout != DefaultShutdownTimeout {
		t.Errorf("ShutdownTimeout = %v, want %v", cfg.ShutdownTimeout, DefaultShutdownTimeout)
	}
	if cfg.MetricsEnabled != DefaultMetricsEnabled {
		t.Errorf("MetricsEnabled = %v, want %v", cfg.MetricsEnabled, DefaultMetricsEnabled)
	}
	if cfg.CORSOrigins != DefaultCORSOrigins {
		t.Errorf("CORSOrigins = %s, want %s", cfg.CORSOrigins, DefaultCORSOrigins)
	}
	if cfg.SeedFile != "" || cfg.StaticDir != "" || cfg.DiscountCodes != "" {
		t.Errorf("catalog settings should be empty by default, got %+v", cfg)
	}
}

func TestLoad_EnvironmentVariables(t *testing.T) {
	tests := []struct {
		name     string
		envVars  map[string]string
		validate func(*testing.T, *Config)
	}{
		{
			name:    "custom server port",
			envVars: map[string]string{EnvServerPort: "9090"},
			validate: func(t *testing.T, cfg *Config) {
				if cfg.ServerPort != 9090 {
					t.Errorf("ServerPort = %d, want 9090", cfg.ServerPort)
				}
			},
		},
		{
			name:    "PORT fallback",
			envVars: map[string]string{EnvPort: "4000"},
			validate: func(t *testing.T, cfg *Config) {
				if cfg.ServerPort != 4000 {
					t.Errorf("ServerPort = %d, want 4000", cfg.ServerPort)
				}
			},
		},
		{
			name:    "APP_SERVER_PORT wins over PORT",
			envVars: map[string]string{EnvServerPort: "5000", EnvPort: "4000"},
			validate: func(t *testing.T, cfg *Config) {
				if cfg.ServerPort != 5000 {
					t.Errorf("ServerPort = %d, want 5000", cfg.ServerPort)
				}
			},
		},
		{
			name:    "custom log level",
			envVars: map[string]string{EnvLogLevel: "debug"},
			validate: func(t *testing.T, cfg *Config) {
				if cfg.LogLevel != "debug" {
					t.Errorf("LogLevel = %s, want debug", cfg.LogLevel)
				}
			},
		},
		{
			name:    "custom shutdown timeout",
			envVars: map[string]string{EnvShutdownTimeout: "60s"},
			validate: func(t *testing.T, cfg *Config) {
				if cfg.ShutdownTimeout != 60*time.Second {
					t.Errorf("ShutdownTimeout = %v, want 60s", cfg.ShutdownTimeout)
				}
			},
		},
		{
			name:    "metrics disabled",
			envVars: map[string]string{EnvMetricsEnabled: "false"},
			validate: func(t *testing.T, cfg *Config) {
				if cfg.MetricsEnabled {
					t.Error("MetricsEnabled = true, want false")
				}
			},
		},
		{
			name: "catalog settings",
			envVars: map[string]string{
				EnvSeedFile:      "/data/products.json",
				EnvStaticDir:     "/srv/public",
				EnvDiscountCodes: "SPRING:0.9",
				EnvCORSOrigins:   "http://a.example, http://b.example",
			},
			validate: func(t *testing.T, cfg *Config) {
				if cfg.SeedFile != "/data/products.json" {
					t.Errorf("SeedFile = %s, want /data/products.json", cfg.SeedFile)
				}
				if cfg.StaticDir != "/srv/public" {
					t.Errorf("StaticDir = %s, want /srv/public", cfg.StaticDir)
				}
				codes, err := cfg.Discounts()
				if err != nil || codes["SPRING"] != 0.9 {
					t.Errorf("Discounts() = %v, %v, want SPRING:0.9", codes, err)
				}
				origins := cfg.AllowedOrigins()
				if len(origins) != 2 || origins[1] != "http://b.example" {
					t.Errorf("AllowedOrigins() = %v, want two trimmed origins", origins)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			clearEnvVars(t)
			for key, value := range tt.envVars {
				t.Setenv(key, value)
			}

			// Act
			cfg, err := Load()

			// Assert
			if err != nil {
				t.Fatalf("Load() returned unexpected error: %v", err)
			}
			tt.validate(t, cfg)
		})
	}
}

func TestLoad_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		envVars map[string]string
		wantErr error
	}{
		{"port zero", map[string]string{EnvServerPort: "0"}, ErrInvalidServerPort},
		{"port too large", map[string]string{EnvServerPort: "70000"}, ErrInvalidServerPort},
		{"invalid log level", map[string]string{EnvLogLevel: "verbose"}, ErrInvalidLogLevel},
		{"negative timeout", map[string]string{EnvShutdownTimeout: "-1s"}, ErrInvalidShutdownTimeout},
		{"bad discount codes", map[string]string{EnvDiscountCodes: "SPRING:2"}, ErrInvalidDiscountCodes},
		{"empty CORS origins", map[string]string{EnvCORSOrigins: " , "}, ErrInvalidCORSOrigins},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			clearEnvVars(t)
			for key, value := range tt.envVars {
				t.Setenv(key, value)
			}

			// Act
			cfg, err := Load()

			// Assert
			if err == nil {
				t.Fatalf("Load() expected error, got config %+v", cfg)
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Load() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoad_ParseErrors(t *testing.T) {
	tests := []struct {
		name    string
		envVars map[string]string
	}{
		{"non-numeric port", map[string]string{EnvServerPort: "abc"}},
		{"non-numeric PORT", map[string]string{EnvPort: "abc"}},
		{"bad duration", map[string]string{EnvShutdownTimeout: "soon"}},
		{"bad bool", map[string]string{EnvMetricsEnabled: "maybe"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			clearEnvVars(t)
			for key, value := range tt.envVars {
				t.Setenv(key, value)
			}

			// Act
			_, err := Load()

			// Assert
			if err == nil {
				t.Error("Load() expected parse error, got nil")
			}
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	// Arrange
	clearEnvVars(t)
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	content := EnvLogLevel + "=warn\n" + EnvServerPort + "=7070\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write .env: %v", err)
	}
	t.Setenv(EnvServerPort, "6060")

	// Act
	err := loadDotEnv(path)

	// Assert
	if err != nil {
		t.Fatalf("loadDotEnv() error = %v", err)
	}
	if got := os.Getenv(EnvLogLevel); got != "warn" {
		t.Errorf("%s = %q, want warn", EnvLogLevel, got)
	}
	if got := os.Getenv(EnvServerPort); got != "6060" {
		t.Errorf("%s = %q, want existing value 6060", EnvServerPort, got)
	}
}

func TestLoadDotEnv_MissingFile(t *testing.T) {
	if err := loadDotEnv(filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Errorf("loadDotEnv() error = %v, want nil for missing file", err)
	}
}

func TestConfig_Address(t *testing.T) {
	tests := []struct {
		port int
		want string
	}{
		{3000, ":3000"},
		{8080, ":8080"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			cfg := &Config{ServerPort: tt.port}
			if got := cfg.Address(); got != tt.want {
				t.Errorf("Address() = %s, want %s", got, tt.want)
			}
		})
	}
}

// clearEnvVars unsets every variable Load reads, restoring them after the test.
func clearEnvVars(t *testing.T) {
	t.Helper()
	envVars := []string{
		EnvServerPort,
		EnvPort,
		EnvLogLevel,
		EnvShutdownTimeout,
		EnvMetricsEnabled,
		EnvSeedFile,
		EnvStaticDir,
		EnvDiscountCodes,
		EnvCORSOrigins,
	}
	for _, env := range envVars {
		t.Setenv(env, "")
		if err := os.Unsetenv(env); err != nil {
			t.Fatalf("failed to unset env var %s: %v", env, err)
		}
	}
}
