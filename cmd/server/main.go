// Package main is the entry point for the products API server.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/vyrodovalexey/products-api/internal/catalog"
	"github.com/vyrodovalexey/products-api/internal/config"
	"github.com/vyrodovalexey/products-api/internal/discount"
	"github.com/vyrodovalexey/products-api/internal/handler"
	"github.com/vyrodovalexey/products-api/internal/idgen"
	"github.com/vyrodovalexey/products-api/internal/model"
	"github.com/vyrodovalexey/products-api/internal/seed"
	"github.com/vyrodovalexey/products-api/internal/server"
	"github.com/vyrodovalexey/products-api/internal/store"
)

// Command line flags. Each overrides its environment variable when set.
const (
	flagPort      = "port"
	flagLogLevel  = "log-level"
	flagSeedFile  = "seed-file"
	flagStaticDir = "static-dir"
)

func main() {
	os.Exit(run())
}

func run() int {
	if err := newRootCommand().Execute(); err != nil {
		return 1
	}
	return 0
}

// newRootCommand builds the products-api command.
func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "products-api",
		Short:         "In-memory products REST API",
		Long:          "Serves the product catalog over REST, streams catalog changes over WebSocket and exposes Prometheus metrics.",
		Version:       handler.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd.Flags())
			if err != nil {
				// Use a basic logger for startup errors
				basicLogger, _ := zap.NewProduction()
				basicLogger.Error("failed to load configuration", zap.Error(err))
				return err
			}
			return serve(cfg)
		},
	}

	flags := cmd.Flags()
	flags.Int(flagPort, config.DefaultServerPort, "HTTP listen port (env "+config.EnvServerPort+")")
	flags.String(flagLogLevel, config.DefaultLogLevel, "log level: debug, info, warn, error (env "+config.EnvLogLevel+")")
	flags.String(flagSeedFile, "", "JSON or YAML file with extra seed products (env "+config.EnvSeedFile+")")
	flags.String(flagStaticDir, "", "directory holding assets/ and client/ (env "+config.EnvStaticDir+")")

	return cmd
}

// loadConfig reads the environment, then applies explicitly set flags and
// validates the result.
func loadConfig(flags *pflag.FlagSet) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	if err := applyFlags(flags, cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating flags: %w", err)
	}

	return cfg, nil
}

// applyFlags copies flags the user set onto cfg.
func applyFlags(flags *pflag.FlagSet, cfg *config.Config) error {
	var err error

	if flags.Changed(flagPort) {
		if cfg.ServerPort, err = flags.GetInt(flagPort); err != nil {
			return err
		}
	}
	if flags.Changed(flagLogLevel) {
		if cfg.LogLevel, err = flags.GetString(flagLogLevel); err != nil {
			return err
		}
	}
	if flags.Changed(flagSeedFile) {
		if cfg.SeedFile, err = flags.GetString(flagSeedFile); err != nil {
			return err
		}
	}
	if flags.Changed(flagStaticDir) {
		if cfg.StaticDir, err = flags.GetString(flagStaticDir); err != nil {
			return err
		}
	}

	return nil
}

// serve runs the server until it fails or a shutdown signal arrives.
func serve(cfg *config.Config) error {
	// Initialize logger
	logger, err := initLogger(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	logger.Info("configuration loaded",
		zap.Int("server_port", cfg.ServerPort),
		zap.String("log_level", cfg.LogLevel),
		zap.Duration("shutdown_timeout", cfg.ShutdownTimeout),
		zap.Bool("metrics_enabled", cfg.MetricsEnabled),
		zap.String("seed_file", cfg.SeedFile),
		zap.String("static_dir", cfg.StaticDir),
		zap.Strings("cors_origins", cfg.AllowedOrigins()),
	)

	svc, wsHandler, err := buildCatalog(cfg, logger)
	if err != nil {
		logger.Error("failed to build catalog", zap.Error(err))
		return err
	}

	srv := server.New(cfg, logger, svc, wsHandler)

	// Start server in a goroutine
	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- srv.Start()
	}()

	// Wait for shutdown signal
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(shutdown)

	select {
	case err := <-serverErrors:
		logger.Error("server error", zap.Error(err))
		return err
	case sig := <-shutdown:
		logger.Info("shutdown signal received", zap.String("signal", sig.String()))

		// Create shutdown context with timeout
		ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		// Graceful shutdown
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("graceful shutdown failed", zap.Error(err))
			return err
		}
	}

	logger.Info("server stopped")
	return nil
}

// buildCatalog creates the seeded catalog service and the WebSocket handler
// that receives its mutation events.
func buildCatalog(cfg *config.Config, logger *zap.Logger) (*catalog.Service, *handler.WebSocketHandler, error) {
	extra, err := cfg.Discounts()
	if err != nil {
		return nil, nil, fmt.Errorf("parsing discount codes: %w", err)
	}

	discounts, err := discount.WithDefaults(extra)
	if err != nil {
		return nil, nil, fmt.Errorf("building discount catalog: %w", err)
	}

	products, err := seed.All(cfg.SeedFile)
	if err != nil {
		return nil, nil, fmt.Errorf("loading seed products: %w", err)
	}

	wsHandler := handler.NewWebSocketHandler(logger)
	events := catalog.NotifierFunc(func(event model.ProductEvent) {
		logger.Debug("product event",
			zap.String("type", string(event.Type)),
			zap.String("id", event.ID),
		)
		wsHandler.Publish(event)
	})

	svc := catalog.NewService(
		store.NewMemoryStore(),
		idgen.NewUUID(),
		discounts,
		logger,
		catalog.WithNotifier(events),
	)

	if err := svc.Seed(products); err != nil {
		return nil, nil, fmt.Errorf("seeding catalog: %w", err)
	}

	logger.Info("catalog ready",
		zap.Strings("discount_codes", discounts.Codes()),
		zap.Int("products", len(products)),
	)

	return svc, wsHandler, nil
}

// initLogger initializes a zap logger with the specified log level.
func initLogger(level string) (*zap.Logger, error) {
	var zapLevel zapcore.Level
	if err := zapLevel.UnmarshalText([]byte(level)); err != nil {
		zapLevel = zapcore.InfoLevel
	}

	zapConfig := zap.Config{
		Level:       zap.NewAtomicLevelAt(zapLevel),
		Development: false,
		Sampling: &zap.SamplingConfig{
			Initial:    100,
			Thereafter: 100,
		},
		Encoding: "json",
		EncoderConfig: zapcore.EncoderConfig{
			TimeKey:        "timestamp",
			LevelKey:       "level",
			NameKey:        "logger",
			CallerKey:      "caller",
			FunctionKey:    zapcore.OmitKey,
			MessageKey:     "message",
			StacktraceKey:  "stacktrace",
			LineEnding:     zapcore.DefaultLineEnding,
			EncodeLevel:    zapcore.LowercaseLevelEncoder,
			EncodeTime:     zapcore.ISO8601TimeEncoder,
			EncodeDuration: zapcore.SecondsDurationEncoder,
			EncodeCaller:   zapcore.ShortCallerEncoder,
		},
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}

	return zapConfig.Build()
}
