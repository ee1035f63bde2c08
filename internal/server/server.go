// Package server provides the HTTP server implementation.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/vyrodovalexey/products-api/internal/config"
	"github.com/vyrodovalexey/products-api/internal/handler"
	"github.com/vyrodovalexey/products-api/internal/middleware"
)

// Static asset layout under config.StaticDir.
const (
	assetsPrefix = "/assets/"
	assetsDir    = "assets"
	clientDir    = "client"
)

// Server represents the HTTP server.
type Server struct {
	httpServer *http.Server
	router     *mux.Router
	config     *config.Config
	logger     *zap.Logger
	wsHandler  *handler.WebSocketHandler
}

// New creates a new Server instance. wsHandler is usually the catalog's
// notifier; when nil a handler without a publisher is created.
func New(
	cfg *config.Config,
	logger *zap.Logger,
	products handler.ProductService,
	wsHandler *handler.WebSocketHandler,
) *Server {
	router := mux.NewRouter()

	if wsHandler == nil {
		wsHandler = handler.NewWebSocketHandler(logger)
	}

	s := &Server{
		router:    router,
		config:    cfg,
		logger:    logger,
		wsHandler: wsHandler,
	}

	s.setupMiddleware()
	s.setupRoutes(products)
	s.setupHTTPServer()

	return s
}

// setupMiddleware installs the products API middleware stack on the router.
func (s *Server) setupMiddleware() {
	stack := middleware.Stack(middleware.Options{
		Logger:  s.logger,
		CORS:    middleware.ProductsCORS(s.config.AllowedOrigins()),
		Metrics: s.config.MetricsEnabled,
	})
	s.router.Use(mux.MiddlewareFunc(stack))
}

// setupRoutes configures the API routes.
func (s *Server) setupRoutes(products handler.ProductService) {
	// Preflight requests are answered by the CORS middleware; mux only runs
	// middleware for matched routes.
	s.router.Methods(http.MethodOptions).HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	// REST API handler
	restHandler := handler.NewRESTHandler(products, s.logger)
	restHandler.RegisterRoutes(s.router)

	// WebSocket event stream
	s.wsHandler.RegisterRoutes(s.router)

	// Metrics endpoint
	if s.config.MetricsEnabled {
		s.router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	}

	if s.config.StaticDir != "" {
		s.setupStaticRoutes(s.config.StaticDir)
	}
}

// setupStaticRoutes serves dir/assets under /assets/ and dir/client under /.
// Registered last so API routes take precedence.
func (s *Server) setupStaticRoutes(dir string) {
	assets := http.FileServer(http.Dir(filepath.Join(dir, assetsDir)))
	s.router.PathPrefix(assetsPrefix).
		Handler(http.StripPrefix(assetsPrefix, assets)).
		Methods(http.MethodGet, http.MethodHead)

	client := http.FileServer(http.Dir(filepath.Join(dir, clientDir)))
	s.router.PathPrefix("/").
		Handler(client).
		Methods(http.MethodGet, http.MethodHead)

	s.logger.Info("serving static files", zap.String("dir", dir))
}

// setupHTTPServer configures the HTTP server.
func (s *Server) setupHTTPServer() {
	s.httpServer = &http.Server{
		Addr:              s.config.Address(),
		Handler:           s.router,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20, // 1 MB
	}
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.logger.Info("starting server",
		zap.String("address", s.config.Address()),
		zap.Bool("metrics_enabled", s.config.MetricsEnabled),
		zap.String("static_dir", s.config.StaticDir),
	)

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server listen and serve: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down server",
		zap.Int("websocket_clients", s.wsHandler.ClientCount()),
	)

	// Close all WebSocket connections first
	s.wsHandler.CloseAllConnections()

	// Shutdown HTTP server
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	s.logger.Info("server shutdown complete")
	return nil
}

// Router returns the server's router for testing purposes.
func (s *Server) Router() *mux.Router {
	return s.router
}
