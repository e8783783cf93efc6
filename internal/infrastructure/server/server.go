package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apihttp "github.com/vitomein/loadintel/exportbridge/internal/api/http"
	"github.com/vitomein/loadintel/exportbridge/internal/api/middleware"
	"github.com/vitomein/loadintel/exportbridge/internal/infrastructure/config"
	"github.com/vitomein/loadintel/exportbridge/internal/infrastructure/logging"
	"github.com/vitomein/loadintel/exportbridge/internal/infrastructure/monitoring"
)

// Server wraps the HTTP server and dependencies
type Server struct {
	*Components

	router *gin.Engine
	http   *http.Server
}

// NewServer creates a new server instance
func NewServer(cfg *config.Config) (*Server, error) {
	logger := logging.FromConfig(cfg.Logging)

	logger.Info("Initializing export bridge",
		zap.String("host", cfg.Server.Host),
		zap.String("port", cfg.Server.Port),
		zap.String("grants_db", cfg.Grants.Path),
	)

	components, err := NewComponents(cfg, logger, nil)
	if err != nil {
		return nil, err
	}

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(logger.Component("http")))
	router.Use(monitoring.Middleware(components.Metrics))
	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	if cfg.RateLimit.Enabled {
		logger.Info("Rate limiting enabled",
			zap.Int("rps", cfg.RateLimit.RequestsPerSecond),
			zap.Int("burst", cfg.RateLimit.Burst),
		)
		router.Use(middleware.RateLimit(middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
		}))
	}

	handlers := apihttp.NewHandlers(
		components.Registry,
		components.Picker,
		components.Grants,
		components.Metrics,
		logger.Component("api"),
	)
	handlers.Register(router)

	logger.Info("Server initialized successfully")

	return &Server{
		Components: components,
		router:     router,
		http: &http.Server{
			Addr:              net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}, nil
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run starts the HTTP server and blocks until it stops
func (s *Server) Run() error {
	s.Logger.Info("Starting HTTP server", zap.String("addr", s.http.Addr))
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Close gracefully shuts down the server. In-flight writes finish before
// the grant table closes.
func (s *Server) Close(ctx context.Context) error {
	s.Logger.Info("Shutting down server...")

	var errs []error
	if err := s.http.Shutdown(ctx); err != nil {
		s.Logger.Error("HTTP shutdown incomplete", zap.Error(err))
		errs = append(errs, fmt.Errorf("failed to stop http server: %w", err))
	}
	if err := s.Components.Close(); err != nil {
		s.Logger.Error("Failed to close export stack", zap.Error(err))
		errs = append(errs, err)
	}

	s.Logger.Sync()
	return errors.Join(errs...)
}
