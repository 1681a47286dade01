// Package api exposes the worker pool over HTTP. Callers authenticate with a
// bearer JWT whose principal claim is the identity every keeper operation is
// authorized against.
package api

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"cosmossdk.io/log"
	"github.com/gin-gonic/gin"

	"github.com/ciro-network/ciro/app"
)

// Server is the worker pool HTTP API.
type Server struct {
	router      *gin.Engine
	app         *app.App
	config      *Config
	authService *AuthService
	logger      log.Logger
}

// Config holds server configuration.
type Config struct {
	Address         string
	JWTSecret       []byte
	TokenTTL        time.Duration
	CORSOrigins     []string
	RateLimitRPS    int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
}

// DefaultConfig returns default server configuration
func DefaultConfig() *Config {
	return &Config{
		Address:         "0.0.0.0:8080",
		TokenTTL:        24 * time.Hour,
		CORSOrigins:     []string{"http://localhost:3000"},
		RateLimitRPS:    100,
		ReadTimeout:     15 * time.Second,
		WriteTimeout:    15 * time.Second,
		RequestTimeout:  10 * time.Second,
		ShutdownTimeout: 10 * time.Second,
	}
}

// ConfigFromApp converts the daemon's API section into a server config.
func ConfigFromApp(cfg app.APIConfig) *Config {
	out := DefaultConfig()
	out.Address = cfg.Address
	out.JWTSecret = []byte(cfg.JWTSecret)
	out.CORSOrigins = cfg.CORSOrigins
	out.RateLimitRPS = cfg.RateLimitRPS
	out.ReadTimeout = cfg.ReadTimeout
	out.WriteTimeout = cfg.WriteTimeout
	out.RequestTimeout = cfg.RequestTimeout
	return out
}

// NewServer creates a new API server instance
func NewServer(application *app.App, config *Config) (*Server, error) {
	if application == nil {
		return nil, errors.New("application is required")
	}
	if config == nil {
		config = DefaultConfig()
	}
	logger := application.Logger().With("module", "api")

	if len(config.JWTSecret) == 0 {
		secret := make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return nil, fmt.Errorf("failed to generate JWT secret: %w", err)
		}
		config.JWTSecret = secret
		logger.Warn("no JWT secret configured; using a random one, tokens will not survive a restart")
	}

	server := &Server{
		app:         application,
		config:      config,
		authService: NewAuthService(config.JWTSecret, config.TokenTTL),
		logger:      logger,
	}
	server.setupRouter()

	return server, nil
}

// Handler exposes the router, mainly for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// AuthService returns the token issuer bound to this server's secret.
func (s *Server) AuthService() *AuthService {
	return s.authService
}

// setupRouter configures the Gin router with all routes and middleware
func (s *Server) setupRouter() {
	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}

	s.router = gin.New()

	// Global middleware - ORDER MATTERS!
	s.router.Use(gin.Recovery())
	s.router.Use(SecurityHeadersMiddleware())
	s.router.Use(RequestSizeLimitMiddleware(MaxRequestSize))
	s.router.Use(RequestIDMiddleware())
	s.router.Use(LoggerMiddleware(s.logger))
	s.router.Use(s.CORSMiddleware())
	if s.config.RateLimitRPS > 0 {
		s.router.Use(RateLimitMiddleware(s.config.RateLimitRPS))
	}
	s.router.Use(TimeoutMiddleware(s.config.RequestTimeout))

	s.router.GET("/health", s.healthCheck)

	s.registerRoutes()
}

// healthCheck returns server health status
func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":      "healthy",
		"timestamp":   time.Now().Unix(),
		"initialized": s.app.Initialized(),
		"version":     s.app.Version(),
	})
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:           s.config.Address,
		Handler:        s.router,
		ReadTimeout:    s.config.ReadTimeout,
		WriteTimeout:   s.config.WriteTimeout,
		MaxHeaderBytes: 1 << 20,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting API server", "address", s.config.Address)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("api server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutting down API server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	return nil
}
