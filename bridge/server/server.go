// Package server provides the HTTP server of the bridge
package server

import (
	"context"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/sonr-io/vaultbridge/bridge/handlers"
)

const (
	DefaultHTTPAddr = ":8080"
)

// Config holds server configuration
type Config struct {
	HTTPAddr  string
	JWTSecret []byte
}

// Handlers groups the route handlers the server mounts.
type Handlers struct {
	Pool   *handlers.PoolHandlers
	Vault  *handlers.VaultHandlers
	Admin  *handlers.AdminHandlers
	Health *handlers.HealthChecker
}

// Server represents the HTTP server
type Server struct {
	config   *Config
	echo     *echo.Echo
	handlers Handlers
}

// NewServer creates a new server instance with its routes mounted.
func NewServer(config *Config, h Handlers) *Server {
	s := &Server{
		config:   config,
		echo:     echo.New(),
		handlers: h,
	}
	s.echo.HideBanner = true
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// Echo returns the underlying Echo instance for testing
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

// Start starts the HTTP server
func (s *Server) Start() error {
	addr := s.config.HTTPAddr
	if addr == "" {
		addr = DefaultHTTPAddr
	}
	return s.echo.Start(addr)
}

// Shutdown stops the HTTP server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// setupMiddleware configures Echo middleware
func (s *Server) setupMiddleware() {
	s.echo.Use(middleware.Logger())
	s.echo.Use(middleware.Recover())
	s.echo.Use(middleware.CORS())
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	auth := handlers.JWTMiddleware(s.config.JWTSecret)

	// Public endpoints (no authentication required)
	if s.handlers.Health != nil {
		s.echo.GET("/health", s.handlers.Health.HealthCheckHandler) // Liveness probe
		s.echo.GET("/ready", s.handlers.Health.ReadinessHandler)    // Readiness probe
	}

	pool := s.echo.Group("/pool")
	pool.GET("/identity", s.handlers.Pool.IdentityHandler)
	pool.GET("/balance", s.handlers.Pool.PoolBalanceHandler)
	pool.GET("/balance/:principal", s.handlers.Pool.BalanceHandler)

	// Protected pool endpoints act for the token subject
	pool.POST("/deposit", s.handlers.Pool.DepositHandler, auth)
	pool.POST("/withdraw", s.handlers.Pool.WithdrawHandler, auth)
	pool.GET("/authorizations/:id", s.handlers.Pool.AuthorizationHandler, auth)

	// Vault endpoints are scoped to the token subject's vault of :asset
	vault := s.echo.Group("/vault/:asset")
	vault.Use(auth)
	vault.GET("", s.handlers.Vault.GetHandler)
	vault.POST("/initialize", s.handlers.Vault.InitializeHandler)
	vault.POST("/deposit", s.handlers.Vault.DepositHandler)
	vault.POST("/withdraw", s.handlers.Vault.WithdrawHandler)

	// Operator endpoints
	if s.handlers.Admin != nil {
		admin := s.echo.Group("/admin")
		admin.Use(auth, handlers.RequireRole(handlers.RoleOperator))
		admin.GET("/stranded", s.handlers.Admin.ListStrandedHandler)
		admin.POST("/stranded/:id/resign", s.handlers.Admin.ResignHandler)
	}
}
