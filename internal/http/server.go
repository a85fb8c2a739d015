package http

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/metric"

	"github.com/allisson/imeiguard/internal/config"
	identityHTTP "github.com/allisson/imeiguard/internal/identity/http"
	identityService "github.com/allisson/imeiguard/internal/identity/service"
	"github.com/allisson/imeiguard/internal/metrics"
	registryHTTP "github.com/allisson/imeiguard/internal/registry/http"
	tenantHTTP "github.com/allisson/imeiguard/internal/tenant/http"
	verificationHTTP "github.com/allisson/imeiguard/internal/verification/http"
)

// Handlers groups the HTTP handlers of every bounded context for routing.
type Handlers struct {
	Auth         *identityHTTP.AuthHandler
	Account      *identityHTTP.AccountHandler
	Tenant       *tenantHTTP.TenantHandler
	Person       *registryHTTP.PersonHandler
	Device       *registryHTTP.DeviceHandler
	Verification *verificationHTTP.VerificationHandler
}

// Server is the main API server.
type Server struct {
	cfg          *config.Config
	db           *sql.DB
	handlers     Handlers
	tokenService identityService.TokenService
	meterProv    metric.MeterProvider
	logger       *slog.Logger
	router       *gin.Engine
	server       *http.Server
}

// NewServer creates the API server. The meter provider may be nil when
// metrics are disabled.
func NewServer(
	cfg *config.Config,
	db *sql.DB,
	handlers Handlers,
	tokenService identityService.TokenService,
	meterProvider metric.MeterProvider,
	logger *slog.Logger,
) *Server {
	return &Server{
		cfg:          cfg,
		db:           db,
		handlers:     handlers,
		tokenService: tokenService,
		meterProv:    meterProvider,
		logger:       logger,
	}
}

// SetupRouter builds the gin engine with the full middleware stack and all
// routes.
func (s *Server) SetupRouter() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestid.New(requestid.WithGenerator(func() string {
		return uuid.Must(uuid.NewV7()).String()
	})))
	router.Use(CustomLoggerMiddleware(s.logger))

	if corsMiddleware := createCORSMiddleware(s.cfg.CORSEnabled, s.cfg.CORSAllowOrigins, s.logger); corsMiddleware != nil {
		router.Use(corsMiddleware)
	}

	if s.meterProv != nil {
		router.Use(metrics.HTTPMetricsMiddleware(s.meterProv, s.cfg.MetricsNamespace))
	}

	router.GET("/health", s.healthHandler)
	router.GET("/ready", s.readinessHandler)

	v1 := router.Group("/v1")

	login := v1.Group("/auth")
	if s.cfg.LoginRateLimitEnabled {
		login.Use(identityHTTP.LoginRateLimitMiddleware(
			s.cfg.LoginRateLimitRequestsPerSec,
			s.cfg.LoginRateLimitBurst,
			s.logger,
		))
	}
	login.POST("/login", s.handlers.Auth.LoginHandler)

	authenticated := v1.Group("")
	authenticated.Use(identityHTTP.AuthenticationMiddleware(s.tokenService, s.logger))

	accounts := authenticated.Group("/accounts")
	accounts.Use(identityHTTP.RequirePrivileged(s.logger))
	{
		accounts.POST("", s.handlers.Account.CreateHandler)
		accounts.GET("", s.handlers.Account.ListHandler)
		accounts.GET("/:id", s.handlers.Account.GetHandler)
		accounts.PUT("/:id", s.handlers.Account.UpdateHandler)
		accounts.DELETE("/:id", s.handlers.Account.DeleteHandler)
	}

	tenants := authenticated.Group("/tenants")
	{
		tenants.GET("", s.handlers.Tenant.ListHandler)
		tenants.GET("/:id", s.handlers.Tenant.GetHandler)

		privileged := tenants.Group("")
		privileged.Use(identityHTTP.RequirePrivileged(s.logger))
		privileged.POST("", s.handlers.Tenant.CreateHandler)
		privileged.PUT("/:id", s.handlers.Tenant.UpdateHandler)
		privileged.DELETE("/:id", s.handlers.Tenant.DeleteHandler)
	}

	persons := authenticated.Group("/persons")
	{
		persons.POST("", s.handlers.Person.CreateHandler)
		persons.GET("", s.handlers.Person.ListHandler)
		persons.GET("/:id", s.handlers.Person.GetHandler)
		persons.PUT("/:id", s.handlers.Person.UpdateHandler)
		persons.DELETE("/:id", s.handlers.Person.DeleteHandler)
		persons.GET("/:id/devices", s.handlers.Device.ListByPersonHandler)
	}

	devices := authenticated.Group("/devices")
	{
		devices.POST("", s.handlers.Device.RegisterHandler)
		devices.GET("", s.handlers.Verification.SearchHandler)
		devices.GET("/:id", s.handlers.Device.GetHandler)
		devices.PUT("/:id", s.handlers.Device.UpdateHandler)
		devices.POST("/:id/reassign", s.handlers.Device.ReassignHandler)
		devices.DELETE("/:id", s.handlers.Device.DeleteHandler)
	}

	authenticated.POST("/verifications", s.handlers.Verification.VerifyHandler)

	s.router = router
	return router
}

// healthHandler reports process liveness.
func (s *Server) healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// readinessHandler reports readiness, checking the database connection.
func (s *Server) readinessHandler(c *gin.Context) {
	components := gin.H{"database": "ok"}

	if s.db == nil {
		components["database"] = "error"
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "components": components})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := s.db.PingContext(ctx); err != nil {
		components["database"] = "error"
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "components": components})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ready", "components": components})
}

// Start starts the API server. Blocks until the listener stops.
func (s *Server) Start(ctx context.Context) error {
	if s.router == nil {
		s.SetupRouter()
	}

	s.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", s.cfg.ServerHost, s.cfg.ServerPort),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("starting http server", slog.String("addr", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the API server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	s.logger.Info("shutting down http server")
	return s.server.Shutdown(ctx)
}
