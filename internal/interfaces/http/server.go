// Package http is the REST and websocket surface of the purchase report service.
// Handlers translate requests into application service calls and map their
// errors onto status codes.
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/zosarillana/prs-be/internal/application/port"
	"github.com/zosarillana/prs-be/internal/application/service"
	"github.com/zosarillana/prs-be/internal/domain/entity"
	"github.com/zosarillana/prs-be/internal/infrastructure/metrics"
)

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host           string
	Port           int
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	Mode           string
	AllowedOrigins []string
}

// DefaultServerConfig returns default server configuration
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Host:         "0.0.0.0",
		Port:         8080,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		Mode:         gin.ReleaseMode,
	}
}

// Services groups the application services the handlers call
type Services struct {
	Reports       service.ReportService
	Approval      service.ApprovalService
	PO            service.POService
	Progress      service.ProgressService
	Export        service.ExportService
	Notifications service.NotificationService
	Audit         service.AuditService
}

// LiveUpgrader upgrades an authenticated request to a websocket subscription
type LiveUpgrader interface {
	Serve(w http.ResponseWriter, r *http.Request, u *entity.User) error
}

// HealthFunc reports overall health and per-component details
type HealthFunc func() (bool, interface{})

// Deps are the collaborators of the server
type Deps struct {
	Services Services
	Users    port.UserRepository
	Tokens   TokenParser
	Storage  port.FileStorage
	Live     LiveUpgrader
	Health   HealthFunc
}

// Server is the HTTP server adapter
type Server struct {
	config     ServerConfig
	httpServer *http.Server
	router     *gin.Engine
	services   Services
	users      port.UserRepository
	tokens     TokenParser
	storage    port.FileStorage
	live       LiveUpgrader
	health     HealthFunc
	logger     *zap.Logger
}

// NewServer creates a new HTTP server with the given services
func NewServer(config ServerConfig, deps Deps, logger *zap.Logger) *Server {
	if config.Mode != "" {
		gin.SetMode(config.Mode)
	}

	s := &Server{
		config:   config,
		router:   gin.New(),
		services: deps.Services,
		users:    deps.Users,
		tokens:   deps.Tokens,
		storage:  deps.Storage,
		live:     deps.Live,
		health:   deps.Health,
		logger:   logger,
	}

	s.setupMiddleware()
	s.setupRoutes()
	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())
	s.router.Use(RequestID())
	s.router.Use(Logging(s.logger))
	s.router.Use(Metrics())
	s.router.Use(CORS(s.config.AllowedOrigins))
	s.router.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/ws", "/metrics"})))
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.HealthCheck)
	s.router.GET("/metrics", gin.WrapH(metrics.Handler()))

	authed := Auth(s.tokens, s.users, s.logger)
	s.router.GET("/ws", authed, s.Live)

	api := s.router.Group("/api", authed)
	{
		reports := api.Group("/purchase-reports")
		reports.GET("", s.ListReports)
		reports.POST("", s.CreateReport)
		reports.GET("/summary", s.SummaryCounts)
		reports.GET("/export", s.ExportReports)
		reports.GET("/:id", s.GetReport)
		reports.GET("/:id/audit", s.ReportAudit)
		reports.PUT("/:id", s.UpdateReport)
		reports.DELETE("/:id", s.DeleteReport)
		reports.PATCH("/:id/delivery-status", s.UpdateDeliveryStatus)

		reviewers := requireRole(entity.RoleAdmin, entity.RoleHOD, entity.RoleTechnicalReviewer)
		reports.POST("/:id/items/:index/status", reviewers, s.UpdateItemStatus)

		purchasing := requireRole(entity.RoleAdmin, entity.RolePurchasing)
		reports.POST("/:id/po", purchasing, s.AssignPo)
		reports.POST("/:id/po/cancel", purchasing, s.CancelPo)
		reports.POST("/:id/po/return", purchasing, s.ReturnPo)
		reports.POST("/:id/po/approve", purchasing, s.ApprovePo)

		reports.GET("/:id/progress", s.ListProgress)
		reports.POST("/:id/progress", s.AddProgress)
		reports.PUT("/:id/progress/:progressId", s.UpdateProgress)
		reports.DELETE("/:id/progress/:progressId", s.DeleteProgress)

		notifications := api.Group("/notifications")
		notifications.GET("", s.ListNotifications)
		notifications.GET("/counts", s.NotificationCounts)
		notifications.GET("/department", s.DepartmentNotifications)
		notifications.GET("/summary", requireRole(entity.RoleAdmin), s.NotificationSummary)
		notifications.POST("/read-all", s.MarkAllNotificationsRead)
		notifications.POST("/:id/read", s.MarkNotificationRead)
	}
}

// HealthCheck handles GET /health
func (s *Server) HealthCheck(c *gin.Context) {
	healthy, details := true, interface{}(nil)
	if s.health != nil {
		healthy, details = s.health()
	}

	status := "healthy"
	code := http.StatusOK
	if !healthy {
		status = "unhealthy"
		code = http.StatusServiceUnavailable
	}

	c.JSON(code, Response{
		Success: healthy,
		Data: gin.H{
			"status":     status,
			"timestamp":  time.Now().UTC().Format(time.RFC3339),
			"components": details,
		},
	})
}

// Live handles GET /ws
func (s *Server) Live(c *gin.Context) {
	if s.live == nil {
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, Response{Error: "live updates disabled"})
		return
	}
	if err := s.live.Serve(c.Writer, c.Request, currentUser(c)); err != nil {
		s.logger.Error("Websocket upgrade failed", zap.Error(err))
	}
}

// Start starts the HTTP server and blocks until ctx is cancelled or the listener fails
func (s *Server) Start(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:         s.Address(),
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	s.logger.Info("Starting HTTP server", zap.String("address", s.httpServer.Addr))

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("HTTP server shutdown requested")
		return s.Stop()
	case err := <-errCh:
		s.logger.Error("HTTP server error", zap.Error(err))
		return err
	}
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop() error {
	if s.httpServer == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error("HTTP server shutdown error", zap.Error(err))
		return err
	}

	s.logger.Info("HTTP server stopped")
	return nil
}

// Router returns the underlying gin router (for testing)
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Address returns the server address
func (s *Server) Address() string {
	return fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
}
