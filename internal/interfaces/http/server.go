// Package http is the HTTP adapter: it translates requests into service
// calls and the error taxonomy into status codes.
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/MD-Aoulad/Digital-Tracking-Merchandising-sub007/internal/domain/entity"
	"github.com/MD-Aoulad/Digital-Tracking-Merchandising-sub007/internal/report"
	"github.com/MD-Aoulad/Digital-Tracking-Merchandising-sub007/internal/service"
)

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	JWTSecret    string
}

// Server is the HTTP server adapter
type Server struct {
	config     ServerConfig
	httpServer *http.Server
	router     *gin.Engine
	handlers   *Handlers
	logger     *zap.Logger
}

// NewServer creates a new HTTP server wired to the given services
func NewServer(
	config ServerConfig,
	catalog *service.CatalogService,
	engine *service.Engine,
	queries *service.QueryService,
	delegationSvc *service.DelegationService,
	exporter *report.Exporter,
	logger *zap.Logger,
) *Server {
	gin.SetMode(gin.ReleaseMode)

	server := &Server{
		config:   config,
		router:   gin.New(),
		handlers: NewHandlers(catalog, engine, queries, delegationSvc, exporter, logger),
		logger:   logger,
	}

	server.router.Use(gin.Recovery())
	server.router.Use(server.loggingMiddleware())
	server.setupRoutes()

	return server
}

func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		s.logger.Info("HTTP request",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", c.Writer.Status()),
			zap.String("latency", time.Since(start).String()),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handlers.HealthCheck)

	api := s.router.Group("/api/v1")
	api.Use(AuthMiddleware(s.config.JWTSecret, s.logger))
	{
		workflows := api.Group("/workflows")
		{
			workflows.GET("", s.handlers.ListTemplates)
			workflows.GET("/:id", s.handlers.GetTemplate)
			workflows.POST("", RequireRole(entity.RoleAdmin), s.handlers.CreateTemplate)
			workflows.PUT("/:id", RequireRole(entity.RoleAdmin), s.handlers.UpdateTemplate)
			workflows.DELETE("/:id", RequireRole(entity.RoleAdmin), s.handlers.DeleteTemplate)
		}

		requests := api.Group("/requests")
		{
			requests.POST("", s.handlers.CreateRequest)
			requests.GET("", s.handlers.ListRequests)
			requests.GET("/pending", s.handlers.ListPending)
			requests.GET("/assigned", s.handlers.ListAssigned)
			requests.GET("/created", s.handlers.ListCreated)
			requests.GET("/stats", s.handlers.GetStatistics)
			requests.GET("/export", s.handlers.ExportRequests)
			requests.GET("/:id", s.handlers.GetRequest)
			requests.POST("/:id/approve", s.handlers.ApproveRequest)
			requests.POST("/:id/reject", s.handlers.RejectRequest)
			requests.POST("/:id/return", s.handlers.ReturnRequest)
			requests.POST("/:id/cancel", s.handlers.CancelRequest)
		}

		delegations := api.Group("/delegations")
		{
			delegations.POST("", s.handlers.CreateDelegation)
			delegations.GET("", s.handlers.ListDelegations)
			delegations.GET("/:id", s.handlers.GetDelegation)
			delegations.PUT("/:id", s.handlers.UpdateDelegation)
			delegations.DELETE("/:id", s.handlers.DeleteDelegation)
		}
	}
}

// Start starts the HTTP server and blocks until ctx is cancelled or the
// server fails.
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	s.logger.Info("Starting HTTP server", zap.String("address", addr))

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

	s.logger.Info("Stopping HTTP server")

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
