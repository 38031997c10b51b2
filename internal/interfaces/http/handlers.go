package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/MD-Aoulad/Digital-Tracking-Merchandising-sub007/internal/report"
	"github.com/MD-Aoulad/Digital-Tracking-Merchandising-sub007/internal/service"
)

// Handlers contains all HTTP request handlers
type Handlers struct {
	catalog     *service.CatalogService
	engine      *service.Engine
	queries     *service.QueryService
	delegations *service.DelegationService
	exporter    *report.Exporter
	logger      *zap.Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(
	catalog *service.CatalogService,
	engine *service.Engine,
	queries *service.QueryService,
	delegations *service.DelegationService,
	exporter *report.Exporter,
	logger *zap.Logger,
) *Handlers {
	return &Handlers{
		catalog:     catalog,
		engine:      engine,
		queries:     queries,
		delegations: delegations,
		exporter:    exporter,
		logger:      logger,
	}
}

// pageParams binds the shared page/limit query parameters
type pageParams struct {
	Page  int `form:"page"`
	Limit int `form:"limit"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: HealthResponse{
			Status:    "healthy",
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Version:   "1.0.0",
		},
	})
}
