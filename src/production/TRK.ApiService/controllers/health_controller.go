package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gitlab.com/geotrk1/trk.location_server/src/production/TRK.ApiService/health"
	logger "gitlab.com/geotrk1/trk.location_server/src/production/TRK.Logger"
)

// HealthController handles health requests
type HealthController struct {
	checker *health.HealthChecker
	logger  *logger.Logger
}

// NewHealthController creates a new health controller
func NewHealthController(checker *health.HealthChecker, logger *logger.Logger) *HealthController {
	return &HealthController{
		checker: checker,
		logger:  logger,
	}
}

// RegisterRoutes registers the health routes with Gin
func (c *HealthController) RegisterRoutes(router *gin.Engine) {
	router.GET("/health/live", c.HealthLive)
	router.GET("/health/ready", c.HealthReady)
}

func (c *HealthController) HealthLive(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

func (c *HealthController) HealthReady(ctx *gin.Context) {
	status := c.checker.GetHealthStatus(ctx)

	code := http.StatusOK
	if status["status"] != "ready" {
		code = http.StatusServiceUnavailable
	}

	ctx.JSON(code, status)
}
