package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/paper-scout/scout/internal/bootstrap"
)

// MetricsHandler handles Prometheus metrics endpoint
func MetricsHandler(svcCtx *bootstrap.ServiceContext) gin.HandlerFunc {
	handler := promhttp.HandlerFor(svcCtx.MetricsService.GetRegistry(), promhttp.HandlerOpts{})
	return gin.WrapH(handler)
}

// HealthHandler reports liveness
func HealthHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
