package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/paper-scout/scout/internal/logger"
	"github.com/paper-scout/scout/internal/service"
	"github.com/paper-scout/scout/internal/types"
)

const requestIDKey = "requestId"

// RequestMiddleware tags each request with an id, then logs and meters it once served
func RequestMiddleware(metrics *service.MetricsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		requestID := c.GetHeader(types.HeaderRequestId)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(requestIDKey, requestID)
		c.Header(types.HeaderRequestId, requestID)

		c.Next()

		status := c.Writer.Status()
		latency := time.Since(start)
		if metrics != nil {
			metrics.RecordRequest(c.FullPath(), status, latency)
		}

		fields := []zap.Field{
			zap.String("requestId", requestID),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", status),
			zap.Duration("latency", latency),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}
		if status >= 500 {
			logger.Error("request served", fields...)
			return
		}
		logger.Info("request served", fields...)
	}
}
