package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sfkaos/zeke-site/config"
	"github.com/sfkaos/zeke-site/utils"
)

const RequestIDHeader = "X-Request-ID"

func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = utils.GenerateRequestID()
		}
		c.Set("requestID", requestID)
		c.Header(RequestIDHeader, requestID)

		c.Next()

		latency := time.Since(start)
		fields := []interface{}{
			"requestID", requestID,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"clientIP", c.ClientIP(),
			"latency", latency.String(),
			"userAgent", c.Request.UserAgent(),
		}
		if c.Writer.Status() >= 500 {
			config.Logger.Warnw("request", fields...)
			return
		}
		config.Logger.Infow("request", fields...)
	}
}
