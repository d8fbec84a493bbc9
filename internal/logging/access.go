package logging

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"dialoghub/internal/requestid"
)

// AccessLog emits one line per request once the handler chain has finished.
// It must run after requestid.Middleware so the id is available.
func AccessLog(logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		if raw := c.Request.URL.RawQuery; raw != "" {
			path += "?" + raw
		}

		c.Next()

		event := logger.Info()
		if c.Writer.Status() >= 500 {
			event = logger.Error()
		}
		event.
			Str("method", c.Request.Method).
			Str("path", path).
			Int("status", c.Writer.Status()).
			Str("request_id", requestid.FromGin(c)).
			Dur("latency", time.Since(start)).
			Msg("request completed")
	}
}
