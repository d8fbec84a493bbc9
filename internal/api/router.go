package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"dialoghub/internal/logging"
	"dialoghub/internal/metrics"
	"dialoghub/internal/requestid"
)

// NewRouter creates the engine with the shared middleware chain and mounts
// the handler's routes plus the metrics endpoint.
func NewRouter(logger zerolog.Logger, h *Handler) *gin.Engine {
	router := gin.New()

	// order matters: the access log needs the request id, and recovery sits
	// inside the log so panics are reported with their 500
	router.Use(requestid.Middleware(logger))
	router.Use(logging.AccessLog(logger))
	router.Use(metrics.Middleware())
	router.Use(gin.CustomRecovery(func(c *gin.Context, recovered any) {
		logging.FromContext(c.Request.Context()).Error().Interface("panic", recovered).Msg("handler panicked")
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}))

	router.GET("/metrics", metrics.Handler())
	h.RegisterRoutes(router)
	return router
}
