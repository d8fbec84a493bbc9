// Package requestid propagates the x-request-id correlation header.
package requestid

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Header is the canonical form of x-request-id.
const Header = "X-Request-Id"

const ginKey = "request_id"

type contextKey struct{}

// Generator produces fresh request ids.
type Generator func() string

// Middleware accepts the caller's x-request-id or generates one, echoes it on
// the response and attaches it, together with a logger carrying it, to the
// request context.
func Middleware(logger zerolog.Logger) gin.HandlerFunc {
	return MiddlewareWithGenerator(logger, uuid.NewString)
}

func MiddlewareWithGenerator(logger zerolog.Logger, generate Generator) gin.HandlerFunc {
	if generate == nil {
		generate = uuid.NewString
	}
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(Header))
		if id == "" {
			id = generate()
		}
		c.Set(ginKey, id)
		c.Header(Header, id)

		ctx := NewContext(c.Request.Context(), id)
		reqLogger := logger.With().Str("request_id", id).Logger()
		c.Request = c.Request.WithContext(reqLogger.WithContext(ctx))
		c.Next()
	}
}

// NewContext returns a copy of ctx carrying id.
func NewContext(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// FromContext retrieves the request id stored by the middleware.
func FromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(contextKey{}).(string)
	return id, ok && id != ""
}

// FromGin returns the request id for c, or "" when the middleware did not run.
func FromGin(c *gin.Context) string {
	if id := c.GetString(ginKey); id != "" {
		return id
	}
	id, _ := FromContext(c.Request.Context())
	return id
}
