package auth

import (
	"errors"
	"net/http"
	"regexp"

	"github.com/gin-gonic/gin"

	"dialoghub/internal/logging"
)

const userIDContextKey = "auth_user_id"

var bearerPattern = regexp.MustCompile(`(?i)^Bearer\s+(.+)$`)

// Middleware requires a valid bearer token and stores the user in the context.
func (s *Service) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authToken := s.extractToken(c)
		if authToken == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": ErrMissingToken.Error()})
			return
		}
		userID, err := s.ValidateToken(c.Request.Context(), authToken)
		if err != nil {
			if errors.Is(err, ErrInvalidToken) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
				return
			}
			logging.FromContext(c.Request.Context()).Error().Err(err).Msg("validate token")
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
		c.Set(userIDContextKey, userID)
		c.Next()
	}
}

// OptionalMiddleware binds the user when a valid bearer token is present and
// otherwise lets the request through untouched.
func (s *Service) OptionalMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if authToken := s.extractToken(c); authToken != "" {
			if userID, err := s.ValidateToken(c.Request.Context(), authToken); err == nil {
				c.Set(userIDContextKey, userID)
			}
		}
		c.Next()
	}
}

// UserIDFromContext retrieves the authenticated user id from the gin context.
func UserIDFromContext(c *gin.Context) (int64, bool) {
	val, ok := c.Get(userIDContextKey)
	if !ok {
		return 0, false
	}
	userID, ok := val.(int64)
	return userID, ok
}

func (s *Service) extractToken(c *gin.Context) string {
	m := bearerPattern.FindStringSubmatch(c.GetHeader(s.headerName))
	if m == nil {
		return ""
	}
	return m[1]
}
