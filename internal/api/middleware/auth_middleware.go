package middleware

import (
	"net/http"
	"strings"

	"garage_config/internal/service"

	"github.com/gin-gonic/gin"
)

const (
	AuthorizationHeaderKey  = "Authorization"
	AuthorizationTypeBearer = "Bearer"
	SubjectKey              = "subject"
)

type AuthMiddleware struct {
	authService *service.AuthService
}

// NewAuthMiddleware accepts a nil service, in which case every request is
// let through unauthenticated.
func NewAuthMiddleware(authService *service.AuthService) *AuthMiddleware {
	return &AuthMiddleware{authService: authService}
}

func (m *AuthMiddleware) Enabled() bool {
	return m.authService != nil
}

// Authenticate checks the bearer token and stores its subject in the gin
// context under SubjectKey.
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		if m.authService == nil {
			c.Next()
			return
		}

		authHeader := c.GetHeader(AuthorizationHeaderKey)
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing authorization header"})
			return
		}
		fields := strings.Fields(authHeader)
		if len(fields) < 2 || !strings.EqualFold(fields[0], AuthorizationTypeBearer) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization header format"})
			return
		}

		claims, err := m.authService.ValidateToken(fields[1])
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token", "details": err.Error()})
			return
		}
		if sub, err := claims.GetSubject(); err == nil && sub != "" {
			c.Set(SubjectKey, sub)
		}
		c.Next()
	}
}
