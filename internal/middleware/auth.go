package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"carepay/config"
	"carepay/internal/auth"
)

const userKey = "authenticated_user"

// AuthRequired validates the bearer token and stores the resolved
// AuthenticatedUser in the request context.
func AuthRequired(cfg *config.JWTConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authorization header"})
			return
		}
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization format"})
			return
		}
		claims, err := auth.ParseAccessToken(cfg, parts[1])
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}
		c.Set(userKey, auth.AuthenticatedUser{
			ExternalID: claims.ExternalID,
			Email:      claims.Email,
			Role:       claims.Role,
		})
		c.Next()
	}
}

// RequireRole checks that the authenticated user has one of the allowed roles.
func RequireRole(allowed ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := GetUser(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		for _, a := range allowed {
			if user.Role == a {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
	}
}

// GetUser returns the authenticated user from context. Must be used after
// AuthRequired.
func GetUser(c *gin.Context) (auth.AuthenticatedUser, bool) {
	v, exists := c.Get(userKey)
	if !exists {
		return auth.AuthenticatedUser{}, false
	}
	user, ok := v.(auth.AuthenticatedUser)
	return user, ok
}
