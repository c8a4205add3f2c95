package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"carbon-analytics-service/internal/auth"
	"carbon-analytics-service/internal/model"
)

const (
	principalKey = "principal"
	authHeader   = "Authorization"
	bearerPrefix = "Bearer"
)

// Auth verifies the bearer token and stores the caller's principal on the
// context. It only authenticates; every authenticated caller may read every
// report.
func Auth(parser *auth.Parser) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader(authHeader)
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authorization header missing"})
			return
		}

		parts := strings.SplitN(raw, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], bearerPrefix) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization header"})
			return
		}

		claims, err := parser.Parse(strings.TrimSpace(parts[1]))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set(principalKey, model.Principal{UserID: claims.UserID, Role: claims.Role})
		c.Next()
	}
}

// Anonymous is used in place of Auth when no signing secret is configured.
func Anonymous() gin.HandlerFunc {
	return func(c *gin.Context) { c.Next() }
}

func PrincipalFrom(c *gin.Context) (model.Principal, bool) {
	value, exists := c.Get(principalKey)
	if !exists {
		return model.Principal{}, false
	}
	principal, ok := value.(model.Principal)
	if !ok {
		return model.Principal{}, false
	}
	return principal, true
}
