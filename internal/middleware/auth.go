package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"navio/api/internal/config"
	"navio/api/internal/security"
)

const claimsKey = "session_claims"

// Auth extracts the session cookie and verifies the signed token. Claims
// are self-contained: no store lookup happens here, so a role change or
// deactivation takes effect when the token expires (7 days at most).
// Absence and invalidity look alike to the client.
func Auth(cfg *config.AppConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := security.SessionFromRequest(c.Request, cfg.Security.CookieName)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		claims := security.ParseSession(token, cfg.Security.JWTSecret)
		if claims == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		c.Set(claimsKey, *claims)
		c.Next()
	}
}

// CurrentClaims returns the verified session claims the Auth middleware
// stashed on the context, or nil outside an authenticated request.
func CurrentClaims(c *gin.Context) *security.SessionClaims {
	val, exists := c.Get(claimsKey)
	if !exists {
		return nil
	}
	claims, ok := val.(security.SessionClaims)
	if !ok {
		return nil
	}
	return &claims
}
