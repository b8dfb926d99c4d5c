package server

import (
	"crypto/subtle"
	"strings"

	"github.com/gin-gonic/gin"
)

const contextAuthTypeKey = "auth_type"

// AdminKeyRequired authenticates management requests with the configured
// admin API key. The routes stay open when no key is configured, which is
// only allowed outside production.
func (s *Server) AdminKeyRequired() gin.HandlerFunc {
	expected := strings.TrimSpace(s.cfg.AdminAPIKey)
	return func(c *gin.Context) {
		if expected == "" {
			if s.cfg.IsProduction() {
				AbortWithError(c, ErrUnauthorized)
				return
			}
			c.Next()
			return
		}

		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok || subtle.ConstantTimeCompare([]byte(token), []byte(expected)) != 1 {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		c.Set(contextAuthTypeKey, "api_key")
		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	parts := strings.Fields(strings.TrimSpace(header))
	if len(parts) != 2 || parts[0] != "Bearer" || strings.TrimSpace(parts[1]) == "" {
		return "", false
	}
	return parts[1], true
}
