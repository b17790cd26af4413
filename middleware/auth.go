package middleware

import (
	"log"
	"net/http"
	"strings"

	"trailbound/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
)

// AuthMiddleware validates the Bearer token and stores the caller's id and
// role on the request context.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing or malformed authorization header"})
			return
		}
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")

		subject, role, err := utils.ExtractClaims(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}

		// The auth cache holds the hash of the most recently issued token per
		// subject; a mismatch means a newer sign-in superseded this session.
		// A cache miss or an unreachable redis falls back to JWT validity.
		if authCache := utils.GetAuthCacheClient(); authCache != nil {
			key := utils.AuthTokenKey(role, subject)
			cachedHash, err := authCache.Get(c.Request.Context(), key).Result()
			if err == nil {
				if cachedHash != utils.HashToken(tokenString) {
					c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "session superseded by a newer sign-in"})
					return
				}
				_ = authCache.Expire(c.Request.Context(), key, utils.AuthTokenTTL).Err()
			} else if err != redis.Nil {
				log.Printf("WARNING: auth cache unavailable, accepting token on signature alone: %v", err)
			}
		}

		c.Set("callerID", subject)
		c.Set("callerRole", role)
		c.Next()
	}
}

// RequireRole aborts unless the authenticated caller has one of the given roles.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString("callerRole")
		for _, r := range roles {
			if role == r {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "insufficient permissions"})
	}
}
