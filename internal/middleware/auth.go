package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"mentorhub_backend/internal/auth"
	"mentorhub_backend/internal/config"
)

// AuthMiddleware validates the bearer token and stores the user identity in
// the gin context under "userID" / "userName".
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header missing or invalid"})
			return
		}

		tokenStr := strings.TrimPrefix(authHeader, "Bearer ")
		claims, err := auth.ParseToken(tokenStr)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			return
		}

		c.Set("userID", claims.UserID)
		c.Set("userName", claims.Name)
		c.Next()
	}
}

// InternalAuthMiddleware guards service-to-service routes. Callers present
// the shared secret in X-Internal-Token; user JWTs are not accepted here, so
// an end user cannot mint events on another user's behalf. An empty configured
// token rejects everything.
func InternalAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		expected := config.GetConfig().Server.InternalToken
		presented := c.GetHeader("X-Internal-Token")
		if expected == "" || subtle.ConstantTimeCompare([]byte(presented), []byte(expected)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid internal token"})
			return
		}
		c.Next()
	}
}

// WSAuthMiddleware authenticates a websocket upgrade request. Browser clients
// cannot set headers on the upgrade, so a ?token= query parameter is accepted
// as a fallback.
func WSAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr := ""
		if h := c.GetHeader("Authorization"); strings.HasPrefix(h, "Bearer ") {
			tokenStr = strings.TrimPrefix(h, "Bearer ")
		} else {
			tokenStr = c.Query("token")
		}
		if tokenStr == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing credentials"})
			return
		}

		claims, err := auth.ParseToken(tokenStr)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			return
		}

		c.Set("userID", claims.UserID)
		c.Set("userName", claims.Name)
		c.Next()
	}
}
