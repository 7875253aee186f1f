package middleware

import (
	"net/http"
	"strings"

	"catacomb_backend/internal/service"

	"github.com/gin-gonic/gin"
)

// JWT authenticates requests via the Authorization bearer token and puts
// user_id into the gin context.
func JWT() gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}

		userID, err := service.ParseJWT(strings.TrimPrefix(auth, "Bearer "))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set("user_id", userID)
		c.Next()
	}
}

// OptionalJWT sets user_id when a valid bearer token is present and lets
// the request through either way. Read endpoints use it to personalize
// responses without requiring auth.
func OptionalJWT() gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if strings.HasPrefix(auth, "Bearer ") {
			if userID, err := service.ParseJWT(strings.TrimPrefix(auth, "Bearer ")); err == nil {
				c.Set("user_id", userID)
			}
		}
		c.Next()
	}
}
