package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RequireRoles must run after AuthMiddleware.
func RequireRoles(allowed ...string) gin.HandlerFunc {
	allowedSet := map[string]struct{}{}
	for _, r := range allowed {
		allowedSet[r] = struct{}{}
	}
	return func(c *gin.Context) {
		actor := ActorFrom(c)
		if actor.IsZero() {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Access token required"})
			return
		}
		if _, ok := allowedSet[actor.Role]; !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"success": false, "message": "Admin access required"})
			return
		}
		c.Next()
	}
}
