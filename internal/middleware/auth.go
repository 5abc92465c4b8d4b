package middleware

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"taskhub/internal/apperrors"
	"taskhub/internal/models"
	"taskhub/internal/services"
)

const actorKey = "actor"

// ActorFrom returns the authenticated actor, or the zero Actor on public
// routes.
func ActorFrom(c *gin.Context) models.Actor {
	v, ok := c.Get(actorKey)
	if !ok {
		return models.Actor{}
	}
	a, _ := v.(models.Actor)
	return a
}

// AuthMiddleware rejects requests without a valid bearer token. Every
// failure kind produces the same 401 body; the kind is only logged.
func AuthMiddleware(gate services.CredentialGate) gin.HandlerFunc {
	return func(c *gin.Context) {
		// preflight
		if c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}

		token := services.BearerToken(c.GetHeader("Authorization"))
		actor, err := gate.Authenticate(c.Request.Context(), token)
		if err != nil {
			kind := apperrors.AuthKindOf(err)
			if kind == 0 {
				log.Printf("[auth][%s][err] %s %s: %v", RequestID(c), c.Request.Method, c.Request.URL.Path, err)
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Internal server error"})
				return
			}
			log.Printf("[auth][%s][deny] %s %s: %s", RequestID(c), c.Request.Method, c.Request.URL.Path, kind)
			msg := "Invalid or expired token"
			if kind == apperrors.AuthMissing {
				msg = "Access token required"
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": msg})
			return
		}

		c.Set(actorKey, actor)
		c.Next()
	}
}

// OptionalAuth attaches the actor when a valid token is present and lets
// the request through either way.
func OptionalAuth(gate services.CredentialGate) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := services.BearerToken(c.GetHeader("Authorization"))
		if actor := gate.AuthenticateOptional(c.Request.Context(), token); !actor.IsZero() {
			c.Set(actorKey, actor)
		}
		c.Next()
	}
}
