package handlers

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"taskhub/internal/middleware"
)

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type HealthHandler struct {
	db      Pinger
	version string
}

func NewHealthHandler(db Pinger, version string) *HealthHandler {
	return &HealthHandler{db: db, version: version}
}

// GET / names the caller when a valid token is supplied.
func (h *HealthHandler) Banner(c *gin.Context) {
	data := gin.H{
		"version": h.version,
		"docs":    "/swagger/index.html",
	}
	if actor := middleware.ActorFrom(c); !actor.IsZero() {
		data["user"] = actor
	}
	respond(c, http.StatusOK, "TaskHub API is running", data)
}

// GET /healthz
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	if err := h.db.PingContext(ctx); err != nil {
		log.Printf("[health][err] db ping: %v", err)
		respond(c, http.StatusServiceUnavailable, "Database unavailable", nil)
		return
	}
	respond(c, http.StatusOK, "ok", nil)
}
