package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"taskhub/internal/middleware"
	"taskhub/internal/services"
)

type NotificationHandler struct {
	service services.NotificationService
}

func NewNotificationHandler(service services.NotificationService) *NotificationHandler {
	return &NotificationHandler{service: service}
}

// @Summary      List all notifications
// @Tags         Notifications
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  Response
// @Failure      403  {object}  Response
// @Router       /notifications [get]
func (h *NotificationHandler) List(c *gin.Context) {
	items, err := h.service.List(c.Request.Context(), middleware.ActorFrom(c))
	if err != nil {
		respondError(c, "notify:list", err)
		return
	}
	respond(c, http.StatusOK, "", gin.H{"notifications": items})
}

// DELETE /notifications/user/:id
func (h *NotificationHandler) DeleteByUser(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	n, err := h.service.DeleteByUser(c.Request.Context(), middleware.ActorFrom(c), id)
	if err != nil {
		respondError(c, "notify:delete", err)
		return
	}
	respond(c, http.StatusOK, fmt.Sprintf("Deleted %d notification(s)", n), gin.H{"deleted": n})
}
