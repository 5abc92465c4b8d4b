package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"taskhub/internal/middleware"
	"taskhub/internal/models"
	"taskhub/internal/services"
)

type UserHandler struct {
	service services.UserService
}

func NewUserHandler(service services.UserService) *UserHandler {
	return &UserHandler{service: service}
}

// GET /users/profile
func (h *UserHandler) GetProfile(c *gin.Context) {
	user, err := h.service.GetProfile(c.Request.Context(), middleware.ActorFrom(c))
	if err != nil {
		respondError(c, "user:profile", err)
		return
	}
	respond(c, http.StatusOK, "", userResponse{User: user})
}

// PUT /users/profile
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	var patch models.ProfilePatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	user, err := h.service.UpdateProfile(c.Request.Context(), middleware.ActorFrom(c), patch)
	if err != nil {
		respondError(c, "user:profile", err)
		return
	}
	respond(c, http.StatusOK, "Profile updated successfully", userResponse{User: user})
}

// PUT /users/change-password
func (h *UserHandler) ChangePassword(c *gin.Context) {
	var req models.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.service.ChangePassword(c.Request.Context(), middleware.ActorFrom(c), req); err != nil {
		respondError(c, "user:password", err)
		return
	}
	respond(c, http.StatusOK, "Password changed successfully", nil)
}

// @Summary      List accounts
// @Tags         Users
// @Produce      json
// @Security     BearerAuth
// @Param        page    query     int     false  "Page (default 1)"
// @Param        limit   query     int     false  "Page size (default 10, max 100)"
// @Param        search  query     string  false  "Match on name or email"
// @Success      200     {object}  Response
// @Failure      403     {object}  Response
// @Router       /users [get]
func (h *UserHandler) List(c *gin.Context) {
	page, err := h.service.List(c.Request.Context(), middleware.ActorFrom(c), models.UserFilter{
		Search: c.Query("search"),
		Page:   queryInt(c, "page"),
		Limit:  queryInt(c, "limit"),
	})
	if err != nil {
		respondError(c, "user:list", err)
		return
	}
	respond(c, http.StatusOK, "", page)
}

// GET /users/:id
func (h *UserHandler) GetByID(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	user, err := h.service.GetByID(c.Request.Context(), middleware.ActorFrom(c), id)
	if err != nil {
		respondError(c, "user:get", err)
		return
	}
	respond(c, http.StatusOK, "", userResponse{User: user})
}

// PUT /users/:id
func (h *UserHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var patch models.UserPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	user, err := h.service.AdminUpdate(c.Request.Context(), middleware.ActorFrom(c), id, patch)
	if err != nil {
		respondError(c, "user:update", err)
		return
	}
	respond(c, http.StatusOK, "User updated successfully", userResponse{User: user})
}

// DELETE /users/:id soft-deactivates the account.
func (h *UserHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.service.Deactivate(c.Request.Context(), middleware.ActorFrom(c), id); err != nil {
		respondError(c, "user:delete", err)
		return
	}
	respond(c, http.StatusOK, "User deleted successfully", nil)
}

// PATCH /users/:id/toggle-status
func (h *UserHandler) ToggleStatus(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	user, err := h.service.ToggleActive(c.Request.Context(), middleware.ActorFrom(c), id)
	if err != nil {
		respondError(c, "user:toggle", err)
		return
	}
	state := "deactivated"
	if user.IsActive {
		state = "activated"
	}
	respond(c, http.StatusOK, "User "+state+" successfully", userResponse{User: user})
}
