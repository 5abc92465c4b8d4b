package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"taskhub/internal/apperrors"
	"taskhub/internal/middleware"
)

// Response is the envelope every endpoint returns.
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func respond(c *gin.Context, status int, message string, data any) {
	c.JSON(status, Response{Success: status < 400, Message: message, Data: data})
}

func fail(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, Response{Success: false, Message: message})
}

// respondError maps the error taxonomy onto HTTP statuses. Causes the caller
// should not see are logged under tag.
func respondError(c *gin.Context, tag string, err error) {
	var (
		verr *apperrors.ValidationError
		nerr *apperrors.NotFoundError
		ferr *apperrors.ForbiddenError
		rerr *apperrors.ReferenceError
		cerr *apperrors.ConflictError
		aerr *apperrors.AuthError
	)
	rid := middleware.RequestID(c)
	switch {
	case errors.As(err, &verr):
		fail(c, http.StatusBadRequest, capitalize(verr.Message))
	case errors.As(err, &nerr):
		fail(c, http.StatusNotFound, capitalize(nerr.Error()))
	case errors.As(err, &ferr):
		log.Printf("[%s][%s][deny] %v", tag, rid, err)
		fail(c, http.StatusForbidden, capitalize(ferr.Error()))
	case errors.As(err, &rerr):
		if rerr.ID == 0 {
			fail(c, http.StatusBadRequest, "Referenced record does not exist")
			return
		}
		fail(c, http.StatusBadRequest, capitalize(rerr.Error()))
	case errors.As(err, &cerr):
		fail(c, http.StatusConflict, capitalize(cerr.Message))
	case errors.As(err, &aerr):
		log.Printf("[%s][%s][auth] %s", tag, rid, aerr.Kind)
		msg := "Invalid or expired token"
		if aerr.Kind == apperrors.AuthBadCredentials {
			msg = "Invalid email or password"
		}
		fail(c, http.StatusUnauthorized, msg)
	default:
		log.Printf("[%s][%s][err] %v", tag, rid, err)
		fail(c, http.StatusInternalServerError, "Internal server error")
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func parseID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		fail(c, http.StatusBadRequest, "Invalid "+name)
		return 0, false
	}
	return id, true
}

// queryInt returns 0 for an absent or malformed value; services apply
// defaults.
func queryInt(c *gin.Context, key string) int {
	n, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return 0
	}
	return n
}

func queryInt64(c *gin.Context, key string) (*int64, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, apperrors.Validation(key, "must be an integer")
	}
	return &n, nil
}
