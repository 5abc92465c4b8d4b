package authz

import "taskhub/internal/models"

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

func ValidRole(role string) bool {
	return role == RoleAdmin || role == RoleUser
}

func IsAdmin(a models.Actor) bool {
	return a.Role == RoleAdmin
}
