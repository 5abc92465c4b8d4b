package models

import "time"

type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // не отдаём наружу
	FullName     string    `json:"full_name"`
	Role         string    `json:"role"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Actor is the authenticated identity performing a request.
type Actor struct {
	ID          int64  `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"full_name"`
	Role        string `json:"role"`
}

// IsZero reports whether a is the anonymous sentinel.
func (a Actor) IsZero() bool { return a.ID == 0 }

func (u *User) Actor() Actor {
	return Actor{ID: u.ID, Email: u.Email, DisplayName: u.FullName, Role: u.Role}
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
}

// ProfilePatch is a self-service profile update.
type ProfilePatch struct {
	FullName Optional[string] `json:"full_name"`
	Email    Optional[string] `json:"email"`
}

// UserPatch is an admin update of another account.
type UserPatch struct {
	FullName Optional[string] `json:"full_name"`
	Email    Optional[string] `json:"email"`
	Role     Optional[string] `json:"role"`
	IsActive Optional[bool]   `json:"is_active"`
}

type UserFilter struct {
	Search string
	Page   int
	Limit  int
}

type UserPage struct {
	Users      []*User    `json:"users"`
	Pagination Pagination `json:"pagination"`
}
