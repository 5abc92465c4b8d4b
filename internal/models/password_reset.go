package models

import "time"

const MinPasswordLength = 6

// PasswordReset records a consumed reset token so it cannot be replayed.
type PasswordReset struct {
	ID        int64     `json:"id"`
	TokenID   string    `json:"token_id"`
	UserID    int64     `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
	UsedAt    time.Time `json:"used_at"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

type ResetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}
