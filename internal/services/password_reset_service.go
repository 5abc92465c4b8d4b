package services

import (
	"context"
	"errors"
	"log"
	"strings"

	"taskhub/internal/apperrors"
	"taskhub/internal/models"
	"taskhub/internal/repositories"
)

type PasswordResetService interface {
	RequestReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
}

type passwordResetService struct {
	userRepo repositories.UserRepository
	repo     repositories.PasswordResetRepository
	emails   EmailService
	auth     AuthService
	bg       *Background
}

func NewPasswordResetService(userRepo repositories.UserRepository, repo repositories.PasswordResetRepository, emails EmailService, auth AuthService, bg *Background) PasswordResetService {
	if bg == nil {
		bg = NewBackground(0)
	}
	return &passwordResetService{
		userRepo: userRepo,
		repo:     repo,
		emails:   emails,
		auth:     auth,
		bg:       bg,
	}
}

// RequestReset mails a signed reset token. Unknown or inactive emails are
// accepted silently so the endpoint does not reveal which accounts exist.
func (s *passwordResetService) RequestReset(ctx context.Context, email string) error {
	email = repositories.NormalizeEmail(email)
	if email == "" {
		return apperrors.Validation("email", "email is required")
	}
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil || !user.IsActive {
		// don't leak existence
		log.Printf("[password-reset] request for %q: no active user (err=%v)", email, err)
		return nil
	}

	token, err := s.auth.IssueResetToken(user)
	if err != nil {
		return err
	}
	if s.emails != nil {
		to := user.Email
		s.bg.Go(ctx, "email:reset", func(context.Context) error {
			return s.emails.SendPasswordResetEmail(to, token)
		})
	}
	return nil
}

// ResetPassword consumes token and sets a new password. Expired, forged or
// replayed tokens leave the password unchanged.
func (s *passwordResetService) ResetPassword(ctx context.Context, token, newPassword string) error {
	token = strings.TrimSpace(token)
	if token == "" || newPassword == "" {
		return apperrors.Validation("", "token and new password are required")
	}
	if err := validatePassword(newPassword); err != nil {
		return err
	}

	claims, err := s.auth.ParseToken(token, PurposePasswordReset)
	if err != nil {
		return err
	}
	user, err := s.userRepo.GetByID(ctx, claims.UserID)
	if errors.Is(err, repositories.ErrNotFound) {
		return apperrors.Auth(apperrors.AuthUnknownSubject, err)
	}
	if err != nil {
		return err
	}
	if user.Email != repositories.NormalizeEmail(claims.Email) {
		return apperrors.Auth(apperrors.AuthInvalid, errors.New("reset token email does not match account"))
	}
	if !user.IsActive {
		return apperrors.Auth(apperrors.AuthDeactivated, nil)
	}

	hash, err := s.auth.HashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := s.repo.Consume(ctx, claims.ID, user.ID, claims.ExpiresAt.Time, hash); err != nil {
		var conflict *apperrors.ConflictError
		if errors.As(err, &conflict) {
			return apperrors.Auth(apperrors.AuthInvalid, errors.New("reset token already used"))
		}
		return err
	}
	return nil
}

// validatePassword enforces the minimum length for new passwords.
func validatePassword(pw string) error {
	if len(strings.TrimSpace(pw)) < models.MinPasswordLength {
		return apperrors.Validation("password", "password must be at least 6 characters")
	}
	return nil
}
