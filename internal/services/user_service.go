package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/mail"
	"strings"

	"taskhub/internal/apperrors"
	"taskhub/internal/authz"
	"taskhub/internal/models"
	"taskhub/internal/repositories"
)

// ErrInvalidCredentials is the single login failure callers see; the
// underlying AuthError kind is only logged.
var ErrInvalidCredentials = apperrors.Auth(apperrors.AuthBadCredentials, errors.New("invalid email or password"))

type UserService interface {
	Register(ctx context.Context, req models.RegisterRequest) (*models.User, error)
	Login(ctx context.Context, req models.LoginRequest) (*models.User, string, error)
	GetProfile(ctx context.Context, actor models.Actor) (*models.User, error)
	UpdateProfile(ctx context.Context, actor models.Actor, patch models.ProfilePatch) (*models.User, error)
	ChangePassword(ctx context.Context, actor models.Actor, req models.ChangePasswordRequest) error

	List(ctx context.Context, actor models.Actor, filter models.UserFilter) (*models.UserPage, error)
	GetByID(ctx context.Context, actor models.Actor, id int64) (*models.User, error)
	AdminUpdate(ctx context.Context, actor models.Actor, id int64, patch models.UserPatch) (*models.User, error)
	Deactivate(ctx context.Context, actor models.Actor, id int64) error
	ToggleActive(ctx context.Context, actor models.Actor, id int64) (*models.User, error)

	// HardDelete bypasses the policy; it is reachable only from the operator CLI.
	HardDelete(ctx context.Context, id int64) error
	EmailExists(ctx context.Context, email string, excludeID int64) (bool, error)
	FederatedLogin(ctx context.Context, email, fullName string) (*models.User, string, error)
	EnsureAdmin(ctx context.Context, email, password string) (*models.User, bool, error)
}

type userService struct {
	repo         repositories.UserRepository
	authService  AuthService
	emailService EmailService
	bg           *Background
}

func NewUserService(repo repositories.UserRepository, authService AuthService, emailService EmailService, bg *Background) UserService {
	if bg == nil {
		bg = NewBackground(0)
	}
	return &userService{
		repo:         repo,
		authService:  authService,
		emailService: emailService,
		bg:           bg,
	}
}

func validEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}

func (s *userService) getUser(ctx context.Context, id int64) (*models.User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, apperrors.NotFound("user", id)
	}
	return u, err
}

// ensureEmailFree rejects an email already owned by an account other than
// excludeID.
func (s *userService) ensureEmailFree(ctx context.Context, email string, excludeID int64) error {
	taken, err := s.repo.EmailExists(ctx, email, excludeID)
	if err != nil {
		return fmt.Errorf("check email: %w", err)
	}
	if taken {
		return apperrors.Conflict("email already exists")
	}
	return nil
}

func (s *userService) welcome(ctx context.Context, u *models.User) {
	if s.emailService == nil {
		return
	}
	email, name := u.Email, u.FullName
	s.bg.Go(ctx, "email:welcome", func(context.Context) error {
		return s.emailService.SendWelcomeEmail(email, name)
	})
}

func (s *userService) Register(ctx context.Context, req models.RegisterRequest) (*models.User, error) {
	email := repositories.NormalizeEmail(req.Email)
	name := strings.TrimSpace(req.FullName)
	if email == "" || req.Password == "" || name == "" {
		return nil, apperrors.Validation("", "email, password, and full name are required")
	}
	if !validEmail(email) {
		return nil, apperrors.Validation("email", "invalid email address")
	}
	if err := validatePassword(req.Password); err != nil {
		return nil, err
	}
	if err := s.ensureEmailFree(ctx, email, 0); err != nil {
		return nil, err
	}

	hash, err := s.authService.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}
	user := &models.User{
		Email:        email,
		PasswordHash: hash,
		FullName:     name,
		Role:         authz.RoleUser,
		IsActive:     true,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}
	s.welcome(ctx, user)
	return user, nil
}

func (s *userService) Login(ctx context.Context, req models.LoginRequest) (*models.User, string, error) {
	email := repositories.NormalizeEmail(req.Email)
	if email == "" || req.Password == "" {
		return nil, "", apperrors.Validation("", "email and password are required")
	}

	user, err := s.repo.GetByEmail(ctx, email)
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		log.Printf("[auth][login][fail] email=%s reason=%s", email, apperrors.AuthUnknownSubject)
		return nil, "", ErrInvalidCredentials
	case err != nil:
		return nil, "", err
	}
	if !s.authService.CheckPassword(user.PasswordHash, req.Password) {
		log.Printf("[auth][login][fail] user=%d reason=%s", user.ID, apperrors.AuthBadCredentials)
		return nil, "", ErrInvalidCredentials
	}
	if !user.IsActive {
		log.Printf("[auth][login][fail] user=%d reason=%s", user.ID, apperrors.AuthDeactivated)
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.authService.IssueAccessToken(user)
	if err != nil {
		return nil, "", err
	}
	if s.emailService != nil {
		email, name := user.Email, user.FullName
		s.bg.Go(ctx, "email:login", func(context.Context) error {
			return s.emailService.SendLoginEmail(email, name)
		})
	}
	return user, token, nil
}

func (s *userService) GetProfile(ctx context.Context, actor models.Actor) (*models.User, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	return s.getUser(ctx, actor.ID)
}

func (s *userService) UpdateProfile(ctx context.Context, actor models.Actor, patch models.ProfilePatch) (*models.User, error) {
	if !authz.CanAccount(actor, authz.ActionUpdateAccount, actor.ID) {
		return nil, apperrors.Auth(apperrors.AuthMissing, nil)
	}
	user, err := s.getUser(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	if !patch.FullName.Set && !patch.Email.Set {
		return nil, apperrors.Validation("", "no valid fields to update")
	}
	if err := s.applyIdentity(ctx, user, patch.FullName, patch.Email); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// applyIdentity applies name and email changes shared by self-service and
// admin updates.
func (s *userService) applyIdentity(ctx context.Context, user *models.User, name, email models.Optional[string]) error {
	if name.Set {
		n := strings.TrimSpace(name.Value)
		if n == "" {
			return apperrors.Validation("full_name", "full name cannot be empty")
		}
		user.FullName = n
	}
	if email.Set {
		e := repositories.NormalizeEmail(email.Value)
		if !validEmail(e) {
			return apperrors.Validation("email", "invalid email address")
		}
		if e != user.Email {
			if err := s.ensureEmailFree(ctx, e, user.ID); err != nil {
				return err
			}
		}
		user.Email = e
	}
	return nil
}

func (s *userService) ChangePassword(ctx context.Context, actor models.Actor, req models.ChangePasswordRequest) error {
	if err := requireActor(actor); err != nil {
		return err
	}
	if req.CurrentPassword == "" || req.NewPassword == "" {
		return apperrors.Validation("", "current password and new password are required")
	}
	if err := validatePassword(req.NewPassword); err != nil {
		return err
	}
	user, err := s.getUser(ctx, actor.ID)
	if err != nil {
		return err
	}
	if !s.authService.CheckPassword(user.PasswordHash, req.CurrentPassword) {
		return apperrors.Validation("current_password", "current password is incorrect")
	}
	hash, err := s.authService.HashPassword(req.NewPassword)
	if err != nil {
		return err
	}
	return s.repo.UpdatePassword(ctx, user.ID, hash)
}

func (s *userService) List(ctx context.Context, actor models.Actor, filter models.UserFilter) (*models.UserPage, error) {
	if !authz.IsAdmin(actor) {
		return nil, apperrors.Forbidden("admin access required")
	}
	filter.Page, filter.Limit = normalizePage(filter.Page, filter.Limit)
	users, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &models.UserPage{Users: users, Pagination: models.NewPagination(filter.Page, filter.Limit, total)}, nil
}

func (s *userService) GetByID(ctx context.Context, actor models.Actor, id int64) (*models.User, error) {
	if !authz.CanAccount(actor, authz.ActionViewAccount, id) {
		return nil, apperrors.Forbidden("admin access required")
	}
	return s.getUser(ctx, id)
}

func (s *userService) AdminUpdate(ctx context.Context, actor models.Actor, id int64, patch models.UserPatch) (*models.User, error) {
	if !authz.IsAdmin(actor) {
		return nil, apperrors.Forbidden("admin access required")
	}
	user, err := s.getUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if !patch.FullName.Set && !patch.Email.Set && !patch.Role.Set && !patch.IsActive.Set {
		return nil, apperrors.Validation("", "no valid fields to update")
	}
	if err := s.applyIdentity(ctx, user, patch.FullName, patch.Email); err != nil {
		return nil, err
	}
	if patch.Role.Set {
		if !authz.ValidRole(patch.Role.Value) {
			return nil, apperrors.Validation("role", "role must be admin or user")
		}
		user.Role = patch.Role.Value
	}
	if patch.IsActive.Set {
		if !patch.IsActive.Value && !authz.CanAccount(actor, authz.ActionDeactivateAccount, id) {
			return nil, apperrors.Forbidden("cannot deactivate your own account")
		}
		user.IsActive = patch.IsActive.Value
	}
	if err := s.repo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *userService) Deactivate(ctx context.Context, actor models.Actor, id int64) error {
	if !authz.IsAdmin(actor) {
		return apperrors.Forbidden("admin access required")
	}
	if _, err := s.getUser(ctx, id); err != nil {
		return err
	}
	if !authz.CanAccount(actor, authz.ActionDeleteAccount, id) {
		return apperrors.Forbidden("cannot delete your own account")
	}
	err := s.repo.Deactivate(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return apperrors.NotFound("user", id)
	}
	return err
}

func (s *userService) ToggleActive(ctx context.Context, actor models.Actor, id int64) (*models.User, error) {
	if !authz.IsAdmin(actor) {
		return nil, apperrors.Forbidden("admin access required")
	}
	user, err := s.getUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if !authz.CanAccount(actor, authz.ActionToggleAccount, id) {
		return nil, apperrors.Forbidden("cannot deactivate your own account")
	}
	active, err := s.repo.ToggleActive(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, apperrors.NotFound("user", id)
	}
	if err != nil {
		return nil, err
	}
	user.IsActive = active
	return user, nil
}

func (s *userService) HardDelete(ctx context.Context, id int64) error {
	err := s.repo.HardDelete(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return apperrors.NotFound("user", id)
	}
	return err
}

func (s *userService) EmailExists(ctx context.Context, email string, excludeID int64) (bool, error) {
	return s.repo.EmailExists(ctx, repositories.NormalizeEmail(email), excludeID)
}

// FederatedLogin signs in the account owning email, provisioning it with an
// empty credential hash on first sign-in. Such accounts cannot use password
// login until a reset sets a password.
func (s *userService) FederatedLogin(ctx context.Context, email, fullName string) (*models.User, string, error) {
	email = repositories.NormalizeEmail(email)
	if !validEmail(email) {
		return nil, "", apperrors.Validation("email", "provider returned no usable email")
	}

	user, err := s.repo.GetByEmail(ctx, email)
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		if strings.TrimSpace(fullName) == "" {
			fullName = email
		}
		user = &models.User{
			Email:    email,
			FullName: strings.TrimSpace(fullName),
			Role:     authz.RoleUser,
			IsActive: true,
		}
		if err := s.repo.Create(ctx, user); err != nil {
			return nil, "", err
		}
		log.Printf("[auth][oauth] provisioned user=%d email=%s", user.ID, email)
		s.welcome(ctx, user)
	case err != nil:
		return nil, "", err
	}

	if !user.IsActive {
		return nil, "", apperrors.Auth(apperrors.AuthDeactivated, nil)
	}
	token, err := s.authService.IssueAccessToken(user)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// EnsureAdmin creates the configured administrator when no account owns
// email. It reports whether an account was created.
func (s *userService) EnsureAdmin(ctx context.Context, email, password string) (*models.User, bool, error) {
	email = repositories.NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, false, apperrors.Validation("admin", "admin email and password must be configured")
	}
	existing, err := s.repo.GetByEmail(ctx, email)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, repositories.ErrNotFound) {
		return nil, false, err
	}

	hash, err := s.authService.HashPassword(password)
	if err != nil {
		return nil, false, err
	}
	admin := &models.User{
		Email:        email,
		PasswordHash: hash,
		FullName:     "System Administrator",
		Role:         authz.RoleAdmin,
		IsActive:     true,
	}
	if err := s.repo.Create(ctx, admin); err != nil {
		return nil, false, err
	}
	return admin, true, nil
}
