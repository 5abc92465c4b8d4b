package services

import (
	"context"
	"errors"
	"strings"

	"taskhub/internal/apperrors"
	"taskhub/internal/models"
	"taskhub/internal/repositories"
)

// CredentialGate turns a bearer token into an Actor.
type CredentialGate interface {
	Authenticate(ctx context.Context, rawToken string) (models.Actor, error)
	AuthenticateOptional(ctx context.Context, rawToken string) models.Actor
}

type credentialGate struct {
	auth  AuthService
	users repositories.UserRepository
}

func NewCredentialGate(auth AuthService, users repositories.UserRepository) CredentialGate {
	return &credentialGate{auth: auth, users: users}
}

// BearerToken strips an optional "Bearer " scheme from an Authorization
// header value.
func BearerToken(header string) string {
	header = strings.TrimSpace(header)
	if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return header
}

func (g *credentialGate) Authenticate(ctx context.Context, rawToken string) (models.Actor, error) {
	rawToken = strings.TrimSpace(rawToken)
	if rawToken == "" {
		return models.Actor{}, apperrors.Auth(apperrors.AuthMissing, nil)
	}

	claims, err := g.auth.ParseToken(rawToken, PurposeAccess)
	if err != nil {
		return models.Actor{}, err
	}
	if claims.UserID <= 0 {
		return models.Actor{}, apperrors.Auth(apperrors.AuthInvalid, errors.New("token has no subject"))
	}

	user, err := g.users.GetByID(ctx, claims.UserID)
	if errors.Is(err, repositories.ErrNotFound) {
		return models.Actor{}, apperrors.Auth(apperrors.AuthUnknownSubject, err)
	}
	if err != nil {
		return models.Actor{}, err
	}
	if !user.IsActive {
		return models.Actor{}, apperrors.Auth(apperrors.AuthDeactivated, nil)
	}
	return user.Actor(), nil
}

func (g *credentialGate) AuthenticateOptional(ctx context.Context, rawToken string) models.Actor {
	actor, err := g.Authenticate(ctx, rawToken)
	if err != nil {
		return models.Actor{}
	}
	return actor
}
