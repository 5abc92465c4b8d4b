package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"taskhub/internal/apperrors"
	"taskhub/internal/models"
)

const (
	PurposeAccess        = "access"
	PurposePasswordReset = "password_reset"
	PurposeOAuthState    = "oauth_state"
)

type Claims struct {
	UserID  int64  `json:"userId"`
	Email   string `json:"email"`
	Role    string `json:"role,omitempty"`
	Purpose string `json:"purpose"`
	jwt.RegisteredClaims
}

// AuthService wraps password hashing and token signing. Other packages treat
// tokens as opaque strings.
type AuthService interface {
	HashPassword(password string) (string, error)
	CheckPassword(hash, password string) bool
	IssueAccessToken(u *models.User) (string, error)
	IssueResetToken(u *models.User) (string, error)
	IssueStateToken() (string, error)
	ParseToken(token, purpose string) (*Claims, error)
}

type authService struct {
	secret    []byte
	accessTTL time.Duration
	resetTTL  time.Duration
	cost      int
	now       func() time.Time
}

type AuthOption func(*authService)

// WithClock replaces time.Now; used by tests to mint expired tokens.
func WithClock(now func() time.Time) AuthOption {
	return func(s *authService) { s.now = now }
}

func WithBcryptCost(cost int) AuthOption {
	return func(s *authService) { s.cost = cost }
}

func NewAuthService(secret string, accessTTL, resetTTL time.Duration, opts ...AuthOption) AuthService {
	s := &authService{
		secret:    []byte(secret),
		accessTTL: accessTTL,
		resetTTL:  resetTTL,
		cost:      bcrypt.DefaultCost,
		now:       time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *authService) HashPassword(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(b), nil
}

// CheckPassword is false for an empty hash, i.e. accounts provisioned by
// federated login cannot sign in with a password.
func (s *authService) CheckPassword(hash, password string) bool {
	hash = strings.TrimSpace(hash)
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

func (s *authService) sign(c *Claims, ttl time.Duration) (string, error) {
	now := s.now()
	c.IssuedAt = jwt.NewNumericDate(now)
	c.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return token, nil
}

func (s *authService) IssueAccessToken(u *models.User) (string, error) {
	return s.sign(&Claims{
		UserID:  u.ID,
		Email:   u.Email,
		Role:    u.Role,
		Purpose: PurposeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject: fmt.Sprint(u.ID),
		},
	}, s.accessTTL)
}

func (s *authService) IssueResetToken(u *models.User) (string, error) {
	return s.sign(&Claims{
		UserID:  u.ID,
		Email:   u.Email,
		Purpose: PurposePasswordReset,
	}, s.resetTTL)
}

func (s *authService) IssueStateToken() (string, error) {
	return s.sign(&Claims{Purpose: PurposeOAuthState}, 10*time.Minute)
}

// ParseToken validates signature, expiry and purpose. Failures are
// AuthError values of kind AuthExpired or AuthInvalid.
func (s *authService) ParseToken(token, purpose string) (*Claims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	claims := &Claims{}
	parsed, err := parser.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperrors.Auth(apperrors.AuthExpired, err)
		}
		return nil, apperrors.Auth(apperrors.AuthInvalid, err)
	}
	if !parsed.Valid {
		return nil, apperrors.Auth(apperrors.AuthInvalid, errors.New("invalid token"))
	}
	if claims.Purpose != purpose {
		return nil, apperrors.Auth(apperrors.AuthInvalid, fmt.Errorf("token purpose %q, want %q", claims.Purpose, purpose))
	}
	return claims, nil
}
