package services

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"taskhub/internal/apperrors"
	"taskhub/internal/models"
)

const testSecret = "test-secret"

func newTestAuth(opts ...AuthOption) AuthService {
	opts = append([]AuthOption{WithBcryptCost(bcrypt.MinCost)}, opts...)
	return NewAuthService(testSecret, time.Hour, 15*time.Minute, opts...)
}

func TestAuthenticate(t *testing.T) {
	users := newFakeUserRepo(
		&models.User{ID: 1, Email: "a@example.com", FullName: "Alice", Role: "user", IsActive: true},
		&models.User{ID: 2, Email: "b@example.com", FullName: "Bob", Role: "admin", IsActive: false},
	)
	auth := newTestAuth()
	gate := NewCredentialGate(auth, users)
	ctx := context.Background()

	issue := func(u *models.User) string {
		tok, err := auth.IssueAccessToken(u)
		require.NoError(t, err)
		return tok
	}
	past := time.Now().Add(-2 * time.Hour)
	expired, err := newTestAuth(WithClock(func() time.Time { return past })).IssueAccessToken(&models.User{ID: 1})
	require.NoError(t, err)
	forged, err := NewAuthService("other-secret", time.Hour, time.Minute).IssueAccessToken(&models.User{ID: 1})
	require.NoError(t, err)
	reset, err := auth.IssueResetToken(&models.User{ID: 1, Email: "a@example.com"})
	require.NoError(t, err)
	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"userId": 1}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	cases := []struct {
		name  string
		token string
		kind  apperrors.AuthKind
	}{
		{"missing", "", apperrors.AuthMissing},
		{"blank", "   ", apperrors.AuthMissing},
		{"garbage", "not-a-token", apperrors.AuthInvalid},
		{"wrong secret", forged, apperrors.AuthInvalid},
		{"alg none", none, apperrors.AuthInvalid},
		{"reset token as bearer", reset, apperrors.AuthInvalid},
		{"expired", expired, apperrors.AuthExpired},
		{"unknown subject", issue(&models.User{ID: 42}), apperrors.AuthUnknownSubject},
		{"deactivated", issue(&models.User{ID: 2}), apperrors.AuthDeactivated},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			actor, err := gate.Authenticate(ctx, tc.token)
			require.Error(t, err)
			assert.Equal(t, tc.kind, apperrors.AuthKindOf(err))
			assert.True(t, actor.IsZero())
			assert.True(t, gate.AuthenticateOptional(ctx, tc.token).IsZero())
		})
	}

	t.Run("valid", func(t *testing.T) {
		// role comes from the store, not from the token
		actor, err := gate.Authenticate(ctx, issue(&models.User{ID: 1, Role: "admin"}))
		require.NoError(t, err)
		assert.Equal(t, models.Actor{ID: 1, Email: "a@example.com", DisplayName: "Alice", Role: "user"}, actor)
		assert.Equal(t, actor, gate.AuthenticateOptional(ctx, issue(&models.User{ID: 1})))
	})
}

func TestBearerToken(t *testing.T) {
	assert.Equal(t, "abc", BearerToken("Bearer abc"))
	assert.Equal(t, "abc", BearerToken("bearer  abc "))
	assert.Equal(t, "abc", BearerToken("abc"))
	assert.Equal(t, "", BearerToken(""))
}

func TestPasswordHashing(t *testing.T) {
	auth := newTestAuth()
	hash, err := auth.HashPassword("s3cret!")
	require.NoError(t, err)
	assert.True(t, auth.CheckPassword(hash, "s3cret!"))
	assert.False(t, auth.CheckPassword(hash, "wrong"))
	assert.False(t, auth.CheckPassword("", ""))
}
