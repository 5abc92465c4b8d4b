package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskhub/internal/apperrors"
)

func TestConsumeCommitsTokenAndPassword(t *testing.T) {
	db, rec := recordingDB(t, 0)
	rec.affected = []int64{1, 1}
	repo := NewPasswordResetRepository(db)

	err := repo.Consume(context.Background(), "jti-1", 7, time.Now().Add(time.Minute), "new-hash")
	require.NoError(t, err)
	assert.Equal(t, 1, rec.commits)
	assert.Equal(t, 0, rec.rollbacks)

	require.Len(t, rec.queries, 2)
	assert.Contains(t, rec.queries[0], "INSERT INTO password_resets")
	assert.Contains(t, rec.queries[1], "UPDATE users SET password_hash")
	assert.Equal(t, "new-hash", rec.args[1][0])
}

func TestConsumeReplayedTokenRollsBack(t *testing.T) {
	db, rec := recordingDB(t, 0)
	rec.affected = []int64{0}
	repo := NewPasswordResetRepository(db)

	err := repo.Consume(context.Background(), "jti-1", 7, time.Now(), "new-hash")
	var cerr *apperrors.ConflictError
	assert.ErrorAs(t, err, &cerr)
	assert.Equal(t, 0, rec.commits)
	assert.Equal(t, 1, rec.rollbacks)
	assert.Len(t, rec.queries, 1)
}

func TestConsumeFailedPasswordWriteReleasesToken(t *testing.T) {
	db, rec := recordingDB(t, 0)
	// the token row inserts but the user is gone
	rec.affected = []int64{1, 0}
	repo := NewPasswordResetRepository(db)

	err := repo.Consume(context.Background(), "jti-1", 7, time.Now(), "new-hash")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 0, rec.commits)
	assert.Equal(t, 1, rec.rollbacks)
}
