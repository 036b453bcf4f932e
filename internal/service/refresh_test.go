package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/examstack/exam_scheduler/internal/models"
	"github.com/examstack/exam_scheduler/internal/repo"
)

func newRefreshService(t *testing.T) (*RefreshTokenService, repo.GormRepo) {
	t.Helper()

	rp := repo.GormRepo{DB: newTestDB(t)}
	return &RefreshTokenService{Repo: rp}, rp
}

func TestRefreshTokenService_Create(t *testing.T) {
	t.Parallel()

	svc, _ := newRefreshService(t)
	ctx := context.Background()

	row, err := svc.Create(ctx, 7)
	require.NoError(t, err)
	require.NotEmpty(t, row.Token)
	assert.EqualValues(t, 7, row.AccountID)
	assert.WithinDuration(t, time.Now().Add(30*24*time.Hour), row.ExpiresAt, time.Minute)

	found, err := svc.FindByToken(ctx, row.Token)
	require.NoError(t, err)
	assert.Equal(t, row.Token, found.Token)
	assert.True(t, row.ExpiresAt.Equal(found.ExpiresAt))
}

func TestRefreshTokenService_Create_CustomTTL(t *testing.T) {
	t.Parallel()

	svc, _ := newRefreshService(t)
	svc.TTLDays = 7

	row, err := svc.Create(context.Background(), 1)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(7*24*time.Hour), row.ExpiresAt, time.Minute)
}

func TestRefreshTokenService_Validation(t *testing.T) {
	t.Parallel()

	svc, _ := newRefreshService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, 0)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.FindByToken(ctx, "")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.FindByAccount(ctx, 0)
	assert.ErrorIs(t, err, ErrValidation)

	assert.ErrorIs(t, svc.Delete(ctx, ""), ErrValidation)
	assert.ErrorIs(t, svc.DeleteAllForAccount(ctx, 0), ErrValidation)
}

func TestRefreshTokenService_FindByToken_NotFound(t *testing.T) {
	t.Parallel()

	svc, _ := newRefreshService(t)
	_, err := svc.FindByToken(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrTokenNotFound)
}

func TestRefreshTokenService_Delete_Idempotent(t *testing.T) {
	t.Parallel()

	svc, _ := newRefreshService(t)
	ctx := context.Background()

	row, err := svc.Create(ctx, 1)
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, row.Token))
	require.NoError(t, svc.Delete(ctx, row.Token))

	_, err = svc.FindByToken(ctx, row.Token)
	assert.ErrorIs(t, err, ErrTokenNotFound)
}

func TestRefreshTokenService_DeleteAllForAccount(t *testing.T) {
	t.Parallel()

	svc, _ := newRefreshService(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := svc.Create(ctx, 1)
		require.NoError(t, err)
	}
	other, err := svc.Create(ctx, 2)
	require.NoError(t, err)

	require.NoError(t, svc.DeleteAllForAccount(ctx, 1))

	rows, err := svc.FindByAccount(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, rows)

	// Other principals keep their sessions.
	_, err = svc.FindByToken(ctx, other.Token)
	require.NoError(t, err)
}

func TestRefreshTokenService_SweepExpired(t *testing.T) {
	t.Parallel()

	svc, rp := newRefreshService(t)
	ctx := context.Background()

	live, err := svc.Create(ctx, 1)
	require.NoError(t, err)

	past := time.Now().UTC().Add(-48 * time.Hour)
	for _, token := range []string{"expired-a", "expired-b"} {
		require.NoError(t, rp.DB.Create(&models.RefreshToken{
			Token:     token,
			AccountID: 1,
			CreatedAt: past.Add(-30 * 24 * time.Hour),
			ExpiresAt: past,
		}).Error)
	}

	n, err := svc.SweepExpired(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	_, err = svc.FindByToken(ctx, live.Token)
	require.NoError(t, err)
	_, err = svc.FindByToken(ctx, "expired-a")
	assert.ErrorIs(t, err, ErrTokenNotFound)
}
