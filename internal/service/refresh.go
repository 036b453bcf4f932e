package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/examstack/exam_scheduler/internal/models"
	"github.com/examstack/exam_scheduler/internal/repo"
	"github.com/examstack/exam_scheduler/pkg/tokens"
)

const DefaultRefreshTTLDays = 30

// RefreshTokenService owns the durable refresh-token lifecycle. Rows are
// never updated: a token keeps the expiry it was created with until it is
// deleted.
type RefreshTokenService struct {
	Repo    repo.GormRepo
	TTLDays int
}

func (s *RefreshTokenService) ttl() time.Duration {
	days := s.TTLDays
	if days <= 0 {
		days = DefaultRefreshTTLDays
	}
	return time.Duration(days) * 24 * time.Hour
}

func (s *RefreshTokenService) Create(ctx context.Context, accountID uint) (*models.RefreshToken, error) {
	if accountID == 0 {
		return nil, fmt.Errorf("%w: account id is required", ErrValidation)
	}

	value, err := tokens.NewOpaqueToken()
	if err != nil {
		return nil, fmt.Errorf("generate refresh token: %w", err)
	}

	now := time.Now().UTC()
	row := &models.RefreshToken{
		Token:     value,
		AccountID: accountID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl()),
	}
	if err := s.Repo.CreateRefreshToken(ctx, row); err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}
	return row, nil
}

func (s *RefreshTokenService) FindByToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	if token == "" {
		return nil, fmt.Errorf("%w: token is required", ErrValidation)
	}
	row, err := s.Repo.FindRefreshToken(ctx, token)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrTokenNotFound
		}
		return nil, err
	}
	return row, nil
}

// FindByAccount lists every live session for an account, one row per
// device.
func (s *RefreshTokenService) FindByAccount(ctx context.Context, accountID uint) ([]models.RefreshToken, error) {
	if accountID == 0 {
		return nil, fmt.Errorf("%w: account id is required", ErrValidation)
	}
	return s.Repo.FindRefreshTokensByAccount(ctx, accountID)
}

// Delete is idempotent: deleting a token that is already gone succeeds.
func (s *RefreshTokenService) Delete(ctx context.Context, token string) error {
	if token == "" {
		return fmt.Errorf("%w: token is required", ErrValidation)
	}
	return s.Repo.DeleteRefreshToken(ctx, token)
}

func (s *RefreshTokenService) DeleteAllForAccount(ctx context.Context, accountID uint) error {
	if accountID == 0 {
		return fmt.Errorf("%w: account id is required", ErrValidation)
	}
	return s.Repo.DeleteRefreshTokensByAccount(ctx, accountID)
}

// SweepExpired deletes every expired row. It runs on a schedule and is
// independent of the lazy cleanup done during verification.
func (s *RefreshTokenService) SweepExpired(ctx context.Context) (int64, error) {
	n, err := s.Repo.DeleteExpiredRefreshTokens(ctx, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("sweep refresh tokens: %w", err)
	}
	return n, nil
}
