package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/examstack/exam_scheduler/internal/models"
)

func (r *GormRepo) CreateRefreshToken(ctx context.Context, row *models.RefreshToken) error {
	return r.DB.WithContext(ctx).Create(row).Error
}

func (r *GormRepo) FindRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	var row models.RefreshToken
	if err := r.DB.WithContext(ctx).Where("token = ?", token).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &row, nil
}

func (r *GormRepo) FindRefreshTokensByAccount(ctx context.Context, accountID uint) ([]models.RefreshToken, error) {
	var rows []models.RefreshToken
	if err := r.DB.WithContext(ctx).Where("account_id = ?", accountID).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// DeleteRefreshToken is idempotent; deleting a missing row is not an error.
func (r *GormRepo) DeleteRefreshToken(ctx context.Context, token string) error {
	return r.DB.WithContext(ctx).Where("token = ?", token).Delete(&models.RefreshToken{}).Error
}

func (r *GormRepo) DeleteRefreshTokensByAccount(ctx context.Context, accountID uint) error {
	return r.DB.WithContext(ctx).Where("account_id = ?", accountID).Delete(&models.RefreshToken{}).Error
}

// DeleteExpiredRefreshTokens removes every row whose expiry has passed and
// reports how many went away.
func (r *GormRepo) DeleteExpiredRefreshTokens(ctx context.Context, now time.Time) (int64, error) {
	tx := r.DB.WithContext(ctx).Where("expires_at < ?", now).Delete(&models.RefreshToken{})
	return tx.RowsAffected, tx.Error
}
