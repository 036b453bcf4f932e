package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/examstack/exam_scheduler/internal/models"
)

func (r *GormRepo) FindAccountByUsername(ctx context.Context, username string) (*models.Account, error) {
	var acct models.Account
	if err := r.DB.WithContext(ctx).Where("username = ?", username).First(&acct).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &acct, nil
}

func (r *GormRepo) FindAccountByID(ctx context.Context, id uint) (*models.Account, error) {
	var acct models.Account
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&acct).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &acct, nil
}

// CreateAccountIfAbsent provisions an account under the unique username
// constraint. Two concurrent first logins may both reach the create; the
// loser re-reads and adopts the winner's row. ErrDuplicate only surfaces
// if that re-read comes back empty as well.
func (r *GormRepo) CreateAccountIfAbsent(ctx context.Context, acct *models.Account) (*models.Account, error) {
	tx := r.DB.WithContext(ctx).Where("username = ?", acct.Username).FirstOrCreate(acct)
	if tx.Error == nil {
		return acct, nil
	}
	if !errors.Is(tx.Error, gorm.ErrDuplicatedKey) {
		return nil, tx.Error
	}

	existing, err := r.FindAccountByUsername(ctx, acct.Username)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return existing, nil
}
