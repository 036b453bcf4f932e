package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/examstack/exam_scheduler/internal/models"
)

// Name matching is case-insensitive on both parts; the phone number must
// match exactly.
func (r *GormRepo) FindTeacherByNameAndPhone(ctx context.Context, first, last, phone string) (*models.Teacher, error) {
	var t models.Teacher
	err := r.DB.WithContext(ctx).
		Preload("Department").
		Where("LOWER(first_name) = LOWER(?) AND LOWER(last_name) = LOWER(?) AND tel = ?", first, last, phone).
		First(&t).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

func (r *GormRepo) FindTeacherByName(ctx context.Context, first, last string) (*models.Teacher, error) {
	var t models.Teacher
	err := r.DB.WithContext(ctx).
		Preload("Department").
		Where("LOWER(first_name) = LOWER(?) AND LOWER(last_name) = LOWER(?)", first, last).
		First(&t).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}
