package repo

import (
	"errors"

	"gorm.io/gorm"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("record already exists")
)

// GormRepo is the durable store behind the session subsystem. It is the
// sole writer of account and refresh-token rows; services never touch
// gorm directly.
type GormRepo struct {
	DB *gorm.DB
}
