package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// Account is the materialized principal record. Administrative accounts
// are created explicitly; teacher accounts are provisioned on first login
// with the teacher's "{firstname} {lastname}" as username.
type Account struct {
	ID           uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Username     string `gorm:"unique;not null"          json:"username"`
	PasswordHash string `gorm:"not null"                 json:"-"`
	Role         string `gorm:"not null"                 json:"role"`
	Email        string `json:"email,omitempty"`
}

type Department struct {
	ID   uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Name string `gorm:"unique;not null"          json:"name"`
}

// Teacher carries only the fields the login flow touches; the rest of the
// staff record lives with the scheduling domain.
type Teacher struct {
	ID           uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	FirstName    string     `gorm:"not null;index:idx_teacher_name" json:"firstname"`
	LastName     string     `gorm:"not null;index:idx_teacher_name" json:"lastname"`
	Phone        string     `gorm:"column:tel;not null"      json:"tel"`
	DepartmentID uint       `gorm:"index"                    json:"department_id"`
	Department   Department `json:"department,omitempty"`
}

// RefreshToken rows are immutable after creation; expiry never moves.
type RefreshToken struct {
	Token     string    `gorm:"primaryKey"      json:"token"`
	AccountID uint      `gorm:"index;not null"  json:"account_id"`
	CreatedAt time.Time `gorm:"not null"        json:"created_at"`
	ExpiresAt time.Time `gorm:"index;not null"  json:"expires_at"`
}

func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&Department{}, &Teacher{}, &Account{}, &RefreshToken{})
}
