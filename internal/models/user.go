// Package models contains data structures for the application's domain models.
package models

import (
	"time"

	"gorm.io/gorm"
)

// User represents an account in Authors Haven.
type User struct {
	ID                 uint           `gorm:"primaryKey" json:"id"`
	Username           string         `gorm:"unique;not null" json:"username"`
	Email              string         `gorm:"unique;not null" json:"email"`
	Password           string         `gorm:"not null" json:"-"`
	IsActive           bool           `gorm:"default:false" json:"is_active"`
	IsVerified         bool           `gorm:"default:false" json:"is_verified"`
	IsReset            bool           `gorm:"default:false" json:"-"`
	WantsNotifications bool           `gorm:"default:true" json:"wants_notifications"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
	DeletedAt          gorm.DeletedAt `gorm:"index" json:"-"`

	Profile *Profile `gorm:"foreignKey:UserID" json:"profile,omitempty"`
}
