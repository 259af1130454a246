package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Device is an anonymous installation of the mobile app. It owns exactly one
// UserProfile and any number of Menus.
type Device struct {
	ID         uuid.UUID      `gorm:"type:varchar(36);primarykey" json:"id"`
	CreatedAt  time.Time      `json:"created_at"`
	LastSeenAt time.Time      `json:"last_seen_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
	Platform   string         `gorm:"size:32" json:"platform,omitempty"`
}

// TableName returns the table name for the Device model
func (Device) TableName() string {
	return "devices"
}
