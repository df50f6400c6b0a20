// Package models contains domain entities and business models for the portal accounts
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Notification struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	UUID      uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:uk_notifications_uuid" json:"uuid"`
	AccountID uint       `gorm:"not null;index:idx_notifications_account_read" json:"account_id"`
	Account   *Account   `gorm:"foreignKey:AccountID;references:ID" json:"-"`
	Title     string     `gorm:"size:255;not null" json:"title"`
	Message   string     `gorm:"type:text" json:"message"`
	Link      *string    `gorm:"size:255" json:"link,omitempty"`
	IsRead    bool       `gorm:"default:false;index:idx_notifications_account_read" json:"is_read"`
	ReadAt    *time.Time `json:"read_at,omitempty"`
	CreatedAt time.Time  `gorm:"index:idx_notifications_created_at" json:"created_at"`
}

func (Notification) TableName() string {
	return "notifications"
}

// BeforeCreate ensures the UUID is set.
func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.UUID == uuid.Nil {
		n.UUID = uuid.New()
	}
	return nil
}

// NotificationFilter represents filter criteria for notification queries
type NotificationFilter struct {
	ID            *uint
	UUID          *uuid.UUID
	AccountID     *uint
	IsRead        *bool
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
}

func (n *Notification) MarkRead(now time.Time) {
	n.IsRead = true
	n.ReadAt = &now
}
