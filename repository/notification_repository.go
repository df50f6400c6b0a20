// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/amirphl/dti-portal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// NotificationRepositoryImpl implements NotificationRepository interface
type NotificationRepositoryImpl struct {
	*BaseRepository[models.Notification, models.NotificationFilter]
}

// NewNotificationRepository creates a new notification repository
func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &NotificationRepositoryImpl{
		BaseRepository: NewBaseRepository[models.Notification, models.NotificationFilter](db),
	}
}

// ByUUID retrieves a notification by UUID
func (r *NotificationRepositoryImpl) ByUUID(ctx context.Context, id uuid.UUID) (*models.Notification, error) {
	notifications, err := r.ByFilter(ctx, models.NotificationFilter{UUID: &id}, "", 1, 0)
	if err != nil {
		return nil, err
	}
	if len(notifications) == 0 {
		return nil, nil
	}
	return notifications[0], nil
}

// ListUnread retrieves unread notifications for an account, newest first
func (r *NotificationRepositoryImpl) ListUnread(ctx context.Context, accountID uint, limit, offset int) ([]*models.Notification, error) {
	unread := false
	filter := models.NotificationFilter{
		AccountID: &accountID,
		IsRead:    &unread,
	}

	notifications, err := r.ByFilter(ctx, filter, "created_at DESC", limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list unread notifications: %w", err)
	}

	return notifications, nil
}

// CountUnread counts unread notifications for an account
func (r *NotificationRepositoryImpl) CountUnread(ctx context.Context, accountID uint) (int64, error) {
	unread := false
	return r.Count(ctx, models.NotificationFilter{AccountID: &accountID, IsRead: &unread})
}

// MarkRead flags a notification as read
func (r *NotificationRepositoryImpl) MarkRead(ctx context.Context, notification *models.Notification, at time.Time) error {
	notification.MarkRead(at)

	err := r.getDB(ctx).Model(notification).
		Select("is_read", "read_at").
		Updates(map[string]any{"is_read": true, "read_at": at}).Error
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}

	return nil
}

// applyFilter applies filter criteria to a GORM query
func (r *NotificationRepositoryImpl) applyFilter(query *gorm.DB, filter models.NotificationFilter) *gorm.DB {
	if filter.ID != nil {
		query = query.Where("id = ?", *filter.ID)
	}
	if filter.UUID != nil {
		query = query.Where("uuid = ?", *filter.UUID)
	}
	if filter.AccountID != nil {
		query = query.Where("account_id = ?", *filter.AccountID)
	}
	if filter.IsRead != nil {
		query = query.Where("is_read = ?", *filter.IsRead)
	}
	if filter.CreatedAfter != nil {
		query = query.Where("created_at > ?", *filter.CreatedAfter)
	}
	if filter.CreatedBefore != nil {
		query = query.Where("created_at < ?", *filter.CreatedBefore)
	}
	return query
}

// ByFilter retrieves notifications based on filter criteria
func (r *NotificationRepositoryImpl) ByFilter(ctx context.Context, filter models.NotificationFilter, orderBy string, limit, offset int) ([]*models.Notification, error) {
	query := r.applyFilter(r.getDB(ctx).Model(&models.Notification{}), filter)

	if orderBy == "" {
		orderBy = "id DESC"
	}
	query = query.Order(orderBy)

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	var notifications []*models.Notification
	if err := query.Find(&notifications).Error; err != nil {
		return nil, err
	}

	return notifications, nil
}

// Count returns the number of notifications matching the filter
func (r *NotificationRepositoryImpl) Count(ctx context.Context, filter models.NotificationFilter) (int64, error) {
	query := r.applyFilter(r.getDB(ctx).Model(&models.Notification{}), filter)

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}

	return count, nil
}

// Exists checks if any notification matching the filter exists
func (r *NotificationRepositoryImpl) Exists(ctx context.Context, filter models.NotificationFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
