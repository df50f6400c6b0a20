// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"
	"time"

	"github.com/amirphl/dti-portal/models"
	"github.com/google/uuid"
)

// RepositoryContext key for transaction in context
type contextKey string

const TxContextKey contextKey = "tx"

type Repository[T any, F any] interface {
	ByID(ctx context.Context, id uint) (*T, error)
	ByFilter(ctx context.Context, filter F, orderBy string, limit, offset int) ([]*T, error)
	Save(ctx context.Context, entity *T) error
	Update(ctx context.Context, entity *T) error
	SaveBatch(ctx context.Context, entities []*T) error
	Count(ctx context.Context, filter F) (int64, error)
	Exists(ctx context.Context, filter F) (bool, error)
}

// AccountRepository defines operations for portal accounts
type AccountRepository interface {
	Repository[models.Account, models.AccountFilter]
	ByUsername(ctx context.Context, username string) (*models.Account, error)
	ByUUID(ctx context.Context, id uuid.UUID) (*models.Account, error)
	// UpdateVerificationCode persists only the code and its expiration
	UpdateVerificationCode(ctx context.Context, account *models.Account) error
	// IncrementVerificationAttempts counts one code check and returns the new total
	IncrementVerificationAttempts(ctx context.Context, accountID uint) (int, error)
	ResetVerificationAttempts(ctx context.Context, accountID uint) error
	UpdateLastLogin(ctx context.Context, accountID uint, at time.Time) error
}

// NotificationRepository defines operations for account notifications
type NotificationRepository interface {
	Repository[models.Notification, models.NotificationFilter]
	ByUUID(ctx context.Context, id uuid.UUID) (*models.Notification, error)
	ListUnread(ctx context.Context, accountID uint, limit, offset int) ([]*models.Notification, error)
	CountUnread(ctx context.Context, accountID uint) (int64, error)
	MarkRead(ctx context.Context, notification *models.Notification, at time.Time) error
}
