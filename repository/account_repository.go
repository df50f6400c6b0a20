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

// AccountRepositoryImpl implements AccountRepository interface
type AccountRepositoryImpl struct {
	*BaseRepository[models.Account, models.AccountFilter]
}

// NewAccountRepository creates a new account repository
func NewAccountRepository(db *gorm.DB) AccountRepository {
	return &AccountRepositoryImpl{
		BaseRepository: NewBaseRepository[models.Account, models.AccountFilter](db),
	}
}

// ByUsername retrieves an account by username
func (r *AccountRepositoryImpl) ByUsername(ctx context.Context, username string) (*models.Account, error) {
	accounts, err := r.ByFilter(ctx, models.AccountFilter{Username: &username}, "", 1, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to find account by username: %w", err)
	}

	if len(accounts) == 0 {
		return nil, nil
	}

	return accounts[0], nil
}

// ByUUID retrieves an account by UUID
func (r *AccountRepositoryImpl) ByUUID(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	accounts, err := r.ByFilter(ctx, models.AccountFilter{UUID: &id}, "", 1, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to find account by uuid: %w", err)
	}

	if len(accounts) == 0 {
		return nil, nil
	}

	return accounts[0], nil
}

// UpdateVerificationCode writes only verification_code and its expiration
func (r *AccountRepositoryImpl) UpdateVerificationCode(ctx context.Context, account *models.Account) error {
	db := r.getDB(ctx)

	err := db.Model(account).
		Select("verification_code", "verification_code_expiration_date").
		Updates(map[string]any{
			"verification_code":                 account.VerificationCode,
			"verification_code_expiration_date": account.VerificationCodeExpirationDate,
		}).Error
	if err != nil {
		return fmt.Errorf("failed to update verification code: %w", err)
	}

	return nil
}

// IncrementVerificationAttempts bumps the counter in one statement so parallel checks cannot share a slot
func (r *AccountRepositoryImpl) IncrementVerificationAttempts(ctx context.Context, accountID uint) (int, error) {
	db := r.getDB(ctx)

	var attempts int
	err := db.Raw(
		"UPDATE accounts SET verification_attempts = verification_attempts + 1 WHERE id = ? RETURNING verification_attempts",
		accountID,
	).Scan(&attempts).Error
	if err != nil {
		return 0, fmt.Errorf("failed to increment verification attempts: %w", err)
	}

	return attempts, nil
}

// ResetVerificationAttempts clears the counter for a freshly issued code
func (r *AccountRepositoryImpl) ResetVerificationAttempts(ctx context.Context, accountID uint) error {
	db := r.getDB(ctx)

	err := db.Model(&models.Account{}).
		Where("id = ?", accountID).
		UpdateColumn("verification_attempts", 0).Error
	if err != nil {
		return fmt.Errorf("failed to reset verification attempts: %w", err)
	}

	return nil
}

// UpdateLastLogin stamps the last successful login time
func (r *AccountRepositoryImpl) UpdateLastLogin(ctx context.Context, accountID uint, at time.Time) error {
	db := r.getDB(ctx)

	err := db.Model(&models.Account{}).
		Where("id = ?", accountID).
		UpdateColumn("last_login_at", at).Error
	if err != nil {
		return fmt.Errorf("failed to update last login: %w", err)
	}

	return nil
}

// applyFilter applies filter criteria to a GORM query
func (r *AccountRepositoryImpl) applyFilter(query *gorm.DB, filter models.AccountFilter) *gorm.DB {
	if filter.ID != nil {
		query = query.Where("id = ?", *filter.ID)
	}
	if filter.UUID != nil {
		query = query.Where("uuid = ?", *filter.UUID)
	}
	if filter.Username != nil {
		query = query.Where("username = ?", *filter.Username)
	}
	if filter.Email != nil {
		query = query.Where("email = ?", *filter.Email)
	}
	if filter.Role != nil {
		query = query.Where("role = ?", string(*filter.Role))
	}
	if filter.IsSuperuser != nil {
		query = query.Where("is_superuser = ?", *filter.IsSuperuser)
	}
	if filter.IsVerified != nil {
		query = query.Where("is_verified = ?", *filter.IsVerified)
	}
	if filter.IsActive != nil {
		query = query.Where("is_active = ?", *filter.IsActive)
	}
	if filter.CreatedAfter != nil {
		query = query.Where("created_at > ?", *filter.CreatedAfter)
	}
	if filter.CreatedBefore != nil {
		query = query.Where("created_at < ?", *filter.CreatedBefore)
	}
	return query
}

// ByFilter retrieves accounts based on filter criteria
func (r *AccountRepositoryImpl) ByFilter(ctx context.Context, filter models.AccountFilter, orderBy string, limit, offset int) ([]*models.Account, error) {
	query := r.applyFilter(r.getDB(ctx).Model(&models.Account{}), filter)

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

	var accounts []*models.Account
	if err := query.Find(&accounts).Error; err != nil {
		return nil, err
	}

	return accounts, nil
}

// Count returns the number of accounts matching the filter
func (r *AccountRepositoryImpl) Count(ctx context.Context, filter models.AccountFilter) (int64, error) {
	query := r.applyFilter(r.getDB(ctx).Model(&models.Account{}), filter)

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}

	return count, nil
}

// Exists checks if any account matching the filter exists
func (r *AccountRepositoryImpl) Exists(ctx context.Context, filter models.AccountFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
