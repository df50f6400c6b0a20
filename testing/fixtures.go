package testing

import (
	"fmt"
	"math/rand"

	"github.com/amirphl/dti-portal/models"
	"github.com/amirphl/dti-portal/utils"
	"golang.org/x/crypto/bcrypt"
)

// TestPassword is the plaintext password of every fixture account
const TestPassword = "TestPass123!"

// TestFixtures provides helper methods for creating test data
type TestFixtures struct {
	DB *TestDB
}

// NewTestFixtures creates a new test fixtures instance
func NewTestFixtures(db *TestDB) *TestFixtures {
	return &TestFixtures{DB: db}
}

// CreateTestAccount creates an active account with the given role and a random username
func (tf *TestFixtures) CreateTestAccount(role models.Role) (*models.Account, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(TestPassword), bcrypt.MinCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	suffix := fmt.Sprintf("%06d", rand.Intn(1000000))
	account := &models.Account{
		Username:     "user" + suffix,
		Email:        fmt.Sprintf("juan.%s@example.com", suffix),
		PasswordHash: string(hashedPassword),
		FirstName:    "juan",
		LastName:     "dela cruz",
		Role:         role,
		IsActive:     utils.ToPtr(true),
		IsVerified:   utils.ToPtr(false),
		DefaultPhone: utils.ToPtr("09171234567"),
	}

	if err := tf.DB.DB.Create(account).Error; err != nil {
		return nil, fmt.Errorf("failed to create test account: %w", err)
	}

	return account, nil
}

// CreateTestNotification creates an unread notification for accountID
func (tf *TestFixtures) CreateTestNotification(accountID uint, title string) (*models.Notification, error) {
	notification := &models.Notification{
		AccountID: accountID,
		Title:     title,
		Message:   "Message for " + title,
	}

	if err := tf.DB.DB.Create(notification).Error; err != nil {
		return nil, fmt.Errorf("failed to create test notification: %w", err)
	}

	return notification, nil
}
