// Package models contains domain entities and business models for the portal accounts
package models

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"

	"github.com/amirphl/dti-portal/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Role is the portal role an account acts under
type Role string

const (
	RoleBusinessOwner   Role = "business_owner"
	RoleAdmin           Role = "admin"
	RoleCollectionAgent Role = "collection_agent"
)

// Valid reports whether r is one of the known roles
func (r Role) Valid() bool {
	switch r {
	case RoleBusinessOwner, RoleAdmin, RoleCollectionAgent:
		return true
	default:
		return false
	}
}

// DisplayName returns the human readable role label
func (r Role) DisplayName() string {
	switch r {
	case RoleBusinessOwner:
		return "Business Owner"
	case RoleAdmin:
		return "Admin"
	case RoleCollectionAgent:
		return "Collection Agent"
	default:
		return string(r)
	}
}

// Scan implements the sql.Scanner interface for Role
func (r *Role) Scan(value any) error {
	if value == nil {
		*r = ""
		return nil
	}

	switch v := value.(type) {
	case string:
		*r = Role(v)
	case []byte:
		*r = Role(string(v))
	default:
		return fmt.Errorf("cannot scan %T into Role", value)
	}

	return nil
}

// Value implements the driver.Valuer interface for Role
func (r Role) Value() (driver.Value, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("invalid Role: %s", r)
	}
	return string(r), nil
}

// Identity is the authentication surface an account exposes to the rest of the system
type Identity interface {
	GetUsername() string
	GetPasswordHash() string
	HasSuperuserPrivilege() bool
}

// Unique constraints on the accounts table
const (
	UniqueAccountUsername = "uk_accounts_username"
	UniqueAccountEmail    = "uk_accounts_email"
)

type Account struct {
	ID       uint      `gorm:"primaryKey" json:"id"`
	UUID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uk_accounts_uuid" json:"uuid"`
	Username string    `gorm:"size:150;not null;uniqueIndex:uk_accounts_username" json:"username"`
	Email    string    `gorm:"size:254;uniqueIndex:uk_accounts_email,where:email <> ''" json:"email"`

	PasswordHash string `gorm:"size:255;not null" json:"-"` // Never serialize password hash

	FirstName  string  `gorm:"size:150" json:"first_name"`
	MiddleName *string `gorm:"size:150" json:"middle_name,omitempty"`
	LastName   string  `gorm:"size:150" json:"last_name"`

	// Privilege flags
	IsSuperuser bool  `gorm:"default:false" json:"is_superuser"`
	IsStaff     bool  `gorm:"default:false" json:"is_staff"`
	IsActive    *bool `gorm:"default:true;index:idx_accounts_is_active" json:"is_active"`

	Role           Role   `gorm:"size:20;not null;default:business_owner;index:idx_accounts_role" json:"role"`
	ProfilePicture string `gorm:"size:255" json:"profile_picture"`

	// Verification
	IsVerified                     *bool      `gorm:"default:false" json:"is_verified"`
	VerificationCode               *string    `gorm:"size:6" json:"-"` // Never serialize verification code
	VerificationCodeExpirationDate *time.Time `json:"-"`
	VerificationAttempts           int        `gorm:"not null;default:0" json:"-"`
	VerifiedAt                     *time.Time `json:"verified_at,omitempty"`

	// Sensitive personal fields, encrypted at rest
	DefaultAddress *string `gorm:"type:text;serializer:encrypted" json:"default_address,omitempty"`
	DefaultPhone   *string `gorm:"type:text;serializer:encrypted" json:"default_phone,omitempty"`
	Birthday       *string `gorm:"type:text;serializer:encrypted" json:"birthday,omitempty"`

	// Only applicable if the account is a collection agent
	DTIOffice           *string `gorm:"type:text;serializer:encrypted" json:"dti_office,omitempty"`
	OfficialDesignation *string `gorm:"type:text;serializer:encrypted" json:"official_designation,omitempty"`

	// Timestamps
	CreatedAt   time.Time  `gorm:"index:idx_accounts_created_at" json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`

	// Relations
	Notifications []Notification `gorm:"foreignKey:AccountID" json:"-"`
}

func (Account) TableName() string {
	return "accounts"
}

// AccountFilter represents filter criteria for account queries
type AccountFilter struct {
	ID            *uint
	UUID          *uuid.UUID
	Username      *string
	Email         *string
	Role          *Role
	IsSuperuser   *bool
	IsVerified    *bool
	IsActive      *bool
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
}

func (a *Account) GetUsername() string {
	return a.Username
}

func (a *Account) GetPasswordHash() string {
	return a.PasswordHash
}

func (a *Account) HasSuperuserPrivilege() bool {
	return a.IsSuperuser
}

func (a *Account) IsCollectionAgent() bool {
	return a.Role == RoleCollectionAgent
}

func (a *Account) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// Normalize applies the save-time field policy. The role dependent
// office/designation fix-up runs first, the superuser override last.
func (a *Account) Normalize() {
	if a.Role == "" {
		a.Role = RoleBusinessOwner
	}

	if a.Role == RoleCollectionAgent {
		if utils.IsEmpty(a.DTIOffice) {
			a.DTIOffice = utils.ToPtr(utils.DefaultDTIOffice)
		}
		if utils.IsEmpty(a.OfficialDesignation) {
			a.OfficialDesignation = utils.ToPtr(utils.DefaultOfficialDesignation)
		}
	} else {
		a.DTIOffice = nil
		a.OfficialDesignation = nil
	}

	if a.HasSuperuserPrivilege() {
		a.Role = RoleAdmin
	}
}

// BeforeSave runs the normalization policy on every create and update
func (a *Account) BeforeSave(tx *gorm.DB) error {
	a.Normalize()
	return nil
}

// BeforeCreate ensures UUID and profile picture are set.
func (a *Account) BeforeCreate(tx *gorm.DB) error {
	if a.UUID == uuid.Nil {
		a.UUID = uuid.New()
	}
	if a.ProfilePicture == "" {
		a.ProfilePicture = utils.DefaultProfilePicture
	}
	return nil
}

// SetVerificationCode stores code with an expiration VerificationCodeTTL after now.
// A new code starts with no recorded attempts.
func (a *Account) SetVerificationCode(code string, now time.Time) {
	expiresAt := now.Add(utils.VerificationCodeTTL)
	a.VerificationCode = &code
	a.VerificationCodeExpirationDate = &expiresAt
	a.VerificationAttempts = 0
}

// IsVerificationCodeValid checks the code against the current UTC time
func (a *Account) IsVerificationCodeValid(code string) bool {
	return a.IsVerificationCodeValidAt(code, utils.UTCNow())
}

// IsVerificationCodeValidAt reports whether code matches the stored one and
// now is strictly before its expiration. It never mutates the account.
func (a *Account) IsVerificationCodeValidAt(code string, now time.Time) bool {
	if a.VerificationCode == nil || *a.VerificationCode != code {
		return false
	}
	return utils.IsBefore(now, a.VerificationCodeExpirationDate)
}

// MarkVerified flags the account as verified and discards the issued code
func (a *Account) MarkVerified(now time.Time) {
	a.IsVerified = utils.ToPtr(true)
	a.VerifiedAt = &now
	a.VerificationCode = nil
	a.VerificationCodeExpirationDate = nil
	a.VerificationAttempts = 0
}

// FullName joins first, optional middle and last name, skipping empty parts
func (a *Account) FullName() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{a.FirstName, utils.Deref(a.MiddleName), a.LastName} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

func (a *Account) String() string {
	return fmt.Sprintf("%s %s", a.FirstName, a.LastName)
}

// AbsoluteURL is the profile route for this account
func (a *Account) AbsoluteURL() string {
	return fmt.Sprintf("/api/v1/profile/%d", a.ID)
}
