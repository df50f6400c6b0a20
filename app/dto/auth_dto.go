// Package dto contains Data Transfer Objects for API request and response structures
package dto

import "time"

// RegisterRequest represents the request payload for account registration
type RegisterRequest struct {
	Username     string  `json:"username" validate:"required,min=3,max=150,alphanum" example:"juandelacruz"`
	Email        string  `json:"email" validate:"required,email,max=254" example:"juan@example.ph"`
	Password     string  `json:"password" validate:"required,min=8,max=100" example:"SecurePass123!"`
	FirstName    string  `json:"first_name" validate:"required,max=150" example:"Juan"`
	MiddleName   *string `json:"middle_name,omitempty" validate:"omitempty,max=150" example:"Santos"`
	LastName     string  `json:"last_name" validate:"required,max=150" example:"Dela Cruz"`
	DefaultPhone *string `json:"default_phone,omitempty" validate:"omitempty,ph_mobile" example:"09171234567"`
}

// RegisterResponse is returned after a successful registration
type RegisterResponse struct {
	Message string     `json:"message" example:"Account created. A verification code has been sent."`
	Account AccountDTO `json:"account"`
}

// CaptchaInitResponse carries a rotate captcha challenge
type CaptchaInitResponse struct {
	ChallengeID       string `json:"challenge_id"`
	MasterImageBase64 string `json:"master_image_base64"`
	ThumbImageBase64  string `json:"thumb_image_base64"`
}

// LoginRequest represents the request payload for account login
type LoginRequest struct {
	Username    string  `json:"username" validate:"required,min=3,max=150" example:"juandelacruz"`
	Password    string  `json:"password" validate:"required,min=8,max=100" example:"SecurePass123!"`
	ChallengeID string  `json:"challenge_id" validate:"omitempty,uuid4"`
	UserAngle   float64 `json:"user_angle" validate:"omitempty,min=0,max=360"`
}

// LoginResponse represents the successful login response
type LoginResponse struct {
	Account AccountDTO `json:"account"`
	Session SessionDTO `json:"session"`
}

// RefreshRequest exchanges a refresh token for a new session
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// LogoutRequest revokes the given tokens
type LogoutRequest struct {
	RefreshToken string `json:"refresh_token" validate:"omitempty"`
}

// SessionDTO holds the issued bearer tokens
type SessionDTO struct {
	AccessToken  string `json:"access_token" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9..."`
	RefreshToken string `json:"refresh_token" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9..."`
	TokenType    string `json:"token_type" example:"Bearer"`
	ExpiresIn    int    `json:"expires_in" example:"86400"`
}

// AccountDTO is the public representation of an account
type AccountDTO struct {
	ID                  uint       `json:"id" example:"123"`
	UUID                string     `json:"uuid" example:"550e8400-e29b-41d4-a716-446655440000"`
	Username            string     `json:"username" example:"juandelacruz"`
	Email               string     `json:"email" example:"juan@example.ph"`
	FirstName           string     `json:"first_name" example:"Juan"`
	MiddleName          *string    `json:"middle_name,omitempty"`
	LastName            string     `json:"last_name" example:"Dela Cruz"`
	FullName            string     `json:"full_name" example:"Juan Santos Dela Cruz"`
	Role                string     `json:"role" example:"business_owner"`
	RoleDisplayName     string     `json:"role_display_name" example:"Business Owner"`
	IsSuperuser         bool       `json:"is_superuser"`
	IsStaff             bool       `json:"is_staff"`
	IsActive            *bool      `json:"is_active"`
	IsVerified          *bool      `json:"is_verified"`
	ProfilePicture      string     `json:"profile_picture"`
	ProfileURL          string     `json:"profile_url" example:"/api/v1/profile/123"`
	DefaultAddress      *string    `json:"default_address,omitempty"`
	DefaultPhone        *string    `json:"default_phone,omitempty"`
	Birthday            *string    `json:"birthday,omitempty"`
	DTIOffice           *string    `json:"dti_office,omitempty"`
	OfficialDesignation *string    `json:"official_designation,omitempty"`
	VerifiedAt          *time.Time `json:"verified_at,omitempty"`
	LastLoginAt         *time.Time `json:"last_login_at,omitempty"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}
