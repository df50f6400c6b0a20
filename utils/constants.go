package utils

import (
	"time"
)

// Token and session time constants
const (
	// AccessTokenTTL is the time-to-live for access tokens (24 hours)
	AccessTokenTTL = 24 * time.Hour

	// AccessTokenTTLSeconds is the time-to-live for access tokens in seconds
	AccessTokenTTLSeconds = 86400

	// RefreshTokenTTL is the time-to-live for refresh tokens (7 days)
	RefreshTokenTTL = 7 * 24 * time.Hour
)

// Verification code constants
const (
	// VerificationCodeTTL is how long an issued verification code stays valid
	VerificationCodeTTL = 30 * time.Minute

	// VerificationCodeLength is the number of digits in a verification code
	VerificationCodeLength = 6

	// MaxVerificationAttempts is how many checks one issued code allows
	MaxVerificationAttempts = 5
)

// CORS and security constants
const (
	// CORSMaxAge is the maximum age for CORS preflight requests (24 hours)
	CORSMaxAge = 86400
)

// Collection agent defaults
const (
	DefaultDTIOffice           = "DTI Albay Provincial Office"
	DefaultOfficialDesignation = "Special Collecting Officer"
)

// DefaultProfilePicture is assigned to accounts that never uploaded one
const DefaultProfilePicture = "profile_pictures/default-avatar-icon.jpg"

// ContextKey namespaces request-scoped values stored on a context.Context
type ContextKey string

const (
	RequestIDKey  ContextKey = "request_id"
	UserAgentKey  ContextKey = "user_agent"
	IPAddressKey  ContextKey = "ip_address"
	EndpointKey   ContextKey = "endpoint"
	TimeoutKey    ContextKey = "timeout"
	CancelFuncKey ContextKey = "cancel_func"
)
