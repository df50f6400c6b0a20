// Package businessflow contains the core business logic and use cases for account workflows
package businessflow

import (
	"errors"
	"fmt"
)

// Business flow error constants
var (
	// Account-related errors
	ErrAccountNotFound          = errors.New("account not found")
	ErrAccountInactive          = errors.New("account is inactive")
	ErrIncorrectPassword        = errors.New("incorrect password")
	ErrUsernameAlreadyExists    = errors.New("username already exists")
	ErrEmailAlreadyExists       = errors.New("email already exists")
	ErrInvalidRole              = errors.New("invalid role")
	ErrAccessDenied             = errors.New("access denied")
	ErrSuperuserCannotBeDemoted = errors.New("superuser role cannot be changed")

	// Verification-related errors
	ErrInvalidVerificationCode = errors.New("invalid or expired verification code")
	ErrAlreadyVerified         = errors.New("already verified")
	ErrNoDeliveryChannel       = errors.New("no delivery channel available")
	ErrVerificationCooldown    = errors.New("verification code was sent recently")
	ErrTooManyAttempts         = errors.New("too many verification attempts")

	// Captcha errors
	ErrInvalidCaptcha      = errors.New("invalid captcha")
	ErrCaptchaNotAvailable = errors.New("captcha not available")

	// Token errors
	ErrInvalidRefreshToken = errors.New("invalid refresh token")

	// Notification errors
	ErrNotificationNotFound = errors.New("notification not found")

	// Profile picture errors
	ErrInvalidImage  = errors.New("invalid image")
	ErrImageTooLarge = errors.New("image is too large")

	// Filter errors
	ErrInvalidPage     = errors.New("page must be at least 1")
	ErrInvalidPageSize = errors.New("page size must be between 1 and 100")
)

type BusinessError struct {
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

func IsAccountNotFound(err error) bool {
	return errors.Is(err, ErrAccountNotFound)
}

func IsAccountInactive(err error) bool {
	return errors.Is(err, ErrAccountInactive)
}

func IsIncorrectPassword(err error) bool {
	return errors.Is(err, ErrIncorrectPassword)
}

func IsUsernameAlreadyExists(err error) bool {
	return errors.Is(err, ErrUsernameAlreadyExists)
}

func IsEmailAlreadyExists(err error) bool {
	return errors.Is(err, ErrEmailAlreadyExists)
}

func IsInvalidRole(err error) bool {
	return errors.Is(err, ErrInvalidRole)
}

func IsAccessDenied(err error) bool {
	return errors.Is(err, ErrAccessDenied)
}

func IsSuperuserCannotBeDemoted(err error) bool {
	return errors.Is(err, ErrSuperuserCannotBeDemoted)
}

func IsInvalidVerificationCode(err error) bool {
	return errors.Is(err, ErrInvalidVerificationCode)
}

func IsAlreadyVerified(err error) bool {
	return errors.Is(err, ErrAlreadyVerified)
}

func IsNoDeliveryChannel(err error) bool {
	return errors.Is(err, ErrNoDeliveryChannel)
}

func IsVerificationCooldown(err error) bool {
	return errors.Is(err, ErrVerificationCooldown)
}

func IsTooManyAttempts(err error) bool {
	return errors.Is(err, ErrTooManyAttempts)
}

func IsInvalidCaptcha(err error) bool {
	return errors.Is(err, ErrInvalidCaptcha)
}

func IsCaptchaNotAvailable(err error) bool {
	return errors.Is(err, ErrCaptchaNotAvailable)
}

func IsInvalidRefreshToken(err error) bool {
	return errors.Is(err, ErrInvalidRefreshToken)
}

func IsNotificationNotFound(err error) bool {
	return errors.Is(err, ErrNotificationNotFound)
}

func IsInvalidImage(err error) bool {
	return errors.Is(err, ErrInvalidImage)
}

func IsImageTooLarge(err error) bool {
	return errors.Is(err, ErrImageTooLarge)
}

func IsInvalidPagination(err error) bool {
	return errors.Is(err, ErrInvalidPage) || errors.Is(err, ErrInvalidPageSize)
}
