// Package businessflow contains the core business logic and use cases for account workflows
package businessflow

import (
	"context"
	"log"
	"strings"

	"github.com/amirphl/dti-portal/app/dto"
	"github.com/amirphl/dti-portal/app/services"
	"github.com/amirphl/dti-portal/models"
	"github.com/amirphl/dti-portal/repository"
	"github.com/amirphl/dti-portal/utils"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// AuthFlow handles registration, login and session renewal
type AuthFlow interface {
	Register(ctx context.Context, req *dto.RegisterRequest, metadata *ClientMetadata) (*dto.RegisterResponse, error)
	InitCaptcha(ctx context.Context) (*dto.CaptchaInitResponse, error)
	Login(ctx context.Context, req *dto.LoginRequest, metadata *ClientMetadata) (*dto.LoginResponse, error)
	Refresh(ctx context.Context, req *dto.RefreshRequest, metadata *ClientMetadata) (*dto.SessionDTO, error)
	Logout(ctx context.Context, accessToken string, req *dto.LogoutRequest) error
}

// AuthFlowImpl implements AuthFlow
type AuthFlowImpl struct {
	accountRepo      repository.AccountRepository
	tokenService     services.TokenService
	captchaSvc       services.CaptchaService
	verificationFlow VerificationFlow
	bcryptCost       int
	now              utils.Clock

	// dummyHash is compared when no usable account matches so a failed login costs one bcrypt either way
	dummyHash       []byte
	comparePassword func(hash, password []byte) error
}

// NewAuthFlow creates a new auth flow. A nil captchaSvc disables the login captcha.
func NewAuthFlow(
	accountRepo repository.AccountRepository,
	tokenService services.TokenService,
	captchaSvc services.CaptchaService,
	verificationFlow VerificationFlow,
	bcryptCost int,
) AuthFlow {
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = bcrypt.DefaultCost
	}
	dummyHash, err := bcrypt.GenerateFromPassword([]byte(uuid.NewString()), bcryptCost)
	if err != nil {
		log.Printf("failed to prepare login dummy hash: %v", err)
	}
	return &AuthFlowImpl{
		accountRepo:      accountRepo,
		tokenService:     tokenService,
		captchaSvc:       captchaSvc,
		verificationFlow: verificationFlow,
		bcryptCost:       bcryptCost,
		now:              utils.UTCNow,
		dummyHash:        dummyHash,
		comparePassword:  bcrypt.CompareHashAndPassword,
	}
}

// Register creates a business owner account and sends its first verification code
func (af *AuthFlowImpl) Register(ctx context.Context, req *dto.RegisterRequest, metadata *ClientMetadata) (*dto.RegisterResponse, error) {
	if req == nil {
		return nil, NewBusinessError("REGISTER_VALIDATION_FAILED", "Registration request is required", nil)
	}

	username := strings.TrimSpace(req.Username)
	email := strings.ToLower(strings.TrimSpace(req.Email))

	exists, err := af.accountRepo.Exists(ctx, models.AccountFilter{Username: &username})
	if err != nil {
		return nil, NewBusinessError("REGISTER_FAILED", "Failed to check username", err)
	}
	if exists {
		return nil, NewBusinessError("USERNAME_EXISTS", "Username already exists", ErrUsernameAlreadyExists)
	}

	exists, err = af.accountRepo.Exists(ctx, models.AccountFilter{Email: &email})
	if err != nil {
		return nil, NewBusinessError("REGISTER_FAILED", "Failed to check email", err)
	}
	if exists {
		return nil, NewBusinessError("EMAIL_EXISTS", "Email already exists", ErrEmailAlreadyExists)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), af.bcryptCost)
	if err != nil {
		return nil, NewBusinessError("REGISTER_FAILED", "Failed to hash password", err)
	}

	account := &models.Account{
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		FirstName:    strings.TrimSpace(req.FirstName),
		MiddleName:   req.MiddleName,
		LastName:     strings.TrimSpace(req.LastName),
		Role:         models.RoleBusinessOwner,
		IsActive:     utils.ToPtr(true),
		IsVerified:   utils.ToPtr(false),
		DefaultPhone: req.DefaultPhone,
	}

	if err := af.accountRepo.Save(ctx, account); err != nil {
		// a concurrent registration can pass the checks above and still lose at the unique index
		switch {
		case repository.IsDuplicateOn(err, models.UniqueAccountUsername):
			return nil, NewBusinessError("USERNAME_EXISTS", "Username already exists", ErrUsernameAlreadyExists)
		case repository.IsDuplicateOn(err, models.UniqueAccountEmail):
			return nil, NewBusinessError("EMAIL_EXISTS", "Email already exists", ErrEmailAlreadyExists)
		}
		return nil, NewBusinessError("REGISTER_FAILED", "Failed to create account", err)
	}

	message := "Account created. A verification code has been sent."
	if af.verificationFlow != nil {
		if _, err := af.verificationFlow.IssueCode(ctx, account.ID, nil, metadata); err != nil {
			log.Printf("initial verification code not sent: account=%d err=%v", account.ID, err)
			message = "Account created. Request a verification code to verify it."
		}
	}

	return &dto.RegisterResponse{
		Message: message,
		Account: ToAccountDTO(*account),
	}, nil
}

func (af *AuthFlowImpl) InitCaptcha(ctx context.Context) (*dto.CaptchaInitResponse, error) {
	if af.captchaSvc == nil {
		return nil, NewBusinessError("CAPTCHA_NOT_AVAILABLE", "Captcha service not available", ErrCaptchaNotAvailable)
	}
	ch, err := af.captchaSvc.GenerateRotate(ctx)
	if err != nil {
		return nil, NewBusinessError("CAPTCHA_INIT_FAILED", "Failed to initialize captcha", err)
	}
	return &dto.CaptchaInitResponse{
		ChallengeID:       ch.ID,
		MasterImageBase64: ch.MasterImageBase64,
		ThumbImageBase64:  ch.ThumbImageBase64,
	}, nil
}

// Login verifies the captcha (when enabled) and credentials, then issues tokens
func (af *AuthFlowImpl) Login(ctx context.Context, req *dto.LoginRequest, metadata *ClientMetadata) (*dto.LoginResponse, error) {
	if req == nil || len(req.Username) == 0 || len(req.Password) == 0 {
		return nil, NewBusinessError("LOGIN_VALIDATION_FAILED", "Login validation failed", ErrIncorrectPassword)
	}

	if af.captchaSvc != nil {
		if len(req.ChallengeID) == 0 || !af.captchaSvc.VerifyRotate(ctx, req.ChallengeID, req.UserAngle) {
			return nil, NewBusinessError("CAPTCHA_INVALID", "Captcha validation failed", ErrInvalidCaptcha)
		}
	}

	account, err := af.accountRepo.ByUsername(ctx, strings.TrimSpace(req.Username))
	if err != nil {
		return nil, NewBusinessError("ACCOUNT_LOOKUP_FAILED", "Failed to lookup account", err)
	}

	hash := af.dummyHash
	if account != nil {
		hash = []byte(account.GetPasswordHash())
	}
	passwordErr := af.comparePassword(hash, []byte(req.Password))

	if account == nil {
		return nil, NewBusinessError("ACCOUNT_NOT_FOUND", "Account not found", ErrAccountNotFound)
	}
	if !utils.IsTrue(account.IsActive) {
		return nil, NewBusinessError("ACCOUNT_INACTIVE", "Account is inactive", ErrAccountInactive)
	}

	if passwordErr != nil {
		log.Printf("login failed: account=%d meta=%s", account.ID, metadata)
		return nil, NewBusinessError("INCORRECT_PASSWORD", "Incorrect password", ErrIncorrectPassword)
	}

	accessToken, refreshToken, err := af.tokenService.GenerateTokens(account.ID, string(account.Role))
	if err != nil {
		return nil, NewBusinessError("TOKEN_GENERATION_FAILED", "Failed to generate tokens", err)
	}

	now := af.now()
	if err := af.accountRepo.UpdateLastLogin(ctx, account.ID, now); err != nil {
		log.Printf("failed to stamp last login: account=%d err=%v", account.ID, err)
	} else {
		account.LastLoginAt = &now
	}

	return &dto.LoginResponse{
		Account: ToAccountDTO(*account),
		Session: ToSessionDTO(accessToken, refreshToken),
	}, nil
}

// Refresh rotates a refresh token. The account must still be active.
func (af *AuthFlowImpl) Refresh(ctx context.Context, req *dto.RefreshRequest, metadata *ClientMetadata) (*dto.SessionDTO, error) {
	if req == nil || req.RefreshToken == "" {
		return nil, NewBusinessError("INVALID_REFRESH_TOKEN", "Refresh token is required", ErrInvalidRefreshToken)
	}

	claims, err := af.tokenService.ValidateToken(req.RefreshToken)
	if err != nil || claims.TokenType != services.TokenTypeRefresh {
		return nil, NewBusinessError("INVALID_REFRESH_TOKEN", "Invalid refresh token", ErrInvalidRefreshToken)
	}

	if _, err := getAccount(ctx, af.accountRepo, claims.AccountID); err != nil {
		return nil, err
	}

	accessToken, refreshToken, err := af.tokenService.RefreshToken(req.RefreshToken)
	if err != nil {
		return nil, NewBusinessError("INVALID_REFRESH_TOKEN", "Invalid refresh token", ErrInvalidRefreshToken)
	}

	session := ToSessionDTO(accessToken, refreshToken)
	return &session, nil
}

// Logout revokes the presented access token and, if given, the refresh token
func (af *AuthFlowImpl) Logout(ctx context.Context, accessToken string, req *dto.LogoutRequest) error {
	if err := af.tokenService.RevokeToken(accessToken); err != nil {
		return NewBusinessError("LOGOUT_FAILED", "Failed to revoke access token", err)
	}
	if req != nil && req.RefreshToken != "" {
		if err := af.tokenService.RevokeToken(req.RefreshToken); err != nil {
			return NewBusinessError("INVALID_REFRESH_TOKEN", "Invalid refresh token", ErrInvalidRefreshToken)
		}
	}
	return nil
}
