// Package businessflow contains the core business logic and use cases for account workflows
package businessflow

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/amirphl/dti-portal/app/dto"
	"github.com/amirphl/dti-portal/app/services"
	"github.com/amirphl/dti-portal/models"
	"github.com/amirphl/dti-portal/repository"
	"github.com/amirphl/dti-portal/utils"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
)

const (
	ChannelSMS   = "sms"
	ChannelEmail = "email"
)

var (
	verificationCodesIssued = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dti_portal",
			Name:      "verification_codes_issued_total",
			Help:      "Verification codes issued, partitioned by delivery channel",
		},
		[]string{"channel"},
	)

	verificationAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dti_portal",
			Name:      "verification_attempts_total",
			Help:      "Verification code checks, partitioned by result",
		},
		[]string{"result"},
	)
)

// VerificationFlow issues and checks one-time account verification codes
type VerificationFlow interface {
	// GenerateVerificationCode stores a fresh code on the account and returns it
	GenerateVerificationCode(ctx context.Context, account *models.Account) (string, error)
	IssueCode(ctx context.Context, accountID uint, req *dto.IssueVerificationCodeRequest, metadata *ClientMetadata) (*dto.IssueVerificationCodeResponse, error)
	VerifyCode(ctx context.Context, accountID uint, req *dto.VerifyCodeRequest, metadata *ClientMetadata) (*dto.VerifyCodeResponse, error)
}

// VerificationFlowImpl implements VerificationFlow
type VerificationFlowImpl struct {
	accountRepo     repository.AccountRepository
	notificationSvc services.NotificationService
	rc              *redis.Client
	cachePrefix     string
	cooldown        time.Duration
	now             utils.Clock
}

// NewVerificationFlow creates a new verification flow. rc may be nil, in which case resends are not rate limited.
func NewVerificationFlow(
	accountRepo repository.AccountRepository,
	notificationSvc services.NotificationService,
	rc *redis.Client,
	cachePrefix string,
	cooldown time.Duration,
) *VerificationFlowImpl {
	return &VerificationFlowImpl{
		accountRepo:     accountRepo,
		notificationSvc: notificationSvc,
		rc:              rc,
		cachePrefix:     cachePrefix,
		cooldown:        cooldown,
		now:             utils.UTCNow,
	}
}

// WithClock replaces the time source
func (vf *VerificationFlowImpl) WithClock(clock utils.Clock) *VerificationFlowImpl {
	vf.now = clock
	return vf
}

func (vf *VerificationFlowImpl) GenerateVerificationCode(ctx context.Context, account *models.Account) (string, error) {
	code, err := GenerateOTPCode()
	if err != nil {
		return "", err
	}

	account.SetVerificationCode(code, vf.now())
	if err := vf.accountRepo.UpdateVerificationCode(ctx, account); err != nil {
		return "", err
	}
	if err := vf.accountRepo.ResetVerificationAttempts(ctx, account.ID); err != nil {
		return "", err
	}

	return code, nil
}

func (vf *VerificationFlowImpl) IssueCode(ctx context.Context, accountID uint, req *dto.IssueVerificationCodeRequest, metadata *ClientMetadata) (*dto.IssueVerificationCodeResponse, error) {
	account, err := getAccount(ctx, vf.accountRepo, accountID)
	if err != nil {
		return nil, err
	}

	if utils.IsTrue(account.IsVerified) {
		return nil, NewBusinessError("ALREADY_VERIFIED", "Account is already verified", ErrAlreadyVerified)
	}

	channel := ""
	if req != nil {
		channel = req.Channel
	}
	channel, destination, err := pickChannel(account, channel)
	if err != nil {
		return nil, NewBusinessError("NO_DELIVERY_CHANNEL", "No delivery channel available", err)
	}

	if err := vf.acquireCooldown(ctx, account.ID); err != nil {
		return nil, err
	}

	code, err := vf.GenerateVerificationCode(ctx, account)
	if err != nil {
		return nil, NewBusinessError("VERIFICATION_CODE_ISSUE_FAILED", "Failed to issue verification code", err)
	}

	message := fmt.Sprintf("Your DTI portal verification code is %s. It expires in %d minutes.", code, int(utils.VerificationCodeTTL.Minutes()))
	switch channel {
	case ChannelSMS:
		err = vf.notificationSvc.SendSMS(ctx, destination, message)
	case ChannelEmail:
		err = vf.notificationSvc.SendEmail(ctx, destination, "Your verification code", message)
	}
	if err != nil {
		// The code stays stored so a retry can resend it once the cooldown ends
		log.Printf("verification code delivery failed: account=%d channel=%s meta=%s err=%v", account.ID, channel, metadata, err)
		return nil, NewBusinessError("VERIFICATION_CODE_DELIVERY_FAILED", "Failed to deliver verification code", err)
	}

	verificationCodesIssued.WithLabelValues(channel).Inc()

	return &dto.IssueVerificationCodeResponse{
		Message:     "Verification code sent",
		Channel:     channel,
		Destination: maskDestination(destination),
		ExpiresAt:   *account.VerificationCodeExpirationDate,
	}, nil
}

func (vf *VerificationFlowImpl) VerifyCode(ctx context.Context, accountID uint, req *dto.VerifyCodeRequest, metadata *ClientMetadata) (*dto.VerifyCodeResponse, error) {
	if req == nil {
		return nil, NewBusinessError("VERIFICATION_FAILED", "Verification failed", ErrInvalidVerificationCode)
	}

	account, err := getAccount(ctx, vf.accountRepo, accountID)
	if err != nil {
		return nil, err
	}

	if utils.IsTrue(account.IsVerified) {
		return nil, NewBusinessError("ALREADY_VERIFIED", "Account is already verified", ErrAlreadyVerified)
	}

	// counted before comparing so concurrent guesses cannot exceed the limit
	attempts, err := vf.accountRepo.IncrementVerificationAttempts(ctx, account.ID)
	if err != nil {
		return nil, NewBusinessError("VERIFICATION_FAILED", "Failed to record verification attempt", err)
	}
	account.VerificationAttempts = attempts
	if attempts > utils.MaxVerificationAttempts {
		verificationAttempts.WithLabelValues("locked").Inc()
		log.Printf("verification locked: account=%d attempts=%d meta=%s", account.ID, attempts, metadata)
		return nil, NewBusinessError("TOO_MANY_VERIFICATION_ATTEMPTS", "Too many attempts, request a new code", ErrTooManyAttempts)
	}

	now := vf.now()
	if !account.IsVerificationCodeValidAt(req.Code, now) {
		verificationAttempts.WithLabelValues("invalid").Inc()
		return nil, NewBusinessError("INVALID_VERIFICATION_CODE", "Invalid or expired verification code", ErrInvalidVerificationCode)
	}

	account.MarkVerified(now)
	if err := vf.accountRepo.Update(ctx, account); err != nil {
		return nil, NewBusinessError("VERIFICATION_FAILED", "Failed to mark account verified", err)
	}
	verificationAttempts.WithLabelValues("valid").Inc()

	if vf.rc != nil {
		_ = vf.rc.Del(ctx, vf.cooldownKey(account.ID)).Err()
	}

	log.Printf("account verified: account=%d meta=%s", account.ID, metadata)

	return &dto.VerifyCodeResponse{
		Message:    "Account verified",
		VerifiedAt: now,
	}, nil
}

func (vf *VerificationFlowImpl) cooldownKey(accountID uint) string {
	return fmt.Sprintf("%s:verification:cooldown:%d", vf.cachePrefix, accountID)
}

// acquireCooldown fails when a code was issued to the account within the cooldown window.
// Cache errors do not block issuance.
func (vf *VerificationFlowImpl) acquireCooldown(ctx context.Context, accountID uint) error {
	if vf.rc == nil || vf.cooldown <= 0 {
		return nil
	}

	ok, err := vf.rc.SetNX(ctx, vf.cooldownKey(accountID), "1", vf.cooldown).Result()
	if err != nil {
		log.Printf("verification cooldown unavailable: account=%d err=%v", accountID, err)
		return nil
	}
	if !ok {
		return NewBusinessError("VERIFICATION_COOLDOWN", "Please wait before requesting another code", ErrVerificationCooldown)
	}
	return nil
}

// pickChannel resolves the requested channel against what the account can receive.
// An empty request prefers SMS to the default phone, then email.
func pickChannel(account *models.Account, requested string) (string, string, error) {
	phone := utils.Deref(account.DefaultPhone)
	hasPhone := services.IsValidMobile(phone)
	hasEmail := services.IsValidEmail(account.Email)

	switch requested {
	case ChannelSMS:
		if hasPhone {
			return ChannelSMS, phone, nil
		}
	case ChannelEmail:
		if hasEmail {
			return ChannelEmail, account.Email, nil
		}
	case "":
		if hasPhone {
			return ChannelSMS, phone, nil
		}
		if hasEmail {
			return ChannelEmail, account.Email, nil
		}
	}
	return "", "", ErrNoDeliveryChannel
}

func getAccount(ctx context.Context, repo repository.AccountRepository, accountID uint) (*models.Account, error) {
	account, err := repo.ByID(ctx, accountID)
	if err != nil {
		return nil, NewBusinessError("ACCOUNT_LOOKUP_FAILED", "Failed to lookup account", err)
	}
	if account == nil {
		return nil, NewBusinessError("ACCOUNT_NOT_FOUND", "Account not found", ErrAccountNotFound)
	}
	if !utils.IsTrue(account.IsActive) {
		return nil, NewBusinessError("ACCOUNT_INACTIVE", "Account is inactive", ErrAccountInactive)
	}
	return account, nil
}
