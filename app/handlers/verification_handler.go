package handlers

import (
	"log"

	"github.com/amirphl/dti-portal/app/dto"
	businessflow "github.com/amirphl/dti-portal/business_flow"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

type VerificationHandlerInterface interface {
	IssueCode(c fiber.Ctx) error
	VerifyCode(c fiber.Ctx) error
}

// VerificationHandler serves the one-time code endpoints of the signed in account
type VerificationHandler struct {
	flow      businessflow.VerificationFlow
	validator *validator.Validate
}

func NewVerificationHandler(flow businessflow.VerificationFlow) *VerificationHandler {
	return &VerificationHandler{
		flow:      flow,
		validator: newValidator(),
	}
}

// IssueCode sends a fresh verification code to the account
// @Summary Request verification code
// @Description Generate a new code, replacing any previous one, and deliver it by SMS or email
// @Tags Verification
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.IssueVerificationCodeRequest false "Delivery channel"
// @Success 200 {object} dto.APIResponse{data=dto.IssueVerificationCodeResponse} "Code sent"
// @Failure 400 {object} dto.APIResponse "Already verified or no delivery channel"
// @Failure 429 {object} dto.APIResponse "Requested too soon"
// @Failure 502 {object} dto.APIResponse "Delivery failed"
// @Router /api/v1/verification/code [post]
func (h *VerificationHandler) IssueCode(c fiber.Ctx) error {
	accountID, ok := accountIDFromLocals(c)
	if !ok {
		return errorResponse(c, fiber.StatusUnauthorized, "Account ID not found in context", "MISSING_ACCOUNT_ID", nil)
	}

	var req dto.IssueVerificationCodeRequest
	if len(c.Body()) > 0 {
		if err := c.Bind().JSON(&req); err != nil {
			return errorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
		}
	}
	if ok, err := validateRequest(c, h.validator, &req); !ok {
		return err
	}

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))
	result, err := h.flow.IssueCode(createRequestContext(c, "/api/v1/verification/code"), accountID, &req, metadata)
	if err != nil {
		switch {
		case businessflow.IsAccountNotFound(err):
			return errorResponse(c, fiber.StatusNotFound, "Account not found", "ACCOUNT_NOT_FOUND", nil)
		case businessflow.IsAccountInactive(err):
			return errorResponse(c, fiber.StatusForbidden, "Account is inactive", "ACCOUNT_INACTIVE", nil)
		case businessflow.IsAlreadyVerified(err):
			return errorResponse(c, fiber.StatusBadRequest, "Account is already verified", "ACCOUNT_ALREADY_VERIFIED", nil)
		case businessflow.IsNoDeliveryChannel(err):
			return errorResponse(c, fiber.StatusBadRequest, "No phone number or email to send the code to", "NO_DELIVERY_CHANNEL", nil)
		case businessflow.IsVerificationCooldown(err):
			return errorResponse(c, fiber.StatusTooManyRequests, "Please wait before requesting another code", "VERIFICATION_COOLDOWN", nil)
		}
		if be, ok := err.(*businessflow.BusinessError); ok && be.Code == "VERIFICATION_CODE_DELIVERY_FAILED" {
			log.Println("Verification code delivery failed", err)
			return errorResponse(c, fiber.StatusBadGateway, "Failed to deliver verification code", be.Code, nil)
		}

		log.Println("Issue verification code failed", err)
		return errorResponse(c, fiber.StatusInternalServerError, "Failed to issue verification code", "ISSUE_CODE_FAILED", nil)
	}

	return successResponse(c, fiber.StatusOK, result.Message, result)
}

// VerifyCode checks the submitted code and marks the account verified
// @Summary Verify account
// @Tags Verification
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.VerifyCodeRequest true "Verification code"
// @Success 200 {object} dto.APIResponse{data=dto.VerifyCodeResponse} "Account verified"
// @Failure 400 {object} dto.APIResponse "Invalid or expired code"
// @Failure 429 {object} dto.APIResponse "Too many attempts for the issued code"
// @Router /api/v1/verification/verify [post]
func (h *VerificationHandler) VerifyCode(c fiber.Ctx) error {
	accountID, ok := accountIDFromLocals(c)
	if !ok {
		return errorResponse(c, fiber.StatusUnauthorized, "Account ID not found in context", "MISSING_ACCOUNT_ID", nil)
	}

	var req dto.VerifyCodeRequest
	if err := c.Bind().JSON(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if ok, err := validateRequest(c, h.validator, &req); !ok {
		return err
	}

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))
	result, err := h.flow.VerifyCode(createRequestContext(c, "/api/v1/verification/verify"), accountID, &req, metadata)
	if err != nil {
		switch {
		case businessflow.IsAccountNotFound(err):
			return errorResponse(c, fiber.StatusNotFound, "Account not found", "ACCOUNT_NOT_FOUND", nil)
		case businessflow.IsAccountInactive(err):
			return errorResponse(c, fiber.StatusForbidden, "Account is inactive", "ACCOUNT_INACTIVE", nil)
		case businessflow.IsAlreadyVerified(err):
			return errorResponse(c, fiber.StatusBadRequest, "Account is already verified", "ACCOUNT_ALREADY_VERIFIED", nil)
		case businessflow.IsInvalidVerificationCode(err):
			return errorResponse(c, fiber.StatusBadRequest, "Invalid or expired verification code", "INVALID_VERIFICATION_CODE", nil)
		case businessflow.IsTooManyAttempts(err):
			return errorResponse(c, fiber.StatusTooManyRequests, "Too many attempts, request a new code", "TOO_MANY_VERIFICATION_ATTEMPTS", nil)
		}

		log.Println("Verify code failed", err)
		return errorResponse(c, fiber.StatusInternalServerError, "Verification failed", "VERIFICATION_FAILED", nil)
	}

	return successResponse(c, fiber.StatusOK, result.Message, result)
}
