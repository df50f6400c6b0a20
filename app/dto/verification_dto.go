package dto

import "time"

// IssueVerificationCodeRequest selects the delivery channel for a new code
type IssueVerificationCodeRequest struct {
	Channel string `json:"channel" validate:"omitempty,oneof=sms email" example:"sms"`
}

// IssueVerificationCodeResponse reports where the code went, never the code itself
type IssueVerificationCodeResponse struct {
	Message     string    `json:"message" example:"Verification code sent"`
	Channel     string    `json:"channel" example:"sms"`
	Destination string    `json:"destination" example:"0917*****67"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// VerifyCodeRequest carries the code typed by the user
type VerifyCodeRequest struct {
	Code string `json:"code" validate:"required,len=6,numeric" example:"482913"`
}

type VerifyCodeResponse struct {
	Message    string    `json:"message" example:"Account verified"`
	VerifiedAt time.Time `json:"verified_at"`
}
