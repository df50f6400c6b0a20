package dto

import "io"

// UpdateProfileRequest holds the self-service editable fields. Nil means unchanged.
type UpdateProfileRequest struct {
	FirstName      *string `json:"first_name,omitempty" validate:"omitempty,max=150"`
	MiddleName     *string `json:"middle_name,omitempty" validate:"omitempty,max=150"`
	LastName       *string `json:"last_name,omitempty" validate:"omitempty,max=150"`
	Email          *string `json:"email,omitempty" validate:"omitempty,email,max=254"`
	DefaultAddress *string `json:"default_address,omitempty" validate:"omitempty,max=500"`
	DefaultPhone   *string `json:"default_phone,omitempty" validate:"omitempty,ph_mobile"`
	Birthday       *string `json:"birthday,omitempty" validate:"omitempty,datetime=2006-01-02" example:"1990-05-17"`
}

type ProfileResponse struct {
	Message string     `json:"message"`
	Account AccountDTO `json:"account"`
}

// UploadProfilePictureRequest is filled by the handler from a multipart form
type UploadProfilePictureRequest struct {
	AccountID        uint
	OriginalFilename string
	FileSize         int64
	File             io.Reader
}
