package handlers

import (
	"log"
	"strconv"

	"github.com/amirphl/dti-portal/app/dto"
	businessflow "github.com/amirphl/dti-portal/business_flow"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

type ProfileHandlerInterface interface {
	GetOwnProfile(c fiber.Ctx) error
	GetProfile(c fiber.Ctx) error
	UpdateProfile(c fiber.Ctx) error
	UploadProfilePicture(c fiber.Ctx) error
}

type ProfileHandler struct {
	flow      businessflow.ProfileFlow
	validator *validator.Validate
}

func NewProfileHandler(flow businessflow.ProfileFlow) *ProfileHandler {
	return &ProfileHandler{
		flow:      flow,
		validator: newValidator(),
	}
}

// GetOwnProfile returns the authenticated account's profile
// @Summary Get own profile
// @Tags Profile
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.ProfileResponse} "Profile retrieved successfully"
// @Failure 401 {object} dto.APIResponse "Unauthorized"
// @Router /api/v1/profile [get]
func (h *ProfileHandler) GetOwnProfile(c fiber.Ctx) error {
	accountID, ok := accountIDFromLocals(c)
	if !ok {
		return errorResponse(c, fiber.StatusUnauthorized, "Account ID not found in context", "MISSING_ACCOUNT_ID", nil)
	}
	return h.profile(c, accountID, accountID, "/api/v1/profile")
}

// GetProfile returns the profile at the account's absolute URL
// @Summary Get profile by id
// @Description Owners see their own profile; staff, superusers and admins see any profile
// @Tags Profile
// @Produce json
// @Security BearerAuth
// @Param id path int true "Account ID"
// @Success 200 {object} dto.APIResponse{data=dto.ProfileResponse} "Profile retrieved successfully"
// @Failure 403 {object} dto.APIResponse "Not allowed"
// @Failure 404 {object} dto.APIResponse "Account not found"
// @Router /api/v1/profile/{id} [get]
func (h *ProfileHandler) GetProfile(c fiber.Ctx) error {
	viewerID, ok := accountIDFromLocals(c)
	if !ok {
		return errorResponse(c, fiber.StatusUnauthorized, "Account ID not found in context", "MISSING_ACCOUNT_ID", nil)
	}
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil || id == 0 {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid account id", "INVALID_ACCOUNT_ID", nil)
	}
	return h.profile(c, viewerID, uint(id), "/api/v1/profile/:id")
}

func (h *ProfileHandler) profile(c fiber.Ctx, viewerID, accountID uint, endpoint string) error {
	res, err := h.flow.Profile(createRequestContext(c, endpoint), viewerID, accountID)
	if err != nil {
		switch {
		case businessflow.IsAccessDenied(err):
			return errorResponse(c, fiber.StatusForbidden, "Not allowed to view this profile", "ACCESS_DENIED", nil)
		case businessflow.IsAccountNotFound(err):
			return errorResponse(c, fiber.StatusNotFound, "Account not found", "ACCOUNT_NOT_FOUND", nil)
		case businessflow.IsAccountInactive(err):
			return errorResponse(c, fiber.StatusForbidden, "Account is inactive", "ACCOUNT_INACTIVE", nil)
		}
		log.Println("Get profile failed", err)
		return errorResponse(c, fiber.StatusInternalServerError, "Failed to get profile", "GET_PROFILE_FAILED", nil)
	}
	return successResponse(c, fiber.StatusOK, res.Message, res.Account)
}

// UpdateProfile changes the authenticated account's own profile fields
// @Summary Update own profile
// @Tags Profile
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.UpdateProfileRequest true "Fields to change"
// @Success 200 {object} dto.APIResponse{data=dto.ProfileResponse} "Profile updated successfully"
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 409 {object} dto.APIResponse "Email already exists"
// @Router /api/v1/profile [put]
func (h *ProfileHandler) UpdateProfile(c fiber.Ctx) error {
	accountID, ok := accountIDFromLocals(c)
	if !ok {
		return errorResponse(c, fiber.StatusUnauthorized, "Account ID not found in context", "MISSING_ACCOUNT_ID", nil)
	}

	var req dto.UpdateProfileRequest
	if err := c.Bind().JSON(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if ok, err := validateRequest(c, h.validator, &req); !ok {
		return err
	}

	res, err := h.flow.UpdateProfile(createRequestContext(c, "/api/v1/profile"), accountID, &req)
	if err != nil {
		switch {
		case businessflow.IsEmailAlreadyExists(err):
			return errorResponse(c, fiber.StatusConflict, "Email already exists", "EMAIL_EXISTS", nil)
		case businessflow.IsAccountNotFound(err):
			return errorResponse(c, fiber.StatusNotFound, "Account not found", "ACCOUNT_NOT_FOUND", nil)
		case businessflow.IsAccountInactive(err):
			return errorResponse(c, fiber.StatusForbidden, "Account is inactive", "ACCOUNT_INACTIVE", nil)
		}
		log.Println("Update profile failed", err)
		return errorResponse(c, fiber.StatusInternalServerError, "Failed to update profile", "UPDATE_PROFILE_FAILED", nil)
	}
	return successResponse(c, fiber.StatusOK, res.Message, res.Account)
}

// UploadProfilePicture replaces the authenticated account's picture
// @Summary Upload profile picture
// @Description Upload a jpg/jpeg/png/gif/webp image (<=5MB). It is stored as a JPEG no larger than 512px.
// @Tags Profile
// @Accept mpfd
// @Produce json
// @Security BearerAuth
// @Param file formData file true "Image file (<=5MB)"
// @Success 200 {object} dto.APIResponse{data=dto.ProfileResponse} "Profile picture updated"
// @Failure 400 {object} dto.APIResponse "Invalid file"
// @Router /api/v1/profile/picture [post]
func (h *ProfileHandler) UploadProfilePicture(c fiber.Ctx) error {
	accountID, ok := accountIDFromLocals(c)
	if !ok {
		return errorResponse(c, fiber.StatusUnauthorized, "Account ID not found in context", "MISSING_ACCOUNT_ID", nil)
	}

	fileHeader, err := c.FormFile("file")
	if err != nil || fileHeader == nil {
		return errorResponse(c, fiber.StatusBadRequest, "file is required", "INVALID_FILE", nil)
	}
	file, err := fileHeader.Open()
	if err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "invalid file", "INVALID_FILE", err.Error())
	}
	defer file.Close()

	req := dto.UploadProfilePictureRequest{
		AccountID:        accountID,
		OriginalFilename: fileHeader.Filename,
		FileSize:         fileHeader.Size,
		File:             file,
	}

	res, err := h.flow.UploadProfilePicture(createRequestContext(c, "/api/v1/profile/picture"), &req)
	if err != nil {
		switch {
		case businessflow.IsImageTooLarge(err):
			return errorResponse(c, fiber.StatusBadRequest, "File too large", "FILE_TOO_LARGE", nil)
		case businessflow.IsInvalidImage(err):
			return errorResponse(c, fiber.StatusBadRequest, "Invalid image", "INVALID_IMAGE", err.Error())
		case businessflow.IsAccountNotFound(err), businessflow.IsAccountInactive(err):
			return errorResponse(c, fiber.StatusUnauthorized, "Account not found or inactive", "ACCOUNT_UNAVAILABLE", nil)
		}
		log.Println("Upload profile picture failed", err)
		return errorResponse(c, fiber.StatusInternalServerError, "Failed to upload profile picture", "UPLOAD_FAILED", nil)
	}
	return successResponse(c, fiber.StatusOK, res.Message, res.Account)
}
