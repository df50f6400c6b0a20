package handlers

import (
	"log"
	"strconv"
	"time"

	"github.com/amirphl/dti-portal/app/dto"
	businessflow "github.com/amirphl/dti-portal/business_flow"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

type AdminHandlerInterface interface {
	ListAccounts(c fiber.Ctx) error
	UpdateAccount(c fiber.Ctx) error
	ExportAccounts(c fiber.Ctx) error
	SendNotification(c fiber.Ctx) error
}

// AdminHandler serves account administration for staff, superusers and admins
type AdminHandler struct {
	accountFlow      businessflow.AdminAccountFlow
	notificationFlow businessflow.NotificationFlow
	validator        *validator.Validate
}

func NewAdminHandler(accountFlow businessflow.AdminAccountFlow, notificationFlow businessflow.NotificationFlow) *AdminHandler {
	return &AdminHandler{
		accountFlow:      accountFlow,
		notificationFlow: notificationFlow,
		validator:        newValidator(),
	}
}

// ListAccounts pages through accounts
// @Summary Admin list accounts
// @Tags Admin Accounts
// @Produce json
// @Security BearerAuth
// @Param role query string false "Role filter" Enums(business_owner, admin, collection_agent)
// @Param is_verified query bool false "Verification filter"
// @Param is_active query bool false "Active filter"
// @Param page query int false "Page number (default 1)"
// @Param page_size query int false "Page size (default 20, max 100)"
// @Success 200 {object} dto.APIResponse{data=dto.AdminListAccountsResponse} "Accounts retrieved"
// @Failure 403 {object} dto.APIResponse "Administrator privileges required"
// @Router /api/v1/admin/accounts [get]
func (h *AdminHandler) ListAccounts(c fiber.Ctx) error {
	adminID, ok := accountIDFromLocals(c)
	if !ok {
		return errorResponse(c, fiber.StatusUnauthorized, "Account ID not found in context", "MISSING_ACCOUNT_ID", nil)
	}

	var req dto.AdminListAccountsRequest
	if err := c.Bind().Query(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid query parameters", "INVALID_REQUEST", err.Error())
	}
	if ok, err := validateRequest(c, h.validator, &req); !ok {
		return err
	}

	res, err := h.accountFlow.ListAccounts(createRequestContext(c, "/api/v1/admin/accounts"), adminID, &req)
	if err != nil {
		return h.handleError(c, err, "LIST_ACCOUNTS_FAILED", "Failed to list accounts")
	}
	return successResponse(c, fiber.StatusOK, "Accounts retrieved", res)
}

// UpdateAccount changes role, privilege flags and agent fields of an account
// @Summary Admin update account
// @Tags Admin Accounts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Account ID"
// @Param request body dto.AdminUpdateAccountRequest true "Fields to change"
// @Success 200 {object} dto.APIResponse{data=dto.AccountDTO} "Account updated"
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 403 {object} dto.APIResponse "Administrator privileges required"
// @Failure 404 {object} dto.APIResponse "Account not found"
// @Failure 409 {object} dto.APIResponse "Superuser role locked"
// @Router /api/v1/admin/accounts/{id} [put]
func (h *AdminHandler) UpdateAccount(c fiber.Ctx) error {
	adminID, ok := accountIDFromLocals(c)
	if !ok {
		return errorResponse(c, fiber.StatusUnauthorized, "Account ID not found in context", "MISSING_ACCOUNT_ID", nil)
	}
	accountID, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil || accountID == 0 {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid account id", "INVALID_ACCOUNT_ID", nil)
	}

	var req dto.AdminUpdateAccountRequest
	if err := c.Bind().JSON(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if ok, err := validateRequest(c, h.validator, &req); !ok {
		return err
	}

	res, err := h.accountFlow.UpdateAccount(createRequestContext(c, "/api/v1/admin/accounts/:id"), adminID, uint(accountID), &req)
	if err != nil {
		return h.handleError(c, err, "UPDATE_ACCOUNT_FAILED", "Failed to update account")
	}
	return successResponse(c, fiber.StatusOK, "Account updated", res)
}

// ExportAccounts downloads the filtered accounts as an Excel workbook
// @Summary Admin export accounts
// @Tags Admin Accounts
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security BearerAuth
// @Param role query string false "Role filter" Enums(business_owner, admin, collection_agent)
// @Param is_verified query bool false "Verification filter"
// @Success 200 {file} file "XLSX file"
// @Failure 403 {object} dto.APIResponse "Administrator privileges required"
// @Router /api/v1/admin/accounts/export [get]
func (h *AdminHandler) ExportAccounts(c fiber.Ctx) error {
	adminID, ok := accountIDFromLocals(c)
	if !ok {
		return errorResponse(c, fiber.StatusUnauthorized, "Account ID not found in context", "MISSING_ACCOUNT_ID", nil)
	}

	var req dto.AdminListAccountsRequest
	if err := c.Bind().Query(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid query parameters", "INVALID_REQUEST", err.Error())
	}
	if ok, err := validateRequest(c, h.validator, &req); !ok {
		return err
	}

	ctx := createRequestContextWithTimeout(c, "/api/v1/admin/accounts/export", 2*time.Minute)
	filename, data, err := h.accountFlow.ExportAccounts(ctx, adminID, &req)
	if err != nil {
		return h.handleError(c, err, "EXPORT_FAILED", "Failed to export accounts")
	}

	c.Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set("Content-Disposition", "attachment; filename="+filename)
	return c.Send(data)
}

// SendNotification creates an in-portal notification for an account
// @Summary Admin notify account
// @Tags Admin Accounts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Account ID"
// @Param request body dto.SendNotificationRequest true "Notification"
// @Success 201 {object} dto.APIResponse{data=dto.NotificationDTO} "Notification sent"
// @Failure 403 {object} dto.APIResponse "Administrator privileges required"
// @Failure 404 {object} dto.APIResponse "Account not found"
// @Router /api/v1/admin/accounts/{id}/notifications [post]
func (h *AdminHandler) SendNotification(c fiber.Ctx) error {
	adminID, ok := accountIDFromLocals(c)
	if !ok {
		return errorResponse(c, fiber.StatusUnauthorized, "Account ID not found in context", "MISSING_ACCOUNT_ID", nil)
	}
	accountID, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil || accountID == 0 {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid account id", "INVALID_ACCOUNT_ID", nil)
	}

	var req dto.SendNotificationRequest
	if err := c.Bind().JSON(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if ok, err := validateRequest(c, h.validator, &req); !ok {
		return err
	}

	res, err := h.notificationFlow.SendNotification(createRequestContext(c, "/api/v1/admin/accounts/:id/notifications"), adminID, uint(accountID), &req)
	if err != nil {
		return h.handleError(c, err, "SEND_NOTIFICATION_FAILED", "Failed to send notification")
	}
	return successResponse(c, fiber.StatusCreated, "Notification sent", res)
}

func (h *AdminHandler) handleError(c fiber.Ctx, err error, fallbackCode, fallbackMessage string) error {
	switch {
	case businessflow.IsAccessDenied(err):
		return errorResponse(c, fiber.StatusForbidden, "Administrator privileges required", "ACCESS_DENIED", nil)
	case businessflow.IsAccountNotFound(err):
		return errorResponse(c, fiber.StatusNotFound, "Account not found", "ACCOUNT_NOT_FOUND", nil)
	case businessflow.IsAccountInactive(err):
		return errorResponse(c, fiber.StatusForbidden, "Account is inactive", "ACCOUNT_INACTIVE", nil)
	case businessflow.IsInvalidRole(err):
		return errorResponse(c, fiber.StatusBadRequest, "Invalid role", "INVALID_ROLE", nil)
	case businessflow.IsSuperuserCannotBeDemoted(err):
		return errorResponse(c, fiber.StatusConflict, "A superuser is always an admin. Clear is_superuser to change the role.", "SUPERUSER_ROLE_LOCKED", nil)
	case businessflow.IsInvalidPagination(err):
		return errorResponse(c, fiber.StatusBadRequest, err.Error(), "INVALID_PAGINATION", nil)
	}
	if be, ok := err.(*businessflow.BusinessError); ok && be.Err == nil {
		return errorResponse(c, fiber.StatusBadRequest, be.Message, be.Code, nil)
	}

	log.Println(fallbackMessage, err)
	return errorResponse(c, fiber.StatusInternalServerError, fallbackMessage, fallbackCode, nil)
}
