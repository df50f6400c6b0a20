package handlers

import (
	"log"

	"github.com/amirphl/dti-portal/app/dto"
	businessflow "github.com/amirphl/dti-portal/business_flow"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

type NotificationHandlerInterface interface {
	ListUnread(c fiber.Ctx) error
	MarkRead(c fiber.Ctx) error
}

type NotificationHandler struct {
	flow      businessflow.NotificationFlow
	validator *validator.Validate
}

func NewNotificationHandler(flow businessflow.NotificationFlow) *NotificationHandler {
	return &NotificationHandler{
		flow:      flow,
		validator: newValidator(),
	}
}

// ListUnread lists the authenticated account's unread notifications
// @Summary Unread notifications
// @Tags Notifications
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number (default 1)"
// @Param page_size query int false "Page size (default 20, max 100)"
// @Success 200 {object} dto.APIResponse{data=dto.ListNotificationsResponse} "Notifications retrieved"
// @Failure 400 {object} dto.APIResponse "Invalid pagination"
// @Router /api/v1/notifications [get]
func (h *NotificationHandler) ListUnread(c fiber.Ctx) error {
	accountID, ok := accountIDFromLocals(c)
	if !ok {
		return errorResponse(c, fiber.StatusUnauthorized, "Account ID not found in context", "MISSING_ACCOUNT_ID", nil)
	}

	var req dto.ListNotificationsRequest
	if err := c.Bind().Query(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid query parameters", "INVALID_REQUEST", err.Error())
	}
	if ok, err := validateRequest(c, h.validator, &req); !ok {
		return err
	}

	res, err := h.flow.UnreadNotifications(createRequestContext(c, "/api/v1/notifications"), accountID, &req)
	if err != nil {
		if businessflow.IsInvalidPagination(err) {
			return errorResponse(c, fiber.StatusBadRequest, err.Error(), "INVALID_PAGINATION", nil)
		}
		log.Println("List notifications failed", err)
		return errorResponse(c, fiber.StatusInternalServerError, "Failed to list notifications", "LIST_NOTIFICATIONS_FAILED", nil)
	}
	return successResponse(c, fiber.StatusOK, "Notifications retrieved", res)
}

// MarkRead marks one of the authenticated account's notifications as read
// @Summary Mark notification read
// @Tags Notifications
// @Produce json
// @Security BearerAuth
// @Param uuid path string true "Notification UUID"
// @Success 200 {object} dto.APIResponse{data=dto.NotificationDTO} "Notification marked read"
// @Failure 404 {object} dto.APIResponse "Notification not found"
// @Router /api/v1/notifications/{uuid}/read [post]
func (h *NotificationHandler) MarkRead(c fiber.Ctx) error {
	accountID, ok := accountIDFromLocals(c)
	if !ok {
		return errorResponse(c, fiber.StatusUnauthorized, "Account ID not found in context", "MISSING_ACCOUNT_ID", nil)
	}

	res, err := h.flow.MarkNotificationRead(createRequestContext(c, "/api/v1/notifications/:uuid/read"), accountID, c.Params("uuid"))
	if err != nil {
		if businessflow.IsNotificationNotFound(err) {
			return errorResponse(c, fiber.StatusNotFound, "Notification not found", "NOTIFICATION_NOT_FOUND", nil)
		}
		log.Println("Mark notification read failed", err)
		return errorResponse(c, fiber.StatusInternalServerError, "Failed to mark notification read", "MARK_READ_FAILED", nil)
	}
	return successResponse(c, fiber.StatusOK, "Notification marked read", res)
}
