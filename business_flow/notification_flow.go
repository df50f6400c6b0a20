// Package businessflow contains the core business logic and use cases for account workflows
package businessflow

import (
	"context"
	"strings"

	"github.com/amirphl/dti-portal/app/dto"
	"github.com/amirphl/dti-portal/models"
	"github.com/amirphl/dti-portal/repository"
	"github.com/amirphl/dti-portal/utils"
	"github.com/google/uuid"
)

// NotificationFlow manages in-portal notifications of an account
type NotificationFlow interface {
	// UnreadNotifications lists the account's unread notifications, newest first
	UnreadNotifications(ctx context.Context, accountID uint, req *dto.ListNotificationsRequest) (*dto.ListNotificationsResponse, error)
	MarkNotificationRead(ctx context.Context, accountID uint, notificationUUID string) (*dto.NotificationDTO, error)
	SendNotification(ctx context.Context, senderID, accountID uint, req *dto.SendNotificationRequest) (*dto.NotificationDTO, error)
}

// NotificationFlowImpl implements NotificationFlow
type NotificationFlowImpl struct {
	accountRepo      repository.AccountRepository
	notificationRepo repository.NotificationRepository
	now              utils.Clock
}

func NewNotificationFlow(accountRepo repository.AccountRepository, notificationRepo repository.NotificationRepository) NotificationFlow {
	return &NotificationFlowImpl{
		accountRepo:      accountRepo,
		notificationRepo: notificationRepo,
		now:              utils.UTCNow,
	}
}

func (nf *NotificationFlowImpl) UnreadNotifications(ctx context.Context, accountID uint, req *dto.ListNotificationsRequest) (*dto.ListNotificationsResponse, error) {
	page, pageSize := 0, 0
	if req != nil {
		page, pageSize = req.Page, req.PageSize
	}
	page, pageSize, err := normalizePage(page, pageSize)
	if err != nil {
		return nil, NewBusinessError("INVALID_PAGINATION", err.Error(), err)
	}

	total, err := nf.notificationRepo.CountUnread(ctx, accountID)
	if err != nil {
		return nil, NewBusinessError("NOTIFICATIONS_FETCH_FAILED", "Failed to count notifications", err)
	}

	items, err := nf.notificationRepo.ListUnread(ctx, accountID, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, NewBusinessError("NOTIFICATIONS_FETCH_FAILED", "Failed to list notifications", err)
	}

	out := make([]dto.NotificationDTO, 0, len(items))
	for _, n := range items {
		out = append(out, ToNotificationDTO(*n))
	}

	return &dto.ListNotificationsResponse{
		Items:      out,
		Pagination: paginationInfo(total, page, pageSize),
	}, nil
}

func (nf *NotificationFlowImpl) MarkNotificationRead(ctx context.Context, accountID uint, notificationUUID string) (*dto.NotificationDTO, error) {
	id, err := utils.ParseUUID(notificationUUID)
	if err != nil {
		return nil, NewBusinessError("NOTIFICATION_NOT_FOUND", "Notification not found", ErrNotificationNotFound)
	}

	n, err := nf.notificationRepo.ByUUID(ctx, id)
	if err != nil {
		return nil, NewBusinessError("NOTIFICATION_LOOKUP_FAILED", "Failed to lookup notification", err)
	}
	// another account's notification is reported as missing
	if n == nil || n.AccountID != accountID {
		return nil, NewBusinessError("NOTIFICATION_NOT_FOUND", "Notification not found", ErrNotificationNotFound)
	}

	if !n.IsRead {
		if err := nf.notificationRepo.MarkRead(ctx, n, nf.now()); err != nil {
			return nil, NewBusinessError("NOTIFICATION_UPDATE_FAILED", "Failed to mark notification read", err)
		}
	}

	out := ToNotificationDTO(*n)
	return &out, nil
}

func (nf *NotificationFlowImpl) SendNotification(ctx context.Context, senderID, accountID uint, req *dto.SendNotificationRequest) (*dto.NotificationDTO, error) {
	if req == nil || strings.TrimSpace(req.Title) == "" {
		return nil, NewBusinessError("NOTIFICATION_VALIDATION_FAILED", "Notification title is required", nil)
	}

	if err := requireManager(ctx, nf.accountRepo, senderID); err != nil {
		return nil, err
	}

	if _, err := getAccount(ctx, nf.accountRepo, accountID); err != nil {
		return nil, err
	}

	n := &models.Notification{
		UUID:      uuid.New(),
		AccountID: accountID,
		Title:     strings.TrimSpace(req.Title),
		Message:   req.Message,
		Link:      req.Link,
	}
	if err := nf.notificationRepo.Save(ctx, n); err != nil {
		return nil, NewBusinessError("NOTIFICATION_CREATE_FAILED", "Failed to create notification", err)
	}

	out := ToNotificationDTO(*n)
	return &out, nil
}

// requireManager fails unless accountID may manage other accounts
func requireManager(ctx context.Context, repo repository.AccountRepository, accountID uint) error {
	actor, err := getAccount(ctx, repo, accountID)
	if err != nil {
		return err
	}
	if !canManageAccounts(actor) {
		return NewBusinessError("ACCESS_DENIED", "Administrator privileges required", ErrAccessDenied)
	}
	return nil
}
