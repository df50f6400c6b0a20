package businessflow

import (
	"context"
	"fmt"
	"testing"

	"github.com/amirphl/dti-portal/app/dto"
	"github.com/amirphl/dti-portal/models"
	"github.com/amirphl/dti-portal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newNotificationFixture(t *testing.T) (*fakeAccountRepo, *fakeNotificationRepo, NotificationFlow) {
	t.Helper()
	accounts := newFakeAccountRepo(
		&models.Account{Username: "ana", IsActive: utils.ToPtr(true)},
		&models.Account{Username: "ben", IsActive: utils.ToPtr(true)},
		&models.Account{Username: "root", IsSuperuser: true, IsActive: utils.ToPtr(true)},
	)
	notifications := newFakeNotificationRepo()
	return accounts, notifications, NewNotificationFlow(accounts, notifications)
}

func TestUnreadNotifications(t *testing.T) {
	ctx := context.Background()
	_, notifications, flow := newNotificationFixture(t)

	for i := 1; i <= 3; i++ {
		require.NoError(t, notifications.Save(ctx, &models.Notification{AccountID: 1, Title: fmt.Sprintf("n%d", i)}))
	}
	require.NoError(t, notifications.Save(ctx, &models.Notification{AccountID: 2, Title: "other"}))
	read := &models.Notification{AccountID: 1, Title: "read", IsRead: true}
	require.NoError(t, notifications.Save(ctx, read))

	resp, err := flow.UnreadNotifications(ctx, 1, nil)
	require.NoError(t, err)
	require.Len(t, resp.Items, 3)
	assert.Equal(t, "n3", resp.Items[0].Title, "newest first")
	assert.Equal(t, int64(3), resp.Pagination.Total)

	resp, err = flow.UnreadNotifications(ctx, 1, &dto.ListNotificationsRequest{Page: 2, PageSize: 2})
	require.NoError(t, err)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, "n1", resp.Items[0].Title)
	assert.Equal(t, 2, resp.Pagination.TotalPages)

	_, err = flow.UnreadNotifications(ctx, 1, &dto.ListNotificationsRequest{PageSize: 500})
	assert.True(t, IsInvalidPagination(err))
}

func TestMarkNotificationRead(t *testing.T) {
	ctx := context.Background()
	_, notifications, flow := newNotificationFixture(t)

	n := &models.Notification{AccountID: 1, Title: "hello"}
	require.NoError(t, notifications.Save(ctx, n))

	_, err := flow.MarkNotificationRead(ctx, 2, n.UUID.String())
	assert.True(t, IsNotificationNotFound(err), "other accounts cannot read it")

	_, err = flow.MarkNotificationRead(ctx, 1, "not-a-uuid")
	assert.True(t, IsNotificationNotFound(err))

	out, err := flow.MarkNotificationRead(ctx, 1, n.UUID.String())
	require.NoError(t, err)
	assert.True(t, out.IsRead)
	require.NotNil(t, out.ReadAt)

	unread, err := notifications.CountUnread(ctx, 1)
	require.NoError(t, err)
	assert.Zero(t, unread)

	// idempotent
	again, err := flow.MarkNotificationRead(ctx, 1, n.UUID.String())
	require.NoError(t, err)
	assert.Equal(t, out.ReadAt, again.ReadAt)
}

func TestSendNotification(t *testing.T) {
	ctx := context.Background()
	_, notifications, flow := newNotificationFixture(t)

	_, err := flow.SendNotification(ctx, 2, 1, &dto.SendNotificationRequest{Title: "hi", Message: "x"})
	assert.True(t, IsAccessDenied(err))

	out, err := flow.SendNotification(ctx, 3, 1, &dto.SendNotificationRequest{Title: " Permit approved ", Message: "Your permit is ready."})
	require.NoError(t, err)
	assert.Equal(t, "Permit approved", out.Title)

	unread, err := notifications.CountUnread(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), unread)

	_, err = flow.SendNotification(ctx, 3, 99, &dto.SendNotificationRequest{Title: "hi"})
	assert.True(t, IsAccountNotFound(err))
}
