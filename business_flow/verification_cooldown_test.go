package businessflow

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/amirphl/dti-portal/app/dto"
	"github.com/amirphl/dti-portal/app/services"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueCodeCooldownFailsOpen(t *testing.T) {
	// nothing listens on port 1, every cache call errors
	rc := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer rc.Close()

	repo := newFakeAccountRepo(unverifiedAccount())
	sms := services.NewMockSMSProvider()
	notifier := services.NewNotificationService(sms, services.NewMockEmailProvider())
	now := fixedNow
	flow := NewVerificationFlow(repo, notifier, rc, "test", time.Minute).WithClock(fixedClock(&now))

	_, err := flow.IssueCode(context.Background(), 1, nil, nil)
	require.NoError(t, err)
	_, err = flow.IssueCode(context.Background(), 1, nil, nil)
	require.NoError(t, err)
	assert.Len(t, sms.Messages(), 2)
}

func TestIssueCodeCooldownWithRedis(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}

	rc := redis.NewClient(&redis.Options{Addr: addr})
	defer rc.Close()
	ctx := context.Background()
	require.NoError(t, rc.Ping(ctx).Err())

	prefix := fmt.Sprintf("test%d", time.Now().UnixNano())
	repo := newFakeAccountRepo(unverifiedAccount())
	notifier := services.NewNotificationService(services.NewMockSMSProvider(), services.NewMockEmailProvider())
	now := fixedNow
	flow := NewVerificationFlow(repo, notifier, rc, prefix, time.Minute).WithClock(fixedClock(&now))
	t.Cleanup(func() { rc.Del(context.Background(), flow.cooldownKey(1)) })

	_, err := flow.IssueCode(ctx, 1, nil, nil)
	require.NoError(t, err)

	_, err = flow.IssueCode(ctx, 1, nil, nil)
	require.Error(t, err)
	assert.True(t, IsVerificationCooldown(err))

	ttl, err := rc.TTL(ctx, flow.cooldownKey(1)).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))
	assert.LessOrEqual(t, ttl, time.Minute)

	// a successful verification lifts the cooldown
	code := *repo.stored(1).VerificationCode
	_, err = flow.VerifyCode(ctx, 1, &dto.VerifyCodeRequest{Code: code}, nil)
	require.NoError(t, err)

	exists, err := rc.Exists(ctx, flow.cooldownKey(1)).Result()
	require.NoError(t, err)
	assert.Equal(t, int64(0), exists)
}
