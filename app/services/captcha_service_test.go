package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryChallengeStore(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	store := NewMemoryChallengeStore()
	store.now = func() time.Time { return now }

	require.NoError(t, store.Put(ctx, "a", 120, time.Minute))

	angle, ok, err := store.Take(ctx, "a")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 120, angle)

	// consumed
	_, ok, err = store.Take(ctx, "a")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Put(ctx, "b", 45, time.Minute))
	now = now.Add(time.Minute)
	_, ok, err = store.Take(ctx, "b")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCaptchaServiceRotate(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryChallengeStore()
	svc := NewCaptchaServiceRotate(store, time.Minute, 5, 220)

	ch, err := svc.GenerateRotate(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, ch.ID)
	assert.NotEmpty(t, ch.MasterImageBase64)
	assert.NotEmpty(t, ch.ThumbImageBase64)

	store.mu.Lock()
	target := store.m[ch.ID].angle
	store.mu.Unlock()

	assert.True(t, svc.VerifyRotate(ctx, ch.ID, float64(target)))
	// a challenge can only be answered once
	assert.False(t, svc.VerifyRotate(ctx, ch.ID, float64(target)))
	assert.False(t, svc.VerifyRotate(ctx, "unknown", 0))
}
