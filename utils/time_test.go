package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIsBefore(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

	assert.False(t, IsBefore(now, nil))
	assert.True(t, IsBefore(now, ToPtr(now.Add(time.Second))))
	assert.False(t, IsBefore(now, ToPtr(now)), "deadline itself is already expired")
	assert.False(t, IsBefore(now, ToPtr(now.Add(-time.Second))))
}

func TestIsEmpty(t *testing.T) {
	assert.True(t, IsEmpty(nil))
	assert.True(t, IsEmpty(ToPtr("")))
	assert.False(t, IsEmpty(ToPtr(" ")))
	assert.False(t, IsEmpty(ToPtr("Custom Office")))
}
